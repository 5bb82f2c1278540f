package push

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cradlehq/cradle/internal/model"
	"github.com/cradlehq/cradle/internal/store"
)

// Scheduler periodically checks for appointment reminders to send.
type Scheduler struct {
	mu           sync.RWMutex
	service      *Service
	push         *store.PushStore
	appointments *store.AppointmentStore
	interval     time.Duration
	cancel       context.CancelFunc
	done         chan struct{}
}

func NewScheduler(svc *Service, pushStore *store.PushStore, apptStore *store.AppointmentStore) *Scheduler {
	return &Scheduler{
		service:      svc,
		push:         pushStore,
		appointments: apptStore,
		interval:     60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// reminderGrace is how far back a tick looks for reminder moments it may
// have missed across a restart or a slow tick. WasSent deduplicates, so
// revisiting a window never double-sends.
const reminderGrace = 5 * time.Minute

func (s *Scheduler) tick() {
	now := time.Now().UTC()
	windowEnd := now.Add(60 * time.Second)

	appts, err := s.appointments.ListUpcomingWithReminders(now.Add(-reminderGrace), windowEnd)
	if err != nil {
		log.Printf("push scheduler: upcoming appointments: %v", err)
		return
	}

	for _, appt := range appts {
		s.sendAppointmentReminder(appt)
	}
}

func (s *Scheduler) sendAppointmentReminder(appt model.Appointment) {
	if appt.ReminderMinutes == nil {
		return
	}
	lead := *appt.ReminderMinutes
	refID := fmt.Sprintf("appointment-%d", appt.ID)

	sent, err := s.push.WasSent(appt.CoupleID, model.NotifTypeAppointmentReminder, refID, lead)
	if err != nil {
		log.Printf("push scheduler: check sent: %v", err)
		return
	}
	if sent {
		return
	}

	subs, err := s.push.ListByCouple(appt.CoupleID)
	if err != nil {
		log.Printf("push scheduler: list subs: %v", err)
		return
	}

	payload := Payload{
		Title: "Appointment Reminder",
		Body:  fmt.Sprintf("%s starts in %d minutes", appt.Title, lead),
		URL:   "/appointments",
		Tag:   fmt.Sprintf("appointment-%d", appt.ID),
	}

	for _, sub := range subs {
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				log.Printf("push scheduler: send reminder: %v", err)
			}
		}
	}

	// Recorded after the fan-out. A crash mid-send leaves the reminder
	// unrecorded, and the grace window picks it up on the next tick.
	s.push.RecordSent(appt.CoupleID, model.NotifTypeAppointmentReminder, refID, lead)
}

// truncatePreview caps a notification body at max runes, never splitting
// a multi-byte character.
func truncatePreview(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// SendMessageNotification notifies the partner's devices about a new
// chat message. Called from the message handler, not from the scheduler.
func (s *Scheduler) SendMessageNotification(coupleID, senderProfileID int64, preview string) {
	subs, err := s.push.ListByCouple(coupleID)
	if err != nil {
		log.Printf("push: message notification list subs: %v", err)
		return
	}

	payload := Payload{
		Title: "New Message",
		Body:  truncatePreview(preview, 80),
		URL:   "/messages",
		Tag:   "new-message",
	}

	for _, sub := range subs {
		if sub.ProfileID == senderProfileID {
			continue
		}
		if err := s.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				s.push.DeleteByEndpoint(sub.Endpoint)
			} else {
				log.Printf("push: send message notification: %v", err)
			}
		}
	}
}
