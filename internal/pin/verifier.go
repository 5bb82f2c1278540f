package pin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxAttempts     = 3
	lockoutDuration = 30 * time.Second
)

var (
	// ErrInvalidFormat is returned before any store lookup and never
	// counts toward the lockout.
	ErrInvalidFormat = errors.New("pin must be exactly 4 digits")
	// ErrNoPIN means the profile has no PIN configured.
	ErrNoPIN = errors.New("no pin set for this profile")
	// ErrMismatch is a wrong PIN; it counts toward the lockout.
	ErrMismatch = errors.New("incorrect pin")
	// ErrUnavailable is a backend failure; it does NOT count toward
	// the lockout so transient errors never penalize the user.
	ErrUnavailable = errors.New("verification temporarily unavailable")
)

// LockedError is returned while a slot is locked out.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many attempts, try again in %d seconds", int(e.Remaining.Seconds()+0.5))
}

// HashStore looks up the stored PIN hash for a gender slot.
type HashStore interface {
	GetPINHash(coupleID int64, gender string) (string, error)
}

type slotKey struct {
	coupleID int64
	gender   string
}

type slotState struct {
	attempts    int
	lockedUntil time.Time
}

// Verifier checks 4-digit PINs against the couple store and enforces a
// 30-second lockout after 3 consecutive mismatches per (couple, gender)
// slot. Attempt state is in-memory only: its lifecycle is the verifier
// instance, and Reset models re-entering the PIN screen.
type Verifier struct {
	mu    sync.Mutex
	store HashStore
	slots map[slotKey]*slotState
	now   func() time.Time
}

func NewVerifier(store HashStore) *Verifier {
	return &Verifier{
		store: store,
		slots: make(map[slotKey]*slotState),
		now:   time.Now,
	}
}

// Verify confirms the entered code against the stored PIN.
// The state machine per slot is:
// Idle -> Verifying -> {Success | Mismatch -> Idle | Locked(30s) -> Idle}.
func (v *Verifier) Verify(coupleID int64, gender, code string) error {
	if !isFourDigits(code) {
		return ErrInvalidFormat
	}

	key := slotKey{coupleID: coupleID, gender: gender}

	v.mu.Lock()
	state := v.slots[key]
	if state != nil && !state.lockedUntil.IsZero() {
		if remaining := state.lockedUntil.Sub(v.now()); remaining > 0 {
			v.mu.Unlock()
			return &LockedError{Remaining: remaining}
		}
		// Lockout expired: counter resets and input is accepted again.
		delete(v.slots, key)
		state = nil
	}
	v.mu.Unlock()

	hash, err := v.store.GetPINHash(coupleID, gender)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if hash == "" {
		return ErrNoPIN
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			// Corrupt hash or similar: a backend problem, not a wrong PIN.
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return v.recordMismatch(key)
	}

	v.mu.Lock()
	delete(v.slots, key)
	v.mu.Unlock()
	return nil
}

func (v *Verifier) recordMismatch(key slotKey) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := v.slots[key]
	if state == nil {
		state = &slotState{}
		v.slots[key] = state
	}
	state.attempts++
	if state.attempts >= maxAttempts {
		state.lockedUntil = v.now().Add(lockoutDuration)
		return &LockedError{Remaining: lockoutDuration}
	}
	return ErrMismatch
}

// Reset clears attempt state for a slot, matching the behavior of
// re-entering the PIN screen.
func (v *Verifier) Reset(coupleID int64, gender string) {
	v.mu.Lock()
	delete(v.slots, slotKey{coupleID: coupleID, gender: gender})
	v.mu.Unlock()
}

// Attempts returns the current consecutive mismatch count for a slot.
func (v *Verifier) Attempts(coupleID int64, gender string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	state := v.slots[slotKey{coupleID: coupleID, gender: gender}]
	if state == nil {
		return 0
	}
	return state.attempts
}

// LockedFor returns the remaining lockout for a slot, or 0 if unlocked.
func (v *Verifier) LockedFor(coupleID int64, gender string) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	state := v.slots[slotKey{coupleID: coupleID, gender: gender}]
	if state == nil || state.lockedUntil.IsZero() {
		return 0
	}
	remaining := state.lockedUntil.Sub(v.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ValidFormat reports whether s is a well-formed 4-digit PIN.
func ValidFormat(s string) bool {
	return isFourDigits(s)
}

func isFourDigits(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
