package pin

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	hashes map[string]string
	err    error
	calls  int
}

func (f *fakeStore) GetPINHash(coupleID int64, gender string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.hashes[gender], nil
}

func newTestVerifier(t *testing.T, pin string) (*Verifier, *fakeStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	store := &fakeStore{hashes: map[string]string{"female": string(hash)}}
	return NewVerifier(store), store
}

func TestVerifyCorrectPIN(t *testing.T) {
	v, _ := newTestVerifier(t, "4821")

	if err := v.Verify(1, "female", "4821"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got := v.Attempts(1, "female"); got != 0 {
		t.Errorf("attempts = %d, want 0", got)
	}
}

func TestVerifySuccessClearsAttempts(t *testing.T) {
	v, _ := newTestVerifier(t, "4821")

	v.Verify(1, "female", "0000")
	v.Verify(1, "female", "1111")
	if got := v.Attempts(1, "female"); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}

	if err := v.Verify(1, "female", "4821"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got := v.Attempts(1, "female"); got != 0 {
		t.Errorf("attempts after success = %d, want 0", got)
	}
}

func TestVerifyInvalidFormat(t *testing.T) {
	v, store := newTestVerifier(t, "4821")

	for _, code := range []string{"", "123", "12345", "12a4", "١٢٣٤"} {
		if err := v.Verify(1, "female", code); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidFormat", code, err)
		}
	}
	// Format failures never reach the store or count as attempts.
	if store.calls != 0 {
		t.Errorf("store calls = %d, want 0", store.calls)
	}
	if got := v.Attempts(1, "female"); got != 0 {
		t.Errorf("attempts = %d, want 0", got)
	}
}

func TestLockoutAfterThreeMismatches(t *testing.T) {
	v, _ := newTestVerifier(t, "4821")

	if err := v.Verify(1, "female", "0000"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("first mismatch = %v, want ErrMismatch", err)
	}
	if err := v.Verify(1, "female", "1111"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("second mismatch = %v, want ErrMismatch", err)
	}

	err := v.Verify(1, "female", "2222")
	var locked *LockedError
	if !errors.As(err, &locked) {
		t.Fatalf("third mismatch = %v, want LockedError", err)
	}
	if locked.Remaining != 30*time.Second {
		t.Errorf("remaining = %v, want 30s", locked.Remaining)
	}

	// Even the correct PIN is rejected while locked.
	if err := v.Verify(1, "female", "4821"); !errors.As(err, &locked) {
		t.Errorf("verify while locked = %v, want LockedError", err)
	}
}

func TestLockoutExpiryResetsAttempts(t *testing.T) {
	v, _ := newTestVerifier(t, "4821")

	now := time.Now()
	v.now = func() time.Time { return now }

	v.Verify(1, "female", "0000")
	v.Verify(1, "female", "1111")
	v.Verify(1, "female", "2222")

	if got := v.LockedFor(1, "female"); got != 30*time.Second {
		t.Fatalf("locked for %v, want 30s", got)
	}

	// Advance past the lockout window.
	now = now.Add(31 * time.Second)

	if got := v.LockedFor(1, "female"); got != 0 {
		t.Errorf("locked for %v after expiry, want 0", got)
	}
	if err := v.Verify(1, "female", "4821"); err != nil {
		t.Errorf("verify after expiry: %v", err)
	}
	if got := v.Attempts(1, "female"); got != 0 {
		t.Errorf("attempts after expiry = %d, want 0", got)
	}
}

func TestBackendErrorDoesNotCountAsAttempt(t *testing.T) {
	v, store := newTestVerifier(t, "4821")

	v.Verify(1, "female", "0000")
	v.Verify(1, "female", "1111")

	store.err = errors.New("connection refused")
	if err := v.Verify(1, "female", "2222"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("verify with store error = %v, want ErrUnavailable", err)
	}

	// Still two attempts: the backend failure did not push us into lockout.
	if got := v.Attempts(1, "female"); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
	if got := v.LockedFor(1, "female"); got != 0 {
		t.Errorf("locked for %v, want 0", got)
	}
}

func TestNoPINSet(t *testing.T) {
	store := &fakeStore{hashes: map[string]string{}}
	v := NewVerifier(store)

	if err := v.Verify(1, "female", "1234"); !errors.Is(err, ErrNoPIN) {
		t.Fatalf("verify = %v, want ErrNoPIN", err)
	}
	if got := v.Attempts(1, "female"); got != 0 {
		t.Errorf("attempts = %d, want 0", got)
	}
}

func TestResetClearsAttempts(t *testing.T) {
	v, _ := newTestVerifier(t, "4821")

	v.Verify(1, "female", "0000")
	v.Verify(1, "female", "1111")
	v.Reset(1, "female")

	if got := v.Attempts(1, "female"); got != 0 {
		t.Errorf("attempts after reset = %d, want 0", got)
	}
}

func TestSlotsAreIndependent(t *testing.T) {
	v, store := newTestVerifier(t, "4821")
	hash, _ := bcrypt.GenerateFromPassword([]byte("9999"), bcrypt.MinCost)
	store.hashes["male"] = string(hash)

	v.Verify(1, "female", "0000")
	v.Verify(1, "female", "1111")
	v.Verify(1, "female", "2222")

	// The male slot and other couples are unaffected by the lockout.
	if err := v.Verify(1, "male", "9999"); err != nil {
		t.Errorf("male slot verify: %v", err)
	}
	if got := v.LockedFor(2, "female"); got != 0 {
		t.Errorf("other couple locked for %v, want 0", got)
	}
}
