package token

import (
	"errors"
	"testing"
	"time"

	"github.com/aihub-vvit/aihub-server/internal/apperror"
)

// newTestService creates a Service with a fixed secret and a controllable
// clock. Move *now between Issue and Verify to test expiry boundaries.
func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	s, err := NewService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewService_ShortSecret(t *testing.T) {
	_, err := NewService("short")
	if err == nil {
		t.Fatal("NewService() should reject secrets shorter than 16 chars")
	}
}

// =========================================================================
// ROUND-TRIP TESTS
// =========================================================================

func TestIssueVerify_RoundTrip(t *testing.T) {
	s, _ := newTestService(t)

	for _, purpose := range []Purpose{PurposeVerify, PurposeReset} {
		tok, err := s.Issue("id-123", purpose)
		if err != nil {
			t.Fatalf("Issue(%s) error = %v", purpose, err)
		}

		got, err := s.Verify(tok, purpose)
		if err != nil {
			t.Fatalf("Verify(%s) error = %v", purpose, err)
		}
		if got != "id-123" {
			t.Errorf("Verify(%s) id = %q, want %q", purpose, got, "id-123")
		}
	}
}

func TestIssue_EmptyIdentityID(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.Issue("", PurposeVerify); err == nil {
		t.Fatal("Issue() should reject an empty identity id")
	}
}

// =========================================================================
// EXPIRY BOUNDARY TESTS
// =========================================================================

func TestVerify_VerificationTokenBoundary(t *testing.T) {
	s, now := newTestService(t)
	issued := *now

	tok, err := s.Issue("id-123", PurposeVerify)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Still valid one minute before the 24h mark
	*now = issued.Add(24*time.Hour - time.Minute)
	if _, err := s.Verify(tok, PurposeVerify); err != nil {
		t.Errorf("Verify() at T+23h59m error = %v, want nil", err)
	}

	// Rejected one minute after the 24h mark
	*now = issued.Add(24*time.Hour + time.Minute)
	if _, err := s.Verify(tok, PurposeVerify); err == nil {
		t.Error("Verify() at T+24h1m should fail")
	}
}

func TestVerify_ResetTokenBoundary(t *testing.T) {
	s, now := newTestService(t)
	issued := *now

	tok, err := s.Issue("id-123", PurposeReset)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	*now = issued.Add(59 * time.Minute)
	if _, err := s.Verify(tok, PurposeReset); err != nil {
		t.Errorf("Verify() at T+59m error = %v, want nil", err)
	}

	*now = issued.Add(61 * time.Minute)
	if _, err := s.Verify(tok, PurposeReset); err == nil {
		t.Error("Verify() at T+61m should fail")
	}
}

// =========================================================================
// FAILURE MODE TESTS
// =========================================================================

func TestVerify_WrongPurpose(t *testing.T) {
	s, _ := newTestService(t)

	tok, _ := s.Issue("id-123", PurposeReset)
	if _, err := s.Verify(tok, PurposeVerify); err == nil {
		t.Fatal("Verify() should reject a reset token presented as a verification token")
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	s, _ := newTestService(t)

	tok, _ := s.Issue("id-123", PurposeVerify)
	tampered := tok[:len(tok)-3] + "xxx"

	if _, err := s.Verify(tampered, PurposeVerify); err == nil {
		t.Fatal("Verify() should reject a tampered token")
	}
}

func TestVerify_GarbageAndEmpty(t *testing.T) {
	s, _ := newTestService(t)

	for _, bad := range []string{"", "not.a.jwt", "a.b.c.d"} {
		if _, err := s.Verify(bad, PurposeVerify); err == nil {
			t.Errorf("Verify(%q) should fail", bad)
		}
	}
}

func TestVerify_FailuresAreIndistinguishable(t *testing.T) {
	s, now := newTestService(t)

	expired, _ := s.Issue("id-123", PurposeReset)
	*now = now.Add(2 * time.Hour)

	tampered, _ := s.Issue("id-123", PurposeReset)
	tampered = tampered[:len(tampered)-3] + "xxx"

	// Both failure modes must surface the same sentinel and message.
	_, errExpired := s.Verify(expired, PurposeReset)
	_, errTampered := s.Verify(tampered, PurposeReset)

	if !errors.Is(errExpired, apperror.ErrTokenInvalid) {
		t.Errorf("expired token error = %v, want ErrTokenInvalid", errExpired)
	}
	if !errors.Is(errTampered, apperror.ErrTokenInvalid) {
		t.Errorf("tampered token error = %v, want ErrTokenInvalid", errTampered)
	}
	if errExpired.Error() != errTampered.Error() {
		t.Errorf("failure messages differ: %q vs %q", errExpired, errTampered)
	}
}

// =========================================================================
// REPLAY BEHAVIOUR
// =========================================================================

func TestVerify_TokenReusableUntilExpiry(t *testing.T) {
	s, _ := newTestService(t)

	tok, _ := s.Issue("id-123", PurposeVerify)

	// No single-use invalidation: the same token verifies repeatedly.
	for i := 0; i < 3; i++ {
		if _, err := s.Verify(tok, PurposeVerify); err != nil {
			t.Fatalf("Verify() call %d error = %v", i+1, err)
		}
	}
}
