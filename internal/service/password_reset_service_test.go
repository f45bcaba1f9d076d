package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pmarinho/accounts-api/internal/domain"
	"github.com/pmarinho/accounts-api/internal/util"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := util.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	return hash
}

func newResetServiceForTests(users *memUserRepo, mailer *fakeMailer) *PasswordResetService {
	return NewPasswordResetService(users, mailer, time.Hour)
}

func TestRequestResetStoresCodeAndSendsMail(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	seeded := users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}

	svc := newResetServiceForTests(users, mailer)
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	if err := svc.RequestReset(ctx, " Alice@Example.com "); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	stored := users.get(seeded.ID)
	if !stored.HasPendingReset() {
		t.Fatal("expected reset code and expiry to be persisted together")
	}
	if !regexp.MustCompile(`^[0-9a-f]{6}$`).MatchString(*stored.ResetCode) {
		t.Fatalf("expected 6 lowercase hex characters, got %q", *stored.ResetCode)
	}
	if !stored.ResetCodeExpiresAt.Equal(issuedAt.Add(time.Hour)) {
		t.Fatalf("expected expiry one hour after issuance, got %v", stored.ResetCodeExpiresAt)
	}
	if mailer.lastResetCode() != *stored.ResetCode {
		t.Fatalf("mailed code %q does not match persisted code %q", mailer.lastResetCode(), *stored.ResetCode)
	}
	if mailer.resetSent[0].email != "alice@example.com" {
		t.Fatalf("expected mail to account email, got %q", mailer.resetSent[0].email)
	}
}

func TestRequestResetUnknownEmail(t *testing.T) {
	svc := newResetServiceForTests(newMemUserRepo(), &fakeMailer{})
	err := svc.RequestReset(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestResetDeliveryFailureKeepsCode(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	seeded := users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{resetErr: errors.New("smtp down")}

	svc := newResetServiceForTests(users, mailer)
	err := svc.RequestReset(ctx, "alice@example.com")
	if !errors.Is(err, domain.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}

	stored := users.get(seeded.ID)
	if stored.ResetCode == nil {
		t.Fatal("expected code to remain persisted after delivery failure")
	}

	// the persisted code is still redeemable
	if err := svc.ResetPassword(ctx, "alice@example.com", *stored.ResetCode, "NewPassw0rd!"); err != nil {
		t.Fatalf("expected persisted code to redeem, got %v", err)
	}
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	svc := newResetServiceForTests(users, mailer)

	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("first RequestReset returned error: %v", err)
	}
	first := mailer.lastResetCode()
	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("second RequestReset returned error: %v", err)
	}
	second := mailer.lastResetCode()
	if first == second {
		t.Fatalf("expected a fresh code on reissue, got %q twice", first)
	}

	if err := svc.ResetPassword(ctx, "alice@example.com", first, "NewPassw0rd!"); !errors.Is(err, domain.ErrResetCodeInvalid) {
		t.Fatalf("expected superseded code to be invalid, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "alice@example.com", second, "NewPassw0rd!"); err != nil {
		t.Fatalf("expected current code to redeem, got %v", err)
	}
}

func TestResetPasswordSuccessClearsCodeAndRehashes(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	seeded := users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	svc := newResetServiceForTests(users, mailer)

	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	code := mailer.lastResetCode()

	if err := svc.ResetPassword(ctx, "alice@example.com", code, "NewPassw0rd!"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	stored := users.get(seeded.ID)
	if stored.HasPendingReset() {
		t.Fatal("expected reset fields to be cleared after redemption")
	}
	if ok, err := util.VerifyPassword("NewPassw0rd!", stored.PasswordHash); err != nil || !ok {
		t.Fatalf("expected new password to verify, got ok=%v err=%v", ok, err)
	}
	if ok, _ := util.VerifyPassword("OldPassw0rd!", stored.PasswordHash); ok {
		t.Fatal("expected old password to stop verifying")
	}
}

func TestResetPasswordExpired(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	svc := newResetServiceForTests(users, mailer)

	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }
	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	code := mailer.lastResetCode()

	svc.now = func() time.Time { return issuedAt.Add(time.Hour + time.Minute) }
	err := svc.ResetPassword(ctx, "alice@example.com", code, "NewPassw0rd!")
	if !errors.Is(err, domain.ErrResetCodeExpired) {
		t.Fatalf("expected ErrResetCodeExpired, got %v", err)
	}
}

func TestResetPasswordSingleUse(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	svc := newResetServiceForTests(users, mailer)

	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	code := mailer.lastResetCode()

	if err := svc.ResetPassword(ctx, "alice@example.com", code, "NewPassw0rd!"); err != nil {
		t.Fatalf("first redemption returned error: %v", err)
	}
	err := svc.ResetPassword(ctx, "alice@example.com", code, "OtherPassw0rd!")
	if !errors.Is(err, domain.ErrResetCodeInvalid) {
		t.Fatalf("expected second redemption to fail with ErrResetCodeInvalid, got %v", err)
	}
}

func TestResetPasswordPolicyViolationLeavesCodePending(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	seeded := users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	svc := newResetServiceForTests(users, mailer)

	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	code := mailer.lastResetCode()

	err := svc.ResetPassword(ctx, "alice@example.com", code, "weak")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for weak password, got %v", err)
	}

	stored := users.get(seeded.ID)
	if stored.ResetCode == nil {
		t.Fatal("expected code to stay pending after a policy violation")
	}
	if err := svc.ResetPassword(ctx, "alice@example.com", code, "NewPassw0rd!"); err != nil {
		t.Fatalf("expected code to still redeem, got %v", err)
	}
}

func TestResetPasswordUniformErrorShape(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	svc := newResetServiceForTests(users, mailer)

	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	unknownAccount := svc.ResetPassword(ctx, "nobody@example.com", "abc123", "NewPassw0rd!")
	wrongCode := svc.ResetPassword(ctx, "alice@example.com", "000000", "NewPassw0rd!")

	if !errors.Is(unknownAccount, domain.ErrResetCodeInvalid) {
		t.Fatalf("expected ErrResetCodeInvalid for unknown account, got %v", unknownAccount)
	}
	if !errors.Is(wrongCode, domain.ErrResetCodeInvalid) {
		t.Fatalf("expected ErrResetCodeInvalid for wrong code, got %v", wrongCode)
	}
	if unknownAccount.Error() != wrongCode.Error() {
		t.Fatalf("expected identical error shapes, got %q vs %q", unknownAccount, wrongCode)
	}
}

func TestResetPasswordCodeCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	svc := newResetServiceForTests(users, mailer)

	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	code := mailer.lastResetCode()

	if err := svc.ResetPassword(ctx, "alice@example.com", "  "+strings.ToUpper(code)+" ", "NewPassw0rd!"); err != nil {
		t.Fatalf("expected uppercased code to redeem, got %v", err)
	}
}

func TestRequestResetStoreFailurePropagates(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	users.updateErr = errors.New("connection refused")
	svc := newResetServiceForTests(users, &fakeMailer{})

	err := svc.RequestReset(ctx, "alice@example.com")
	if err == nil {
		t.Fatal("expected a store failure to surface")
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDeliveryFailed) {
		t.Fatalf("expected the store failure to propagate as-is, got %v", err)
	}
	if !errors.Is(err, users.updateErr) {
		t.Fatalf("expected the underlying error to be wrapped, got %v", err)
	}
}

func TestResetPasswordLookupFailurePropagates(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	svc := newResetServiceForTests(users, mailer)

	if err := svc.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	code := mailer.lastResetCode()

	users.findErr = errors.New("connection refused")
	err := svc.ResetPassword(ctx, "alice@example.com", code, "NewPassw0rd!")
	if err == nil {
		t.Fatal("expected a lookup failure to surface")
	}
	if errors.Is(err, domain.ErrResetCodeInvalid) || errors.Is(err, domain.ErrResetCodeExpired) {
		t.Fatalf("expected the lookup failure not to masquerade as a rejection, got %v", err)
	}
	if !errors.Is(err, users.findErr) {
		t.Fatalf("expected the underlying error to be wrapped, got %v", err)
	}
}

func TestResetThenLoginEndToEnd(t *testing.T) {
	ctx := context.Background()
	users := newMemUserRepo()
	users.seed("Alice", "alice@example.com", mustHash(t, "OldPassw0rd!"))
	mailer := &fakeMailer{}
	resets := newResetServiceForTests(users, mailer)
	auth := NewAuthService(users, util.NewJWTManager("test-secret", time.Hour))

	if err := resets.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}
	code := mailer.lastResetCode()
	if len(code) != 6 {
		t.Fatalf("expected a 6 character code, got %q", code)
	}
	if err := resets.ResetPassword(ctx, "alice@example.com", code, "NewPassw0rd!"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	if _, token, _, err := auth.Login(ctx, "alice@example.com", "NewPassw0rd!"); err != nil || token == "" {
		t.Fatalf("expected login with new password to succeed, got token=%q err=%v", token, err)
	}
	if _, _, _, err := auth.Login(ctx, "alice@example.com", "OldPassw0rd!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected login with old password to fail, got %v", err)
	}
}
