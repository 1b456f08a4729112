// Package service — the identity resolution engine.
//
// AuthService is the business logic layer for authentication. It sits
// between the HTTP handlers and the stores/utilities:
//
//	AuthHandler (HTTP) → AuthService (resolution rules) → IdentityRepository (DB)
//	                   ↘ token.Service (signed links)
//	                   ↘ mail.Sender   (delivery router)
//
// KEY RESPONSIBILITIES:
//   - Resolve every login — local or OAuth — to exactly one identity
//     record, merging on the email address
//   - Enforce the method rules: password login needs a password and a
//     verified email; password operations on OAuth-only accounts are
//     rejected with the provider hint
//   - Drive the token lifecycle for email verification and password reset
//   - Trigger notification emails, never letting a delivery failure undo
//     an identity mutation
//
// WHAT THIS PACKAGE DOES NOT DO:
//   - No cookies or sessions (the handlers own the session gate)
//   - No HTTP request/response shapes
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aihub-vvit/aihub-server/internal/apperror"
	"github.com/aihub-vvit/aihub-server/internal/auth"
	"github.com/aihub-vvit/aihub-server/internal/auth/provider"
	"github.com/aihub-vvit/aihub-server/internal/mail"
	"github.com/aihub-vvit/aihub-server/internal/model"
	"github.com/aihub-vvit/aihub-server/internal/repository"
	"github.com/aihub-vvit/aihub-server/internal/token"
)

// Outcome says what an OAuth login did to the identity store.
type Outcome int

const (
	// OutcomeExisting — the provider id was already linked; plain login.
	OutcomeExisting Outcome = iota
	// OutcomeLinked — an account with the same email existed; the provider
	// id was attached to it.
	OutcomeLinked
	// OutcomeNew — no match on provider id or email; a record was created.
	OutcomeNew
)

// AuthService implements the resolution rules.
type AuthService struct {
	identities repository.IdentityRepository
	passwords  *auth.PasswordService
	tokens     *token.Service
	mailer     mail.Sender
	clientURL  string
	logger     *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// clientURL is the SPA origin used to build email links and redirects.
func NewAuthService(
	identities repository.IdentityRepository,
	passwords *auth.PasswordService,
	tokens *token.Service,
	mailer mail.Sender,
	clientURL string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		identities: identities,
		passwords:  passwords,
		tokens:     tokens,
		mailer:     mailer,
		clientURL:  strings.TrimRight(clientURL, "/"),
		logger:     logger,
	}
}

// Signup creates an unverified local account and emails the verification
// link.
//
// EMAIL FAILURE IS NON-FATAL: the account exists the moment Create
// succeeds. If the verification email cannot be delivered the failure is
// logged and signup still reports success — the user can trigger a fresh
// link later by asking to log in and following the verification hint.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*model.Identity, error) {
	email = normalizeEmail(email)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "Email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "Password is required")
	}

	// Fast-path duplicate check for the friendly error. The UNIQUE
	// constraint in the store still backs this up under races.
	if _, err := s.identities.FindByEmail(ctx, email); err == nil {
		return nil, apperror.DuplicateEmail()
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking for existing account: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	identity := &model.Identity{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   false,
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, err
	}

	s.logger.Info("local account created",
		slog.String("identityID", identity.ID),
		slog.String("email", identity.Email),
	)

	s.sendVerificationEmail(ctx, identity)
	return identity, nil
}

// Login authenticates a local (email + password) login.
//
// RULE ORDER MATTERS:
//  1. Unknown email            → InvalidCredentials (no enumeration)
//  2. OAuth-only account       → WrongMethod with the provider hint
//  3. Wrong password           → InvalidCredentials
//  4. Unverified local account → VerificationRequired
//
// An account that is OAuth-linked AND has a password skips rule 4: the
// OAuth link already proved ownership of the mailbox.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	identity, err := s.identities.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up account: %w", err)
	}

	if !identity.HasPassword() {
		if p := identity.OAuthProvider(); p != "" {
			return nil, apperror.WrongMethod(p.DisplayName())
		}
		// No password and no provider should not happen; treat as a
		// credential failure rather than leaking account state.
		return nil, apperror.InvalidCredentials()
	}

	if !s.passwords.Verify(identity.PasswordHash, password) {
		return nil, apperror.InvalidCredentials()
	}

	if !identity.IsVerified && identity.OAuthProvider() == "" {
		return nil, apperror.VerificationRequired()
	}

	s.logger.Info("local login", slog.String("identityID", identity.ID))
	return identity, nil
}

// LoginOAuth resolves a completed OAuth exchange to an identity record.
//
// RESOLUTION ORDER:
//  1. Provider id already linked → existing account, refresh the picture.
//  2. Email matches a record     → link the provider id to it. Linking
//     forces IsVerified = true: the provider just proved mailbox ownership.
//  3. Otherwise                  → create a verified account.
//
// Step 3 can lose a race with a concurrent signup for the same email; the
// duplicate-email error from the store sends us back to step 2 to link
// against the record that won.
func (s *AuthService) LoginOAuth(ctx context.Context, profile *provider.Profile) (*model.Identity, Outcome, error) {
	if profile == nil {
		return nil, 0, fmt.Errorf("service/auth: oauth profile must not be nil")
	}
	if profile.Email == "" {
		return nil, 0, apperror.ValidationFailed("email", "The identity provider did not supply an email address")
	}
	email := normalizeEmail(profile.Email)

	// 1. Known provider id → plain login.
	identity, err := s.identities.FindByProviderID(ctx, profile.Provider, profile.Subject)
	if err == nil {
		if profile.Picture != "" && profile.Picture != identity.ProfilePicture {
			identity.ProfilePicture = profile.Picture
			if err := s.identities.Save(ctx, identity); err != nil {
				// Stale picture is not worth failing a login over.
				s.logger.Warn("profile picture refresh failed",
					slog.String("identityID", identity.ID),
					slog.String("error", err.Error()),
				)
			}
		}
		s.logger.Info("oauth login",
			slog.String("identityID", identity.ID),
			slog.String("provider", string(profile.Provider)),
		)
		return identity, OutcomeExisting, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, 0, fmt.Errorf("service/auth: provider id lookup: %w", err)
	}

	// 2. Email merge → link.
	identity, err = s.identities.FindByEmail(ctx, email)
	if err == nil {
		return s.linkProvider(ctx, identity, profile)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, 0, fmt.Errorf("service/auth: email lookup: %w", err)
	}

	// 3. First contact → create, born verified.
	identity = &model.Identity{
		Name:           profile.Name,
		Email:          email,
		ProfilePicture: profile.Picture,
		IsVerified:     true,
	}
	identity.SetProviderID(profile.Provider, profile.Subject)

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, apperror.ErrDuplicateEmail) {
			// Lost the race against a concurrent signup. Link against
			// the record that won instead.
			existing, ferr := s.identities.FindByEmail(ctx, email)
			if ferr != nil {
				return nil, 0, fmt.Errorf("service/auth: re-reading after create conflict: %w", ferr)
			}
			return s.linkProvider(ctx, existing, profile)
		}
		return nil, 0, err
	}

	s.logger.Info("oauth account created",
		slog.String("identityID", identity.ID),
		slog.String("provider", string(profile.Provider)),
	)
	return identity, OutcomeNew, nil
}

// linkProvider attaches the provider id to an existing record and marks it
// verified. Any password on the record is preserved — both login methods
// work afterwards.
func (s *AuthService) linkProvider(ctx context.Context, identity *model.Identity, profile *provider.Profile) (*model.Identity, Outcome, error) {
	identity.SetProviderID(profile.Provider, profile.Subject)
	identity.IsVerified = true
	if profile.Picture != "" {
		identity.ProfilePicture = profile.Picture
	}

	if err := s.identities.Save(ctx, identity); err != nil {
		return nil, 0, fmt.Errorf("service/auth: linking %s to identity %s: %w", profile.Provider, identity.ID, err)
	}

	s.logger.Info("oauth provider linked",
		slog.String("identityID", identity.ID),
		slog.String("provider", string(profile.Provider)),
	)
	return identity, OutcomeLinked, nil
}

// VerifyEmail consumes a verification link. Returns the identity and
// whether it was already verified — re-clicking a link is a harmless
// no-op, and only the first verification triggers the welcome email.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) (*model.Identity, bool, error) {
	identityID, err := s.tokens.Verify(tokenStr, token.PurposeVerify)
	if err != nil {
		return nil, false, err
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		// The account may have been removed since the link was issued;
		// the caller only needs to know the link no longer works.
		return nil, false, apperror.TokenInvalid()
	}

	if identity.IsVerified {
		return identity, true, nil
	}

	identity.IsVerified = true
	if err := s.identities.Save(ctx, identity); err != nil {
		return nil, false, fmt.Errorf("service/auth: marking identity %s verified: %w", identity.ID, err)
	}

	s.logger.Info("email verified", slog.String("identityID", identity.ID))

	s.sendWelcome(ctx, identity, "Email & Password")
	return identity, false, nil
}

// RequestPasswordReset starts the reset flow.
//
// ANTI-ENUMERATION: an unknown email returns success without sending
// anything, so the endpoint cannot be used to probe which addresses have
// accounts. The one deliberate exception is an OAuth-only account — there
// the caller gets WrongMethod, because "reset your password" is a dead end
// for an account that has none, and the owner proved nothing by knowing
// the address they typed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	identity, err := s.identities.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("service/auth: looking up account: %w", err)
	}

	if !identity.HasPassword() {
		return apperror.WrongMethod(identity.OAuthProvider().DisplayName())
	}

	resetToken, err := s.tokens.Issue(identity.ID, token.PurposeReset)
	if err != nil {
		return fmt.Errorf("service/auth: issuing reset token: %w", err)
	}

	msg := mail.PasswordReset(identity.Email, identity.Name, s.clientURL+"/reset-password/"+resetToken)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("password reset email failed",
			slog.String("identityID", identity.ID),
			slog.String("error", err.Error()),
		)
		// The caller still gets the generic success; surfacing a
		// delivery error here would reopen the enumeration hole.
	}
	return nil
}

// ResetPassword consumes a reset link and replaces the password.
// The two password fields must match, and the token must carry the reset
// purpose — a verification token never resets a password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenStr, password, confirm string) error {
	if password != confirm {
		return apperror.ValidationFailed("password", "Passwords do not match")
	}

	identityID, err := s.tokens.Verify(tokenStr, token.PurposeReset)
	if err != nil {
		return err
	}

	identity, err := s.identities.FindByID(ctx, identityID)
	if err != nil {
		return apperror.TokenInvalid()
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}

	identity.PasswordHash = hash
	if err := s.identities.Save(ctx, identity); err != nil {
		return fmt.Errorf("service/auth: saving new password for %s: %w", identity.ID, err)
	}

	s.logger.Info("password reset", slog.String("identityID", identity.ID))
	return nil
}

// SendWelcomeEmail delivers the welcome email for a fresh OAuth signup.
// The OAuth callback handler calls this in a goroutine after redirecting —
// the user should not wait on mail delivery.
func (s *AuthService) SendWelcomeEmail(ctx context.Context, identity *model.Identity) {
	method := "Social Login"
	if p := identity.OAuthProvider(); p != "" {
		method = p.DisplayName()
	}
	s.sendWelcome(ctx, identity, method)
}

func (s *AuthService) sendWelcome(ctx context.Context, identity *model.Identity, method string) {
	msg := mail.Welcome(identity.Email, identity.Name, method)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("welcome email failed",
			slog.String("identityID", identity.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, identity *model.Identity) {
	verifyToken, err := s.tokens.Issue(identity.ID, token.PurposeVerify)
	if err != nil {
		s.logger.Error("issuing verification token failed",
			slog.String("identityID", identity.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	msg := mail.Verification(identity.Email, identity.Name, s.clientURL+"/auth/verify-email/"+verifyToken)
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("verification email failed",
			slog.String("identityID", identity.ID),
			slog.String("error", err.Error()),
		)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
