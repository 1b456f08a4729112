package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/aihub-vvit/aihub-server/internal/auth/provider"
	"github.com/aihub-vvit/aihub-server/internal/service"
	"github.com/aihub-vvit/aihub-server/internal/session"
)

// AuthHandler is the HTTP surface of the auth subsystem.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignup / HandleLogin / HandleLogout → local credential flows
//   - HandleOAuthStart / HandleOAuthCallback    → the provider redirect dance
//   - HandleVerifyEmail                         → email-link landing, redirects to the SPA
//   - HandleForgotPassword / HandleResetPassword → the reset flow
//
// The handler parses requests, calls the resolution engine, establishes or
// terminates sessions through the gate, and shapes responses. No business
// rules live here.
type AuthHandler struct {
	auths     *service.AuthService
	gate      *session.Gate
	providers *provider.Registry
	clientURL string
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. clientURL is the SPA origin that
// email-link landings and OAuth completions redirect to.
func NewAuthHandler(
	auths *service.AuthService,
	gate *session.Gate,
	providers *provider.Registry,
	clientURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auths:     auths,
		gate:      gate,
		providers: providers,
		clientURL: clientURL,
		logger:    logger,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup creates a local account.
//
// HTTP: POST /auth/signup
//
// The 200 response is sent whether or not the verification email went out;
// delivery failure is logged inside the service and the user can retry by
// attempting to log in.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	identity, err := h.auths.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":              "Registration successful! Please check your email to verify your account.",
		"requiresVerification": true,
		"email":                identity.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Remember stretches the session from 1 day to 30. The client sends
	// this as "remember" — the tag is part of the wire contract.
	Remember bool `json:"remember"`
}

// HandleLogin authenticates a local login and establishes the session.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	identity, err := h.auths.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.gate.Establish(r.Context(), w, identity.ID, req.Remember); err != nil {
		h.logger.Error("login: establishing session failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    identity.Public(),
	})
}

// HandleLogout terminates the session and clears the cookie.
//
// HTTP: GET /auth/logout
//
// GET (not POST) because the SPA triggers logout via a plain navigation;
// the operation is idempotent and safe to repeat.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Terminate(r.Context(), w, r); err != nil {
		h.logger.Error("logout: terminating session failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logout successful"})
}

// HandleOAuthStart redirects the browser to the provider's consent page.
//
// HTTP: GET /auth/{provider}
//
// CSRF PROTECTION VIA STATE:
// A random state value goes both into the redirect URL and into a
// short-lived HttpOnly cookie; the callback accepts only a matching pair.
func (h *AuthHandler) HandleOAuthStart(w http.ResponseWriter, r *http.Request) {
	p, err := h.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Unknown login provider"})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, p.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes the OAuth flow.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter against the cookie
//  2. A denial (error param) redirects back to the SPA login page
//  3. Exchange the code for a profile, resolve it to an identity
//  4. Establish the session and redirect to the SPA
//  5. Fresh accounts get their welcome email in the background
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	p, err := h.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Unknown login provider"})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch", slog.String("provider", string(p.Name())))
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid OAuth state"})
		return
	}

	// Single-use: clear the state cookie immediately.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization",
			slog.String("provider", string(p.Name())),
			slog.String("error", errParam),
		)
		http.Redirect(w, r, h.clientURL+"/login?error=access_denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Missing OAuth code"})
		return
	}

	profile, err := p.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed",
			slog.String("provider", string(p.Name())),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, h.clientURL+"/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	identity, outcome, err := h.auths.LoginOAuth(r.Context(), profile)
	if err != nil {
		h.logger.Error("oauth callback: resolution failed",
			slog.String("provider", string(p.Name())),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, h.clientURL+"/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	if err := h.gate.Establish(r.Context(), w, identity.ID, false); err != nil {
		h.logger.Error("oauth callback: establishing session failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.clientURL+"/login?error=auth_failed", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, h.clientURL, http.StatusSeeOther)

	if outcome == service.OutcomeNew {
		// The response is already on its way; the welcome email must not
		// ride on the request context.
		go h.auths.SendWelcomeEmail(context.Background(), identity)
	}
}

// HandleVerifyEmail consumes the verification link from the email.
//
// HTTP: GET /auth/verify-email/{token}
//
// This is a browser navigation, not an API call — the response is always a
// redirect to a SPA result page, never JSON.
func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	_, _, err := h.auths.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.logger.Info("email verification failed", slog.String("error", err.Error()))
		msg := url.QueryEscape("Invalid or expired token")
		http.Redirect(w, r, h.clientURL+"/verification-error?message="+msg, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.clientURL+"/verification-success", http.StatusSeeOther)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword starts the reset flow.
//
// HTTP: POST /auth/forgot-password
//
// The success message is deliberately the same whether or not the account
// exists. Only the wrong-method case (OAuth-only account) is surfaced.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	if err := h.auths.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "If a user with that email exists, a password reset link has been sent.",
	})
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleResetPassword consumes a reset link and sets the new password.
//
// HTTP: POST /auth/reset-password/{token}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body"})
		return
	}

	if err := h.auths.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password, req.ConfirmPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Password has been reset successfully"})
}
