package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/aihub-vvit/aihub-server/internal/apperror"
	"github.com/aihub-vvit/aihub-server/internal/model"
)

// newTestGate backs a Gate with a miniredis instance so the real
// RedisStore code path (TTLs included) is exercised.
func newTestGate(t *testing.T, production bool) (*Gate, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGate(NewRedisStore(client), production, logger), mr
}

// sessionCookie extracts the session cookie from a recorded response.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// =========================================================================
// ESTABLISH TESTS
// =========================================================================

func TestEstablish_DefaultTTL(t *testing.T) {
	gate, _ := newTestGate(t, false)
	rec := httptest.NewRecorder()

	if err := gate.Establish(context.Background(), rec, "id-1", false); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}

	c := sessionCookie(t, rec)
	if c.MaxAge != int(DefaultTTL.Seconds()) {
		t.Errorf("cookie MaxAge = %d, want %d (1 day)", c.MaxAge, int(DefaultTTL.Seconds()))
	}
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if c.Secure {
		t.Error("cookie must not be Secure outside production")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v, want Lax outside production", c.SameSite)
	}
}

func TestEstablish_RememberTTL(t *testing.T) {
	gate, _ := newTestGate(t, false)
	rec := httptest.NewRecorder()

	if err := gate.Establish(context.Background(), rec, "id-1", true); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}

	c := sessionCookie(t, rec)
	if c.MaxAge != int(RememberTTL.Seconds()) {
		t.Errorf("cookie MaxAge = %d, want %d (30 days)", c.MaxAge, int(RememberTTL.Seconds()))
	}
}

func TestEstablish_ProductionCookiePolicy(t *testing.T) {
	gate, _ := newTestGate(t, true)
	rec := httptest.NewRecorder()

	if err := gate.Establish(context.Background(), rec, "id-1", false); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}

	c := sessionCookie(t, rec)
	if !c.Secure {
		t.Error("production cookie must be Secure")
	}
	if c.SameSite != http.SameSiteNoneMode {
		t.Errorf("production cookie SameSite = %v, want None", c.SameSite)
	}
}

// =========================================================================
// RESOLVE / TERMINATE TESTS
// =========================================================================

func TestResolve_RoundTrip(t *testing.T) {
	gate, _ := newTestGate(t, false)
	rec := httptest.NewRecorder()

	if err := gate.Establish(context.Background(), rec, "id-42", false); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}
	c := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)

	s, err := gate.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s == nil {
		t.Fatal("Resolve() = nil for a live session")
	}
	if s.IdentityID != "id-42" {
		t.Errorf("IdentityID = %q, want id-42", s.IdentityID)
	}
}

func TestResolve_AnonymousRequest(t *testing.T) {
	gate, _ := newTestGate(t, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s, err := gate.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s != nil {
		t.Error("Resolve() should return nil without a cookie")
	}
}

func TestResolve_ExpiredSession(t *testing.T) {
	gate, mr := newTestGate(t, false)
	rec := httptest.NewRecorder()

	if err := gate.Establish(context.Background(), rec, "id-1", false); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}
	c := sessionCookie(t, rec)

	// Let the Redis TTL lapse.
	mr.FastForward(DefaultTTL + time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	s, err := gate.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s != nil {
		t.Error("Resolve() should return nil after the TTL elapsed")
	}
}

func TestTerminate(t *testing.T) {
	gate, _ := newTestGate(t, false)
	rec := httptest.NewRecorder()

	if err := gate.Establish(context.Background(), rec, "id-1", false); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}
	c := sessionCookie(t, rec)

	// Terminate with the session cookie attached.
	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(c)
	rec2 := httptest.NewRecorder()
	if err := gate.Terminate(context.Background(), rec2, req); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}

	// The cookie is cleared...
	cleared := sessionCookie(t, rec2)
	if cleared.MaxAge != -1 {
		t.Errorf("cleared cookie MaxAge = %d, want -1", cleared.MaxAge)
	}

	// ...and the server-side record is gone.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(c)
	if s, _ := gate.Resolve(context.Background(), req2); s != nil {
		t.Error("Resolve() should return nil after Terminate")
	}
}

// =========================================================================
// MIDDLEWARE TESTS
// =========================================================================

// fakeIdentityRepo serves FindByID from a map; everything else is unused.
type fakeIdentityRepo struct {
	byID map[string]*model.Identity
}

func (f *fakeIdentityRepo) Create(ctx context.Context, i *model.Identity) error { return nil }
func (f *fakeIdentityRepo) Save(ctx context.Context, i *model.Identity) error   { return nil }
func (f *fakeIdentityRepo) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	return nil, apperror.NotFound("identity", email)
}
func (f *fakeIdentityRepo) FindByProviderID(ctx context.Context, p model.Provider, s string) (*model.Identity, error) {
	return nil, apperror.NotFound("identity", s)
}
func (f *fakeIdentityRepo) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	if i, ok := f.byID[id]; ok {
		return i, nil
	}
	return nil, apperror.NotFound("identity", id)
}

func TestLoadIdentity_AttachesIdentity(t *testing.T) {
	gate, _ := newTestGate(t, false)
	repo := &fakeIdentityRepo{byID: map[string]*model.Identity{
		"id-9": {ID: "id-9", Email: "u@x.com", Name: "U", IsVerified: true},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	if err := gate.Establish(context.Background(), rec, "id-9", false); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}

	var got *model.Identity
	handler := LoadIdentity(gate, repo, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(sessionCookie(t, rec))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "id-9" {
		t.Fatalf("context identity = %+v, want id-9", got)
	}
}

func TestRequireVerified_DeniesUnverified(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for an unverified identity")
	})
	handler := RequireVerified("http://localhost:5173/")(next)

	identity := &model.Identity{ID: "id-1", IsVerified: false}
	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	req = req.WithContext(context.WithValue(req.Context(), identityKey, identity))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "http://localhost:5173/" {
		t.Errorf("Location = %q, want the landing URL", loc)
	}
}

func TestRequireVerified_DeniesAnonymous(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for an anonymous request")
	})
	handler := RequireVerified("http://localhost:5173/")(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/members", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestRequireVerified_AllowsVerified(t *testing.T) {
	ran := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true })
	handler := RequireVerified("http://localhost:5173/")(next)

	identity := &model.Identity{ID: "id-1", IsVerified: true}
	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	req = req.WithContext(context.WithValue(req.Context(), identityKey, identity))

	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !ran {
		t.Error("handler should run for a verified identity")
	}
}

func TestLoadIdentity_AnonymousPassesThrough(t *testing.T) {
	gate, _ := newTestGate(t, false)
	repo := &fakeIdentityRepo{byID: map[string]*model.Identity{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ran := false
	handler := LoadIdentity(gate, repo, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ran = true
		if _, ok := IdentityFromContext(r.Context()); ok {
			t.Error("anonymous request must not carry an identity")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/auth/check", nil))
	if !ran {
		t.Error("anonymous requests must pass through the middleware")
	}
}
