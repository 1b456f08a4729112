package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aihub-vvit/aihub-server/internal/apperror"
)

// Route pairs a transport with its domain affinity and retry budget.
// Routes are ranked: the router walks them in order and uses the first
// matching one, falling through to the next on final failure.
type Route struct {
	Transport Transport

	// Matches decides domain affinity; nil matches every domain.
	Matches func(domain string) bool

	// Attempts is this transport's retry budget (minimum 1).
	Attempts int
}

// RouterConfig holds the delivery tuning knobs.
type RouterConfig struct {
	// SendDelay is the courtesy throttle before every send attempt.
	SendDelay time.Duration

	// RetryDelay is the wait after the first failed attempt; it doubles
	// after each subsequent failure.
	RetryDelay time.Duration
}

// Router selects a transport per message and drives retries.
type Router struct {
	routes []Route
	cfg    RouterConfig
	logger *slog.Logger

	// sleep is injectable so tests don't wait out the courtesy delay.
	sleep func(time.Duration)
}

// NewRouter builds a Router over a ranked route list.
func NewRouter(cfg RouterConfig, logger *slog.Logger, routes ...Route) *Router {
	return &Router{
		routes: routes,
		cfg:    cfg,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// DefaultRoutes builds the standard ranking: Graph (single attempt) for
// Microsoft-affiliated domains when enabled, then SMTP for everything,
// with the given retry budget.
func DefaultRoutes(graph *GraphTransport, smtp Transport, smtpAttempts int) []Route {
	var routes []Route
	if graph != nil && graph.Enabled() {
		routes = append(routes, Route{
			Transport: graph,
			Matches:   func(domain string) bool { return microsoftDomains[domain] },
			Attempts:  1,
		})
	}
	routes = append(routes, Route{Transport: smtp, Attempts: smtpAttempts})
	return routes
}

// Send delivers the message via the first matching route, falling through
// the ranking on failure. Returns apperror.ErrDeliveryFailed only after
// every matching route exhausted its budget.
func (r *Router) Send(ctx context.Context, msg Message) error {
	_, domain, found := strings.Cut(msg.To, "@")
	if !found {
		return apperror.ValidationFailed("to", fmt.Sprintf("invalid recipient address %q", msg.To))
	}
	domain = strings.ToLower(domain)

	r.logger.Info("sending email",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Bool("microsoftDomain", microsoftDomains[domain]),
	)

	var lastErr error
	for _, route := range r.routes {
		if route.Matches != nil && !route.Matches(domain) {
			continue
		}

		err := r.attempt(ctx, route, msg)
		if err == nil {
			r.logger.Info("email delivered",
				slog.String("to", msg.To),
				slog.String("transport", route.Transport.Name()),
			)
			return nil
		}

		lastErr = err
		r.logger.Warn("transport exhausted, falling through",
			slog.String("transport", route.Transport.Name()),
			slog.String("error", err.Error()),
		)
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no transport matched domain %q", domain)
	}
	r.logger.Error("email delivery failed",
		slog.String("to", msg.To),
		slog.String("error", lastErr.Error()),
	)
	return apperror.DeliveryFailed(lastErr)
}

// attempt runs one route's retry budget: the courtesy delay before every
// try, exponential (doubling, non-jittered) backoff between failures.
func (r *Router) attempt(ctx context.Context, route Route, msg Message) error {
	op := func() error {
		if r.cfg.SendDelay > 0 {
			r.sleep(r.cfg.SendDelay)
		}
		return route.Transport.Send(ctx, msg)
	}

	attempts := route.Attempts
	if attempts < 1 {
		attempts = 1
	}
	if attempts == 1 {
		return op()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.RetryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // the attempt cap below is the only limit

	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		r.logger.Warn("send attempt failed",
			slog.String("transport", route.Transport.Name()),
			slog.Int("attempt", attempt),
			slog.Int("budget", attempts),
			slog.Duration("retryIn", next),
			slog.String("error", err.Error()),
		)
	}

	return backoff.RetryNotify(op,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx),
		notify,
	)
}
