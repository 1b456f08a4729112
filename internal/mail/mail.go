// Package mail is the Delivery Router: it picks a transport for each
// outbound email, applies the retry/backoff policy, and falls back when a
// provider-affiliated transport fails.
//
// ROUTING POLICY:
//  1. Classify the recipient domain as Microsoft-affiliated or generic.
//  2. Microsoft-affiliated + Graph transport enabled → try Graph once.
//     On failure fall through to SMTP (Graph is never retried).
//  3. SMTP is tried with a fixed retry budget (3 attempts by default),
//     the delay doubling after each failure.
//
// A configurable courtesy delay runs before every send attempt — rate
// shaping, not correctness. Delivery failure is always non-fatal to the
// identity mutation that triggered the email; callers log it and move on.
package mail

import (
	"context"
	"strings"
)

// Message is one outbound notification email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a message over one concrete channel (Graph, SMTP).
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Sender is the seam consumed by the resolution engine; the Router
// implements it, tests substitute a recorder.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// microsoftDomains is the fixed allow-list of mail domains served better
// by the Graph API than by generic SMTP. vvit.net is the institution's
// Microsoft 365 tenant.
var microsoftDomains = map[string]bool{
	"outlook.com":   true,
	"hotmail.com":   true,
	"live.com":      true,
	"msn.com":       true,
	"office365.com": true,
	"vvit.net":      true,
}

// IsMicrosoftDomain reports whether the address belongs to a
// Microsoft-affiliated mail domain.
func IsMicrosoftDomain(address string) bool {
	_, domain, found := strings.Cut(address, "@")
	if !found {
		return false
	}
	return microsoftDomains[strings.ToLower(domain)]
}
