// Package guard runs the cheap anti-abuse checks that precede validation:
// honeypot, time-trap and the session CSRF token.
package guard

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"
)

// ErrRejected is wrapped by every Violation.
var ErrRejected = errors.New("rejected by anti-abuse guard")

// Check names.
const (
	CheckHoneypot = "honeypot"
	CheckTimeTrap = "time_trap"
	CheckCSRF     = "csrf"
)

// DefaultMinElapsed is the minimum time between render and submit.
const DefaultMinElapsed = 2 * time.Second

// Violation describes a failed check. Message is safe to show to the client.
type Violation struct {
	Check   string
	Message string
	Detail  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Check, v.Detail)
}

func (v *Violation) Unwrap() error { return ErrRejected }

// TokenLookup returns the CSRF token issued to a session, or "" if none was issued.
type TokenLookup interface {
	Token(ctx context.Context, sessionID string) (string, error)
}

// Policy selects the checks for one form kind.
type Policy struct {
	Kind        string
	RequireCSRF bool
}

// Input carries the raw anti-abuse fields of a submission.
type Input struct {
	Honeypot   string
	RenderedAt int64 // unix seconds, 0 when absent
	CSRF       string
	SessionID  string
	IP         string
	UserAgent  string
}

// Guard evaluates submissions against a Policy.
type Guard struct {
	tokens     TokenLookup
	minElapsed time.Duration
	logger     *log.Logger
	nowFunc    func() time.Time
}

// New returns a Guard. tokens may be nil when no policy requires CSRF.
func New(tokens TokenLookup, minElapsed time.Duration, logger *log.Logger) *Guard {
	if minElapsed <= 0 {
		minElapsed = DefaultMinElapsed
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Guard{
		tokens:     tokens,
		minElapsed: minElapsed,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// Check returns nil to accept the submission or a *Violation.
// Checks run cheapest first and stop at the first failure.
func (g *Guard) Check(ctx context.Context, p Policy, in Input) error {
	if in.Honeypot != "" {
		g.logger.Printf("[%s] HONEYPOT tripped: value=%s UA=%s IP=%s",
			p.Kind, strconv.Quote(in.Honeypot), in.UserAgent, in.IP)
		return &Violation{Check: CheckHoneypot, Message: "Bad bot", Detail: "honeypot field populated"}
	}

	if in.RenderedAt > 0 {
		elapsed := g.nowFunc().Sub(time.Unix(in.RenderedAt, 0))
		if elapsed < g.minElapsed {
			g.logger.Printf("[%s] time-trap tripped: elapsed=%s IP=%s", p.Kind, elapsed.Round(time.Millisecond), in.IP)
			return &Violation{Check: CheckTimeTrap, Message: "Too fast", Detail: fmt.Sprintf("submitted %s after render", elapsed)}
		}
	}

	if p.RequireCSRF {
		if err := g.checkCSRF(ctx, in); err != nil {
			g.logger.Printf("[%s] CSRF rejected: %v IP=%s", p.Kind, err, in.IP)
			return &Violation{Check: CheckCSRF, Message: "Invalid submission", Detail: err.Error()}
		}
	}

	return nil
}

func (g *Guard) checkCSRF(ctx context.Context, in Input) error {
	if in.CSRF == "" {
		return errors.New("missing token")
	}
	if in.SessionID == "" || g.tokens == nil {
		return errors.New("no session")
	}
	expected, err := g.tokens.Token(ctx, in.SessionID)
	if err != nil {
		return fmt.Errorf("session lookup: %w", err)
	}
	if expected == "" {
		return errors.New("no token issued for session")
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(in.CSRF)) != 1 {
		return errors.New("token mismatch")
	}
	return nil
}
