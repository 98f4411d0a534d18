package connect

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/husainf4l/mirror/internal/model"
)

// Phase is the controller's position in the connection lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePermission Phase = "permission-requested"
	PhaseConnecting Phase = "connecting"
	PhaseJoined     Phase = "joined"
	PhaseFailed     Phase = "failed"
)

const (
	defaultSettle = 2 * time.Second

	roomPrefix  = "mirror"
	guestPrefix = "Guest"
)

var (
	// ErrAttemptActive means another attempt reached the guard first;
	// the caller should treat it as a no-op.
	ErrAttemptActive = errors.New("connection attempt already active")

	ErrPermission = errors.New("permission request failed")
	ErrConnect    = errors.New("unable to connect")
)

// Attempt is one logical try to join a session. Room and guest names
// are derived from the attempt's start timestamp so every attempt gets
// a fresh identity.
type Attempt struct {
	ID      uuid.UUID
	Room    string
	Guest   string
	Started time.Time
}

func newAttempt(now time.Time) Attempt {
	ms := now.UnixMilli()
	return Attempt{
		ID:      uuid.New(),
		Room:    fmt.Sprintf("%s-%d", roomPrefix, ms),
		Guest:   fmt.Sprintf("%s-%d", guestPrefix, ms),
		Started: now,
	}
}

type (
	// TokenSource exchanges a room and display name for a credential.
	TokenSource interface {
		Token(ctx context.Context, room, name string) (*model.Credential, error)
	}

	// TokenFunc adapts a plain function to a TokenSource.
	TokenFunc func(ctx context.Context, room, name string) (*model.Credential, error)

	// Joiner establishes the real-time session from a credential.
	Joiner interface {
		Join(ctx context.Context, cred *model.Credential) error
	}

	// PermissionGate requests local device access.
	PermissionGate interface {
		Request(ctx context.Context) error
	}

	Config struct {
		Tokens  TokenSource
		Session Joiner
		Gate    PermissionGate
		Logger  *zerolog.Logger

		// Settle is the debounce between the permission request
		// settling and the join attempt. Zero means the default.
		Settle time.Duration

		// Now is the attempt clock; nil means time.Now.
		Now func() time.Time
	}

	// Controller decides when the display joins a session. It holds the
	// single-active-attempt guard: at most one attempt may be past the
	// token request at any instant, and a failed attempt resets the
	// machine so the next trigger can retry with fresh identifiers.
	Controller struct {
		tokens  TokenSource
		session Joiner
		gate    PermissionGate
		settle  time.Duration
		logger  zerolog.Logger
		now     func() time.Time

		mu        sync.Mutex
		phase     Phase
		attempted bool
		current   *Attempt
		lastErr   error
	}
)

func (f TokenFunc) Token(ctx context.Context, room, name string) (*model.Credential, error) {
	return f(ctx, room, name)
}

func NewController(cfg Config) *Controller {
	settle := cfg.Settle
	if settle == 0 {
		settle = defaultSettle
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		tokens:  cfg.Tokens,
		session: cfg.Session,
		gate:    cfg.Gate,
		settle:  settle,
		logger:  cfg.Logger.With().Str("component", "auto-connect").Logger(),
		now:     now,
		phase:   PhaseIdle,
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Current returns the attempt in flight or the one that joined.
func (c *Controller) Current() (Attempt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Attempt{}, false
	}
	return *c.current, true
}

func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// AutoConnect runs the startup path: request device permissions, wait
// out the settle delay, then join once. The attempted latch is set
// before the permission request starts, so overlapping invocations
// cannot double-trigger; it is cleared again on any failure so a later
// trigger may retry.
func (c *Controller) AutoConnect(ctx context.Context) error {
	c.mu.Lock()
	if c.attempted || c.phase == PhaseJoined {
		c.mu.Unlock()
		c.logger.Debug().Msg("auto-connect skipped, already attempted or joined")
		return nil
	}
	c.attempted = true
	c.phase = PhasePermission
	c.mu.Unlock()

	c.logger.Info().Msg("requesting device permissions")
	if err := c.gate.Request(ctx); err != nil {
		c.fail(errors.Join(ErrPermission, err))
		return errors.Join(ErrPermission, err)
	}

	// permission state propagates asynchronously and the platform has
	// no change notification; re-read it after a short settle
	select {
	case <-ctx.Done():
		c.reset()
		return ctx.Err()
	case <-time.After(c.settle):
	}

	if c.Phase() == PhaseJoined {
		// another attempt won while we were waiting
		return nil
	}

	if err := c.connect(ctx); err != nil {
		if errors.Is(err, ErrAttemptActive) {
			c.logger.Debug().Msg("auto-connect yielded to active attempt")
			return nil
		}
		return err
	}
	return nil
}

// Connect is the operator-invoked path. It skips the settle delay but
// still yields to an attempt that already passed the guard.
func (c *Controller) Connect(ctx context.Context) error {
	return c.connect(ctx)
}

func (c *Controller) connect(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == PhaseConnecting || c.phase == PhaseJoined {
		c.mu.Unlock()
		return ErrAttemptActive
	}
	c.attempted = true
	c.phase = PhaseConnecting
	att := newAttempt(c.now())
	c.current = &att
	c.mu.Unlock()

	c.logger.Info().
		Str("room", att.Room).
		Str("guest", att.Guest).
		Str("attempt", att.ID.String()).
		Msg("requesting session token")

	cred, err := c.tokens.Token(ctx, att.Room, att.Guest)
	if err != nil {
		c.fail(err)
		return errors.Join(ErrConnect, err)
	}

	if err = c.session.Join(ctx, cred); err != nil {
		c.fail(err)
		return errors.Join(ErrConnect, err)
	}

	c.mu.Lock()
	c.phase = PhaseJoined
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info().Str("room", att.Room).Msg("session joined")
	return nil
}

// Disconnected is invoked by the session wrapper when the room drops.
// The machine returns to idle so a new trigger can start over.
func (c *Controller) Disconnected() {
	c.mu.Lock()
	c.phase = PhaseIdle
	c.attempted = false
	c.current = nil
	c.mu.Unlock()
	c.logger.Info().Msg("session disconnected")
}

// fail parks the machine at failed and clears the latch immediately, so
// retry is permitted without operator cleanup.
func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.phase = PhaseFailed
	c.lastErr = err
	c.attempted = false
	c.current = nil
	c.mu.Unlock()
	c.logger.Error().Err(err).Msg("connection attempt failed")
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.phase = PhaseIdle
	c.attempted = false
	c.current = nil
	c.mu.Unlock()
}
