package events

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/husainf4l/mirror/internal/model"
)

const (
	defaultReconnectDelay = 5 * time.Second

	maxEventSize = 1 << 20
)

var (
	ErrStreamTransport = errors.New("event stream transport error")
)

// Sink receives the effects of stream events. Implementations must
// tolerate being called from the stream goroutine.
type Sink interface {
	SetText(text string)
	PlaySound()
	SetStreamStatus(connected bool)
}

type Config struct {
	URL    string
	Client *http.Client
	Sink   Sink
	Logger *zerolog.Logger

	// ReconnectDelay is how long a dropped stream waits before dialing
	// again. Zero means the default.
	ReconnectDelay time.Duration
}

// Client keeps one long-lived connection to the backend event stream
// and applies incoming events to the sink in arrival order. The
// connection's lifetime is bounded by the context passed to Run.
type Client struct {
	url            string
	httpc          *http.Client
	sink           Sink
	logger         zerolog.Logger
	reconnectDelay time.Duration

	mu        sync.Mutex
	connected bool
	pending   bool // a reconnect is scheduled
}

func NewClient(cfg Config) *Client {
	delay := cfg.ReconnectDelay
	if delay == 0 {
		delay = defaultReconnectDelay
	}
	httpc := cfg.Client
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Client{
		url:            cfg.URL,
		httpc:          httpc,
		sink:           cfg.Sink,
		logger:         cfg.Logger.With().Str("component", "event-stream").Logger(),
		reconnectDelay: delay,
	}
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Run streams until ctx is canceled. Each stream failure schedules
// exactly one reconnect after the configured delay; the reconnect is
// abandoned if the stream is no longer down when the delay elapses.
func (c *Client) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		if err := c.stream(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn().Err(err).Msg("stream dropped")
		}
		if ctx.Err() != nil {
			c.logger.Debug().Msg("event stream closed")
			return
		}
		if !c.armReconnect() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
		}
		if !c.fireReconnect() {
			// stream recovered while we were waiting; this reconnect
			// stands down
			return
		}
		c.logger.Info().Msg("reconnecting event stream")
	}
}

// armReconnect registers intent to reconnect. It refuses when the
// stream is already open again or when a reconnect is already pending,
// so a single failure never schedules more than one attempt.
func (c *Client) armReconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected || c.pending {
		return false
	}
	c.pending = true
	return true
}

// fireReconnect consumes the pending slot and reports whether the
// stream is still down.
func (c *Client) fireReconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	return !c.connected
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	changed := c.connected != v
	c.connected = v
	c.mu.Unlock()
	if changed && c.sink != nil {
		c.sink.SetStreamStatus(v)
	}
}

func (c *Client) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return errors.Join(ErrStreamTransport, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Join(ErrStreamTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return errors.Join(ErrStreamTransport, fmt.Errorf("status %d", resp.StatusCode))
	}

	c.logger.Debug().Str("url", c.url).Msg("event stream opened")
	c.setConnected(true)
	defer c.setConnected(false)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		c.dispatch(strings.TrimSpace(data))
	}
	if err := scanner.Err(); err != nil {
		return errors.Join(ErrStreamTransport, err)
	}
	// server closed the stream cleanly; still a drop from our side
	return errors.Join(ErrStreamTransport, errors.New("stream ended"))
}

// dispatch applies one event. A payload that fails to parse is dropped
// without touching the stream.
func (c *Client) dispatch(payload string) {
	var ev model.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		c.logger.Warn().Err(err).Str("payload", payload).Msg("dropping malformed event")
		return
	}

	switch ev.Type {
	case model.EventConnected:
		c.logger.Debug().Msg("stream handshake received")
		if ev.CurrentText != "" {
			c.sink.SetText(ev.CurrentText)
		}
	case model.EventTextUpdate:
		if ev.Text != "" {
			c.sink.SetText(ev.Text)
		}
	case model.EventReset:
		if ev.NewText != "" {
			c.sink.SetText(ev.NewText)
		}
	case model.EventAudioPlay:
		if ev.Action == model.ActionPlayMirrorSound {
			c.sink.PlaySound()
		}
	case model.EventPing:
		// keepalive
	default:
		c.logger.Debug().Str("type", ev.Type).Msg("ignoring unknown event type")
	}
}
