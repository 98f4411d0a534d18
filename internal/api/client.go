package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/husainf4l/mirror/internal/model"
)

const (
	defaultRequestTimeout = 15 * time.Second

	tokenPath       = "/api/livekit/token"
	viewerTokenPath = "/api/livekit/viewer-token"
)

var (
	ErrLogin   = errors.New("login rejected")
	ErrToken   = errors.New("token request failed")
	ErrBackend = errors.New("backend request failed")
)

// Client talks to the wedding mirror backend. The session cookie set by
// Login is held in the client's jar and sent on subsequent calls,
// including the event stream.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  zerolog.Logger
	now     func() time.Time
}

type Config struct {
	BaseURL string
	Logger  *zerolog.Logger

	// Timeout bounds each synchronous call. Zero means the default.
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	jar, _ := cookiejar.New(nil)
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		logger: cfg.Logger.With().Str("component", "api-client").Logger(),
		now:    time.Now,
	}
}

// HTTPClient exposes the credentialed client so the event stream can be
// opened with the same session cookie. The stream must not inherit the
// per-call timeout.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{Jar: c.httpc.Jar}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// EventsURL is the backend's push stream endpoint.
func (c *Client) EventsURL() string {
	return c.baseURL + "/api/events"
}

func (c *Client) Login(ctx context.Context, password string) error {
	form := url.Values{"password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Join(ErrLogin, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Join(ErrLogin, err)
	}
	defer drain(resp.Body)

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.Error != "" {
		return errors.Join(ErrLogin, errors.New(out.Error))
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Join(ErrLogin, fmt.Errorf("status %d", resp.StatusCode))
	}
	c.logger.Debug().Msg("logged in")
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/api/logout", nil, nil)
}

// Token exchanges a room and display name for a session credential. The
// participant identity is the display name suffixed with the current
// timestamp, so repeated joins by the same name never collide.
func (c *Client) Token(ctx context.Context, room, name string) (*model.Credential, error) {
	return c.token(ctx, tokenPath, room, name)
}

// ViewerToken mints a subscribe-only credential for silently watching a
// room.
func (c *Client) ViewerToken(ctx context.Context, room, name string) (*model.Credential, error) {
	return c.token(ctx, viewerTokenPath, room, name)
}

func (c *Client) token(ctx context.Context, path, room, name string) (*model.Credential, error) {
	req := model.TokenRequest{
		Room:     room,
		Name:     name,
		Identity: fmt.Sprintf("%s-%d", name, c.now().UnixMilli()),
	}
	var resp model.TokenResponse
	if err := c.postJSON(ctx, path, &req, &resp); err != nil {
		return nil, errors.Join(ErrToken, err)
	}
	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = "failed to get token"
		}
		return nil, errors.Join(ErrToken, errors.New(reason))
	}
	c.logger.Debug().
		Str("room", room).
		Str("identity", req.Identity).
		Msg("token issued")
	return &model.Credential{Token: resp.Token, URL: resp.URL}, nil
}

func (c *Client) UpdateText(ctx context.Context, text string) error {
	in := struct {
		Text string `json:"text"`
	}{Text: text}
	return c.postJSON(ctx, "/api/update-text", &in, nil)
}

func (c *Client) Reset(ctx context.Context) error {
	return c.postJSON(ctx, "/api/reset", nil, nil)
}

func (c *Client) Rooms(ctx context.Context) ([]string, error) {
	var out model.RoomList
	if err := c.getJSON(ctx, "/api/rooms", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, errors.Join(ErrBackend, errors.New(out.Error))
	}
	return out.Rooms, nil
}

func (c *Client) ClearRooms(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/rooms", nil, nil)
}

func (c *Client) Videos(ctx context.Context) ([]model.VideoRecording, error) {
	var out struct {
		Success    bool                   `json:"success"`
		Recordings []model.VideoRecording `json:"recordings"`
		Message    string                 `json:"message"`
	}
	if err := c.getJSON(ctx, "/api/videos", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, errors.Join(ErrBackend, errors.New(out.Message))
	}
	return out.Recordings, nil
}

// RefreshVideo re-signs the download link of a recording and returns the
// fresh URL.
func (c *Client) RefreshVideo(ctx context.Context, id int) (string, error) {
	var out struct {
		Success      bool   `json:"success"`
		PresignedURL string `json:"presigned_url"`
		Message      string `json:"message"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("/api/videos/%d/refresh", id), nil, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", errors.Join(ErrBackend, errors.New(out.Message))
	}
	return out.PresignedURL, nil
}

func (c *Client) Guests(ctx context.Context) ([]model.Guest, error) {
	var out struct {
		Success bool          `json:"success"`
		Guests  []model.Guest `json:"guests"`
		Message string        `json:"message"`
	}
	if err := c.getJSON(ctx, "/api/guests", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, errors.Join(ErrBackend, errors.New(out.Message))
	}
	return out.Guests, nil
}

func (c *Client) CreateGuest(ctx context.Context, g model.Guest) error {
	return c.postJSON(ctx, "/api/guests", &g, nil)
}

func (c *Client) UpdateGuest(ctx context.Context, g model.Guest) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/guests/%d", g.ID), &g, nil)
}

func (c *Client) DeleteGuest(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/guests/%d", id), nil, nil)
}

func (c *Client) RelationTypes(ctx context.Context) ([]model.RelationType, error) {
	var out struct {
		Success       bool                 `json:"success"`
		RelationTypes []model.RelationType `json:"relation_types"`
		Message       string               `json:"message"`
	}
	if err := c.getJSON(ctx, "/api/relation-types", &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, errors.Join(ErrBackend, errors.New(out.Message))
	}
	return out.RelationTypes, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Join(ErrBackend, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Join(ErrBackend, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Join(ErrBackend, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Join(ErrBackend, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrBackend, err)
	}
	return nil
}

func drain(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}
