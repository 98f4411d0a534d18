package session

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/husainf4l/mirror/internal/model"
)

func newTestSession(cfg Config) *Session {
	logger := zerolog.Nop()
	cfg.Logger = &logger
	return New(cfg)
}

func TestJoinRequiresURL(t *testing.T) {
	s := newTestSession(Config{})
	err := s.Join(context.Background(), &model.Credential{Token: "tok"})
	if !errors.Is(err, ErrNoURL) {
		t.Errorf("err = %v, want ErrNoURL", err)
	}
}

func TestJoinChecksContextUpFront(t *testing.T) {
	s := newTestSession(Config{URL: "wss://livekit.example.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Join(ctx, &model.Credential{Token: "tok"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLeaveWithoutRoom(t *testing.T) {
	s := newTestSession(Config{})
	s.Leave() // must be a safe no-op
	if s.Connected() {
		t.Error("session should not report connected")
	}
}

func TestHandleDisconnectFiresCallback(t *testing.T) {
	var fired bool
	s := newTestSession(Config{OnDisconnected: func() { fired = true }})
	s.handleDisconnect()
	if !fired {
		t.Error("disconnect callback not invoked")
	}
	if s.Connected() {
		t.Error("session still reports connected after disconnect")
	}
}
