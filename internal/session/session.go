package session

import (
	"context"
	"errors"
	"sync"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/rs/zerolog"

	"github.com/husainf4l/mirror/internal/model"
)

var (
	ErrJoin  = errors.New("unable to join room")
	ErrNoURL = errors.New("no session endpoint configured")
)

// Config carries the session callbacks. Retry and backoff inside an
// established session belong to the SDK, not to this wrapper.
type Config struct {
	// URL is the default session endpoint; a URL in the credential
	// takes precedence.
	URL    string
	Logger *zerolog.Logger

	OnConnected     func()
	OnDisconnected  func()
	OnTranscription func(segments []*lksdk.TranscriptionSegment)
}

// Session adapts the real-time SDK's room primitive to the controller's
// join/leave contract.
type Session struct {
	url             string
	logger          zerolog.Logger
	onConnected     func()
	onDisconnected  func()
	onTranscription func(segments []*lksdk.TranscriptionSegment)

	mu   sync.Mutex
	room *lksdk.Room
}

func New(cfg Config) *Session {
	return &Session{
		url:             cfg.URL,
		logger:          cfg.Logger.With().Str("component", "session").Logger(),
		onConnected:     cfg.OnConnected,
		onDisconnected:  cfg.OnDisconnected,
		onTranscription: cfg.OnTranscription,
	}
}

// Join connects to the room named by the credential. The connect itself
// is not cancelable mid-flight; ctx is only checked up front, and a
// join that completes after the caller lost interest is torn down by
// Leave.
func (s *Session) Join(ctx context.Context, cred *model.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	url := s.url
	if cred.URL != "" {
		url = cred.URL
	}
	if url == "" {
		return errors.Join(ErrJoin, ErrNoURL)
	}

	cb := &lksdk.RoomCallback{
		OnDisconnected: s.handleDisconnect,
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTranscriptionReceived: func(segments []*lksdk.TranscriptionSegment, _ lksdk.Participant, _ lksdk.TrackPublication) {
				if s.onTranscription != nil {
					s.onTranscription(segments)
				}
			},
		},
	}

	room, err := lksdk.ConnectToRoomWithToken(url, cred.Token, cb)
	if err != nil {
		return errors.Join(ErrJoin, err)
	}

	s.mu.Lock()
	s.room = room
	s.mu.Unlock()

	s.logger.Info().Str("url", url).Str("room", room.Name()).Msg("room connected")
	if s.onConnected != nil {
		s.onConnected()
	}
	return nil
}

// Leave disconnects the current room, if any.
func (s *Session) Leave() {
	s.mu.Lock()
	room := s.room
	s.room = nil
	s.mu.Unlock()

	if room != nil {
		room.Disconnect()
		s.logger.Debug().Msg("room disconnected")
	}
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room != nil
}

func (s *Session) handleDisconnect() {
	s.mu.Lock()
	s.room = nil
	s.mu.Unlock()

	s.logger.Warn().Msg("room connection lost")
	if s.onDisconnected != nil {
		s.onDisconnected()
	}
}
