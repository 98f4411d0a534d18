package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/husainf4l/mirror/internal/api"
	"github.com/husainf4l/mirror/internal/config"
	"github.com/husainf4l/mirror/internal/connect"
	"github.com/husainf4l/mirror/internal/display"
	"github.com/husainf4l/mirror/internal/display/feed"
	"github.com/husainf4l/mirror/internal/events"
	"github.com/husainf4l/mirror/internal/media"
	"github.com/husainf4l/mirror/internal/model"
	"github.com/husainf4l/mirror/internal/session"
	"github.com/husainf4l/mirror/internal/transcript"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	fs := pflag.NewFlagSet("mirrord", pflag.ContinueOnError)

	var (
		cfgPath  = fs.StringP("config", "c", "", "path to config file")
		apiURL   = fs.String("api-url", "", "backend api base url")
		lkURL    = fs.String("livekit-url", "", "session server url")
		feedAddr = fs.StringP("feed-listen-addr", "f", "", "display feed listen address")
		viewer   = fs.Bool("viewer", false, "join sessions subscribe-only")
		logLevel = fs.StringP("log-level", "l", "", "log level")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse command line arguments")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *lkURL != "" {
		cfg.LiveKitURL = *lkURL
	}
	if *feedAddr != "" {
		cfg.FeedListenAddr = *feedAddr
	}
	if *viewer {
		cfg.Viewer = true
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse loglevel")
	}
	logger = logger.Level(lvl)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	apiClient := api.NewClient(api.Config{BaseURL: cfg.APIURL, Logger: &logger})

	state := display.NewState()
	player := display.NewExecPlayer(cfg.SoundCommand, cfg.SoundFile, &logger)
	mirror := display.NewMirror(state, player)
	hub := feed.NewHub(&logger)
	transcripts := transcript.NewBuffer()

	snapshot := func() model.DisplayUpdate {
		return model.DisplayUpdate{
			Text:            state.Text(),
			StreamConnected: mirror.StreamConnected(),
			Transcript:      transcripts.Tail(transcript.DefaultTailWords),
		}
	}
	push := func() { hub.Broadcast(ctx, snapshot()) }
	state.OnChange(func(string) { push() })
	mirror.OnStatus(func(bool) { push() })

	gate := media.NewGate(media.GateConfig{
		Provider: media.NewDevFS(&logger),
		Logger:   &logger,
	})
	monitor := media.NewMonitor(&logger, func() {
		gate.RefreshDevices(context.Background())
	})

	var ctrl *connect.Controller
	sess := session.New(session.Config{
		URL:    cfg.LiveKitURL,
		Logger: &logger,
		OnConnected: func() {
			transcripts.Reset()
			push()
		},
		OnDisconnected: func() {
			ctrl.Disconnected()
		},
		OnTranscription: func(segments []*lksdk.TranscriptionSegment) {
			transcripts.Apply(toSegments(segments)...)
			push()
		},
	})

	tokens := connect.TokenSource(connect.TokenFunc(apiClient.Token))
	if cfg.Viewer {
		tokens = connect.TokenFunc(apiClient.ViewerToken)
	}
	ctrl = connect.NewController(connect.Config{
		Tokens:  tokens,
		Session: sess,
		Gate:    gate,
		Settle:  cfg.PermissionSettle(),
		Logger:  &logger,
	})

	stream := events.NewClient(events.Config{
		URL:            apiClient.EventsURL(),
		Client:         apiClient.HTTPClient(),
		Sink:           mirror,
		Logger:         &logger,
		ReconnectDelay: cfg.StreamReconnect(),
	})

	feedSrv := feed.NewServer(feed.Config{
		Logger:     &logger,
		Hub:        hub,
		Snapshot:   snapshot,
		ListenAddr: cfg.FeedListenAddr,
	})

	if err = monitor.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("device monitor failed to start")
	}

	var (
		wg   = &sync.WaitGroup{}
		errc = make(chan error, 2)
	)
	wg.Add(2)
	go feedSrv.Run(ctx, wg, errc)
	go stream.Run(ctx, wg)
	go func() {
		if err := ctrl.AutoConnect(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("auto-connect failed")
		}
	}()

	select {
	case err = <-errc:
		logger.Error().Err(err).Msg("unexpected server error, shutting down")
	case <-ctx.Done():
		logger.Warn().Msg("interrupted")
	}
	cancel()
	wg.Wait()

	monitor.Stop()
	sess.Leave()
	if err = gate.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close permission gate")
	}
}

func toSegments(in []*lksdk.TranscriptionSegment) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(in))
	for _, s := range in {
		if s == nil {
			continue
		}
		seg := transcript.Segment{
			ID:    s.ID,
			Text:  s.Text,
			Final: s.Final,
		}
		if s.StartTime > 0 {
			seg.FirstReceived = time.UnixMilli(int64(s.StartTime))
		}
		out = append(out, seg)
	}
	return out
}
