package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/husainf4l/mirror/internal/model"
)

const (
	defaultShutdownDeadline = 10 * time.Second

	defaultWebsocketReadBufferSize     = 10000
	defaultWebsocketWriteBufferSize    = 10000
	defaultWebSocketHandshakeTimeout   = 3 * time.Second
	defaultWebSocketCloseWriteDeadline = 2 * time.Second
	defaultWebSocketWriteDeadline      = 5 * time.Second

	// defaultPongWait - defaultPingInterval == is how long we give a
	// display client to respond
	defaultPingInterval = 5 * time.Second
	defaultPongWait     = 7 * time.Second
)

var (
	ErrUnexpected = errors.New("unexpected server error")
)

type (
	Config struct {
		Logger     *zerolog.Logger
		Hub        *Hub
		Snapshot   func() model.DisplayUpdate
		ListenAddr string
	}

	// Server pushes display updates to the mirror glass over a local
	// websocket. Traffic is one-way; client frames are read only to
	// notice the socket closing.
	Server struct {
		hub      *Hub
		snapshot func() model.DisplayUpdate
		ws       *websocket.Upgrader
		*http.Server

		logger zerolog.Logger
	}
)

func NewServer(cfg Config) *Server {
	srv := &Server{
		logger:   cfg.Logger.With().Str("component", "feed-server").Logger(),
		hub:      cfg.Hub,
		snapshot: cfg.Snapshot,
		ws: &websocket.Upgrader{
			HandshakeTimeout: defaultWebSocketHandshakeTimeout,
			ReadBufferSize:   defaultWebsocketReadBufferSize,
			WriteBufferSize:  defaultWebsocketWriteBufferSize,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", srv.feed)
	mux.HandleFunc("GET /display", srv.display)

	srv.Server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}
	return srv
}

func (srv *Server) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		srv.logger.Debug().Msg("server stopped")
		wg.Done()
	}()

	errSrv := make(chan error)
	go func() {
		errSrv <- srv.ListenAndServe()
	}()

	srv.logger.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-errSrv:
		if !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Join(ErrUnexpected, err)
		}
	case <-ctx.Done():
		shCtx, shCancel := context.WithTimeout(context.Background(), defaultShutdownDeadline)
		defer shCancel()
		if err := srv.Shutdown(shCtx); err != nil {
			srv.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}
}

// display returns the current display snapshot over plain HTTP, for
// clients that poll instead of holding a socket.
func (srv *Server) display(w http.ResponseWriter, _ *http.Request) {
	b, err := json.Marshal(srv.snapshot())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(b); err != nil {
		srv.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (srv *Server) feed(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.ws.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Error().Err(err).Msg("websocket upgrade failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	tx := srv.hub.Attach(id)

	ctx, cancel := context.WithCancel(r.Context())
	logger := srv.logger.With().Str("client", id).Logger()
	logger.Debug().Msg("display client connected")

	go srv.handleFeedConn(ctx, cancel, conn, id, tx, &logger)
}

func (srv *Server) handleFeedConn(
	ctx context.Context,
	cancel context.CancelFunc,
	conn *websocket.Conn,
	id string,
	tx <-chan model.DisplayUpdate,
	logger *zerolog.Logger,
) {
	wg := &sync.WaitGroup{}

	wg.Add(2)
	go func() {
		feedSender(ctx, wg, conn, srv.snapshot(), tx, logger)
		cancel()
	}()
	go func() {
		feedReceiver(ctx, wg, conn, logger)
		cancel()
	}()

	wg.Wait()
	feedCloser(conn, logger)
	srv.hub.Detach(id)
	logger.Debug().Msg("display client gone")
}

func feedSender(
	ctx context.Context,
	wg *sync.WaitGroup,
	conn *websocket.Conn,
	initial model.DisplayUpdate,
	tx <-chan model.DisplayUpdate,
	logger *zerolog.Logger,
) {
	pingTicker := time.NewTicker(defaultPingInterval)
	defer func() {
		pingTicker.Stop()
		wg.Done()
	}()

	if !writeUpdate(conn, initial, logger) {
		return
	}

SendLoop:
	for {
		select {
		case <-ctx.Done():
			break SendLoop
		case <-pingTicker.C:
			wsErr := conn.SetWriteDeadline(time.Now().Add(defaultWebSocketWriteDeadline))
			if wsErr != nil {
				logger.Error().Err(wsErr).Msg("failed to set websocket write deadline")
				break SendLoop
			}
			wsErr = conn.WriteMessage(websocket.PingMessage, []byte{})
			if wsErr != nil {
				logger.Error().Err(wsErr).Msg("failed to send ping")
			}
			logger.Trace().Msg("ping sent")

		case u, ok := <-tx:
			if !ok {
				break SendLoop
			}
			if !writeUpdate(conn, u, logger) {
				break SendLoop
			}
		}
	}
}

func writeUpdate(conn *websocket.Conn, u model.DisplayUpdate, logger *zerolog.Logger) bool {
	b, err := json.Marshal(&u)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshall display update")
		return false
	}
	if err = conn.SetWriteDeadline(time.Now().Add(defaultWebSocketWriteDeadline)); err != nil {
		logger.Error().Err(err).Msg("failed to set websocket write deadline")
		return false
	}
	if err = conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Error().Err(err).Msg("failed to write display update")
		return false
	}
	return true
}

func feedReceiver(ctx context.Context, wg *sync.WaitGroup, conn *websocket.Conn, logger *zerolog.Logger) {
	defer wg.Done()

	readDeadLineFunc := func(deadline time.Duration) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	}
	conn.SetPongHandler(func(string) error {
		logger.Trace().Msg("got pong")
		return readDeadLineFunc(defaultPongWait)
	})
	if err := readDeadLineFunc(defaultPongWait); err != nil {
		logger.Error().Err(err).Msg("failed to set websocket read deadline")
		return
	}

RecvLoop:
	for {
		select {
		case <-ctx.Done():
			break RecvLoop
		default:
			// display clients send nothing meaningful; reads exist to
			// detect the close handshake and keep pongs flowing
			if _, _, wsErr := conn.ReadMessage(); wsErr != nil {
				if websocket.IsCloseError(wsErr,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway) {
					logger.Debug().Err(wsErr).Msg("connection closed")
				} else {
					logger.Warn().Err(wsErr).Msg("unexpected error during receive")
				}
				break RecvLoop
			}
		}
	}
}

func feedCloser(conn *websocket.Conn, logger *zerolog.Logger) {
	wsErr := conn.SetWriteDeadline(time.Now().Add(defaultWebSocketCloseWriteDeadline))
	if wsErr != nil {
		logger.Error().Err(wsErr).Msg("failed to set websocket write deadline during closing")
	} else {
		wsErr = conn.WriteMessage(websocket.CloseMessage, []byte{})
		if wsErr != nil && !errors.Is(wsErr, websocket.ErrCloseSent) {
			logger.Error().Err(wsErr).Msg("failed to close websocket connection")
		}
	}
	if wsErr = conn.Close(); wsErr != nil {
		logger.Error().Err(wsErr).Msg("failed to close websocket connection")
	}
}
