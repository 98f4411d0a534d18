package feed

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/husainf4l/mirror/internal/model"
)

const (
	defaultPushTimeout = time.Second
)

// Hub fans display updates out to every attached display client. A
// client that cannot take an update within the push timeout misses it;
// the next update carries the full state anyway.
type Hub struct {
	logger zerolog.Logger
	mx     *sync.RWMutex
	wires  map[string]chan model.DisplayUpdate
}

func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		logger: logger.With().Str("component", "feed-hub").Logger(),
		mx:     &sync.RWMutex{},
		wires:  make(map[string]chan model.DisplayUpdate),
	}
}

func (h *Hub) Attach(id string) <-chan model.DisplayUpdate {
	h.mx.Lock()
	defer func() {
		h.mx.Unlock()
		h.logger.Debug().Str("client", id).Msg("display client attached")
	}()

	tx := make(chan model.DisplayUpdate)
	h.wires[id] = tx
	return tx
}

func (h *Hub) Detach(id string) {
	h.mx.Lock()
	defer func() {
		h.mx.Unlock()
		h.logger.Debug().Str("client", id).Msg("display client detached")
	}()

	delete(h.wires, id)
}

func (h *Hub) Size() int {
	h.mx.RLock()
	defer h.mx.RUnlock()
	return len(h.wires)
}

func (h *Hub) Broadcast(ctx context.Context, u model.DisplayUpdate) {
	h.mx.RLock()
	wires := make(map[string]chan model.DisplayUpdate, len(h.wires))
	for id, tx := range h.wires {
		wires[id] = tx
	}
	h.mx.RUnlock()

	for id, tx := range wires {
		if canceled := h.send(ctx, id, u, tx); canceled {
			break
		}
	}
}

func (h *Hub) send(ctx context.Context, id string, u model.DisplayUpdate, tx chan<- model.DisplayUpdate) bool {
	var canceled bool
	tCh := time.NewTimer(defaultPushTimeout)
	select {
	case <-ctx.Done():
		canceled = true
	case <-tCh.C:
		h.logger.Warn().Str("client", id).Msg("dead display client, update dropped")
	case tx <- u:
		h.logger.Trace().Str("client", id).Msg("update pushed")
	}
	tCh.Stop()
	return canceled
}
