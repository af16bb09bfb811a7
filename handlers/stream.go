package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"iot-anomaly-engine/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHub рассылает каждый новый итог прогона подключённым клиентам.
// Медленный клиент отбрасывается, движок никогда не блокируется.
type StreamHub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan models.DetectionSummary
	log    *zap.Logger
}

func NewStreamHub(log *zap.Logger) *StreamHub {
	return &StreamHub{
		subs: make(map[int]chan models.DetectionSummary),
		log:  log,
	}
}

// Broadcast неблокирующая рассылка; переполненный канал пропускается
func (h *StreamHub) Broadcast(summary models.DetectionSummary) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- summary:
		default:
		}
	}
}

func (h *StreamHub) subscribe() (int, chan models.DetectionSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan models.DetectionSummary, 8)
	h.subs[h.nextID] = ch
	return h.nextID, ch
}

func (h *StreamHub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// HandleStream апгрейд в websocket и пересылка итогов до отключения клиента
func (h *StreamHub) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id, ch := h.subscribe()
	defer h.unsubscribe(id)

	// читаем только для обнаружения разрыва соединения
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case summary, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(summary); err != nil {
				return
			}
		}
	}
}
