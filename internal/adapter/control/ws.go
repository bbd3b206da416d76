package control

import (
	"BiteBot/internal/app/engine"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	clientBuffer = 32
	writeTimeout = 5 * time.Second
)

// Hub рассылает события движка подключённым WebSocket-клиентам.
// Рассылка не блокируется: медленный клиент теряет события.
type Hub struct {
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// API слушает только loopback
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Observe реализует engine.Observer.
func (h *Hub) Observe(ev engine.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Warnw("Failed to encode event", "kind", ev.Kind, "error", err)
		return
	}
	h.Broadcast(data)
}

// Broadcast отправляет сообщение всем клиентам, не дожидаясь записи.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Len возвращает число подключённых клиентов.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close закрывает все соединения; обработчики завершаются сами.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

// Handle поднимает WebSocket и держит его до разрыва. Входящие сообщения игнорируются.
func (h *Hub) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warnw("WebSocket upgrade failed", "remote", c.RealIP(), "error", err)
		return nil
	}
	cl := &wsClient{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.logger.Debugw("WebSocket client connected", "remote", c.RealIP())

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(cl)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, cl)
	close(cl.send)
	h.mu.Unlock()
	<-done
	_ = conn.Close()
	h.logger.Debugw("WebSocket client disconnected", "remote", c.RealIP())
	return nil
}

func (h *Hub) writeLoop(cl *wsClient) {
	for msg := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Разрыв: читающий цикл получит ошибку и уберёт клиента
			_ = cl.conn.Close()
			for range cl.send {
			}
			return
		}
	}
}
