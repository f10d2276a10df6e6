package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/geoquery/internal/pkg/constants"
	"github.com/piresc/geoquery/internal/pkg/logger"
	"github.com/piresc/geoquery/internal/pkg/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ErrInvalidMessage is returned by ReadMessage for frames that are not a
// JSON WSMessage. The connection stays usable.
var ErrInvalidMessage = errors.New(constants.ErrorInvalidFormat)

// Client is one upgraded connection. Writes are serialized so query
// listeners on other goroutines can send through it.
type Client struct {
	ID       string
	ClientID string
	conn     *websocket.Conn
	writeMu  sync.Mutex
	done     chan struct{}
	once     sync.Once
}

// Manager manages WebSocket connections
type Manager struct {
	sync.RWMutex
	clients  map[string]*Client
	upgrader websocket.Upgrader
}

// NewManager creates a new WebSocket manager
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*Client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection upgrades the request and runs handleClient until it
// returns. The connection is registered for the duration and pinged to
// detect dead peers.
func (m *Manager) HandleConnection(c echo.Context, clientID string, handleClient func(*Client) error) error {
	ws, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:       uuid.NewString(),
		ClientID: clientID,
		conn:     ws,
		done:     make(chan struct{}),
	}
	m.addClient(client)
	defer func() {
		m.removeClient(client.ID)
		client.Close()
	}()

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go client.keepAlive()

	return handleClient(client)
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()
	m.clients[client.ID] = client
}

func (m *Manager) removeClient(id string) {
	m.Lock()
	defer m.Unlock()
	delete(m.clients, id)
}

// Count returns the number of open connections
func (m *Manager) Count() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.clients)
}

// CloseAll closes every open connection
func (m *Manager) CloseAll() {
	m.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.RUnlock()

	for _, client := range clients {
		client.Close()
	}
}

// ReadMessage blocks for the next client message
func (cl *Client) ReadMessage() (models.WSMessage, error) {
	var msg models.WSMessage
	_, data, err := cl.conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return msg, nil
}

// SendMessage sends an event with its JSON payload
func (cl *Client) SendMessage(event string, data interface{}) error {
	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error marshaling message data: %w", err)
	}

	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return cl.conn.WriteJSON(models.WSMessage{Event: event, Data: rawData})
}

// SendErrorMessage sends an error event
func (cl *Client) SendErrorMessage(code string, message string) error {
	return cl.SendMessage(constants.EventError, models.WSErrorMessage{
		Code:    code,
		Message: message,
	})
}

// Done is closed once the client is closed
func (cl *Client) Done() <-chan struct{} {
	return cl.done
}

// Close closes the connection
func (cl *Client) Close() {
	cl.once.Do(func() {
		close(cl.done)
		cl.writeMu.Lock()
		cl.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		cl.writeMu.Unlock()
		cl.conn.Close()
	})
}

func (cl *Client) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-cl.done:
			return
		case <-ticker.C:
			cl.writeMu.Lock()
			err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			cl.writeMu.Unlock()
			if err != nil {
				logger.Debug("WebSocket ping failed", logger.String("session_id", cl.ID), logger.Err(err))
				return
			}
		}
	}
}
