package server

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketClient wraps a WebSocket connection speaking the JSON run protocol.
type WebSocketClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

// NewWebSocketClient creates a new WebSocketClient from a WebSocket connection.
// Messages larger than maxMessageSize bytes close the connection; 0 means no limit.
func NewWebSocketClient(conn *websocket.Conn, maxMessageSize int64) *WebSocketClient {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &WebSocketClient{conn: conn}
}

// ReadRequest blocks for the next non-empty message and decodes it as a RunRequest.
// A message that is not valid JSON comes back as decodeErr with err nil, so the
// caller can answer it and keep reading. err is a transport error.
func (c *WebSocketClient) ReadRequest() (req RunRequest, decodeErr error, err error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return RunRequest{}, nil, err
		}
		if len(data) == 0 {
			continue
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return RunRequest{}, err, nil
		}
		return req, nil, nil
	}
}

// Send writes msg as a JSON text message.
func (c *WebSocketClient) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
