package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// conn pairs a websocket with a buffered writer goroutine. Sends never block.
type conn struct {
	ws   *websocket.Conn
	send chan []byte
	log  zerolog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func newConn(ws *websocket.Conn, log zerolog.Logger) *conn {
	c := &conn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		log:  log,
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

// sendJSON queues v for writing.
func (c *conn) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.sendRaw(data)
}

// sendRaw queues an encoded frame.
func (c *conn) sendRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// readPump delivers inbound text frames to fn until the peer goes away.
func (c *conn) readPump(fn func([]byte)) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("Websocket read error")
			}
			return
		}
		fn(data)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug().Err(err).Msg("Websocket write error")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.drain()
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drain flushes queued frames before the close frame.
func (c *conn) drain() {
	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// close stops the writer and closes the socket. Safe to call repeatedly.
func (c *conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}
