package realtime

import "errors"

var (
	// ErrConnClosed indicates a send on a closed connection
	ErrConnClosed = errors.New("connection closed")

	// ErrSendBufferFull indicates a client that stopped reading
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrWidgetDestroyed indicates a command to a destroyed widget
	ErrWidgetDestroyed = errors.New("widget destroyed")
)
