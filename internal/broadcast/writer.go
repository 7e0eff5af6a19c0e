package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/plantpulse/internal/domain"
)

const (
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	pongDeadline  = 60 * time.Second
)

// DefaultQueueSize is the per-connection send queue used when the caller has
// no better figure. Every accepted command is broadcast, so the queue must
// hold more than a full command burst from several operators at once.
const DefaultQueueSize = 256

// ClientWriter owns all writes to one WebSocket connection. Messages are
// queued by Send and written by a single goroutine, which is the only writer
// gorilla/websocket allows.
type ClientWriter struct {
	id          uuid.UUID
	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	exited      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup

	// mu guards closed; Send holds it while enqueueing so nothing is accepted
	// after the final drain has started.
	mu     sync.RWMutex
	closed bool
}

// NewClientWriter starts the writer goroutine for connection. A queueSize
// below one falls back to DefaultQueueSize.
func NewClientWriter(connection *websocket.Conn, clock clockwork.Clock, queueSize int) *ClientWriter {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	cw := &ClientWriter{
		id:          uuid.New(),
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, queueSize),
		doneChannel: make(chan struct{}),
		exited:      make(chan struct{}),
	}
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *ClientWriter) ID() uuid.UUID { return cw.id }

// Send enqueues data for the writer goroutine. It never blocks: a full queue
// returns ErrSlowClient, a stopped or closing writer returns
// ErrConnectionClosed. Accepted data is written before any close frame.
func (cw *ClientWriter) Send(data []byte) error {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	if cw.closed {
		return domain.ErrConnectionClosed
	}

	select {
	case cw.sendChannel <- data:
		return nil
	default:
		return domain.ErrSlowClient
	}
}

// Touch extends the read deadline after inbound traffic. Must be called from
// the goroutine reading the connection.
func (cw *ClientWriter) Touch() {
	cw.updateReadDeadline()
}

func (cw *ClientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()
	defer close(cw.exited)
	defer cw.markClosed()

	for {
		select {
		case msg := <-cw.sendChannel:
			if err := cw.write(msg); err != nil {
				// unblocks the reader so the hub unregisters this connection
				_ = cw.connection.Close()
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = cw.connection.Close()
				return
			}
		case <-cw.doneChannel:
			cw.drain()
			return
		}
	}
}

func (cw *ClientWriter) write(msg []byte) error {
	cw.updateWriteDeadline()
	return cw.connection.WriteMessage(websocket.TextMessage, msg)
}

// drain flushes what Send accepted before the writer was stopped. The whole
// flush shares one write deadline; the first failure abandons the rest.
func (cw *ClientWriter) drain() {
	cw.updateWriteDeadline()
	for {
		select {
		case msg := <-cw.sendChannel:
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (cw *ClientWriter) markClosed() {
	cw.mu.Lock()
	cw.closed = true
	cw.mu.Unlock()
}

// Stop closes the connection without a close frame. Queued messages are
// dropped with it.
func (cw *ClientWriter) Stop() {
	cw.stopOnce.Do(func() {
		cw.markClosed()
		close(cw.doneChannel)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

// Close flushes the queue within one write deadline, then sends a close
// frame with reason before closing.
func (cw *ClientWriter) Close(reason string) {
	cw.stopOnce.Do(func() {
		cw.markClosed()
		close(cw.doneChannel)

		// The close frame must not race the run goroutine's writes.
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)

		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

func (cw *ClientWriter) configurePongHandler() {
	cw.updateReadDeadline()
	cw.connection.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
}

func (cw *ClientWriter) updateWriteDeadline() {
	_ = cw.connection.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}

func (cw *ClientWriter) updateReadDeadline() {
	_ = cw.connection.SetReadDeadline(cw.clock.Now().Add(pongDeadline))
}
