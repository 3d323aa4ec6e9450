/*
Package signal contains the core logic of the voice signaling server.

This file defines the Client struct, representing one authenticated WebSocket
connection. It manages the connection's lifecycle, its message pump loops (ReadPump
and WritePump), and dispatches inbound signaling events to the Hub.
*/
package signal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voicelink/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	// SDP offers with many candidates can be a few KB.
	maxMessageSize = 16384

	// size of the per-client outbound message queue.
	sendQueueSize = 256

	// WsCloseCodeSessionReplaced is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was replaced by a new connection.
	WsCloseCodeSessionReplaced = 4001
)

// Conn is the subset of *websocket.Conn the client session uses. It exists so the
// pump and dispatch logic can be exercised in tests without a network connection.
type Conn interface {
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents one authenticated signaling connection and the identity bound
// to it at handshake time. A client is only ever constructed after token
// verification succeeded.
type Client struct {
	// the hub this connection is attached to.
	hub *Hub

	// underlying WebSocket connection.
	conn Conn

	// verified identity, fixed for the lifetime of the connection.
	id   string
	name string

	// a buffered channel used to queue messages waiting to be sent to the client.
	send chan []byte

	// sendMu and closed guard the send channel: a concurrent broadcast must never
	// write to a queue that a disconnect or supersede race has already closed.
	sendMu sync.Mutex
	closed bool

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an already-verified identity.
func NewClient(hub *Hub, conn Conn, userID, displayName string) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "signal").
		Str("user_id", userID).
		Logger()

	return &Client{
		hub:    hub,
		conn:   conn,
		id:     userID,
		name:   displayName,
		send:   make(chan []byte, sendQueueSize),
		logger: clientLogger,
	}
}

// ID returns the verified user id bound to this connection.
func (c *Client) ID() string { return c.id }

// Name returns the verified display name bound to this connection.
func (c *Client) Name() string { return c.name }

// ReadPump reads messages from the WebSocket connection and dispatches them in
// arrival order. It handles heartbeats (Pong) and performs cleanup when the
// connection closes, abruptly or otherwise.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect detaches the client from the hub and closes the transport.
// A failure anywhere in here must stay local to this connection.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.hub.Detach(c)
	c.closeSend()

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage decodes one raw frame and routes it by event type.
// Malformed frames are dropped with a log entry; they never terminate the session.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inbound inboundEnvelope
	if err := json.Unmarshal(messageBytes, &inbound); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	switch inbound.Type {
	case TypeCall:
		var payload CallPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid call payload")
			return
		}
		c.hub.RelayCall(c, payload)

	case TypeAnswer:
		var payload AnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid answer payload")
			return
		}
		c.hub.RelayAnswer(c, payload)

	case TypeCandidate:
		var payload CandidatePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid ice-candidate payload")
			return
		}
		c.hub.RelayCandidate(c, payload)

	case TypeEndCall:
		var payload EndCallPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid endCall payload")
			return
		}
		c.hub.RelayEndCall(c, payload)

	case TypeToggleMic:
		var payload ToggleMicPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("Client sent invalid toggleMic payload")
			return
		}
		c.hub.RelayToggleMic(c, payload)

	default:
		c.logger.Warn().Str("msg_type", string(inbound.Type)).Msg("Client sent unsupported message type")
	}
}

// WritePump writes messages from the Client.send channel to the WebSocket connection
// and maintains the ping heartbeat.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage handles messages pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// Enqueue marshals the envelope and queues it for delivery on this connection.
// A full queue means the client has stalled; the message is dropped and callers
// must not treat that as fatal to the operation they were performing.
func (c *Client) Enqueue(env Envelope) error {
	messageBytes, err := json.Marshal(env)
	if err != nil {
		c.logger.Error().Err(err).Str("msg_type", string(env.Type)).Msg("Error marshaling message for client")
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return fmt.Errorf("client connection already closed")
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
		return fmt.Errorf("client send queue full")
	}
}

// Kick gracefully closes the client's connection by sending a custom WebSocket
// Close Frame (code 4001) indicating that the session was replaced.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Closing superseded connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, reason)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to send session-replaced close message.")
	}

	c.closeSend()
}

// closeSend closes the outbound queue exactly once, which makes WritePump exit.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
