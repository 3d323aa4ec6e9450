/*
Package signal contains the core logic of the voice signaling server.

This file defines the Hub, which wires authenticated connections into the presence
registry, relays call-setup messages between exactly two parties, and pushes presence
snapshots to every connected client whenever presence changes.
*/
package signal

import (
	"github.com/rs/zerolog"

	"voicelink/internal/app/presence"
	"voicelink/internal/app/user"
	"voicelink/internal/pkg/logx"
)

// Hub coordinates all live signaling connections. The presence registry is the only
// authoritative shared state; the hub copies what it needs out of it under the
// registry's lock and performs all sends after the lock is released, so one stalled
// client can never block presence updates for everyone else.
type Hub struct {
	registry *presence.Registry
	calls    *callTable
	logger   zerolog.Logger
}

// NewHub constructs a Hub with an empty registry and call table.
func NewHub() *Hub {
	hubLogger := logx.Logger().With().Str("component", "Hub").Logger()

	return &Hub{
		registry: presence.NewRegistry(),
		calls:    newCallTable(),
		logger:   hubLogger,
	}
}

// Registry exposes the hub's presence registry for read access.
func (h *Hub) Registry() *presence.Registry {
	return h.registry
}

// Attach registers an authenticated client. If the same identity already holds a
// live connection, that older connection is kicked with close code 4001 and its
// later disconnect becomes a no-op. Every connected client then receives a fresh
// presence snapshot, because the joining user's online status changed.
func (h *Hub) Attach(c *Client) {
	prev, replaced := h.registry.Register(c.id, c.name, c)
	if replaced {
		if stale, ok := prev.(*Client); ok {
			h.logger.Warn().
				Str("user_id", c.id).
				Msg("User already connected. Closing old connection for replacement.")
			stale.Kick("Session replaced by new connection. Check other tabs.")
		}
	}

	h.logger.Info().Str("user_id", c.id).Str("user_name", c.name).Msg("Client attached.")

	h.broadcastUsers()
}

// Detach removes the client's connection from the registry. When the handle was
// still the authoritative one for its identity, calls involving the user are torn
// down, their peers are notified, and a presence snapshot is broadcast. When the
// handle had already been superseded by a reconnect this is a no-op: the newer
// connection's presence already reflects reality.
func (h *Hub) Detach(c *Client) {
	userID, ok := h.registry.MarkOffline(c)
	if !ok {
		h.logger.Debug().Str("user_id", c.id).Msg("Ignoring detach for stale connection.")
		return
	}

	h.logger.Info().Str("user_id", userID).Msg("Client detached.")

	// Tell anyone mid-call with this user that the call is over; a dropped
	// transport never sends its own endCall.
	for _, peerID := range h.calls.Drop(userID) {
		h.deliver(peerID, Envelope{
			Type:    TypeCallEnded,
			Payload: CallEndedPayload{From: userID},
		})
	}

	h.broadcastUsers()
}

// RelayCall forwards a call offer to the target as an incomingCall. The target must
// be known and online; otherwise the message is dropped silently and no call session
// is recorded.
func (h *Hub) RelayCall(from *Client, payload CallPayload) {
	delivered := h.deliver(payload.To, Envelope{
		Type: TypeIncomingCall,
		Payload: IncomingCallPayload{
			From:     from.id,
			FromName: from.name,
			Offer:    payload.Offer,
		},
	})

	if delivered {
		h.calls.Ring(from.id, payload.To)
		h.logger.Debug().Str("from", from.id).Str("to", payload.To).Msg("Call relayed.")
	}
}

// RelayAnswer forwards a call answer back to the caller. An answer with no preceding
// call for the same pair, or one sent by the party that initiated the ring, is
// dropped.
func (h *Hub) RelayAnswer(from *Client, payload AnswerPayload) {
	if !h.calls.Answer(from.id, payload.To) {
		h.logger.Warn().Str("from", from.id).Str("to", payload.To).Msg("Dropping answer with no matching call.")
		return
	}

	h.deliver(payload.To, Envelope{
		Type: TypeCallAnswered,
		Payload: CallAnsweredPayload{
			From:   from.id,
			Answer: payload.Answer,
		},
	})
}

// RelayCandidate forwards an ICE candidate to the target. Candidates may race the
// answer during setup, so no call-session check is applied.
func (h *Hub) RelayCandidate(from *Client, payload CandidatePayload) {
	h.deliver(payload.To, Envelope{
		Type: TypeCandidate,
		Payload: CandidatePayload{
			From:      from.id,
			Candidate: payload.Candidate,
		},
	})
}

// RelayEndCall tears down the call session for the pair and notifies the target.
func (h *Hub) RelayEndCall(from *Client, payload EndCallPayload) {
	h.calls.End(from.id, payload.To)

	h.deliver(payload.To, Envelope{
		Type:    TypeCallEnded,
		Payload: CallEndedPayload{From: from.id},
	})
}

// RelayToggleMic forwards the sender's microphone state to the target.
func (h *Hub) RelayToggleMic(from *Client, payload ToggleMicPayload) {
	h.deliver(payload.To, Envelope{
		Type: TypeMicToggled,
		Payload: MicToggledPayload{
			From:      from.id,
			IsEnabled: payload.IsEnabled,
		},
	})
}

// deliver resolves the target user's current connection and queues the envelope on
// it. It reports whether the relay precondition held (target known and online). A
// queue-full or already-closed send error is logged and otherwise ignored: relays
// are best-effort, at most once.
func (h *Hub) deliver(to string, env Envelope) bool {
	entry, ok := h.registry.Find(to)
	if !ok || !entry.User.IsOnline {
		h.logger.Debug().Str("to", to).Str("msg_type", string(env.Type)).Msg("Dropping message for unreachable target.")
		return false
	}

	target, ok := entry.Handle.(*Client)
	if !ok {
		return false
	}

	if err := target.Enqueue(env); err != nil {
		h.logger.Warn().Err(err).Str("to", to).Str("msg_type", string(env.Type)).Msg("Failed to queue message for target.")
	}

	return true
}

// broadcastUsers pushes the current presence snapshot to every online connection.
// Each recipient gets the list with its own identity excluded. The entry list is a
// point-in-time copy, so registration churn during the fan-out cannot corrupt it,
// and a send failure to one stale connection never aborts the rest.
func (h *Hub) broadcastUsers() {
	entries := h.registry.Entries()

	for _, recipient := range entries {
		if !recipient.User.IsOnline {
			continue
		}

		client, ok := recipient.Handle.(*Client)
		if !ok {
			continue
		}

		users := make(UsersPayload, 0, len(entries)-1)
		for _, e := range entries {
			if e.User.ID == recipient.User.ID {
				continue
			}
			users = append(users, user.User{ID: e.User.ID, Name: e.User.Name, IsOnline: e.User.IsOnline})
		}

		if err := client.Enqueue(Envelope{Type: TypeUsers, Payload: users}); err != nil {
			h.logger.Warn().Err(err).Str("user_id", recipient.User.ID).Msg("Failed to queue presence snapshot.")
		}
	}
}

// Shutdown closes the outbound queue of every online connection, letting each write
// pump flush, send a close frame, and tear its connection down.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub connections...")

	for _, entry := range h.registry.Entries() {
		if !entry.User.IsOnline {
			continue
		}
		if client, ok := entry.Handle.(*Client); ok {
			client.closeSend()
		}
	}
}
