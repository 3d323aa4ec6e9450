/*
Package signal contains the core logic of the voice signaling server: authenticated
WebSocket sessions, the presence hub, and the pairwise call relay.

This file defines the wire protocol. Every frame is a JSON envelope with a type and a
payload. SDP offers/answers and ICE candidates are opaque blobs (json.RawMessage): the
relay transports them between peers but never parses or validates them, which keeps
the signaling core independent of the media subsystem's wire format.
*/
package signal

import (
	"encoding/json"

	"voicelink/internal/app/user"
)

// MessageType identifies a signaling event on the wire.
type MessageType string

// Client-to-server events.
const (
	TypeCall      MessageType = "call"
	TypeAnswer    MessageType = "answer"
	TypeCandidate MessageType = "ice-candidate"
	TypeEndCall   MessageType = "endCall"
	TypeToggleMic MessageType = "toggleMic"
)

// Server-to-client events.
const (
	TypeUsers        MessageType = "users"
	TypeIncomingCall MessageType = "incomingCall"
	TypeCallAnswered MessageType = "callAnswered"
	TypeCallEnded    MessageType = "callEnded"
	TypeMicToggled   MessageType = "micToggled"
)

// Envelope is the outer frame for every signaling message in both directions.
type Envelope struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// inboundEnvelope defers payload decoding until the type is known.
type inboundEnvelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CallPayload starts a call: the offer is relayed to the target untouched.
type CallPayload struct {
	To    string          `json:"to"`
	Offer json.RawMessage `json:"offer"`
}

// IncomingCallPayload is delivered to the callee.
type IncomingCallPayload struct {
	From     string          `json:"from"`
	FromName string          `json:"fromName"`
	Offer    json.RawMessage `json:"offer"`
}

// AnswerPayload accepts a call.
type AnswerPayload struct {
	To     string          `json:"to"`
	Answer json.RawMessage `json:"answer"`
}

// CallAnsweredPayload is delivered back to the caller.
type CallAnsweredPayload struct {
	From   string          `json:"from"`
	Answer json.RawMessage `json:"answer"`
}

// CandidatePayload carries an ICE candidate; the same event name flows in both
// directions, addressed with "to" inbound and "from" outbound.
type CandidatePayload struct {
	To        string          `json:"to,omitempty"`
	From      string          `json:"from,omitempty"`
	Candidate json.RawMessage `json:"candidate"`
}

// EndCallPayload hangs up.
type EndCallPayload struct {
	To string `json:"to"`
}

// CallEndedPayload is delivered to the remaining party.
type CallEndedPayload struct {
	From string `json:"from"`
}

// ToggleMicPayload reports the sender's microphone state to the peer.
type ToggleMicPayload struct {
	To        string `json:"to"`
	IsEnabled bool   `json:"isEnabled"`
}

// MicToggledPayload is delivered to the peer.
type MicToggledPayload struct {
	From      string `json:"from"`
	IsEnabled bool   `json:"isEnabled"`
}

// UsersPayload is the ordered presence snapshot broadcast on every presence change.
// The recipient's own identity is excluded from its copy.
type UsersPayload []user.User
