/*
Package signal contains the core logic of the voice signaling server.

This file tracks in-flight pairwise calls. The relay itself stays dumb, but the table
lets the server reject an answer that was never preceded by a call, and lets it tell
the surviving party that a call ended when its peer's connection drops without a
hangup message.
*/
package signal

import "sync"

// callState is the lifecycle position of one pairwise call.
type callState int

const (
	callRinging callState = iota
	callActive
)

// pairKey identifies a call by the unordered pair of participant ids.
type pairKey struct {
	a, b string
}

// newPairKey orders the two ids so (x,y) and (y,x) map to the same key.
func newPairKey(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// callSession records who initiated the call and how far it has progressed.
type callSession struct {
	caller string
	state  callState
}

// callTable holds at most one session per participant pair.
type callTable struct {
	mu       sync.Mutex
	sessions map[pairKey]*callSession
}

func newCallTable() *callTable {
	return &callTable{
		sessions: make(map[pairKey]*callSession),
	}
}

// Ring records that caller invited callee. A repeated call from either side
// restarts the session in the ringing state.
func (t *callTable) Ring(caller, callee string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessions[newPairKey(caller, callee)] = &callSession{caller: caller, state: callRinging}
}

// Answer validates that answerer may answer a call involving caller. It returns
// false when no session exists for the pair or when the session is still ringing
// and the answerer is the party who initiated it. On success a ringing session
// becomes active; an already-active session stays active (renegotiation).
func (t *callTable) Answer(answerer, caller string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[newPairKey(answerer, caller)]
	if !ok {
		return false
	}

	if session.state == callRinging && session.caller == answerer {
		return false
	}

	session.state = callActive
	return true
}

// End removes the session for the pair, if any.
func (t *callTable) End(x, y string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.sessions, newPairKey(x, y))
}

// Drop removes every session involving userID and returns the ids of the peers
// that were on the other end, so they can be told the call ended.
func (t *callTable) Drop(userID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var peers []string
	for key := range t.sessions {
		if key.a == userID || key.b == userID {
			peer := key.a
			if peer == userID {
				peer = key.b
			}
			peers = append(peers, peer)
			delete(t.sessions, key)
		}
	}

	return peers
}
