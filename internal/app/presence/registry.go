/*
Package presence maintains the authoritative in-memory view of which users are known
to the server and whether each one currently has a live signaling connection.

The Registry is the single shared mutable resource of the signaling core. Every read
and write goes through one mutex, and no operation performs I/O while holding it:
callers copy what they need under the lock and deliver messages after releasing it.
*/
package presence

import (
	"sync"

	"voicelink/internal/app/user"
)

// Handle is an opaque reference to one live transport connection. The registry
// never dereferences it; it only stores it, compares it, and hands it back.
// Handles must be comparable (connection pointers are).
type Handle any

// Entry is a point-in-time copy of one presence record.
type Entry struct {
	User   user.User
	Handle Handle
}

// record is the internal mutable presence record for one user id.
type record struct {
	name   string
	online bool
	handle Handle
}

// Registry maps user ids to presence records, preserving first-registration order.
// A record is created on the first successful connection for a user id and retained
// after disconnect with online flipped to false, so returning users keep their place
// in the list.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*record
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*record),
	}
}

// Register inserts or updates the record for userID, marking it online and
// associating it with the given connection handle. If the user already had a live
// handle, that previous handle is returned with replaced=true so the caller can
// close the stale connection; the returned handle is never the one just registered.
func (reg *Registry) Register(userID, displayName string, h Handle) (prev Handle, replaced bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec, ok := reg.records[userID]
	if !ok {
		reg.records[userID] = &record{name: displayName, online: true, handle: h}
		reg.order = append(reg.order, userID)
		return nil, false
	}

	if rec.online && rec.handle != nil && rec.handle != h {
		prev, replaced = rec.handle, true
	}

	rec.name = displayName
	rec.online = true
	rec.handle = h

	return prev, replaced
}

// MarkOffline finds the record whose current handle equals h and flips it offline.
// It returns the affected user id when such a record exists. When no record holds
// this handle (it was already superseded by a newer connection), it returns ok=false;
// this is an expected no-op under reconnect races, not an error.
func (reg *Registry) MarkOffline(h Handle) (userID string, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for id, rec := range reg.records {
		if rec.online && rec.handle == h {
			rec.online = false
			rec.handle = nil
			return id, true
		}
	}

	return "", false
}

// Find returns a copy of the record for userID.
func (reg *Registry) Find(userID string) (Entry, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rec, ok := reg.records[userID]
	if !ok {
		return Entry{}, false
	}

	return reg.entryLocked(userID, rec), true
}

// Entries returns a copy of every presence record, online or not, in registration order.
func (reg *Registry) Entries() []Entry {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	entries := make([]Entry, 0, len(reg.order))
	for _, id := range reg.order {
		entries = append(entries, reg.entryLocked(id, reg.records[id]))
	}

	return entries
}

// Snapshot returns the user list in registration order, optionally excluding one
// identity (so a client is not shown itself in its own online-user list). Pass an
// empty string to exclude nobody.
func (reg *Registry) Snapshot(excludingUserID string) []user.User {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	users := make([]user.User, 0, len(reg.order))
	for _, id := range reg.order {
		if id == excludingUserID {
			continue
		}
		rec := reg.records[id]
		users = append(users, user.User{ID: id, Name: rec.name, IsOnline: rec.online})
	}

	return users
}

func (reg *Registry) entryLocked(id string, rec *record) Entry {
	return Entry{
		User:   user.User{ID: id, Name: rec.name, IsOnline: rec.online},
		Handle: rec.handle,
	}
}
