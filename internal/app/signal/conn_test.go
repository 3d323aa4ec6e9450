package signal

import (
	"io"
	"sync"
	"time"
)

// writtenFrame is one frame recorded by fakeConn.
type writtenFrame struct {
	messageType int
	data        []byte
}

// fakeConn is an in-memory Conn: it serves a scripted sequence of inbound frames
// and records everything written to it.
type fakeConn struct {
	mu      sync.Mutex
	inbound [][]byte
	writes  []writtenFrame
	closed  bool
}

func newFakeConn(frames ...[]byte) *fakeConn {
	return &fakeConn{inbound: frames}
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.inbound) == 0 {
		return 0, nil, io.EOF
	}

	frame := f.inbound[0]
	f.inbound = f.inbound[1:]
	return 1, frame, nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writes = append(f.writes, writtenFrame{messageType: messageType, data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *fakeConn) written() []writtenFrame {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]writtenFrame(nil), f.writes...)
}
