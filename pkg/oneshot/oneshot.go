// Package oneshot provides a single-message transport between the
// confine supervisor and its worker process.
//
// A pair is created before the worker spawns. Each side sends at most one
// gob-encoded message and receives at most one. If the worker dies before
// writing its message, the supervisor's Recv returns io.EOF, which the
// supervisor interprets as an unexplained termination.
//
// Large payloads are carried but discouraged; exactly one message ever
// flows in each direction, so the remedy for a payload that is too big is
// out-of-band storage, not backpressure. BytesRead lets the reader warn
// above a threshold.
package oneshot

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
)

// WarnSize is the payload size above which the supervisor emits a
// channel-size warning
const WarnSize = 1 << 20

// Conn is one end of a connected pair
type Conn struct {
	f *os.File

	mu     sync.Mutex
	sent   bool
	recved bool
	nread  int64
}

// New creates a connected pair. The Conn stays in the supervisor; the
// *os.File is handed to the worker process (via ExtraFiles) and must be
// closed in the supervisor once the worker has started.
func New() (*Conn, *os.File, error) {
	fds, err := syscall.Socketpair(syscall.AF_LOCAL, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("oneshot: socketpair: %w", err)
	}
	host := os.NewFile(uintptr(fds[0]), "oneshot-host")
	peer := os.NewFile(uintptr(fds[1]), "oneshot-worker")
	return &Conn{f: host}, peer, nil
}

// Open wraps the worker end of the pair from an inherited fd
func Open(fd uintptr) *Conn {
	return &Conn{f: os.NewFile(fd, "oneshot-worker")}
}

// Send writes the single message for this side. A second Send is an
// error by contract.
func (c *Conn) Send(e interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sent {
		return fmt.Errorf("oneshot: message already sent")
	}
	c.sent = true
	if err := gob.NewEncoder(c.f).Encode(e); err != nil {
		return fmt.Errorf("oneshot: failed to encode: %w", err)
	}
	return nil
}

// Recv reads the single message from the peer. Returns io.EOF when the
// peer closed (or died) without sending.
func (c *Conn) Recv(e interface{}) error {
	c.mu.Lock()
	if c.recved {
		c.mu.Unlock()
		return fmt.Errorf("oneshot: message already received")
	}
	c.recved = true
	c.mu.Unlock()

	cr := &countingReader{r: c.f}
	err := gob.NewDecoder(cr).Decode(e)
	c.mu.Lock()
	c.nread = cr.n
	c.mu.Unlock()
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("oneshot: failed to decode: %w", err)
	}
	return nil
}

// BytesRead reports how many bytes the last Recv consumed
func (c *Conn) BytesRead() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nread
}

// Close closes this end of the pair
func (c *Conn) Close() error {
	return c.f.Close()
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
