// Package fdll implements the fd lower layer: the layer that
// owns one non-blocking I/O descriptor, drives the three-step
// sub_open/check_open/retry_open protocol, and serializes callback delivery
// for a single endpoint so a driver's operations table never has to worry
// about two callbacks for the same object running concurrently.
//
// Grounded in a goPoller/registration callback-serialization
// pattern: one registration per descriptor, with readiness callbacks
// delivered from the poller's single loop goroutine, generalized here from
// net.Conn to a raw osservices.IOD. The LL's own mutex guards its state and
// descriptor and serializes writes; it is not held while callbacks are
// delivered.
package fdll

import (
	"sync"
	"time"

	"github.com/gensio-go/gensio/internal/gensioerr"
	"github.com/gensio-go/gensio/internal/osservices"
)

// Ops is the operations table a driver populates to satisfy the
// fd-LL contract. A client-style driver (TCP client, PTY) populates every
// method; a server-accepted endpoint (TCP accepted child) only populates
// the methods needed once already open — SubOpen/RetryOpen/CheckOpen are
// never called on it because Bind starts the LL already open.
type Ops interface {
	// SubOpen makes the first connect/spawn attempt. inProgress true means
	// the fd-LL should await writability and then call CheckOpen; err
	// non-nil means the attempt is terminally exhausted.
	SubOpen() (iod osservices.IOD, inProgress bool, err error)

	// RetryOpen advances to the next candidate (TCP: next address; PTY:
	// never called, since PTY spawn never goes in-progress) and reattempts.
	RetryOpen() (iod osservices.IOD, inProgress bool, err error)

	// CheckOpen validates an async connect's outcome once the descriptor
	// becomes writable.
	CheckOpen(iod osservices.IOD) error

	// CheckClose is polled during teardown. done true means the driver has
	// finished whatever blocking cleanup it needed (PTY child reap);
	// retryAfter > 0 asks the fd-LL to poll again after that delay.
	CheckClose(iod osservices.IOD) (done bool, retryAfter time.Duration)

	ReadReady(iod osservices.IOD)
	ExceptReady(iod osservices.IOD)

	// Write is the serialized write path; aux carries driver-specific
	// out-of-band annotations ("oob" for TCP).
	Write(iod osservices.IOD, buf []byte, aux string) (int, error)

	// Read is the pull-side counterpart: a ReadReady/ExceptReady
	// notification tells the owner data may be available, and it calls Read
	// (tagging aux "oob" after an except-ready, per the TCP client's
	// distinct OOB-read path) to actually fetch it.
	Read(iod osservices.IOD, buf []byte, aux string) (int, error)

	RaddrToStr(iod osservices.IOD) string
	GetRaddr(iod osservices.IOD) []byte

	Control(key string, isSet bool, arg any) (any, error)

	// Free releases any driver-private state once the fd-LL has fully torn
	// down. Called at most once.
	Free()
}

// EventSink receives the fd-LL's lifecycle notifications, implemented by the
// base endpoint (internal/gensiobase).
type EventSink interface {
	OnOpenDone(err error)
	OnReadReady()
	OnExceptReady()
	OnCloseDone()
}

type state int

const (
	stateIdle state = iota
	stateOpening
	stateOpen
	stateClosing
	stateClosed
)

// LL is one fd lower layer instance, owning a single descriptor across its
// open/read-write/close lifecycle.
type LL struct {
	svc  osservices.Services
	ops  Ops
	sink EventSink
	pool *osservices.BytePool

	mu    sync.Mutex // guards state/iod below against concurrent poller callbacks; also serializes Write
	st    state
	iod   osservices.IOD
	timer osservices.Timer
}

// New builds an fd-LL that has not yet been opened; call Open to start the
// sub_open protocol, or Bind to adopt an already-open descriptor (the TCP
// accepter's accept path, which hands the LL a socket that is already
// connected). The sink is attached separately via SetSink since the base
// endpoint that implements EventSink is itself built around the LL.
// readbuf sizes the pooled buffers ReadPooled draws from; 0 picks the pool's
// default bucket sizes.
func New(svc osservices.Services, ops Ops, readbuf int) *LL {
	return &LL{svc: svc, ops: ops, pool: osservices.NewBytePool(readbuf)}
}

// SetSink attaches the event sink. Must be called before Open/Bind.
func (l *LL) SetSink(sink EventSink) { l.sink = sink }

// Open drives sub_open, looping through RetryOpen internally only when the
// driver itself cannot (the TCP driver's own sub_open already loops the
// address list on hard failure itself; this method's retry loop
// only covers the check_open → retry_open path for an async connect).
func (l *LL) Open() {
	l.mu.Lock()
	l.st = stateOpening
	l.mu.Unlock()

	iod, inProgress, err := l.ops.SubOpen()
	l.afterSubOpen(iod, inProgress, err)
}

func (l *LL) afterSubOpen(iod osservices.IOD, inProgress bool, err error) {
	if err != nil {
		l.mu.Lock()
		l.st = stateIdle
		l.mu.Unlock()
		l.sink.OnOpenDone(err)

		return
	}

	l.mu.Lock()
	l.iod = iod
	l.mu.Unlock()

	if !inProgress {
		l.finishOpen(nil)

		return
	}

	if err := l.svc.SetWriteHandler(iod, true, l.onWriteDuringOpen); err != nil {
		l.finishOpen(err)
	}
}

func (l *LL) onWriteDuringOpen(kind osservices.EventKind, _ error) {
	if kind != osservices.EventWritable {
		return
	}

	l.mu.Lock()
	iod := l.iod
	l.mu.Unlock()

	_ = l.svc.SetWriteHandler(iod, false, nil)

	if err := l.ops.CheckOpen(iod); err != nil {
		niod, inProgress, rerr := l.ops.RetryOpen()
		if rerr != nil {
			l.finishOpen(rerr)

			return
		}

		l.afterSubOpen(niod, inProgress, nil)

		return
	}

	l.finishOpen(nil)
}

func (l *LL) finishOpen(err error) {
	l.mu.Lock()
	if err != nil {
		l.st = stateIdle
	} else {
		l.st = stateOpen
	}
	iod := l.iod
	l.mu.Unlock()

	if err == nil && iod != nil {
		_ = l.svc.SetReadHandler(iod, true, l.onRead)
		_ = l.svc.SetExceptHandler(iod, true, l.onExcept)
	}

	l.sink.OnOpenDone(err)
}

// Bind adopts an already-open descriptor (the accepter's accept path),
// skipping the sub_open protocol entirely and going straight to "open".
func (l *LL) Bind(iod osservices.IOD) {
	l.mu.Lock()
	l.iod = iod
	l.st = stateOpen
	l.mu.Unlock()

	_ = l.svc.SetReadHandler(iod, true, l.onRead)
	_ = l.svc.SetExceptHandler(iod, true, l.onExcept)
}

func (l *LL) onRead(kind osservices.EventKind, _ error) {
	if kind != osservices.EventReadable {
		return
	}

	l.ops.ReadReady(l.currentIOD())
	l.sink.OnReadReady()
}

func (l *LL) onExcept(kind osservices.EventKind, _ error) {
	if kind != osservices.EventExcept {
		return
	}

	l.ops.ExceptReady(l.currentIOD())
	l.sink.OnExceptReady()
}

func (l *LL) currentIOD() osservices.IOD {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.iod
}

// Write serializes one write through the driver's operations table.
func (l *LL) Write(buf []byte, aux string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.iod == nil {
		return 0, gensioerr.New(gensioerr.NotReady, "fdll.Write", "descriptor not open", nil)
	}

	return l.ops.Write(l.iod, buf, aux)
}

// Read fetches data via the driver's pull-side read path; aux "oob" selects
// the out-of-band path after an except-ready notification.
func (l *LL) Read(buf []byte, aux string) (int, error) {
	iod := l.currentIOD()
	if iod == nil {
		return 0, gensioerr.New(gensioerr.NotReady, "fdll.Read", "descriptor not open", nil)
	}

	return l.ops.Read(iod, buf, aux)
}

// ReadPooled fetches data into a pool-allocated buffer sized n, returning the
// trimmed slice; the caller must pass it to ReleasePooled once done with it.
// The pool is sized by the readbuf value given to New. Endpoint does not
// expose this path; Endpoint.Read and cmd/gensiotool read into buffers the
// caller supplies.
func (l *LL) ReadPooled(n int, aux string) ([]byte, error) {
	buf := l.pool.Get(n)

	nr, err := l.Read(buf, aux)
	if err != nil {
		l.pool.Put(buf)

		return nil, err
	}

	return buf[:nr], nil
}

// ReleasePooled returns a buffer obtained from ReadPooled to the pool.
func (l *LL) ReleasePooled(buf []byte) { l.pool.Put(buf) }

func (l *LL) RaddrToStr() string {
	iod := l.currentIOD()
	if iod == nil {
		return ""
	}

	return l.ops.RaddrToStr(iod)
}

func (l *LL) GetRaddr() []byte {
	iod := l.currentIOD()
	if iod == nil {
		return nil
	}

	return l.ops.GetRaddr(iod)
}

func (l *LL) Control(key string, isSet bool, arg any) (any, error) {
	return l.ops.Control(key, isSet, arg)
}

// Close starts the teardown sequence: clear read/except interest, poll
// CheckClose (honoring a requested retry delay, such as the PTY driver's
// 10 ms check-close poll), close the descriptor, run Free, then notify the
// sink.
func (l *LL) Close() {
	l.mu.Lock()
	l.st = stateClosing
	iod := l.iod
	l.mu.Unlock()

	if iod == nil {
		l.finishClose()

		return
	}

	l.svc.ClearHandlers(iod, func() { l.pollClose(iod) })
}

func (l *LL) pollClose(iod osservices.IOD) {
	done, retryAfter := l.ops.CheckClose(iod)
	if !done {
		l.mu.Lock()
		l.timer = l.svc.RunTimer(retryAfter, func() { l.pollClose(iod) })
		l.mu.Unlock()

		return
	}

	_ = l.svc.CloseIOD(iod)
	l.finishClose()
}

func (l *LL) finishClose() {
	l.mu.Lock()
	l.st = stateClosed
	l.timer = nil
	l.mu.Unlock()

	l.ops.Free()
	l.sink.OnCloseDone()
}
