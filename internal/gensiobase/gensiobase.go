// Package gensiobase is the minimal, functional stand-in for the black-box
// "base gensio" object an external collaborator would provide: a
// byte-stream Endpoint with an open/close lifecycle and event dispatch, and
// an Accepter that turns inbound connections into endpoints. Both are kept
// deliberately thin — this layer is explicitly out of core scope — but are
// wired end-to-end so drivers/tcp and drivers/pty are runnable rather than
// stubs calling into nothing.
package gensiobase

import (
	"sync"

	"github.com/gensio-go/gensio/internal/fdll"
	"github.com/gensio-go/gensio/internal/gensiolog"
)

// Event identifies what an Endpoint is telling its owner about.
type Event int

const (
	EventOpenDone Event = iota
	EventReadReady
	EventExceptReady
	EventCloseDone
)

// EventCallback is the user-supplied callback an Endpoint dispatches to.
// err is non-nil only for EventOpenDone, carrying the open failure if any.
type EventCallback func(ep *Endpoint, ev Event, err error)

// Endpoint is the polymorphic byte-stream handle external callers see as
// the "Endpoint Object": drivers plug into it via an *fdll.LL they own.
type Endpoint struct {
	ll       *fdll.LL
	cb       EventCallback
	userdata any
	reliable bool

	// openDone, set only on server-accepted endpoints, receives the open-done
	// notification in place of the ordinary user callback.
	openDone func(ep *Endpoint, err error)
}

// New builds an Endpoint around a freshly constructed, not-yet-opened fd-LL
// and marks it with the Reliable bit every driver in this module sets.
// The caller still owns calling ll.Open() or ll.Bind() once it has decided
// which; New wires itself in as the LL's event sink first.
func New(ll *fdll.LL, reliable bool, cb EventCallback, userdata any) *Endpoint {
	ep := &Endpoint{ll: ll, reliable: reliable, cb: cb, userdata: userdata}
	ll.SetSink(ep)

	return ep
}

// ServerNew builds a server-accepted endpoint carrying an additional
// open-done hook the accepter uses to dispatch NEW_CONNECTION only after
// the endpoint itself reports successful open.
func ServerNew(ll *fdll.LL, reliable bool, openDone func(ep *Endpoint, err error)) *Endpoint {
	ep := &Endpoint{ll: ll, reliable: reliable, openDone: openDone}
	ll.SetSink(ep)

	return ep
}

func (ep *Endpoint) UserData() any     { return ep.userdata }
func (ep *Endpoint) Reliable() bool    { return ep.reliable }
func (ep *Endpoint) RemoteAddr() string { return ep.ll.RaddrToStr() }

func (ep *Endpoint) Write(buf []byte, aux string) (int, error) { return ep.ll.Write(buf, aux) }

func (ep *Endpoint) Read(buf []byte, aux string) (int, error) { return ep.ll.Read(buf, aux) }

func (ep *Endpoint) Control(key string, isSet bool, arg any) (any, error) {
	return ep.ll.Control(key, isSet, arg)
}

func (ep *Endpoint) Close() { ep.ll.Close() }

// OnOpenDone implements fdll.EventSink.
func (ep *Endpoint) OnOpenDone(err error) {
	if ep.openDone != nil {
		ep.openDone(ep, err)

		return
	}

	if ep.cb != nil {
		ep.cb(ep, EventOpenDone, err)
	}
}

func (ep *Endpoint) OnReadReady() {
	if ep.cb != nil {
		ep.cb(ep, EventReadReady, nil)
	}
}

func (ep *Endpoint) OnExceptReady() {
	if ep.cb != nil {
		ep.cb(ep, EventExceptReady, nil)
	}
}

func (ep *Endpoint) OnCloseDone() {
	if ep.cb != nil {
		ep.cb(ep, EventCloseDone, nil)
	}
}

var _ fdll.EventSink = (*Endpoint)(nil)

// AccEvent identifies what an Accepter is telling its owner.
type AccEvent int

const (
	AccEventNewConnection AccEvent = iota
)

// AccCallback is the user-supplied accepter callback.
type AccCallback func(acc *Accepter, ev AccEvent, ep *Endpoint)

// Accepter is the minimal base-accepter stand-in: NEW_CONNECTION dispatch
// plus the pending-endpoint bookkeeping an accepter needs
// (add_pending/remove_pending), used so an in-flight accepted endpoint
// cannot be garbage collected out from under its own open-done callback.
type Accepter struct {
	mu      sync.Mutex
	cb      AccCallback
	log     gensiolog.Logger
	pending map[*Endpoint]struct{}
}

// NewAccepter builds a base accepter. log may be nil, in which case acc_log
// calls are silently dropped (tests that do not care about diagnostics).
func NewAccepter(cb AccCallback, log gensiolog.Logger) *Accepter {
	return &Accepter{cb: cb, log: log, pending: make(map[*Endpoint]struct{})}
}

// AddPending registers an in-flight accepted endpoint.
func (a *Accepter) AddPending(ep *Endpoint) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending[ep] = struct{}{}
}

// RemovePending unregisters it, on either open success or failure.
func (a *Accepter) RemovePending(ep *Endpoint) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.pending, ep)
}

// PendingCount reports how many accepted endpoints are still awaiting
// open-done, for tests asserting the pending set drains.
func (a *Accepter) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.pending)
}

// DispatchNewConnection fires AccEventNewConnection for a newly opened
// accepted endpoint.
func (a *Accepter) DispatchNewConnection(ep *Endpoint) {
	if a.cb != nil {
		a.cb(a, AccEventNewConnection, ep)
	}
}

// Logf is acc_log: leveled diagnostics for conditions that are logged and
// otherwise swallowed — accept()-loop errors, failures setting up an
// accepted socket, endpoint-open failures on an accepted child. A rejected
// accept is not logged.
func (a *Accepter) Logf(level gensiolog.Level, format string, args ...any) {
	if a.log != nil {
		a.log.Logf(level, format, args...)
	}
}
