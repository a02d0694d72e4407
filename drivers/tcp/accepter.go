package tcp

import (
	"github.com/gensio-go/gensio/internal/fdll"
	"github.com/gensio-go/gensio/internal/gensioaddr"
	"github.com/gensio-go/gensio/internal/gensiobase"
	"github.com/gensio-go/gensio/internal/gensioerr"
	"github.com/gensio-go/gensio/internal/gensiolog"
	"github.com/gensio-go/gensio/internal/gensioopts"
	"github.com/gensio-go/gensio/internal/osservices"
)

// Accepter is the TCP accepter driver state: a reference-counted
// listening-socket set with asynchronous, waiting-counted shutdown.
type Accepter struct {
	svc  osservices.Services
	lock osservices.Lock
	base *gensiobase.Accepter

	addrs   *gensioaddr.List
	readbuf int
	nodelay bool

	iods []osservices.IOD

	refcount             int
	setup                bool
	enabled              bool
	inShutdown           bool
	nrAcceptCloseWaiting int
	shutdownDone         func()
}

// AccepterAlloc implements tcp_accepter_alloc.
func AccepterAlloc(svc osservices.Services, addrs *gensioaddr.List, opts []string, accCb gensiobase.AccCallback, log gensiolog.Logger) (*Accepter, error) {
	a := &Accepter{svc: svc, addrs: addrs.Dup(), refcount: 1}

	spec := gensioopts.NewSpec().
		Size("readbuf", func(n int) { a.readbuf = n }).
		Bool("nodelay", func(b bool) { a.nodelay = b })

	if err := spec.Parse("tcp.AccepterAlloc", opts); err != nil {
		return nil, err
	}

	a.lock = svc.NewLock()
	a.base = gensiobase.NewAccepter(accCb, log)

	return a, nil
}

// Startup opens the listening set and enables accepting.
func (a *Accepter) Startup() error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.setup || a.inShutdown {
		return gensioerr.New(gensioerr.Busy, "tcp.Accepter.Startup", "already set up or shutting down", nil)
	}

	fds, err := a.svc.OpenListeners(a.addrs)
	if err != nil {
		return err
	}

	iods := make([]osservices.IOD, 0, len(fds))

	for _, fd := range fds {
		iod, err := a.svc.AddSocketIOD(fd)
		if err != nil {
			for _, prev := range iods {
				_ = a.svc.CloseIOD(prev)
			}

			return err
		}

		iods = append(iods, iod)
	}

	for _, iod := range iods {
		iod := iod

		if err := a.svc.SetReadHandler(iod, true, func(kind osservices.EventKind, _ error) {
			if kind == osservices.EventReadable {
				a.acceptOne(iod)
			}
		}); err != nil {
			for _, prev := range iods {
				_ = a.svc.CloseIOD(prev)
			}

			return err
		}
	}

	a.iods = iods
	a.setup = true
	a.enabled = true
	a.refcount++

	return nil
}

// Enable toggles read-enable on every listening descriptor. Idempotent when
// the flag already matches.
func (a *Accepter) Enable(enable bool) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.enabled == enable {
		return nil
	}

	for _, iod := range a.iods {
		iod := iod

		if err := a.svc.SetReadHandler(iod, enable, func(kind osservices.EventKind, _ error) {
			if kind == osservices.EventReadable {
				a.acceptOne(iod)
			}
		}); err != nil {
			return err
		}
	}

	a.enabled = enable

	return nil
}

// acceptOne accepts one connection non-blockingly on the given listening
// descriptor's read-ready notification.
func (a *Accepter) acceptOne(liod osservices.IOD) {
	newfd, peer, err := a.svc.Accept(liod.Fd())
	if err != nil {
		if gensioerr.Is(err, gensioerr.InProgress) {
			return
		}

		a.base.Logf(gensiolog.Warning, "tcp accept: %v", err)

		return
	}

	newIOD, err := a.svc.AddSocketIOD(newfd)
	if err != nil {
		a.base.Logf(gensiolog.Warning, "tcp accept: wrap descriptor: %v", err)

		return
	}

	if diag := a.svc.HostAccessCheck(peer); diag != "" {
		_, _ = a.svc.Send(newfd, []byte(diag), false)
		_ = a.svc.CloseIOD(newIOD)

		return
	}

	if err := a.svc.SetNonBlocking(newIOD, true); err != nil {
		_ = a.svc.CloseIOD(newIOD)
		a.base.Logf(gensiolog.Warning, "tcp accept: non-blocking: %v", err)

		return
	}

	if err := setSockOpts(a.svc, newfd, a.nodelay); err != nil {
		_ = a.svc.CloseIOD(newIOD)
		a.base.Logf(gensiolog.Warning, "tcp accept: sockopts: %v", err)

		return
	}

	c := &client{svc: a.svc, iod: newIOD, raddr: peer, nodelay: a.nodelay}

	ll := fdll.New(a.svc, c, a.readbuf)

	ep := gensiobase.ServerNew(ll, true, func(ep *gensiobase.Endpoint, err error) {
		a.onChildOpenDone(ep, err)
	})

	a.lock.Lock()
	a.refcount++
	a.lock.Unlock()

	a.base.AddPending(ep)

	ll.Bind(newIOD)
	ep.OnOpenDone(nil)
}

func (a *Accepter) onChildOpenDone(ep *gensiobase.Endpoint, err error) {
	a.base.RemovePending(ep)
	a.dropRef()

	if err != nil {
		a.base.Logf(gensiolog.Warning, "tcp accepted endpoint open failed: %v", err)
		ep.Close()

		return
	}

	a.base.DispatchNewConnection(ep)
}

// Shutdown starts an asynchronous drain of every listening descriptor,
// completing with cb once all are cleared.
func (a *Accepter) Shutdown(cb func()) error {
	a.lock.Lock()

	if !a.setup || a.inShutdown {
		a.lock.Unlock()

		return gensioerr.New(gensioerr.Busy, "tcp.Accepter.Shutdown", "not set up or already shutting down", nil)
	}

	a.inShutdown = true
	a.shutdownDone = cb
	a.nrAcceptCloseWaiting = len(a.iods)
	iods := a.iods
	a.setup = false
	a.enabled = false
	a.lock.Unlock()

	if len(iods) == 0 {
		a.finishShutdown()

		return nil
	}

	for _, iod := range iods {
		iod := iod
		a.svc.ClearHandlers(iod, func() { a.onDescriptorCleared(iod) })
	}

	return nil
}

func (a *Accepter) onDescriptorCleared(iod osservices.IOD) {
	_ = a.svc.CloseIOD(iod)

	a.lock.Lock()
	a.nrAcceptCloseWaiting--
	done := a.nrAcceptCloseWaiting == 0
	a.lock.Unlock()

	if done {
		a.finishShutdown()
	}
}

func (a *Accepter) finishShutdown() {
	a.lock.Lock()
	a.inShutdown = false
	a.iods = nil
	cb := a.shutdownDone
	a.shutdownDone = nil
	a.lock.Unlock()

	if cb != nil {
		cb()
	}

	a.dropRef()
}

// Disable is the synchronous, best-effort teardown for when an
// asynchronous drain cannot be awaited: force-clear handlers without
// cleared callbacks and close each descriptor directly.
func (a *Accepter) Disable() {
	a.lock.Lock()
	iods := a.iods
	a.iods = nil
	a.setup = false
	a.enabled = false
	a.lock.Unlock()

	for _, iod := range iods {
		a.svc.ClearHandlers(iod, nil)
		_ = a.svc.CloseIOD(iod)
	}
}

// Free runs an internal null-completion shutdown if still set up, then
// drops the allocator's own refcount.
func (a *Accepter) Free() {
	a.lock.Lock()
	setup := a.setup
	a.lock.Unlock()

	if setup {
		_ = a.Shutdown(nil)
	}

	a.dropRef()
}

func (a *Accepter) dropRef() {
	a.lock.Lock()
	a.refcount--
	rc := a.refcount
	a.lock.Unlock()

	if rc < 0 {
		panic("tcp.Accepter: refcount went negative")
	}
}

// PendingCount exposes the base accepter's in-flight accepted-endpoint
// count, for tests asserting the pending entry is removed once open-done
// dispatches.
func (a *Accepter) PendingCount() int { return a.base.PendingCount() }
