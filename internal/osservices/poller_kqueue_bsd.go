//go:build darwin || freebsd || netbsd || openbsd

package osservices

import (
	"sync"

	"golang.org/x/sys/unix"
)

// kqueuePoller is a real kqueue-backed readiness backend: same EV_ADD /
// EV_DELETE shape as a net.Conn-level poller, generalized from a
// net.Conn-keyed registration map to a raw-fd-keyed one so the TCP and PTY
// drivers can register bare descriptors obtained from direct socket()/pty
// syscalls.
type kqueuePoller struct {
	kq int

	mu   sync.Mutex
	regs map[int]*kqReg

	stopCh chan struct{}
	doneCh chan struct{}
}

type kqReg struct {
	fd      int
	kinds   []EventKind
	handler Handler
}

func newPoller() poller { return &kqueuePoller{regs: make(map[int]*kqReg)} }

func (p *kqueuePoller) start() error {
	fd, err := unix.Kqueue()
	if err != nil {
		return err
	}

	p.kq = fd
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.loop()

	return nil
}

func (p *kqueuePoller) stop() error {
	close(p.stopCh)
	_ = unix.Close(p.kq)
	<-p.doneCh

	return nil
}

func changesFor(fd int, kinds []EventKind, flags uint16) []unix.Kevent_t {
	var changes []unix.Kevent_t

	for _, k := range kinds {
		switch k {
		case EventReadable:
			changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
		case EventWritable:
			changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
		}
	}

	return changes
}

func (p *kqueuePoller) register(fd int, kinds []EventKind, h Handler) error {
	changes := changesFor(fd, kinds, unix.EV_ADD|unix.EV_ENABLE)
	if len(changes) > 0 {
		if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.regs[fd] = &kqReg{fd: fd, kinds: kinds, handler: h}
	p.mu.Unlock()

	return nil
}

func (p *kqueuePoller) setInterest(fd int, kinds []EventKind) error {
	p.mu.Lock()
	old := p.regs[fd]
	p.mu.Unlock()

	if old == nil {
		return nil
	}

	// Disable everything previously armed, then arm only what's requested.
	if changes := changesFor(fd, old.kinds, unix.EV_DELETE); len(changes) > 0 {
		_, _ = unix.Kevent(p.kq, changes, nil, nil)
	}

	if changes := changesFor(fd, kinds, unix.EV_ADD|unix.EV_ENABLE); len(changes) > 0 {
		if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
			return err
		}
	}

	p.mu.Lock()
	old.kinds = kinds
	p.mu.Unlock()

	return nil
}

func (p *kqueuePoller) deregister(fd int, cleared func()) {
	p.mu.Lock()
	old := p.regs[fd]
	delete(p.regs, fd)
	p.mu.Unlock()

	if old != nil {
		if changes := changesFor(fd, old.kinds, unix.EV_DELETE); len(changes) > 0 {
			_, _ = unix.Kevent(p.kq, changes, nil, nil)
		}
	}

	if cleared != nil {
		go cleared()
	}
}

func (p *kqueuePoller) loop() {
	defer close(p.doneCh)

	events := make([]unix.Kevent_t, 64)
	ts := unix.NsecToTimespec(100_000_000)

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		n, err := unix.Kevent(p.kq, nil, events, &ts)
		if err != nil {
			if err == unix.EINTR {
				continue
			}

			return
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Ident)

			p.mu.Lock()
			reg := p.regs[fd]
			p.mu.Unlock()

			if reg == nil {
				continue
			}

			if ev.Flags&unix.EV_ERROR != 0 {
				reg.handler(EventExcept, unix.Errno(ev.Data))

				continue
			}

			switch ev.Filter {
			case unix.EVFILT_READ:
				if containsKind(reg.kinds, EventReadable) {
					reg.handler(EventReadable, nil)
				}
			case unix.EVFILT_WRITE:
				if containsKind(reg.kinds, EventWritable) {
					reg.handler(EventWritable, nil)
				}
			}
		}
	}
}
