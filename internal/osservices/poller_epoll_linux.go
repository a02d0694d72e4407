//go:build linux

package osservices

import (
	"sync"

	"golang.org/x/sys/unix"
)

// epollPoller is a real epoll-backed readiness backend, generalized from a
// goroutine-based placeholder poller into the real thing, since the
// drivers need genuine non-blocking readiness on raw fds rather than
// net.Conn-level polling.
type epollPoller struct {
	epfd int

	mu   sync.Mutex
	regs map[int]*epollReg

	stopCh chan struct{}
	doneCh chan struct{}
}

type epollReg struct {
	fd      int
	kinds   []EventKind
	handler Handler
}

func newPoller() poller { return &epollPoller{regs: make(map[int]*epollReg)} }

func (p *epollPoller) start() error {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}

	p.epfd = fd
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.loop()

	return nil
}

func (p *epollPoller) stop() error {
	close(p.stopCh)
	_ = unix.Close(p.epfd)
	<-p.doneCh

	return nil
}

func eventsFor(kinds []EventKind) uint32 {
	var events uint32
	for _, k := range kinds {
		switch k {
		case EventReadable:
			events |= unix.EPOLLIN
		case EventWritable:
			events |= unix.EPOLLOUT
		case EventExcept:
			events |= unix.EPOLLPRI
		}
	}

	return events
}

func (p *epollPoller) register(fd int, kinds []EventKind, h Handler) error {
	ev := &unix.EpollEvent{Events: eventsFor(kinds) | unix.EPOLLERR | unix.EPOLLHUP, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return err
	}

	p.mu.Lock()
	p.regs[fd] = &epollReg{fd: fd, kinds: kinds, handler: h}
	p.mu.Unlock()

	return nil
}

func (p *epollPoller) setInterest(fd int, kinds []EventKind) error {
	ev := &unix.EpollEvent{Events: eventsFor(kinds) | unix.EPOLLERR | unix.EPOLLHUP, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return err
	}

	p.mu.Lock()
	if r, ok := p.regs[fd]; ok {
		r.kinds = kinds
	}
	p.mu.Unlock()

	return nil
}

func (p *epollPoller) deregister(fd int, cleared func()) {
	_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)

	p.mu.Lock()
	delete(p.regs, fd)
	p.mu.Unlock()

	if cleared != nil {
		go cleared()
	}
}

func (p *epollPoller) loop() {
	defer close(p.doneCh)

	events := make([]unix.EpollEvent, 64)

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		n, err := unix.EpollWait(p.epfd, events, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}

			return
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			mask := events[i].Events

			p.mu.Lock()
			reg := p.regs[fd]
			p.mu.Unlock()

			if reg == nil {
				continue
			}

			if mask&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				reg.handler(EventExcept, unix.EBADF)

				continue
			}

			if mask&unix.EPOLLIN != 0 && containsKind(reg.kinds, EventReadable) {
				reg.handler(EventReadable, nil)
			}

			if mask&unix.EPOLLOUT != 0 && containsKind(reg.kinds, EventWritable) {
				reg.handler(EventWritable, nil)
			}

			if mask&unix.EPOLLPRI != 0 && containsKind(reg.kinds, EventExcept) {
				reg.handler(EventExcept, nil)
			}
		}
	}
}
