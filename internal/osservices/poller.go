package osservices

// EventKind is a readiness kind a registration can be notified of.
type EventKind int

const (
	EventReadable EventKind = iota
	EventWritable
	EventExcept
)

// Handler is invoked by the poller loop on readiness. It must not block: the
// fd-LL and drivers treat it as a callback running on whatever thread the
// poller's event loop uses, and synchronize shared state themselves.
type Handler func(kind EventKind, err error)

// poller abstracts the platform readiness backend (epoll on Linux, kqueue on
// BSD/Darwin). It is deliberately small: one registration per fd, a fixed
// set of interest kinds, and an asynchronous deregister that reports back
// once the backend guarantees no further callback will fire for that fd —
// this is what lets the TCP accepter's "descriptor-cleared" callback
// be modeled faithfully instead of approximated.
type poller interface {
	start() error
	stop() error
	register(fd int, kinds []EventKind, h Handler) error
	setInterest(fd int, kinds []EventKind) error
	deregister(fd int, cleared func())
}

func containsKind(kinds []EventKind, k EventKind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}

	return false
}
