// Package osservices is the pluggable OS-services façade the fd lower layer
// and both drivers are built against: locks, non-blocking
// I/O descriptor handles, socket helpers, subprocess wait/kill, and a
// host-based access-check hook. It is the one place raw
// golang.org/x/sys/unix calls and os-level errors are translated into the
// gensioerr taxonomy; nothing above this package touches syscall.Errno
// directly.
package osservices

import (
	"time"

	"github.com/gensio-go/gensio/internal/gensioaddr"
)

// IODKind distinguishes the two descriptor kinds the drivers create.
type IODKind int

const (
	IODSocket IODKind = iota
	IODPty
)

// IOD is a non-blocking I/O descriptor handle.
type IOD interface {
	Fd() int
	Kind() IODKind
}

// PtyIOD is the PTY-specific descriptor handle, carrying the slave's path
// and its own fd so the driver can chmod/chown/symlink it and push
// ARGV/ENV/START/PID through IODControl.
type PtyIOD interface {
	IOD
	SlaveName() string
	SlaveFd() int
}

// ControlKey enumerates the iod_control keys the PTY driver uses to push
// argv/env into the descriptor's control plane and start the child
//.
type ControlKey int

const (
	ControlARGV ControlKey = iota
	ControlENV
	ControlSTART
	ControlPID
)

// WaitResult is the three-way outcome of a non-blocking subprocess wait.
type WaitResult int

const (
	WaitDone WaitResult = iota
	WaitInProgress
)

// Lock is the façade's mutual-exclusion primitive; drivers never reach for
// sync.Mutex directly so tests can substitute a lock that detects misuse.
type Lock interface {
	Lock()
	Unlock()
}

// Timer is a cancelable one-shot timer, used for the PTY driver's 10ms
// check_close repoll and nothing else.
type Timer interface {
	Stop() bool
}

// ReadyHandler is an alias of Handler, the readiness callback type the
// SetXHandler methods take.
type ReadyHandler = Handler

// Services is the full OS-services contract. A production instance is
// built by New(); tests substitute internal/osservices/osmock.
type Services interface {
	NewLock() Lock

	// Descriptor lifecycle.
	AddSocketIOD(fd int) (IOD, error)
	OpenPty() (PtyIOD, error)
	SetNonBlocking(iod IOD, nonblock bool) error
	MakeRaw(iod PtyIOD) error
	CloseIOD(iod IOD) error

	// Readiness registration. SetReadHandler/SetWriteHandler/SetExceptHandler
	// are idempotent enables; ClearHandlers asynchronously deregisters every
	// interest on iod and invokes cleared exactly once when the backend
	// guarantees no further callback will arrive for it.
	SetReadHandler(iod IOD, enable bool, h Handler) error
	SetWriteHandler(iod IOD, enable bool, h Handler) error
	SetExceptHandler(iod IOD, enable bool, h Handler) error
	ClearHandlers(iod IOD, cleared func())

	RunTimer(d time.Duration, f func()) Timer

	// WriteFD/ReadFD are the raw, non-socket read/write primitives the PTY
	// driver uses on its master descriptor.
	WriteFD(fd int, buf []byte) (int, error)
	ReadFD(fd int, buf []byte) (int, error)

	// Socket helpers.
	Socket(family int) (int, error)
	SetSockOptInt(fd, level, opt, val int) error
	GetSockOptInt(fd, level, opt int) (int, error)
	Bind(fd int, addr gensioaddr.Entry) error
	Connect(fd int, addr gensioaddr.Entry) (inProgress bool, err error)
	GetSockError(fd int) error
	Send(fd int, buf []byte, oob bool) (int, error)
	Recv(fd int, buf []byte, oob bool) (int, error)
	GetPeerName(fd int) (gensioaddr.Entry, error)
	OpenListeners(addrs *gensioaddr.List) ([]int, error)
	Accept(fd int) (newfd int, peer gensioaddr.Entry, err error)

	// PTY control plane and subprocess management.
	IODControl(iod PtyIOD, key ControlKey, isSet bool, arg any) (any, error)
	WaitSubprog(pid int) (code int, result WaitResult, err error)
	KillSubprog(pid int, force bool) error

	// Slave-pty filesystem side effects: reentrant
	// name resolution plus the permission/ownership/symlink operations that
	// follow it.
	LookupUser(name string) (uid int, err error)
	LookupGroup(name string) (gid int, err error)
	Chmod(path string, mode uint32) error
	Chown(path string, uid, gid int) error
	Symlink(target, link string) error
	Unlink(path string) error

	// HostAccessCheck returns a non-empty diagnostic when the peer address
	// should be rejected at accept time.
	HostAccessCheck(peer gensioaddr.Entry) (diagnostic string)
}
