//go:build !windows

package osservices

import (
	"os"
	"os/user"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/gensio-go/gensio/internal/gensioaddr"
	"github.com/gensio-go/gensio/internal/gensioerr"
)

type iod struct {
	fd   int
	kind IODKind
}

func (h *iod) Fd() int      { return h.fd }
func (h *iod) Kind() IODKind { return h.kind }

type ptyIOD struct {
	iod
	master    *os.File
	slave     *os.File
	slaveName string

	pendingArgv []string
	pendingEnv  []string
	pid         int
}

func (h *ptyIOD) SlaveName() string { return h.slaveName }
func (h *ptyIOD) SlaveFd() int      { return int(h.slave.Fd()) }

// start forks and execs pendingArgv with pendingEnv (or the parent's
// environment snapshot at this instant if pendingEnv is nil), with the
// slave as its controlling terminal and stdio. The parent never touches
// the slave fd again once the child is started; the driver already keeps
// it open for filesystem-side effects only.
func (h *ptyIOD) start() error {
	if len(h.pendingArgv) == 0 {
		return gensioerr.New(gensioerr.Invalid, "ptyIOD.start", "no argv staged", nil)
	}

	env := h.pendingEnv
	if env == nil {
		env = os.Environ()
	}

	proc, err := os.StartProcess(h.pendingArgv[0], h.pendingArgv, &os.ProcAttr{
		Env:   env,
		Files: []*os.File{h.slave, h.slave, h.slave},
		Sys: &syscall.SysProcAttr{
			Setsid:  true,
			Setctty: true,
			Ctty:    0,
		},
	})
	if err != nil {
		return gensioerr.New(gensioerr.OSError, "ptyIOD.start", "start child process", err)
	}

	h.pid = proc.Pid

	return nil
}

// unixServices is the production Services implementation, built directly on
// golang.org/x/sys/unix. One instance owns one readiness poller shared by
// every descriptor it creates.
type unixServices struct {
	p poller

	mu      sync.Mutex
	started bool
}

// New returns a production Services instance and starts its poller.
func New() (Services, error) {
	s := &unixServices{p: newPoller()}
	if err := s.p.start(); err != nil {
		return nil, gensioerr.New(gensioerr.OSError, "osservices.New", "start poller", err)
	}

	s.started = true

	return s, nil
}

func (s *unixServices) NewLock() Lock { return &sync.Mutex{} }

func (s *unixServices) AddSocketIOD(fd int) (IOD, error) {
	return &iod{fd: fd, kind: IODSocket}, nil
}

func (s *unixServices) OpenPty() (PtyIOD, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, gensioerr.New(gensioerr.OSError, "osservices.OpenPty", "allocate pty pair", err)
	}

	return &ptyIOD{
		iod:       iod{fd: int(master.Fd()), kind: IODPty},
		master:    master,
		slave:     slave,
		slaveName: slave.Name(),
	}, nil
}

func (s *unixServices) SetNonBlocking(h IOD, nonblock bool) error {
	if err := unix.SetNonblock(h.Fd(), nonblock); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.SetNonBlocking", "fcntl O_NONBLOCK", err)
	}

	return nil
}

func (s *unixServices) MakeRaw(h PtyIOD) error {
	if _, err := term.MakeRaw(h.SlaveFd()); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.MakeRaw", "set slave raw mode", err)
	}

	return nil
}

func (s *unixServices) CloseIOD(h IOD) error {
	if p, ok := h.(*ptyIOD); ok {
		_ = p.slave.Close()

		return p.master.Close()
	}

	return unix.Close(h.Fd())
}

func (s *unixServices) SetReadHandler(h IOD, enable bool, handler Handler) error {
	return s.setInterest(h.Fd(), EventReadable, enable, handler)
}

func (s *unixServices) SetWriteHandler(h IOD, enable bool, handler Handler) error {
	return s.setInterest(h.Fd(), EventWritable, enable, handler)
}

func (s *unixServices) SetExceptHandler(h IOD, enable bool, handler Handler) error {
	return s.setInterest(h.Fd(), EventExcept, enable, handler)
}

// interestSet tracks, per fd, which kinds are currently enabled so
// SetXHandler calls can be composed independently.
var interestSets sync.Map // fd -> *[]EventKind guarded by interestMu
var interestMu sync.Mutex

func (s *unixServices) setInterest(fd int, kind EventKind, enable bool, handler Handler) error {
	interestMu.Lock()
	defer interestMu.Unlock()

	var kinds []EventKind
	if v, ok := interestSets.Load(fd); ok {
		kinds = *(v.(*[]EventKind))
	}

	kinds = removeKind(kinds, kind)
	if enable {
		kinds = append(kinds, kind)
	}

	interestSets.Store(fd, &kinds)

	if _, registered := registeredFDs.Load(fd); !registered {
		registeredFDs.Store(fd, struct{}{})

		return s.p.register(fd, kinds, handler)
	}

	return s.p.setInterest(fd, kinds)
}

var registeredFDs sync.Map

func removeKind(kinds []EventKind, k EventKind) []EventKind {
	out := kinds[:0:0]
	for _, v := range kinds {
		if v != k {
			out = append(out, v)
		}
	}

	return out
}

func (s *unixServices) ClearHandlers(h IOD, cleared func()) {
	interestMu.Lock()
	interestSets.Delete(h.Fd())
	registeredFDs.Delete(h.Fd())
	interestMu.Unlock()

	s.p.deregister(h.Fd(), cleared)
}

func (s *unixServices) RunTimer(d time.Duration, f func()) Timer {
	t := time.AfterFunc(d, f)

	return t
}

func (s *unixServices) WriteFD(fd int, buf []byte) (int, error) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		return n, translateIOErr("osservices.WriteFD", err)
	}

	return n, nil
}

func (s *unixServices) ReadFD(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err != nil {
		return n, translateIOErr("osservices.ReadFD", err)
	}

	return n, nil
}

func (s *unixServices) Socket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, gensioerr.New(gensioerr.OSError, "osservices.Socket", "socket()", err)
	}

	return fd, nil
}

func (s *unixServices) SetSockOptInt(fd, level, opt, val int) error {
	if err := unix.SetsockoptInt(fd, level, opt, val); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.SetSockOptInt", "setsockopt", err)
	}

	return nil
}

func (s *unixServices) GetSockOptInt(fd, level, opt int) (int, error) {
	v, err := unix.GetsockoptInt(fd, level, opt)
	if err != nil {
		return 0, gensioerr.New(gensioerr.OSError, "osservices.GetSockOptInt", "getsockopt", err)
	}

	return v, nil
}

func sockaddrFor(e gensioaddr.Entry) unix.Sockaddr {
	if ip4 := e.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: e.Port}
		copy(sa.Addr[:], ip4)

		return sa
	}

	sa := &unix.SockaddrInet6{Port: e.Port}
	copy(sa.Addr[:], e.IP.To16())

	return sa
}

func entryFromSockaddr(sa unix.Sockaddr) gensioaddr.Entry {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make([]byte, 4)
		copy(ip, v.Addr[:])

		return gensioaddr.Entry{IP: ip, Port: v.Port}
	case *unix.SockaddrInet6:
		ip := make([]byte, 16)
		copy(ip, v.Addr[:])

		return gensioaddr.Entry{IP: ip, Port: v.Port}
	default:
		return gensioaddr.Entry{}
	}
}

func (s *unixServices) Bind(fd int, addr gensioaddr.Entry) error {
	if err := unix.Bind(fd, sockaddrFor(addr)); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.Bind", "bind()", err)
	}

	return nil
}

func (s *unixServices) Connect(fd int, addr gensioaddr.Entry) (bool, error) {
	err := unix.Connect(fd, sockaddrFor(addr))
	if err == nil {
		return false, nil
	}

	if err == unix.EINPROGRESS {
		return true, nil
	}

	return false, gensioerr.New(gensioerr.OSError, "osservices.Connect", "connect()", err)
}

func (s *unixServices) GetSockError(fd int) error {
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.GetSockError", "getsockopt(SO_ERROR)", err)
	}

	if v == 0 {
		return nil
	}

	return gensioerr.New(gensioerr.OSError, "osservices.GetSockError", "pending connect error", unix.Errno(v))
}

func (s *unixServices) Send(fd int, buf []byte, oob bool) (int, error) {
	flags := 0
	if oob {
		flags = unix.MSG_OOB
	}

	n, err := unix.Send(fd, buf, flags)
	if err != nil {
		return n, translateIOErr("osservices.Send", err)
	}

	return n, nil
}

func (s *unixServices) Recv(fd int, buf []byte, oob bool) (int, error) {
	flags := 0
	if oob {
		flags = unix.MSG_OOB
	}

	n, _, err := unix.Recvfrom(fd, buf, flags)
	if err != nil {
		return n, translateIOErr("osservices.Recv", err)
	}

	return n, nil
}

func translateIOErr(op string, err error) error {
	switch err {
	case unix.EAGAIN:
		return gensioerr.New(gensioerr.InProgress, op, "would block", err)
	case unix.EPIPE, unix.ECONNRESET:
		return gensioerr.New(gensioerr.RemoteClose, op, "peer closed", err)
	default:
		return gensioerr.New(gensioerr.IOError, op, "i/o error", err)
	}
}

func (s *unixServices) GetPeerName(fd int) (gensioaddr.Entry, error) {
	sa, err := unix.Getpeername(fd)
	if err != nil {
		return gensioaddr.Entry{}, gensioerr.New(gensioerr.OSError, "osservices.GetPeerName", "getpeername", err)
	}

	return entryFromSockaddr(sa), nil
}

// OpenListeners binds and listens on every address in the list, mirroring
// the original's open_socket helper that may open multiple descriptors for
// dual-stack.
func (s *unixServices) OpenListeners(addrs *gensioaddr.List) ([]int, error) {
	var fds []int

	for _, e := range addrs.Entries() {
		family := unix.AF_INET
		if e.IP.To4() == nil {
			family = unix.AF_INET6
		}

		fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
		if err != nil {
			closeAll(fds)

			return nil, gensioerr.New(gensioerr.OSError, "osservices.OpenListeners", "socket()", err)
		}

		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			_ = unix.Close(fd)
			closeAll(fds)

			return nil, gensioerr.New(gensioerr.OSError, "osservices.OpenListeners", "SO_REUSEADDR", err)
		}

		if err := unix.Bind(fd, sockaddrFor(e)); err != nil {
			_ = unix.Close(fd)
			closeAll(fds)

			return nil, gensioerr.New(gensioerr.OSError, "osservices.OpenListeners", "bind()", err)
		}

		if err := unix.Listen(fd, 128); err != nil {
			_ = unix.Close(fd)
			closeAll(fds)

			return nil, gensioerr.New(gensioerr.OSError, "osservices.OpenListeners", "listen()", err)
		}

		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fd)
			closeAll(fds)

			return nil, gensioerr.New(gensioerr.OSError, "osservices.OpenListeners", "O_NONBLOCK", err)
		}

		fds = append(fds, fd)
	}

	return fds, nil
}

func closeAll(fds []int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}

func (s *unixServices) Accept(fd int) (int, gensioaddr.Entry, error) {
	nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN {
			return -1, gensioaddr.Entry{}, gensioerr.New(gensioerr.InProgress, "osservices.Accept", "would block", err)
		}

		return -1, gensioaddr.Entry{}, gensioerr.New(gensioerr.OSError, "osservices.Accept", "accept4()", err)
	}

	return nfd, entryFromSockaddr(sa), nil
}

// IODControl implements the PTY driver's ARGV/ENV/START/PID control-plane
// keys. ARGV and ENV stage the exec request; START performs
// the fork+exec with the slave as the child's controlling terminal; PID
// retrieves the spawned child's pid.
func (s *unixServices) IODControl(h PtyIOD, key ControlKey, isSet bool, arg any) (any, error) {
	p, ok := h.(*ptyIOD)
	if !ok {
		return nil, gensioerr.New(gensioerr.Invalid, "osservices.IODControl", "not a pty iod", nil)
	}

	switch key {
	case ControlARGV:
		if !isSet {
			return nil, gensioerr.New(gensioerr.NotSupported, "osservices.IODControl", "ARGV is set-only", nil)
		}

		p.pendingArgv, _ = arg.([]string)

		return nil, nil
	case ControlENV:
		if !isSet {
			return nil, gensioerr.New(gensioerr.NotSupported, "osservices.IODControl", "ENV is set-only", nil)
		}

		p.pendingEnv, _ = arg.([]string)

		return nil, nil
	case ControlSTART:
		if !isSet {
			return nil, gensioerr.New(gensioerr.NotSupported, "osservices.IODControl", "START is set-only", nil)
		}

		return nil, p.start()
	case ControlPID:
		return p.pid, nil
	default:
		return nil, gensioerr.New(gensioerr.NotSupported, "osservices.IODControl", "unknown control key", nil)
	}
}

func (s *unixServices) WaitSubprog(pid int) (int, WaitResult, error) {
	var status unix.WaitStatus

	wpid, err := unix.Wait4(pid, &status, unix.WNOHANG, nil)
	if err != nil {
		return 0, WaitDone, gensioerr.New(gensioerr.OSError, "osservices.WaitSubprog", "wait4()", err)
	}

	if wpid == 0 {
		return 0, WaitInProgress, nil
	}

	if status.Exited() {
		return status.ExitStatus(), WaitDone, nil
	}

	if status.Signaled() {
		return 128 + int(status.Signal()), WaitDone, nil
	}

	return 0, WaitInProgress, nil
}

func (s *unixServices) KillSubprog(pid int, force bool) error {
	sig := unix.SIGTERM
	if force {
		sig = unix.SIGKILL
	}

	if err := unix.Kill(pid, sig); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.KillSubprog", "kill()", err)
	}

	return nil
}

// HostAccessCheck is the default, permissive policy: every peer is allowed.
// Production embedders of this library are expected to supply their own
// Services (or wrap this one) to apply a real allow/deny list; the façade
// contract only requires the hook exist.
func (s *unixServices) HostAccessCheck(peer gensioaddr.Entry) string {
	return ""
}

// lookupUID/lookupGID resolve owner/group names to uid/gid via the
// standard library's os/user, which on most platforms uses the reentrant
// getpwnam_r/getgrnam_r C library calls under the hood, without a separate
// third-party resolver dependency.
func lookupUID(name string) (int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, gensioerr.New(gensioerr.NotFound, "osservices.lookupUID", "no such user", err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, gensioerr.New(gensioerr.OSError, "osservices.lookupUID", "malformed uid", err)
	}

	return uid, nil
}

func lookupGID(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, gensioerr.New(gensioerr.NotFound, "osservices.lookupGID", "no such group", err)
	}

	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, gensioerr.New(gensioerr.OSError, "osservices.lookupGID", "malformed gid", err)
	}

	return gid, nil
}

func (s *unixServices) LookupUser(name string) (int, error)  { return lookupUID(name) }
func (s *unixServices) LookupGroup(name string) (int, error) { return lookupGID(name) }

func (s *unixServices) Chmod(path string, mode uint32) error {
	if err := unix.Chmod(path, mode); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.Chmod", "chmod", err)
	}

	return nil
}

func (s *unixServices) Chown(path string, uid, gid int) error {
	if err := unix.Chown(path, uid, gid); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.Chown", "chown", err)
	}

	return nil
}

func (s *unixServices) Symlink(target, link string) error {
	if err := unix.Symlink(target, link); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.Symlink", "symlink", err)
	}

	return nil
}

func (s *unixServices) Unlink(path string) error {
	if err := unix.Unlink(path); err != nil {
		return gensioerr.New(gensioerr.OSError, "osservices.Unlink", "unlink", err)
	}

	return nil
}
