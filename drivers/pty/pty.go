// Package pty implements the PTY driver: master-PTY allocation, slave
// configuration (mode/owner/group/symlink), child spawning with argv+env,
// raw-mode toggle, exit-code collection, and filesystem-side-effect
// cleanup — grounded directly in the original's lib/gensio_pty.c
// setup/cleanup sequence, on top of internal/fdll and internal/osservices.
package pty

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/kballard/go-shellquote"

	"github.com/gensio-go/gensio/internal/fdll"
	"github.com/gensio-go/gensio/internal/gensiobase"
	"github.com/gensio-go/gensio/internal/gensioerr"
	"github.com/gensio-go/gensio/internal/gensioopts"
	"github.com/gensio-go/gensio/internal/osservices"
)

const noPID = -1

// checkCloseInterval is the bounded repoll interval check_close honors
// while waiting on a child to exit.
const checkCloseInterval = 10 * time.Millisecond

// driver is the PTY driver state.
type driver struct {
	svc  osservices.Services
	lock osservices.Lock

	iod osservices.PtyIOD
	pid int

	argv []string
	env  []string

	mode    uint32
	modeSet bool
	owner   string
	group   string

	link        string
	forcelink   bool
	linkCreated bool

	raw bool

	exitCode int
	exitSet  bool
}

// Alloc implements pty_alloc.
func Alloc(svc osservices.Services, argv []string, opts []string, cb gensiobase.EventCallback, userdata any) (*gensiobase.Endpoint, error) {
	p := &driver{svc: svc, pid: noPID}

	readbuf := 0

	spec := gensioopts.NewSpec().
		Size("readbuf", func(n int) { readbuf = n }).
		Bool("raw", func(b bool) { p.raw = b }).
		String("link", func(v string) { p.link = v }).
		Bool("forcelink", func(b bool) { p.forcelink = b }).
		On("umode", p.modeDigit(6)).
		On("gmode", p.modeDigit(3)).
		On("omode", p.modeDigit(0)).
		On("perm", func(value string, hasValue bool) error {
			if !hasValue {
				return gensioerr.InvalidErr("pty.Alloc", "perm requires a value")
			}

			m, err := gensioopts.ParsePerm(value)
			if err != nil {
				return err
			}

			p.mode = m
			p.modeSet = true

			return nil
		}).
		String("owner", func(v string) { p.owner = v }).
		String("group", func(v string) { p.group = v })

	if err := spec.Parse("pty.Alloc", opts); err != nil {
		return nil, err
	}

	// Slave-configuration options are only meaningful for a detached PTY
	// with no child.
	if len(argv) > 0 && (p.modeSet || p.owner != "" || p.group != "") {
		return nil, gensioerr.New(gensioerr.Inconsistent, "pty.Alloc",
			"mode/owner/group options require a detached pty (argv must be empty)", nil)
	}

	p.lock = svc.NewLock()
	p.argv = append([]string(nil), argv...)

	ll := fdll.New(svc, p, readbuf)
	ep := gensiobase.New(ll, true, cb, userdata)
	ll.Open()

	return ep, nil
}

// StrAlloc implements pty_str_alloc: a shell-style argv
// parse of str, via google/shlex, followed by Alloc.
func StrAlloc(svc osservices.Services, str string, opts []string, cb gensiobase.EventCallback, userdata any) (*gensiobase.Endpoint, error) {
	argv, err := shlex.Split(str)
	if err != nil {
		return nil, gensioerr.New(gensioerr.Invalid, "pty.StrAlloc", "shell argv parse", err)
	}

	return Alloc(svc, argv, opts, cb, userdata)
}

// modeDigit builds an umode/gmode/omode handler that ORs a single octal
// digit into p.mode at the given bit shift (6 for user, 3 for group, 0 for
// other).
func (p *driver) modeDigit(shift uint) gensioopts.Handler {
	return func(value string, hasValue bool) error {
		if !hasValue {
			return gensioerr.InvalidErr("pty.Alloc", "mode option requires a value")
		}

		d, err := gensioopts.ParseOctalDigit(value)
		if err != nil {
			return err
		}

		p.mode = (p.mode &^ (0o7 << shift)) | (d << shift)
		p.modeSet = true

		return nil
	}
}

// --- fdll.Ops ---

// SubOpen allocates the master/slave pair, configures the slave, and — if
// argv is present — starts the child and reads back its PID. PTY spawn
// never goes in-progress.
func (p *driver) SubOpen() (osservices.IOD, bool, error) {
	iod, err := p.svc.OpenPty()
	if err != nil {
		return nil, false, err
	}

	if err := p.svc.SetNonBlocking(iod, true); err != nil {
		p.abortSpawn(iod)

		return nil, false, err
	}

	p.iod = iod

	if err := p.setupPty(); err != nil {
		p.abortSpawn(iod)

		return nil, false, err
	}

	if p.raw {
		if err := p.svc.MakeRaw(iod); err != nil {
			p.abortSpawn(iod)

			return nil, false, err
		}
	}

	if len(p.argv) > 0 {
		if err := p.spawn(iod); err != nil {
			p.abortSpawn(iod)

			return nil, false, err
		}
	}

	return iod, false, nil
}

func (p *driver) spawn(iod osservices.PtyIOD) error {
	if _, err := p.svc.IODControl(iod, osservices.ControlARGV, true, p.argv); err != nil {
		return err
	}

	if p.env != nil {
		if _, err := p.svc.IODControl(iod, osservices.ControlENV, true, p.env); err != nil {
			return err
		}
	}

	if _, err := p.svc.IODControl(iod, osservices.ControlSTART, true, nil); err != nil {
		return err
	}

	pidAny, err := p.svc.IODControl(iod, osservices.ControlPID, false, nil)
	if err != nil {
		return err
	}

	pid, _ := pidAny.(int)
	p.pid = pid

	return nil
}

func (p *driver) abortSpawn(iod osservices.PtyIOD) {
	p.cleanupPty()
	_ = p.svc.CloseIOD(iod)
	p.iod = nil
}

// setupPty applies slave-side setup once the slave name is known from
// OpenPty: optional permission bits, optional ownership, and an optional
// symlink publication.
func (p *driver) setupPty() error {
	name := p.iod.SlaveName()

	if p.modeSet {
		if err := p.svc.Chmod(name, p.mode); err != nil {
			return err
		}
	}

	if p.owner != "" || p.group != "" {
		uid, gid := -1, -1

		if p.owner != "" {
			u, err := p.svc.LookupUser(p.owner)
			if err != nil {
				return err
			}

			uid = u
		}

		if p.group != "" {
			g, err := p.svc.LookupGroup(p.group)
			if err != nil {
				return err
			}

			gid = g
		}

		if err := p.svc.Chown(name, uid, gid); err != nil {
			return err
		}
	}

	if p.link != "" {
		if err := p.svc.Symlink(name, p.link); err != nil {
			if !p.forcelink {
				return err
			}

			_ = p.svc.Unlink(p.link)

			if err := p.svc.Symlink(name, p.link); err != nil {
				return err
			}
		}

		p.linkCreated = true
	}

	return nil
}

// cleanupPty undoes setupPty's filesystem side effects; idempotent and
// safe on partially initialized state.
func (p *driver) cleanupPty() {
	if !p.linkCreated {
		return
	}

	_ = p.svc.Unlink(p.link)
	p.linkCreated = false
}

// RetryOpen is never invoked: PTY spawn never reports in-progress.
func (p *driver) RetryOpen() (osservices.IOD, bool, error) {
	return nil, false, gensioerr.New(gensioerr.NotSupported, "pty.RetryOpen", "pty open is always synchronous", nil)
}

// CheckOpen is never invoked for the same reason.
func (p *driver) CheckOpen(osservices.IOD) error { return nil }

// CheckClose releases the descriptor pointer, runs cleanup-pty, and
// attempts to reap the child, requesting a bounded repoll while the child
// is still running.
func (p *driver) CheckClose(osservices.IOD) (bool, time.Duration) {
	p.iod = nil
	p.cleanupPty()

	if p.pid == noPID {
		return true, 0
	}

	if err := p.reap(); err != nil {
		if gensioerr.Is(err, gensioerr.InProgress) {
			return false, checkCloseInterval
		}
		// Any other reap failure still ends the close sequence; nothing
		// further can be done about a wait() error.
		return true, 0
	}

	return true, 0
}

// reap collects the child's exit status, lock-guarded so WAIT_TASK and
// check-close cannot race each other.
func (p *driver) reap() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.exitSet {
		return nil
	}

	if p.pid == noPID {
		return gensioerr.New(gensioerr.NotReady, "pty.reap", "no child", nil)
	}

	code, result, err := p.svc.WaitSubprog(p.pid)
	if err != nil {
		return err
	}

	if result == osservices.WaitInProgress {
		return gensioerr.New(gensioerr.InProgress, "pty.reap", "child still running", nil)
	}

	p.exitCode = code
	p.exitSet = true

	return nil
}

func (p *driver) ReadReady(osservices.IOD)   {}
func (p *driver) ExceptReady(osservices.IOD) {}

// Write translates an I/O error to remote-close because PTYs do not
// reliably deliver EPIPE.
func (p *driver) Write(iod osservices.IOD, buf []byte, aux string) (int, error) {
	if aux != "" {
		return 0, gensioerr.New(gensioerr.Invalid, "pty.Write", "unknown aux: "+aux, nil)
	}

	n, err := p.svc.WriteFD(iod.Fd(), buf)
	if err != nil {
		return n, translateForPeer("pty.Write", err)
	}

	return n, nil
}

// Read is the pull-side counterpart to ReadReady, same I/O-error mapping.
func (p *driver) Read(iod osservices.IOD, buf []byte, aux string) (int, error) {
	if aux != "" {
		return 0, gensioerr.New(gensioerr.Invalid, "pty.Read", "unknown aux: "+aux, nil)
	}

	n, err := p.svc.ReadFD(iod.Fd(), buf)
	if err != nil {
		return n, translateForPeer("pty.Read", err)
	}

	return n, nil
}

func translateForPeer(op string, err error) error {
	if gensioerr.Is(err, gensioerr.IOError) {
		return gensioerr.New(gensioerr.RemoteClose, op, "peer gone", err)
	}

	return err
}

func (p *driver) RaddrToStr(osservices.IOD) string { return "" }
func (p *driver) GetRaddr(osservices.IOD) []byte   { return nil }

// Control implements the PTY driver's controls table.
func (p *driver) Control(key string, isSet bool, arg any) (any, error) {
	switch strings.ToUpper(key) {
	case "ENVIRONMENT":
		return p.controlEnvironment(isSet, arg)
	case "ARGS":
		return p.controlArgs(isSet, arg)
	case "EXIT_CODE":
		return p.controlExitCode(isSet)
	case "KILL_TASK":
		return p.controlKillTask(isSet, arg)
	case "WAIT_TASK":
		return p.controlWaitTask(isSet)
	case "LADDR", "LPORT":
		return p.controlLaddr(isSet)
	case "RADDR":
		return p.controlRaddr(isSet)
	case "RADDR_BIN":
		return p.controlRaddrBin(isSet)
	case "REMOTE_ID":
		return p.controlRemoteID(isSet)
	default:
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "unknown control: "+key, nil)
	}
}

func (p *driver) controlEnvironment(isSet bool, arg any) (any, error) {
	if !isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "ENVIRONMENT is set-only", nil)
	}

	if len(p.argv) == 0 {
		return nil, gensioerr.New(gensioerr.Invalid, "pty.Control", "ENVIRONMENT requires argv present", nil)
	}

	env, ok := arg.([]string)
	if !ok {
		return nil, gensioerr.New(gensioerr.Invalid, "pty.Control", "ENVIRONMENT requires a string slice", nil)
	}

	p.env = append([]string(nil), env...)

	return nil, nil
}

func (p *driver) controlArgs(isSet bool, arg any) (any, error) {
	if !isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "ARGS is set-only", nil)
	}

	if p.iod != nil {
		return nil, gensioerr.New(gensioerr.NotReady, "pty.Control", "ARGS requires the descriptor closed", nil)
	}

	argv, ok := arg.([]string)
	if !ok {
		return nil, gensioerr.New(gensioerr.Invalid, "pty.Control", "ARGS requires a string slice", nil)
	}

	p.argv = append([]string(nil), argv...)

	return nil, nil
}

func (p *driver) controlExitCode(isSet bool) (any, error) {
	if isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "EXIT_CODE is get-only", nil)
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if !p.exitSet {
		return nil, gensioerr.New(gensioerr.NotReady, "pty.Control", "no exit code yet", nil)
	}

	return strconv.Itoa(p.exitCode), nil
}

func (p *driver) controlKillTask(isSet bool, arg any) (any, error) {
	if !isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "KILL_TASK is set-only", nil)
	}

	if p.pid == noPID {
		return nil, gensioerr.New(gensioerr.NotReady, "pty.Control", "no pid", nil)
	}

	n := toInt(arg)

	return nil, p.svc.KillSubprog(p.pid, n != 0)
}

func (p *driver) controlWaitTask(isSet bool) (any, error) {
	if isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "WAIT_TASK is get-only", nil)
	}

	if err := p.reap(); err != nil {
		return nil, err
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	return strconv.Itoa(p.exitCode), nil
}

func (p *driver) controlLaddr(isSet bool) (any, error) {
	if isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "LADDR/LPORT is get-only", nil)
	}

	if p.iod == nil {
		return nil, gensioerr.New(gensioerr.NotReady, "pty.Control", "no slave", nil)
	}

	return p.iod.SlaveName(), nil
}

func (p *driver) controlRaddr(isSet bool) (any, error) {
	if isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "RADDR is get-only", nil)
	}

	return shellquote.Join(p.argv...), nil
}

func (p *driver) controlRaddrBin(isSet bool) (any, error) {
	if isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "RADDR_BIN is get-only", nil)
	}

	if p.iod == nil {
		return nil, gensioerr.New(gensioerr.NotReady, "pty.Control", "no descriptor", nil)
	}

	return p.iod.Fd(), nil
}

func (p *driver) controlRemoteID(isSet bool) (any, error) {
	if isSet {
		return nil, gensioerr.New(gensioerr.NotSupported, "pty.Control", "REMOTE_ID is get-only", nil)
	}

	return strconv.Itoa(p.pid), nil
}

func toInt(arg any) int {
	switch v := arg.(type) {
	case int:
		return v
	case bool:
		if v {
			return 1
		}

		return 0
	default:
		return 0
	}
}

func (p *driver) Free() {}
