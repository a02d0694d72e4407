package pty

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/gensio-go/gensio/internal/gensiobase"
	"github.com/gensio-go/gensio/internal/gensioerr"
	"github.com/gensio-go/gensio/internal/osservices"
	"github.com/gensio-go/gensio/internal/osservices/osmock"
)

type fakePtyIOD struct {
	fd    int
	slave string
}

func (f *fakePtyIOD) Fd() int                  { return f.fd }
func (f *fakePtyIOD) Kind() osservices.IODKind { return osservices.IODPty }
func (f *fakePtyIOD) SlaveName() string        { return f.slave }
func (f *fakePtyIOD) SlaveFd() int             { return f.fd + 1 }

type stdlibLock struct{}

func (*stdlibLock) Lock()   {}
func (*stdlibLock) Unlock() {}

// TestSpawnWithChildReportsRemoteIDAndReapsExit covers scenario 4:
// a PTY with a child spawns, reports a positive REMOTE_ID, and WAIT_TASK
// returns the reaped exit code.
func TestSpawnWithChildReportsRemoteIDAndReapsExit(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	iod := &fakePtyIOD{fd: 9, slave: "/dev/pts/7"}

	svc.EXPECT().NewLock().Return(&stdlibLock{})
	svc.EXPECT().OpenPty().Return(iod, nil)
	svc.EXPECT().SetNonBlocking(iod, true).Return(nil)
	svc.EXPECT().IODControl(iod, osservices.ControlARGV, true, []string{"echo", "hello"}).Return(nil, nil)
	svc.EXPECT().IODControl(iod, osservices.ControlSTART, true, nil).Return(nil, nil)
	svc.EXPECT().IODControl(iod, osservices.ControlPID, false, nil).Return(4242, nil)
	svc.EXPECT().SetReadHandler(iod, true, gomock.Any()).Return(nil)
	svc.EXPECT().SetExceptHandler(iod, true, gomock.Any()).Return(nil)

	var openErr error

	ep, err := Alloc(svc, []string{"echo", "hello"}, nil, func(e *gensiobase.Endpoint, ev gensiobase.Event, err error) {
		if ev == gensiobase.EventOpenDone {
			openErr = err
		}
	}, nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if openErr != nil {
		t.Fatalf("open failed: %v", openErr)
	}

	id, err := ep.Control("REMOTE_ID", false, nil)
	if err != nil {
		t.Fatalf("Control REMOTE_ID: %v", err)
	}

	if id != "4242" {
		t.Fatalf("REMOTE_ID = %v, want 4242", id)
	}

	svc.EXPECT().WaitSubprog(4242).Return(0, osservices.WaitDone, nil)

	code, err := ep.Control("WAIT_TASK", false, nil)
	if err != nil {
		t.Fatalf("Control WAIT_TASK: %v", err)
	}

	if code != "0" {
		t.Fatalf("WAIT_TASK = %v, want 0", code)
	}

	// EXIT_CODE reports the reaped code without calling WaitSubprog again.
	exit, err := ep.Control("EXIT_CODE", false, nil)
	if err != nil {
		t.Fatalf("Control EXIT_CODE: %v", err)
	}

	if exit != "0" {
		t.Fatalf("EXIT_CODE = %v, want 0", exit)
	}
}

// TestDetachedSlaveAppliesModeOwnerGroupAndLink covers scenario 5:
// a detached pty (no argv) applies perm/owner/group and publishes a symlink,
// retrying once via unlink when forcelink is set and the link already
// exists.
func TestDetachedSlaveAppliesModeOwnerGroupAndLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	iod := &fakePtyIOD{fd: 9, slave: "/dev/pts/7"}

	svc.EXPECT().NewLock().Return(&stdlibLock{})
	svc.EXPECT().OpenPty().Return(iod, nil)
	svc.EXPECT().SetNonBlocking(iod, true).Return(nil)
	svc.EXPECT().Chmod("/dev/pts/7", uint32(0o620)).Return(nil)
	svc.EXPECT().LookupUser("alice").Return(1000, nil)
	svc.EXPECT().LookupGroup("tty").Return(5, nil)
	svc.EXPECT().Chown("/dev/pts/7", 1000, 5).Return(nil)
	svc.EXPECT().Symlink("/dev/pts/7", "/tmp/mypty").Return(gensioerr.New(gensioerr.IOError, "test", "exists", nil))
	svc.EXPECT().Unlink("/tmp/mypty").Return(nil)
	svc.EXPECT().Symlink("/dev/pts/7", "/tmp/mypty").Return(nil)
	svc.EXPECT().SetReadHandler(iod, true, gomock.Any()).Return(nil)
	svc.EXPECT().SetExceptHandler(iod, true, gomock.Any()).Return(nil)

	ep, err := Alloc(svc, nil, []string{"perm=0620", "owner=alice", "group=tty", "link=/tmp/mypty", "forcelink"},
		func(*gensiobase.Endpoint, gensiobase.Event, error) {}, nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	laddr, err := ep.Control("LADDR", false, nil)
	if err != nil {
		t.Fatalf("Control LADDR: %v", err)
	}

	if laddr != "/dev/pts/7" {
		t.Fatalf("LADDR = %v, want /dev/pts/7", laddr)
	}

	// Close drains through check-close: cleanup-pty must unlink the
	// published symlink exactly once, then the descriptor closes.
	svc.EXPECT().ClearHandlers(iod, gomock.Any()).DoAndReturn(
		func(_ osservices.IOD, cleared func()) { cleared() })
	svc.EXPECT().Unlink("/tmp/mypty").Return(nil)
	svc.EXPECT().CloseIOD(iod).Return(nil)

	ep.Close()
}

// TestAllocRejectsModeOptionsWithArgv covers scenario 6: mode and
// argv together are inconsistent, and no descriptor is ever opened.
func TestAllocRejectsModeOptionsWithArgv(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	_, err := Alloc(svc, []string{"echo", "hi"}, []string{"perm=0620"}, nil, nil)
	if !gensioerr.Is(err, gensioerr.Inconsistent) {
		t.Fatalf("Alloc(argv, perm): err = %v, want Inconsistent", err)
	}
}

// TestArgsControlRequiresClosedDescriptor covers the invariant that ARGS can
// only be set once the descriptor is closed (no live child to replace).
func TestArgsControlRequiresClosedDescriptor(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	iod := &fakePtyIOD{fd: 9, slave: "/dev/pts/7"}

	svc.EXPECT().NewLock().Return(&stdlibLock{})
	svc.EXPECT().OpenPty().Return(iod, nil)
	svc.EXPECT().SetNonBlocking(iod, true).Return(nil)
	svc.EXPECT().SetReadHandler(iod, true, gomock.Any()).Return(nil)
	svc.EXPECT().SetExceptHandler(iod, true, gomock.Any()).Return(nil)

	ep, err := Alloc(svc, nil, nil, func(*gensiobase.Endpoint, gensiobase.Event, error) {}, nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if _, err := ep.Control("ARGS", true, []string{"ls"}); !gensioerr.Is(err, gensioerr.NotReady) {
		t.Fatalf("ARGS set while open: err = %v, want NotReady", err)
	}

	svc.EXPECT().ClearHandlers(iod, gomock.Any()).DoAndReturn(
		func(_ osservices.IOD, cleared func()) { cleared() })
	svc.EXPECT().CloseIOD(iod).Return(nil)

	ep.Close()

	if _, err := ep.Control("ARGS", true, []string{"ls", "-la"}); err != nil {
		t.Fatalf("ARGS set after close: %v", err)
	}
}

// TestCheckCloseRepollsWhileChildRunning covers the bounded check-close
// repoll: a still-running child reports in-progress and the
// driver asks for another pass at the fixed interval rather than blocking.
func TestCheckCloseRepollsWhileChildRunning(t *testing.T) {
	p := &driver{pid: 555, lock: &stdlibLock{}}

	svc := osmock.NewMockServices(gomock.NewController(t))
	p.svc = svc

	svc.EXPECT().WaitSubprog(555).Return(0, osservices.WaitInProgress, nil)

	done, wait := p.CheckClose(nil)
	if done {
		t.Fatal("CheckClose should report not-done while the child is still running")
	}

	if wait != checkCloseInterval {
		t.Fatalf("CheckClose wait = %v, want %v", wait, checkCloseInterval)
	}
}

// TestStrAllocSplitsShellArgv grounds pty.StrAlloc in a shlex split ahead of
// Alloc.
func TestStrAllocSplitsShellArgv(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	iod := &fakePtyIOD{fd: 9, slave: "/dev/pts/7"}

	svc.EXPECT().NewLock().Return(&stdlibLock{})
	svc.EXPECT().OpenPty().Return(iod, nil)
	svc.EXPECT().SetNonBlocking(iod, true).Return(nil)
	svc.EXPECT().IODControl(iod, osservices.ControlARGV, true, []string{"echo", "hello world"}).Return(nil, nil)
	svc.EXPECT().IODControl(iod, osservices.ControlSTART, true, nil).Return(nil, nil)
	svc.EXPECT().IODControl(iod, osservices.ControlPID, false, nil).Return(99, nil)
	svc.EXPECT().SetReadHandler(iod, true, gomock.Any()).Return(nil)
	svc.EXPECT().SetExceptHandler(iod, true, gomock.Any()).Return(nil)

	_, err := StrAlloc(svc, `echo "hello world"`, nil, func(*gensiobase.Endpoint, gensiobase.Event, error) {}, nil)
	if err != nil {
		t.Fatalf("StrAlloc: %v", err)
	}
}
