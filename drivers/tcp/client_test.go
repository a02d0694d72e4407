package tcp

import (
	"testing"

	"go.uber.org/mock/gomock"
	"golang.org/x/sys/unix"

	"github.com/gensio-go/gensio/internal/gensioaddr"
	"github.com/gensio-go/gensio/internal/gensiobase"
	"github.com/gensio-go/gensio/internal/gensioerr"
	"github.com/gensio-go/gensio/internal/osservices"
	"github.com/gensio-go/gensio/internal/osservices/osmock"
)

type fakeIOD struct{ fd int }

func (f *fakeIOD) Fd() int                  { return f.fd }
func (f *fakeIOD) Kind() osservices.IODKind { return osservices.IODSocket }

func anyKeepaliveReuseaddr(svc *osmock.MockServices, fd int) {
	svc.EXPECT().SetSockOptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1).Return(nil)
	svc.EXPECT().SetSockOptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1).Return(nil)
}

// TestConnectFallbackAdvancesPastHardFailure covers scenario 3:
// a hard connect() failure on the first candidate advances the address list
// and succeeds on the second, without leaking the first fd.
func TestConnectFallbackAdvancesPastHardFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	addrs, err := gensioaddr.Resolve("test", "192.0.2.1:1", "127.0.0.1:54545")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	iod1 := &fakeIOD{fd: 10}
	iod2 := &fakeIOD{fd: 11}

	svc.EXPECT().Socket(unix.AF_INET).Return(10, nil)
	svc.EXPECT().AddSocketIOD(10).Return(iod1, nil)
	svc.EXPECT().SetNonBlocking(iod1, true).Return(nil)
	anyKeepaliveReuseaddr(svc, 10)
	svc.EXPECT().Connect(10, gomock.Any()).Return(false, gensioerr.New(gensioerr.IOError, "test", "connection refused", nil))
	svc.EXPECT().CloseIOD(iod1).Return(nil)

	svc.EXPECT().Socket(unix.AF_INET).Return(11, nil)
	svc.EXPECT().AddSocketIOD(11).Return(iod2, nil)
	svc.EXPECT().SetNonBlocking(iod2, true).Return(nil)
	anyKeepaliveReuseaddr(svc, 11)
	svc.EXPECT().Connect(11, gomock.Any()).Return(false, nil)
	svc.EXPECT().SetReadHandler(iod2, true, gomock.Any()).Return(nil)
	svc.EXPECT().SetExceptHandler(iod2, true, gomock.Any()).Return(nil)

	var openErr error

	var ep *gensiobase.Endpoint

	ep, err = Alloc(svc, addrs, nil, func(e *gensiobase.Endpoint, ev gensiobase.Event, err error) {
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

	if ep.RemoteAddr() != "127.0.0.1,54545" {
		t.Fatalf("RemoteAddr() = %q, want 127.0.0.1,54545", ep.RemoteAddr())
	}
}

// TestConnectExhaustionSurfacesLastErr covers the boundary behavior where
// every candidate hard-fails: the client surfaces the last error rather than
// a generic not-found.
func TestConnectExhaustionSurfacesLastErr(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	addrs, err := gensioaddr.Resolve("test", "192.0.2.1:1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	iod1 := &fakeIOD{fd: 10}
	wantErr := gensioerr.New(gensioerr.IOError, "test", "connection refused", nil)

	svc.EXPECT().Socket(unix.AF_INET).Return(10, nil)
	svc.EXPECT().AddSocketIOD(10).Return(iod1, nil)
	svc.EXPECT().SetNonBlocking(iod1, true).Return(nil)
	anyKeepaliveReuseaddr(svc, 10)
	svc.EXPECT().Connect(10, gomock.Any()).Return(false, wantErr)
	svc.EXPECT().CloseIOD(iod1).Return(nil)

	var openErr error

	_, err = Alloc(svc, addrs, nil, func(e *gensiobase.Endpoint, ev gensiobase.Event, err error) {
		if ev == gensiobase.EventOpenDone {
			openErr = err
		}
	}, nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if openErr != wantErr {
		t.Fatalf("openErr = %v, want the last candidate's error %v", openErr, wantErr)
	}
}

// TestAsyncCheckOpenFailureSurfacesLastErr covers the boundary behavior
// where a single candidate goes in-progress and then fails check-open: the
// client surfaces that connect failure rather than fabricating a generic
// address-list-exhausted error.
func TestAsyncCheckOpenFailureSurfacesLastErr(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	addrs, err := gensioaddr.Resolve("test", "192.0.2.1:1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	iod1 := &fakeIOD{fd: 10}
	wantErr := gensioerr.New(gensioerr.IOError, "test", "connection refused", nil)

	svc.EXPECT().Socket(unix.AF_INET).Return(10, nil)
	svc.EXPECT().AddSocketIOD(10).Return(iod1, nil)
	svc.EXPECT().SetNonBlocking(iod1, true).Return(nil)
	anyKeepaliveReuseaddr(svc, 10)
	svc.EXPECT().Connect(10, gomock.Any()).Return(true, nil)

	var writeHandler osservices.Handler

	svc.EXPECT().SetWriteHandler(iod1, true, gomock.Any()).DoAndReturn(
		func(_ osservices.IOD, _ bool, h osservices.Handler) error {
			writeHandler = h

			return nil
		})

	var openErr error

	_, err = Alloc(svc, addrs, nil, func(e *gensiobase.Endpoint, ev gensiobase.Event, err error) {
		if ev == gensiobase.EventOpenDone {
			openErr = err
		}
	}, nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if writeHandler == nil {
		t.Fatal("expected a write handler to be registered for an in-progress connect")
	}

	// The only candidate becomes writable, but check-open's GetSockError
	// reports the connect actually failed; with the list now exhausted, the
	// failure from check-open must surface, not a fabricated not-found.
	svc.EXPECT().SetWriteHandler(iod1, false, nil).Return(nil)
	svc.EXPECT().GetSockError(10).Return(wantErr)

	writeHandler(osservices.EventWritable, nil)

	if openErr != wantErr {
		t.Fatalf("openErr = %v, want the check-open candidate's error %v", openErr, wantErr)
	}
}

func TestAllocRejectsUnknownOption(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	addrs, err := gensioaddr.Resolve("test", "127.0.0.1:1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	_, err = Alloc(svc, addrs, []string{"bogus"}, nil, nil)
	if !gensioerr.Is(err, gensioerr.Invalid) {
		t.Fatalf("Alloc with unknown option: err = %v, want Invalid", err)
	}
}

func TestNodelayControlGetSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := osmock.NewMockServices(ctrl)

	addrs, err := gensioaddr.Resolve("test", "127.0.0.1:54545")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	iod := &fakeIOD{fd: 10}

	svc.EXPECT().Socket(unix.AF_INET).Return(10, nil)
	svc.EXPECT().AddSocketIOD(10).Return(iod, nil)
	svc.EXPECT().SetNonBlocking(iod, true).Return(nil)
	anyKeepaliveReuseaddr(svc, 10)
	svc.EXPECT().SetSockOptInt(10, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1).Return(nil)
	svc.EXPECT().Connect(10, gomock.Any()).Return(false, nil)
	svc.EXPECT().SetReadHandler(iod, true, gomock.Any()).Return(nil)
	svc.EXPECT().SetExceptHandler(iod, true, gomock.Any()).Return(nil)

	ep, err := Alloc(svc, addrs, []string{"nodelay"}, func(*gensiobase.Endpoint, gensiobase.Event, error) {}, nil)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	svc.EXPECT().GetSockOptInt(10, unix.IPPROTO_TCP, unix.TCP_NODELAY).Return(1, nil)

	v, err := ep.Control("nodelay", false, nil)
	if err != nil {
		t.Fatalf("Control get nodelay: %v", err)
	}

	if v != "1" {
		t.Fatalf("Control get nodelay = %v, want \"1\"", v)
	}

	svc.EXPECT().SetSockOptInt(10, unix.IPPROTO_TCP, unix.TCP_NODELAY, 0).Return(nil)

	if _, err := ep.Control("nodelay", true, "0"); err != nil {
		t.Fatalf("Control set nodelay: %v", err)
	}

	svc.EXPECT().GetSockOptInt(10, unix.IPPROTO_TCP, unix.TCP_NODELAY).Return(0, nil)

	v, err = ep.Control("nodelay", false, nil)
	if err != nil {
		t.Fatalf("Control get nodelay after set: %v", err)
	}

	if v != "0" {
		t.Fatalf("Control get nodelay after set = %v, want \"0\"", v)
	}
}
