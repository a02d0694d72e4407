package gensiobase

import (
	"testing"
	"time"

	"github.com/gensio-go/gensio/internal/fdll"
	"github.com/gensio-go/gensio/internal/gensiolog"
	"github.com/gensio-go/gensio/internal/osservices"
)

// fakeIOD/fakeOps give just enough of fdll's contract to drive an Endpoint
// through its lifecycle without a real descriptor.
type fakeIOD struct{ fd int }

func (f *fakeIOD) Fd() int                  { return f.fd }
func (f *fakeIOD) Kind() osservices.IODKind { return osservices.IODSocket }

type fakeOps struct{ openErr error }

func (f *fakeOps) SubOpen() (osservices.IOD, bool, error) { return &fakeIOD{fd: 3}, false, f.openErr }
func (f *fakeOps) RetryOpen() (osservices.IOD, bool, error) {
	return &fakeIOD{fd: 3}, false, nil
}
func (f *fakeOps) CheckOpen(osservices.IOD) error                       { return nil }
func (f *fakeOps) CheckClose(osservices.IOD) (bool, time.Duration)      { return true, 0 }
func (f *fakeOps) ReadReady(osservices.IOD)                             {}
func (f *fakeOps) ExceptReady(osservices.IOD)                           {}
func (f *fakeOps) Write(_ osservices.IOD, buf []byte, _ string) (int, error) { return len(buf), nil }
func (f *fakeOps) Read(osservices.IOD, []byte, string) (int, error)     { return 0, nil }
func (f *fakeOps) RaddrToStr(osservices.IOD) string                     { return "1.2.3.4,9" }
func (f *fakeOps) GetRaddr(osservices.IOD) []byte                       { return []byte("1.2.3.4,9") }
func (f *fakeOps) Control(string, bool, any) (any, error)               { return "ok", nil }
func (f *fakeOps) Free()                                                {}

type fakeServices struct{ osservices.Services }

func (fakeServices) SetReadHandler(osservices.IOD, bool, osservices.Handler) error   { return nil }
func (fakeServices) SetExceptHandler(osservices.IOD, bool, osservices.Handler) error { return nil }
func (fakeServices) SetWriteHandler(osservices.IOD, bool, osservices.Handler) error  { return nil }
func (fakeServices) ClearHandlers(osservices.IOD, func())                           {}

func TestEndpointDispatchesOpenDoneToCallback(t *testing.T) {
	var gotEv Event

	var gotErr error

	cb := func(ep *Endpoint, ev Event, err error) { gotEv = ev; gotErr = err }

	ll := fdll.New(fakeServices{}, &fakeOps{}, 0)
	ep := New(ll, true, cb, "userdata")
	ll.Open()

	if gotEv != EventOpenDone || gotErr != nil {
		t.Fatalf("callback got %v, %v; want EventOpenDone, nil", gotEv, gotErr)
	}

	if !ep.Reliable() {
		t.Fatal("endpoint built with reliable=true should report Reliable()")
	}

	if ep.UserData() != "userdata" {
		t.Fatalf("UserData() = %v, want userdata", ep.UserData())
	}

	if ep.RemoteAddr() != "1.2.3.4,9" {
		t.Fatalf("RemoteAddr() = %q, want 1.2.3.4,9", ep.RemoteAddr())
	}
}

func TestServerNewNotifiesOpenDoneHookInsteadOfCallback(t *testing.T) {
	var hookCalled bool

	ll := fdll.New(fakeServices{}, &fakeOps{}, 0)
	ep := ServerNew(ll, true, func(ep *Endpoint, err error) { hookCalled = true })
	ll.Open()

	if !hookCalled {
		t.Fatal("ServerNew's openDone hook should fire on open-done, not the (nil) ordinary callback")
	}

	_ = ep
}

func TestAccepterPendingTracksAddRemove(t *testing.T) {
	acc := NewAccepter(nil, nil)

	ll := fdll.New(fakeServices{}, &fakeOps{}, 0)
	ep := New(ll, true, nil, nil)

	acc.AddPending(ep)

	if acc.PendingCount() != 1 {
		t.Fatalf("PendingCount() = %d, want 1", acc.PendingCount())
	}

	acc.RemovePending(ep)

	if acc.PendingCount() != 0 {
		t.Fatalf("PendingCount() = %d, want 0 after RemovePending", acc.PendingCount())
	}
}

func TestAccepterDispatchesNewConnection(t *testing.T) {
	var gotEv AccEvent

	var gotEp *Endpoint

	acc := NewAccepter(func(a *Accepter, ev AccEvent, ep *Endpoint) {
		gotEv = ev
		gotEp = ep
	}, gensiolog.NewDefault("test"))

	ll := fdll.New(fakeServices{}, &fakeOps{}, 0)
	ep := New(ll, true, nil, nil)

	acc.DispatchNewConnection(ep)

	if gotEv != AccEventNewConnection || gotEp != ep {
		t.Fatalf("dispatch got %v, %v; want AccEventNewConnection, ep", gotEv, gotEp)
	}
}
