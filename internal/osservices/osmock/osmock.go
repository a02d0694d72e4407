// Package osmock is a go.uber.org/mock-style double for osservices.Services,
// hand-written in the shape mockgen would produce from the interface: one
// MockServices type with a Recorder, and one Call-returning method per
// interface method. Drivers' unit tests use this instead of real
// sockets/ptys/forked children so connect-retry, accept-reject, and PTY
// control-plane edge cases can be exercised deterministically.
package osmock

import (
	"reflect"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/gensio-go/gensio/internal/gensioaddr"
	"github.com/gensio-go/gensio/internal/osservices"
)

// MockServices is a mock of the osservices.Services interface.
type MockServices struct {
	ctrl     *gomock.Controller
	recorder *MockServicesMockRecorder
}

// MockServicesMockRecorder is the mock recorder for MockServices.
type MockServicesMockRecorder struct {
	mock *MockServices
}

// NewMockServices creates a new mock instance.
func NewMockServices(ctrl *gomock.Controller) *MockServices {
	mock := &MockServices{ctrl: ctrl}
	mock.recorder = &MockServicesMockRecorder{mock}

	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockServices) EXPECT() *MockServicesMockRecorder { return m.recorder }

func (m *MockServices) NewLock() osservices.Lock {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NewLock")
	ret0, _ := ret[0].(osservices.Lock)

	return ret0
}

func (mr *MockServicesMockRecorder) NewLock() *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NewLock", reflect.TypeOf((*MockServices)(nil).NewLock))
}

func (m *MockServices) AddSocketIOD(fd int) (osservices.IOD, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AddSocketIOD", fd)
	ret0, _ := ret[0].(osservices.IOD)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) AddSocketIOD(fd any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AddSocketIOD", reflect.TypeOf((*MockServices)(nil).AddSocketIOD), fd)
}

func (m *MockServices) OpenPty() (osservices.PtyIOD, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "OpenPty")
	ret0, _ := ret[0].(osservices.PtyIOD)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) OpenPty() *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OpenPty", reflect.TypeOf((*MockServices)(nil).OpenPty))
}

func (m *MockServices) SetNonBlocking(h osservices.IOD, nonblock bool) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetNonBlocking", h, nonblock)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) SetNonBlocking(h, nonblock any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetNonBlocking", reflect.TypeOf((*MockServices)(nil).SetNonBlocking), h, nonblock)
}

func (m *MockServices) MakeRaw(h osservices.PtyIOD) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MakeRaw", h)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) MakeRaw(h any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MakeRaw", reflect.TypeOf((*MockServices)(nil).MakeRaw), h)
}

func (m *MockServices) CloseIOD(h osservices.IOD) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CloseIOD", h)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) CloseIOD(h any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CloseIOD", reflect.TypeOf((*MockServices)(nil).CloseIOD), h)
}

func (m *MockServices) SetReadHandler(h osservices.IOD, enable bool, handler osservices.Handler) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetReadHandler", h, enable, handler)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) SetReadHandler(h, enable, handler any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetReadHandler", reflect.TypeOf((*MockServices)(nil).SetReadHandler), h, enable, handler)
}

func (m *MockServices) SetWriteHandler(h osservices.IOD, enable bool, handler osservices.Handler) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetWriteHandler", h, enable, handler)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) SetWriteHandler(h, enable, handler any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetWriteHandler", reflect.TypeOf((*MockServices)(nil).SetWriteHandler), h, enable, handler)
}

func (m *MockServices) SetExceptHandler(h osservices.IOD, enable bool, handler osservices.Handler) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetExceptHandler", h, enable, handler)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) SetExceptHandler(h, enable, handler any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetExceptHandler", reflect.TypeOf((*MockServices)(nil).SetExceptHandler), h, enable, handler)
}

func (m *MockServices) ClearHandlers(h osservices.IOD, cleared func()) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ClearHandlers", h, cleared)
}

func (mr *MockServicesMockRecorder) ClearHandlers(h, cleared any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ClearHandlers", reflect.TypeOf((*MockServices)(nil).ClearHandlers), h, cleared)
}

func (m *MockServices) RunTimer(d time.Duration, f func()) osservices.Timer {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RunTimer", d, f)
	ret0, _ := ret[0].(osservices.Timer)

	return ret0
}

func (mr *MockServicesMockRecorder) RunTimer(d, f any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RunTimer", reflect.TypeOf((*MockServices)(nil).RunTimer), d, f)
}

func (m *MockServices) WriteFD(fd int, buf []byte) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WriteFD", fd, buf)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) WriteFD(fd, buf any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteFD", reflect.TypeOf((*MockServices)(nil).WriteFD), fd, buf)
}

func (m *MockServices) ReadFD(fd int, buf []byte) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReadFD", fd, buf)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) ReadFD(fd, buf any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReadFD", reflect.TypeOf((*MockServices)(nil).ReadFD), fd, buf)
}

func (m *MockServices) Socket(family int) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Socket", family)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) Socket(family any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Socket", reflect.TypeOf((*MockServices)(nil).Socket), family)
}

func (m *MockServices) SetSockOptInt(fd, level, opt, val int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SetSockOptInt", fd, level, opt, val)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) SetSockOptInt(fd, level, opt, val any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SetSockOptInt", reflect.TypeOf((*MockServices)(nil).SetSockOptInt), fd, level, opt, val)
}

func (m *MockServices) GetSockOptInt(fd, level, opt int) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSockOptInt", fd, level, opt)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) GetSockOptInt(fd, level, opt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSockOptInt", reflect.TypeOf((*MockServices)(nil).GetSockOptInt), fd, level, opt)
}

func (m *MockServices) Bind(fd int, addr gensioaddr.Entry) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Bind", fd, addr)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) Bind(fd, addr any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Bind", reflect.TypeOf((*MockServices)(nil).Bind), fd, addr)
}

func (m *MockServices) Connect(fd int, addr gensioaddr.Entry) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Connect", fd, addr)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) Connect(fd, addr any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Connect", reflect.TypeOf((*MockServices)(nil).Connect), fd, addr)
}

func (m *MockServices) GetSockError(fd int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetSockError", fd)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) GetSockError(fd any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetSockError", reflect.TypeOf((*MockServices)(nil).GetSockError), fd)
}

func (m *MockServices) Send(fd int, buf []byte, oob bool) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Send", fd, buf, oob)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) Send(fd, buf, oob any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockServices)(nil).Send), fd, buf, oob)
}

func (m *MockServices) Recv(fd int, buf []byte, oob bool) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Recv", fd, buf, oob)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) Recv(fd, buf, oob any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Recv", reflect.TypeOf((*MockServices)(nil).Recv), fd, buf, oob)
}

func (m *MockServices) GetPeerName(fd int) (gensioaddr.Entry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetPeerName", fd)
	ret0, _ := ret[0].(gensioaddr.Entry)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) GetPeerName(fd any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetPeerName", reflect.TypeOf((*MockServices)(nil).GetPeerName), fd)
}

func (m *MockServices) OpenListeners(addrs *gensioaddr.List) ([]int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "OpenListeners", addrs)
	ret0, _ := ret[0].([]int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) OpenListeners(addrs any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OpenListeners", reflect.TypeOf((*MockServices)(nil).OpenListeners), addrs)
}

func (m *MockServices) Accept(fd int) (int, gensioaddr.Entry, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Accept", fd)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(gensioaddr.Entry)
	ret2, _ := ret[2].(error)

	return ret0, ret1, ret2
}

func (mr *MockServicesMockRecorder) Accept(fd any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Accept", reflect.TypeOf((*MockServices)(nil).Accept), fd)
}

func (m *MockServices) IODControl(h osservices.PtyIOD, key osservices.ControlKey, isSet bool, arg any) (any, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IODControl", h, key, isSet, arg)
	ret1, _ := ret[1].(error)

	return ret[0], ret1
}

func (mr *MockServicesMockRecorder) IODControl(h, key, isSet, arg any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IODControl", reflect.TypeOf((*MockServices)(nil).IODControl), h, key, isSet, arg)
}

func (m *MockServices) WaitSubprog(pid int) (int, osservices.WaitResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WaitSubprog", pid)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(osservices.WaitResult)
	ret2, _ := ret[2].(error)

	return ret0, ret1, ret2
}

func (mr *MockServicesMockRecorder) WaitSubprog(pid any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WaitSubprog", reflect.TypeOf((*MockServices)(nil).WaitSubprog), pid)
}

func (m *MockServices) KillSubprog(pid int, force bool) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "KillSubprog", pid, force)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) KillSubprog(pid, force any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "KillSubprog", reflect.TypeOf((*MockServices)(nil).KillSubprog), pid, force)
}

func (m *MockServices) LookupUser(name string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LookupUser", name)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) LookupUser(name any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LookupUser", reflect.TypeOf((*MockServices)(nil).LookupUser), name)
}

func (m *MockServices) LookupGroup(name string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LookupGroup", name)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

func (mr *MockServicesMockRecorder) LookupGroup(name any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LookupGroup", reflect.TypeOf((*MockServices)(nil).LookupGroup), name)
}

func (m *MockServices) Chmod(path string, mode uint32) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Chmod", path, mode)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) Chmod(path, mode any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Chmod", reflect.TypeOf((*MockServices)(nil).Chmod), path, mode)
}

func (m *MockServices) Chown(path string, uid, gid int) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Chown", path, uid, gid)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) Chown(path, uid, gid any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Chown", reflect.TypeOf((*MockServices)(nil).Chown), path, uid, gid)
}

func (m *MockServices) Symlink(target, link string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Symlink", target, link)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) Symlink(target, link any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Symlink", reflect.TypeOf((*MockServices)(nil).Symlink), target, link)
}

func (m *MockServices) Unlink(path string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Unlink", path)
	ret0, _ := ret[0].(error)

	return ret0
}

func (mr *MockServicesMockRecorder) Unlink(path any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Unlink", reflect.TypeOf((*MockServices)(nil).Unlink), path)
}

func (m *MockServices) HostAccessCheck(peer gensioaddr.Entry) string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HostAccessCheck", peer)
	ret0, _ := ret[0].(string)

	return ret0
}

func (mr *MockServicesMockRecorder) HostAccessCheck(peer any) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HostAccessCheck", reflect.TypeOf((*MockServices)(nil).HostAccessCheck), peer)
}

var _ osservices.Services = (*MockServices)(nil)
