// Package tcp implements the TCP client and accepter drivers on top of
// internal/fdll and internal/osservices, grounded in the original's
// lib/gensio_tcp.c connect-retry and socket-option setup and in a
// net.Conn-level dial/listen shape, generalized down to raw non-blocking
// sockets since the fd-LL needs a bare descriptor to drive connect-retry,
// OOB sends, and custom accept handling itself.
package tcp

import (
	"strconv"
	"strings"
	"time"

	"github.com/gensio-go/gensio/internal/fdll"
	"github.com/gensio-go/gensio/internal/gensioaddr"
	"github.com/gensio-go/gensio/internal/gensiobase"
	"github.com/gensio-go/gensio/internal/gensioerr"
	"github.com/gensio-go/gensio/internal/gensioopts"
	"github.com/gensio-go/gensio/internal/osservices"
)

// client is the TCP client driver state.
type client struct {
	svc osservices.Services

	addrs   *gensioaddr.List
	laddr   *gensioaddr.Entry
	nodelay bool

	iod     osservices.IOD
	raddr   gensioaddr.Entry
	lastErr error
}

// Alloc implements tcp_alloc: resolves options, duplicates
// the address list for private ownership, and returns a base endpoint
// marked reliable. The open result reaches cb as EventOpenDone; when no
// connect attempt has to wait for writability, that happens before Alloc
// returns.
func Alloc(svc osservices.Services, addrs *gensioaddr.List, opts []string, cb gensiobase.EventCallback, userdata any) (*gensiobase.Endpoint, error) {
	c := &client{svc: svc, addrs: addrs.Dup()}

	readbuf := 0

	spec := gensioopts.NewSpec().
		Size("readbuf", func(n int) { readbuf = n }).
		String("laddr", func(v string) {
			l, err := gensioaddr.Resolve("tcp.Alloc", v)
			if err == nil && l.Len() > 0 {
				e, _ := l.Cursor()
				c.laddr = &e
			}
		}).
		Bool("nodelay", func(b bool) { c.nodelay = b })

	if err := spec.Parse("tcp.Alloc", opts); err != nil {
		return nil, err
	}

	ll := fdll.New(svc, c, readbuf)
	ep := gensiobase.New(ll, true, cb, userdata)
	ll.Open()

	return ep, nil
}

// openLoop drives connect-retry: try the current cursor
// entry, and on a hard failure advance and retry until either an outcome
// other than hard-failure or the list is exhausted.
func (c *client) openLoop() (osservices.IOD, bool, error) {
	for {
		entry, ok := c.addrs.Cursor()
		if !ok {
			if c.lastErr == nil {
				c.lastErr = gensioerr.New(gensioerr.NotFound, "tcp.sub_open", "address list exhausted", nil)
			}

			return nil, false, c.lastErr
		}

		iod, inProgress, err := c.tryConnect(entry)
		if err == nil {
			c.iod = iod

			return iod, inProgress, nil
		}

		c.lastErr = err
		c.addrs.Advance()
	}
}

func (c *client) tryConnect(entry gensioaddr.Entry) (osservices.IOD, bool, error) {
	fd, err := c.svc.Socket(familyOf(entry))
	if err != nil {
		return nil, false, err
	}

	iod, err := c.svc.AddSocketIOD(fd)
	if err != nil {
		return nil, false, err
	}

	if err := c.svc.SetNonBlocking(iod, true); err != nil {
		_ = c.svc.CloseIOD(iod)

		return nil, false, err
	}

	if err := setSockOpts(c.svc, fd, c.nodelay); err != nil {
		_ = c.svc.CloseIOD(iod)

		return nil, false, err
	}

	if c.laddr != nil {
		if err := c.svc.Bind(fd, *c.laddr); err != nil {
			_ = c.svc.CloseIOD(iod)

			return nil, false, err
		}
	}

	inProgress, err := c.svc.Connect(fd, entry)
	if err != nil {
		// The original closes the new fd before advancing the cursor so a
		// failed candidate never leaks a descriptor.
		_ = c.svc.CloseIOD(iod)

		return nil, false, err
	}

	if !inProgress {
		c.raddr = entry
	}

	return iod, inProgress, nil
}

// --- fdll.Ops ---

func (c *client) SubOpen() (osservices.IOD, bool, error) {
	c.addrs.Reset()

	return c.openLoop()
}

func (c *client) RetryOpen() (osservices.IOD, bool, error) {
	c.addrs.Advance()

	return c.openLoop()
}

func (c *client) CheckOpen(iod osservices.IOD) error {
	if err := c.svc.GetSockError(iod.Fd()); err != nil {
		c.lastErr = err

		return err
	}

	entry, _ := c.addrs.Cursor()
	c.raddr = entry

	return nil
}

func (c *client) CheckClose(osservices.IOD) (bool, time.Duration) { return true, 0 }

func (c *client) ReadReady(osservices.IOD)   {}
func (c *client) ExceptReady(osservices.IOD) {}

func (c *client) Write(iod osservices.IOD, buf []byte, aux string) (int, error) {
	switch aux {
	case "":
		return c.svc.Send(iod.Fd(), buf, false)
	case "oob":
		return c.svc.Send(iod.Fd(), buf, true)
	default:
		return 0, gensioerr.New(gensioerr.Invalid, "tcp.Write", "unknown aux: "+aux, nil)
	}
}

func (c *client) Read(iod osservices.IOD, buf []byte, aux string) (int, error) {
	switch aux {
	case "":
		return c.svc.Recv(iod.Fd(), buf, false)
	case "oob":
		return c.svc.Recv(iod.Fd(), buf, true)
	default:
		return 0, gensioerr.New(gensioerr.Invalid, "tcp.Read", "unknown aux: "+aux, nil)
	}
}

// RaddrToStr implements the RADDR control's "host,port" form, distinct from Entry.String()'s "host:port" network form.
func (c *client) RaddrToStr(osservices.IOD) string {
	return c.raddr.IP.String() + "," + strconv.Itoa(c.raddr.Port)
}

func (c *client) GetRaddr(osservices.IOD) []byte { return []byte(c.RaddrToStr(nil)) }

// Control implements the TCP client's sole control: get/set nodelay via
// TCP_NODELAY.
func (c *client) Control(key string, isSet bool, arg any) (any, error) {
	if !strings.EqualFold(key, "nodelay") {
		return nil, gensioerr.New(gensioerr.NotSupported, "tcp.Control", "unknown control: "+key, nil)
	}

	if c.iod == nil {
		return nil, gensioerr.New(gensioerr.NotReady, "tcp.Control", "not open", nil)
	}

	if isSet {
		b, err := gensioopts.ParseBool(toString(arg), true)
		if err != nil {
			return nil, err
		}

		c.nodelay = b

		v := 0
		if b {
			v = 1
		}

		return nil, setSockOptNodelay(c.svc, c.iod.Fd(), v)
	}

	v, err := getSockOptNodelay(c.svc, c.iod.Fd())
	if err != nil {
		return nil, err
	}

	if v != 0 {
		return "1", nil
	}

	return "0", nil
}

func (c *client) Free() {}

func toString(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case bool:
		if v {
			return "1"
		}

		return "0"
	default:
		return ""
	}
}
