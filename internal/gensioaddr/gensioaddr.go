// Package gensioaddr implements the address-list abstraction 
// calls "trivial" and out of scope: an immutable, ordered list of resolved
// network addresses with an iteration cursor, built on the standard
// library's resolver. No third-party resolver is warranted for this.
package gensioaddr

import (
	"net"
	"strconv"
	"strings"

	"github.com/gensio-go/gensio/internal/gensioerr"
)

// MaxSockaddrStorage is the platform's sockaddr_storage size. An address
// whose resolved form would not fit is rejected with gensioerr.TooLarge at
// allocation time.
const MaxSockaddrStorage = 128

// Entry is one resolved address in the list.
type Entry struct {
	IP   net.IP
	Port int
	Zone string
}

func (e Entry) Network() string { return "tcp" }

func (e Entry) String() string {
	host := e.IP.String()
	if e.Zone != "" {
		host += "%" + e.Zone
	}

	return net.JoinHostPort(host, strconv.Itoa(e.Port))
}

// storageLen returns the sockaddr_in/sockaddr_in6 length this entry would
// occupy on the wire.
func (e Entry) storageLen() int {
	if e.IP.To4() != nil {
		return 16 // sizeof(sockaddr_in)
	}

	return 28 // sizeof(sockaddr_in6)
}

// List is an immutable sequence of addresses plus a private iteration
// cursor used by the TCP client driver's connect-retry loop.
type List struct {
	entries []Entry
	cursor  int
}

// Resolve parses one or more "host:port" strings, one per argument, into a
// List; it does not split on commas itself. Each entry may resolve to more
// than one address family.
func Resolve(op string, hostports ...string) (*List, error) {
	var entries []Entry

	for _, hp := range hostports {
		host, portStr, err := net.SplitHostPort(hp)
		if err != nil {
			return nil, gensioerr.New(gensioerr.Invalid, op, "malformed address "+hp, err)
		}

		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, gensioerr.New(gensioerr.Invalid, op, "malformed port in "+hp, err)
		}

		ips, err := net.LookupIP(host)
		if err != nil {
			// Fall back to direct parse for literal IPs so tests do not need
			// DNS; LookupIP already handles this on most resolvers but some
			// minimal environments do not.
			if ip := net.ParseIP(host); ip != nil {
				ips = []net.IP{ip}
			} else {
				return nil, gensioerr.New(gensioerr.NotFound, op, "cannot resolve "+host, err)
			}
		}

		for _, ip := range ips {
			e := Entry{IP: ip, Port: port}
			if e.storageLen() > MaxSockaddrStorage {
				return nil, gensioerr.New(gensioerr.TooLarge, op, "address exceeds platform sockaddr storage", nil)
			}

			entries = append(entries, e)
		}
	}

	if len(entries) == 0 {
		return nil, gensioerr.New(gensioerr.Invalid, op, "no addresses given", nil)
	}

	return &List{entries: entries}, nil
}

// Dup returns a private copy of the list with its cursor reset to the start,
// for the allocator's "duplicate the address list for private ownership"
// step.
func (l *List) Dup() *List {
	cp := make([]Entry, len(l.entries))
	copy(cp, l.entries)

	return &List{entries: cp}
}

// Len returns the number of addresses.
func (l *List) Len() int { return len(l.entries) }

// Cursor returns the entry at the current iteration position, or false once
// the list is exhausted.
func (l *List) Cursor() (Entry, bool) {
	if l.cursor >= len(l.entries) {
		return Entry{}, false
	}

	return l.entries[l.cursor], true
}

// Advance moves the cursor to the next entry.
func (l *List) Advance() { l.cursor++ }

// Reset rewinds the cursor to the first entry, for a fresh connect attempt.
func (l *List) Reset() { l.cursor = 0 }

// Entries returns the full, read-only backing slice.
func (l *List) Entries() []Entry { return l.entries }

// String renders the list as a ";"-separated sequence of "host,port" entries
// in the RADDR-control form used by the TCP client.
func (l *List) String() string {
	parts := make([]string, len(l.entries))
	for i, e := range l.entries {
		parts[i] = e.IP.String() + "," + strconv.Itoa(e.Port)
	}

	return strings.Join(parts, ";")
}
