package tcp

import (
	"strings"

	"github.com/gensio-go/gensio/internal/gensioaddr"
	"github.com/gensio-go/gensio/internal/gensiobase"
	"github.com/gensio-go/gensio/internal/gensiolog"
	"github.com/gensio-go/gensio/internal/osservices"
)

// StrAlloc implements tcp_str_alloc: a network-address scan
// ("host:port" or a comma-separated list of them) followed by Alloc.
// Parsing failures propagate unchanged.
func StrAlloc(svc osservices.Services, str string, opts []string, cb gensiobase.EventCallback, userdata any) (*gensiobase.Endpoint, error) {
	addrs, err := gensioaddr.Resolve("tcp.StrAlloc", strings.Split(str, ",")...)
	if err != nil {
		return nil, err
	}

	return Alloc(svc, addrs, opts, cb, userdata)
}

// AccepterStrAlloc implements tcp_accepter_str_alloc. The same opts vector
// is checked for both readbuf and nodelay; the original appears to check
// nodelay against the wrong argument vector in this path, so this
// implementation deliberately uses the same vector for both options.
func AccepterStrAlloc(svc osservices.Services, str string, opts []string, accCb gensiobase.AccCallback, log gensiolog.Logger) (*Accepter, error) {
	addrs, err := gensioaddr.Resolve("tcp.AccepterStrAlloc", strings.Split(str, ",")...)
	if err != nil {
		return nil, err
	}

	return AccepterAlloc(svc, addrs, opts, accCb, log)
}
