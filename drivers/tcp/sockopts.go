package tcp

import (
	"golang.org/x/sys/unix"

	"github.com/gensio-go/gensio/internal/osservices"
)

// setSockOpts applies the socket-option setup required on every TCP socket
// this driver creates, client or accepted: non-blocking mode (handled by
// the caller via SetNonBlocking), SO_KEEPALIVE and SO_REUSEADDR
// unconditionally, and TCP_NODELAY only when nodelay is set. The
// original's unconditional keep-alive/reuse-address on both the
// listening/accepted and the client socket (lib/gensio_tcp.c) is carried
// here as one shared routine so client and accepter cannot drift apart.
func setSockOpts(svc osservices.Services, fd int, nodelay bool) error {
	if err := svc.SetSockOptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return err
	}

	if err := svc.SetSockOptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return err
	}

	if nodelay {
		if err := svc.SetSockOptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return err
		}
	}

	return nil
}

func setSockOptNodelay(svc osservices.Services, fd, v int) error {
	return svc.SetSockOptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}

func getSockOptNodelay(svc osservices.Services, fd int) (int, error) {
	return svc.GetSockOptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY)
}
