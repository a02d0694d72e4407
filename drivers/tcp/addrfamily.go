package tcp

import (
	"golang.org/x/sys/unix"

	"github.com/gensio-go/gensio/internal/gensioaddr"
)

func familyOf(e gensioaddr.Entry) int {
	if e.IP.To4() != nil {
		return unix.AF_INET
	}

	return unix.AF_INET6
}
