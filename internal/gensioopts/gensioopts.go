// Package gensioopts parses the `key` / `key=value` option vectors each
// driver's allocator accepts, shared by drivers/tcp and drivers/pty so the
// boolean/octal/size textual forms and the unrecognized-option error
// behavior are identical across both.
package gensioopts

import (
	"strconv"
	"strings"

	"github.com/gensio-go/gensio/internal/gensioerr"
)

// Split breaks one option string into its key and optional value.
func Split(opt string) (key, value string, hasValue bool) {
	if i := strings.IndexByte(opt, '='); i >= 0 {
		return opt[:i], opt[i+1:], true
	}

	return opt, "", false
}

// ParseBool accepts the textual forms calls "the usual textual
// forms": a bare key (true), or =true/false/yes/no/on/off/1/0.
func ParseBool(value string, hasValue bool) (bool, error) {
	if !hasValue {
		return true, nil
	}

	switch strings.ToLower(value) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	default:
		return false, gensioerr.InvalidErr("gensioopts.ParseBool", "not a boolean: "+value)
	}
}

// ParseOctalDigit parses the single-digit octal mode forms umode/gmode/omode
// use.
func ParseOctalDigit(value string) (uint32, error) {
	n, err := strconv.ParseUint(value, 8, 3)
	if err != nil || len(value) != 1 {
		return 0, gensioerr.InvalidErr("gensioopts.ParseOctalDigit", "not a single octal digit: "+value)
	}

	return uint32(n), nil
}

// ParsePerm parses the up-to-0777 octal permission form the `perm` option
// uses.
func ParsePerm(value string) (uint32, error) {
	n, err := strconv.ParseUint(value, 8, 32)
	if err != nil || n > 0o777 {
		return 0, gensioerr.InvalidErr("gensioopts.ParsePerm", "not an octal permission 0..0777: "+value)
	}

	return uint32(n), nil
}

// ParseSize parses the `readbuf=<n>` form.
func ParseSize(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, gensioerr.InvalidErr("gensioopts.ParseSize", "not a positive size: "+value)
	}

	return n, nil
}

// Handler processes one recognized option's value.
type Handler func(value string, hasValue bool) error

// Spec is a small registry of recognized option keys, built once per
// allocator and run over the caller's option vector. Unrecognized keys fail
// with *invalid*, matching every driver's allocator
// contract.
type Spec struct {
	handlers map[string]Handler
}

// NewSpec builds an empty option spec.
func NewSpec() *Spec {
	return &Spec{handlers: make(map[string]Handler)}
}

// On registers a handler for key.
func (s *Spec) On(key string, h Handler) *Spec {
	s.handlers[key] = h

	return s
}

// Bool registers a boolean option that calls set on success.
func (s *Spec) Bool(key string, set func(bool)) *Spec {
	return s.On(key, func(value string, hasValue bool) error {
		b, err := ParseBool(value, hasValue)
		if err != nil {
			return err
		}

		set(b)

		return nil
	})
}

// String registers a value-carrying string option.
func (s *Spec) String(key string, set func(string)) *Spec {
	return s.On(key, func(value string, hasValue bool) error {
		if !hasValue {
			return gensioerr.InvalidErr("gensioopts", key+" requires a value")
		}

		set(value)

		return nil
	})
}

// Size registers a `key=<n>` positive-integer option.
func (s *Spec) Size(key string, set func(int)) *Spec {
	return s.On(key, func(value string, hasValue bool) error {
		if !hasValue {
			return gensioerr.InvalidErr("gensioopts", key+" requires a value")
		}

		n, err := ParseSize(value)
		if err != nil {
			return err
		}

		set(n)

		return nil
	})
}

// Parse runs opts against the registered handlers. op names the caller for
// error messages (e.g. "tcp.Alloc").
func (s *Spec) Parse(op string, opts []string) error {
	for _, opt := range opts {
		key, value, hasValue := Split(opt)

		h, ok := s.handlers[key]
		if !ok {
			return gensioerr.New(gensioerr.Invalid, op, "unrecognized option: "+key, nil)
		}

		if err := h(value, hasValue); err != nil {
			return err
		}
	}

	return nil
}
