package gensioopts

import (
	"testing"

	"github.com/gensio-go/gensio/internal/gensioerr"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		in       string
		key, val string
		hasValue bool
	}{
		{"nodelay", "nodelay", "", false},
		{"readbuf=4096", "readbuf", "4096", true},
		{"perm=0600", "perm", "0600", true},
	}

	for _, c := range cases {
		key, val, hasValue := Split(c.in)
		if key != c.key || val != c.val || hasValue != c.hasValue {
			t.Errorf("Split(%q) = %q, %q, %v; want %q, %q, %v", c.in, key, val, hasValue, c.key, c.val, c.hasValue)
		}
	}
}

func TestParseBoolBareKey(t *testing.T) {
	b, err := ParseBool("", false)
	if err != nil || !b {
		t.Fatalf("ParseBool(bare) = %v, %v; want true, nil", b, err)
	}
}

func TestParseBoolForms(t *testing.T) {
	truthy := []string{"true", "yes", "on", "1", "TRUE"}
	for _, v := range truthy {
		if b, err := ParseBool(v, true); err != nil || !b {
			t.Errorf("ParseBool(%q) = %v, %v; want true, nil", v, b, err)
		}
	}

	falsy := []string{"false", "no", "off", "0"}
	for _, v := range falsy {
		if b, err := ParseBool(v, true); err != nil || b {
			t.Errorf("ParseBool(%q) = %v, %v; want false, nil", v, b, err)
		}
	}

	if _, err := ParseBool("maybe", true); err == nil {
		t.Error("ParseBool(\"maybe\") should fail")
	}
}

func TestParsePerm(t *testing.T) {
	m, err := ParsePerm("0600")
	if err != nil || m != 0o600 {
		t.Fatalf("ParsePerm(0600) = %v, %v; want 0600, nil", m, err)
	}

	if _, err := ParsePerm("1000"); err == nil {
		t.Error("ParsePerm(1000) should fail: exceeds 0777")
	}
}

func TestParseOctalDigit(t *testing.T) {
	m, err := ParseOctalDigit("7")
	if err != nil || m != 7 {
		t.Fatalf("ParseOctalDigit(7) = %v, %v; want 7, nil", m, err)
	}

	if _, err := ParseOctalDigit("12"); err == nil {
		t.Error("ParseOctalDigit(\"12\") should fail: not a single digit")
	}
}

func TestParseSize(t *testing.T) {
	n, err := ParseSize("4096")
	if err != nil || n != 4096 {
		t.Fatalf("ParseSize(4096) = %v, %v; want 4096, nil", n, err)
	}

	if _, err := ParseSize("0"); err == nil {
		t.Error("ParseSize(0) should fail: not positive")
	}

	if _, err := ParseSize("not-a-number"); err == nil {
		t.Error("ParseSize(garbage) should fail")
	}
}

// TestSpecAcceptsEveryRegisteredOptionRejectsUnknown covers 
// invariant 7: every option the driver registers parses, and anything else
// is rejected as invalid.
func TestSpecAcceptsEveryRegisteredOptionRejectsUnknown(t *testing.T) {
	var nodelay bool

	var readbuf int

	spec := NewSpec().
		Bool("nodelay", func(b bool) { nodelay = b }).
		Size("readbuf", func(n int) { readbuf = n })

	if err := spec.Parse("test", []string{"nodelay", "readbuf=2048"}); err != nil {
		t.Fatalf("Parse of registered options failed: %v", err)
	}

	if !nodelay || readbuf != 2048 {
		t.Fatalf("nodelay=%v readbuf=%d; want true, 2048", nodelay, readbuf)
	}

	err := spec.Parse("test", []string{"bogus"})
	if err == nil {
		t.Fatal("Parse of an unknown option should fail")
	}

	if !gensioerr.Is(err, gensioerr.Invalid) {
		t.Fatalf("unknown option error kind = %v, want Invalid", err)
	}
}
