package csource

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Style selects how table sizes are declared in emitted C.
type Style int

const (
	// StyleMacro emits mutable arrays dimensioned by NUM_* macros that the
	// source expects from the paired header.
	StyleMacro Style = iota
	// StyleConst emits const arrays and defines the NUM_* sizes in the
	// source itself, so it compiles without the header.
	StyleConst
)

func (s Style) String() string {
	switch s {
	case StyleMacro:
		return "macro"
	case StyleConst:
		return "const"
	default:
		return fmt.Sprintf("Style(%d)", int(s))
	}
}

// ParseStyle accepts the names printed by Style.String. An empty string
// selects StyleMacro.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "macro", "a":
		return StyleMacro, nil
	case "const", "b":
		return StyleConst, nil
	default:
		return 0, fmt.Errorf("unknown style %q (want macro or const)", s)
	}
}

const DefaultHeaderName = "model.h"

// ErrHeaderName reports a header name that cannot appear in #include "...".
var ErrHeaderName = errors.New("invalid header name")

// ValidateHeaderName accepts relative paths built from letters, digits and
// "._+-" separated by '/'. An empty name selects DefaultHeaderName.
func ValidateHeaderName(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("%w: %q", ErrHeaderName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrHeaderName, name)
		}
		for i := 0; i < len(part); i++ {
			c := part[i]
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			case c == '.' || c == '_' || c == '+' || c == '-':
			default:
				return fmt.Errorf("%w: %q", ErrHeaderName, name)
			}
		}
	}
	return nil
}

// Options controls source and header rendering. The same Options must be
// used for a source and the header it is paired with.
type Options struct {
	Style      Style
	HeaderName string
}

func (o Options) headerName() string {
	if strings.TrimSpace(o.HeaderName) == "" {
		return DefaultHeaderName
	}
	return o.HeaderName
}

// Guard derives the include guard for a header file name: model.h -> _MODEL_H.
func Guard(headerName string) string {
	base := filepath.Base(headerName)
	var b strings.Builder
	b.WriteByte('_')
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// qualifier is the storage prefix for every table under a style.
func (s Style) qualifier() string {
	if s == StyleConst {
		return "const "
	}
	return ""
}

// ptcDims is the dimension suffix of nb_ptc under a style.
func (s Style) ptcDims(ptcSize int) string {
	if s == StyleConst {
		return "[NUM_FEATS][NUM_LANGS]"
	}
	return fmt.Sprintf("[%d]", ptcSize)
}
