package compile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUsage       = errors.New("usage error")
	ErrUnknownMode = errors.New("unknown output mode")
)

// Mode selects the artifact a compile run produces.
type Mode int

const (
	ModeSource Mode = iota
	ModeHeader
	ModeProtobuf
)

func (m Mode) String() string {
	switch m {
	case ModeSource:
		return "source"
	case ModeHeader:
		return "header"
	case ModeProtobuf:
		return "protobuf"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ContentType is the media type used when an artifact is served or uploaded.
func (m Mode) ContentType() string {
	if m == ModeProtobuf {
		return "application/x-protobuf"
	}
	return "text/x-c; charset=utf-8"
}

// Ext is the conventional file extension of the artifact.
func (m Mode) Ext() string {
	switch m {
	case ModeHeader:
		return ".h"
	case ModeProtobuf:
		return ".pb"
	default:
		return ".c"
	}
}

func (m Mode) valid() bool {
	return m == ModeSource || m == ModeHeader || m == ModeProtobuf
}

// ParseMode maps the --header and --protobuf switches to a Mode. Setting
// both is a usage error.
func ParseMode(header, protobuf bool) (Mode, error) {
	switch {
	case header && protobuf:
		return 0, fmt.Errorf("%w: can only specify one of --protobuf or --header", ErrUsage)
	case header:
		return ModeHeader, nil
	case protobuf:
		return ModeProtobuf, nil
	default:
		return ModeSource, nil
	}
}

// ParseModeName accepts the names printed by Mode.String. Empty means source.
func ParseModeName(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "source", "c":
		return ModeSource, nil
	case "header", "h":
		return ModeHeader, nil
	case "protobuf", "proto", "pb":
		return ModeProtobuf, nil
	default:
		return 0, fmt.Errorf("%w %q (want source, header or protobuf)", ErrUnknownMode, s)
	}
}
