// Package modelsrc loads trained langid models from disk.
package modelsrc

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samcharles93/ldc/pkg/langid"
)

// Format identifies a model file encoding.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatProto
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatJSON:
		return "json"
	case FormatProto:
		return "protobuf"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts auto, json, protobuf (or pb).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "protobuf", "proto", "pb":
		return FormatProto, nil
	default:
		return 0, fmt.Errorf("unknown model format %q", s)
	}
}

// Detect picks a format from the file extension, then from the first
// non-space byte: JSON models are objects, anything else is protobuf.
func Detect(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".pb", ".bin", ".model":
		return FormatProto
	}
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatProto
}

// Decode parses data in the given format. FormatAuto defers to Detect.
func Decode(path string, data []byte, format Format) (*langid.Model, error) {
	if format == FormatAuto {
		format = Detect(path, data)
	}
	switch format {
	case FormatJSON:
		return DecodeJSON(data)
	case FormatProto:
		tables, err := langid.UnmarshalProto(data)
		if err != nil {
			return nil, err
		}
		return tables.Model()
	default:
		return nil, fmt.Errorf("unsupported model format %v", format)
	}
}

// File loads models from the local filesystem.
type File struct {
	Format Format
}

// Load reads and validates the model at path. Every call returns a fresh
// snapshot; nothing is cached.
func (s File) Load(ctx context.Context, path string) (*langid.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, release, err := mapFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	defer release()

	m, err := Decode(path, data, s.Format)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}
