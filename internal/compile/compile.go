// Package compile drives a model through loading, packing and exactly one
// emitter.
package compile

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/samcharles93/ldc/internal/csource"
	"github.com/samcharles93/ldc/internal/logger"
	"github.com/samcharles93/ldc/pkg/langid"
)

// Loader yields a validated model snapshot for a path.
type Loader interface {
	Load(ctx context.Context, path string) (*langid.Model, error)
}

// Destination opens the sink an artifact is written to.
type Destination func(ctx context.Context, contentType string) (io.WriteCloser, error)

type Options struct {
	ModelPath string
	Mode      Mode
	Source    csource.Options
}

// Artifact is one rendered output.
type Artifact struct {
	Mode  Mode
	Sizes langid.Sizes
	Data  []byte
}

// Render serializes packed tables with the emitter selected by mode.
func Render(t *langid.Tables, mode Mode, opts csource.Options) ([]byte, error) {
	var buf bytes.Buffer
	switch mode {
	case ModeSource:
		if err := csource.Source(&buf, t, opts); err != nil {
			return nil, err
		}
	case ModeHeader:
		if err := csource.Header(&buf, t.Sizes, opts); err != nil {
			return nil, err
		}
	case ModeProtobuf:
		return langid.MarshalProto(t)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
	}
	return buf.Bytes(), nil
}

// RenderModel packs m and renders it.
func RenderModel(m *langid.Model, mode Mode, opts csource.Options) (*Artifact, error) {
	tables, err := langid.NewTables(m)
	if err != nil {
		return nil, err
	}
	data, err := Render(tables, mode, opts)
	if err != nil {
		return nil, err
	}
	return &Artifact{Mode: mode, Sizes: tables.Sizes, Data: data}, nil
}

// Compiler runs the load, pack, render and write steps for one model.
type Compiler struct {
	Loader Loader
	Log    logger.Logger
}

func (c *Compiler) log() logger.Logger {
	if c.Log == nil {
		return logger.Nop()
	}
	return c.Log
}

// Build loads the model named by opts and renders it in memory.
func (c *Compiler) Build(ctx context.Context, opts Options) (*Artifact, error) {
	if !opts.Mode.valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, opts.Mode)
	}
	m, err := c.Loader.Load(ctx, opts.ModelPath)
	if err != nil {
		return nil, err
	}
	log := c.log()
	log.Debug("model loaded",
		"path", opts.ModelPath,
		"num_feats", m.NumFeats,
		"num_langs", m.NumLangs,
		"num_states", m.NumStates(),
		"output_states", len(m.States()),
	)

	art, err := RenderModel(m, opts.Mode, opts.Source)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Mode, err)
	}
	return art, nil
}

// Compile builds the artifact and writes it to dest in one write. The
// destination is not opened unless rendering succeeded, so load and
// validation failures leave no output behind.
func (c *Compiler) Compile(ctx context.Context, opts Options, dest Destination) (*Artifact, error) {
	art, err := c.Build(ctx, opts)
	if err != nil {
		return nil, err
	}

	w, err := dest(ctx, art.Mode.ContentType())
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(art.Data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write %s: %w", art.Mode, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", art.Mode, err)
	}

	c.log().Info("artifact written",
		"mode", art.Mode.String(),
		"style", opts.Source.Style.String(),
		"bytes", len(art.Data),
	)
	return art, nil
}
