package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ldc/internal/compile"
	"github.com/samcharles93/ldc/internal/csource"
	"github.com/samcharles93/ldc/internal/logger"
	"github.com/samcharles93/ldc/internal/modelsrc"
	"github.com/samcharles93/ldc/internal/sink"
	"github.com/samcharles93/ldc/pkg/langid"
)

func compileCmd() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile a model into C source (default), a header (--header) or protobuf (--protobuf)",
		ArgsUsage: "MODEL",
		Flags:     compileFlags(),
		Action:    compileAction,
	}
}

func compileAction(ctx context.Context, cmd *cli.Command) error {
	applyConfig(cmd, fileConfig)
	log := logger.FromContext(ctx)

	if printSchema {
		_, err := io.WriteString(cmd.Root().Writer, langid.SchemaProto)
		return err
	}

	// Mode conflicts are reported before the model is touched.
	mode, err := compile.ParseMode(headerMode, protoMode)
	if err != nil {
		return err
	}
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("%w: expected exactly one MODEL argument, got %d", compile.ErrUsage, cmd.Args().Len())
	}
	modelPath := cmd.Args().First()

	style, err := csource.ParseStyle(styleName)
	if err != nil {
		return fmt.Errorf("%w: %v", compile.ErrUsage, err)
	}
	if err := csource.ValidateHeaderName(headerName); err != nil {
		return fmt.Errorf("%w: %v", compile.ErrUsage, err)
	}
	format, err := modelsrc.ParseFormat(modelFormat)
	if err != nil {
		return fmt.Errorf("%w: %v", compile.ErrUsage, err)
	}
	out, err := resolveOutput(modelPath, outputPath, outputDir, mode)
	if err != nil {
		return err
	}
	s3cfg, err := s3Config(fileConfig)
	if err != nil {
		return err
	}

	c := &compile.Compiler{
		Loader: modelsrc.File{Format: format},
		Log:    log,
	}
	opts := compile.Options{
		ModelPath: modelPath,
		Mode:      mode,
		Source:    csource.Options{Style: style, HeaderName: headerName},
	}
	dest := func(ctx context.Context, contentType string) (io.WriteCloser, error) {
		return sink.Open(ctx, out, s3cfg, contentType)
	}

	log.Debug("compiling model", "model", modelPath, "mode", mode.String(), "output", sink.Describe(out))
	if _, err := c.Compile(ctx, opts, dest); err != nil {
		return err
	}
	return nil
}
