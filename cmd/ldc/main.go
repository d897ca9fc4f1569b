package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ldc/internal/compile"
	"github.com/samcharles93/ldc/internal/logger"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "ldc",
		Usage:     "Compile trained langid models into C sources, headers or protobuf",
		ArgsUsage: "MODEL",
		Flags:     append(loggingFlags(), compileFlags()...),
		Before:    setup,
		Action:    compileAction,
		Commands: []*cli.Command{
			compileCmd(),
			inspectCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

// setup loads .env and the config file, then installs the logger in ctx.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	_ = godotenv.Load()

	cfg, err := LoadConfig(configPath())
	if err != nil {
		return ctx, err
	}
	applyConfig(cmd, cfg)

	log, err := logger.Setup(os.Stderr, logLevel, logFormat, debug)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, compile.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
