package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ldc/internal/api"
	"github.com/samcharles93/ldc/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		cacheSize   int64
		maxBody     int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the compile API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "models-path",
				Usage:       "directory of models served under /v1/models",
				Destination: &modelsPath,
			},
			&cli.Int64Flag{
				Name:        "cache-size",
				Usage:       "number of rendered artifacts kept in memory",
				Value:       32,
				Destination: &cacheSize,
			},
			&cli.Int64Flag{
				Name:        "max-body",
				Usage:       "maximum uploaded model size in bytes",
				Value:       512 << 20,
				Destination: &maxBody,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, fileConfig, &addr, &cacheSize)
			log := logger.FromContext(ctx)

			server, err := api.NewServer(api.Config{
				ModelsDir:    resolveModelsDir(modelsPath),
				CacheSize:    int(cacheSize),
				MaxBodyBytes: maxBody,
				Log:          log,
			})
			if err != nil {
				return err
			}
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
