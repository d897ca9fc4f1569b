package main

import "github.com/urfave/cli/v3"

var (
	outputPath  string
	outputDir   string
	headerMode  bool
	protoMode   bool
	styleName   string
	headerName  string
	modelFormat string
	printSchema bool

	modelsPath string
	logLevel   string
	logFormat  string
	debug      bool
)

// compileFlags is shared by the root command and `compile`, so both
// `ldc MODEL` and `ldc compile MODEL` work.
func compileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "write the artifact to `PATH` (- for stdout, s3://bucket/key to upload)",
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "output-dir",
			Usage:       "derive the output path as DIR/<model><ext> when --output is not set",
			Sources:     cli.EnvVars(envOutDir),
			Destination: &outputDir,
		},
		&cli.BoolFlag{
			Name:        "header",
			Usage:       "produce the header file",
			Destination: &headerMode,
		},
		&cli.BoolFlag{
			Name:        "protobuf",
			Usage:       "produce the model in protocol buffer format",
			Destination: &protoMode,
		},
		&cli.StringFlag{
			Name:        "style",
			Usage:       "C declaration style: macro (sizes from header) or const (self-contained)",
			Value:       "macro",
			Destination: &styleName,
		},
		&cli.StringFlag{
			Name:        "header-name",
			Usage:       "header included by macro-style sources; also names the include guard",
			Value:       "model.h",
			Destination: &headerName,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "model file format (auto, json, protobuf)",
			Value:       "auto",
			Destination: &modelFormat,
		},
		&cli.BoolFlag{
			Name:        "print-schema",
			Usage:       "print the protobuf schema of --protobuf output and exit",
			Destination: &printSchema,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
