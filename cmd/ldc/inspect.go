package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ldc/internal/compile"
	"github.com/samcharles93/ldc/internal/modelsrc"
	"github.com/samcharles93/ldc/pkg/langid"
)

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the dimensions and packed layout of a model",
		ArgsUsage: "MODEL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "model file format (auto, json, protobuf)",
				Value:       "auto",
				Destination: &modelFormat,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyConfig(cmd, fileConfig)
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("%w: expected exactly one MODEL argument", compile.ErrUsage)
			}
			format, err := modelsrc.ParseFormat(modelFormat)
			if err != nil {
				return fmt.Errorf("%w: %v", compile.ErrUsage, err)
			}
			path := cmd.Args().First()
			m, err := modelsrc.File{Format: format}.Load(ctx, path)
			if err != nil {
				return err
			}
			t, err := langid.NewTables(m)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			longest := 0
			for s := range t.TkOutputC {
				longest = max(longest, int(t.TkOutputC[s]))
			}
			_, _ = fmt.Fprintf(w, "model:         %s\n", path)
			_, _ = fmt.Fprintf(w, "num_feats:     %d\n", t.NumFeats)
			_, _ = fmt.Fprintf(w, "num_langs:     %d\n", t.NumLangs)
			_, _ = fmt.Fprintf(w, "num_states:    %d\n", t.NumStates)
			_, _ = fmt.Fprintf(w, "nb_ptc:        %d\n", t.PTCSize())
			_, _ = fmt.Fprintf(w, "output states: %d\n", len(m.States()))
			_, _ = fmt.Fprintf(w, "tk_output:     %d\n", len(t.TkOutput))
			_, _ = fmt.Fprintf(w, "max per state: %d\n", longest)
			_, _ = fmt.Fprintf(w, "classes:       %s\n", strings.Join(t.NbClasses, " "))
			return nil
		},
	}
}
