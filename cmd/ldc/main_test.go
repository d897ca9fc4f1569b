package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/samcharles93/ldc/internal/compile"
	"github.com/samcharles93/ldc/pkg/langid"
)

// resetFlags restores flag variables between in-process runs.
func resetFlags() {
	outputPath, outputDir = "", ""
	headerMode, protoMode, printSchema = false, false, false
	styleName, headerName, modelFormat = "macro", "model.h", "auto"
	modelsPath, logLevel, logFormat, debug = "", "error", "text", false
	fileConfig = Config{}
}

func writeModel(t *testing.T, dir string) string {
	t.Helper()
	next := make([]uint32, 2*langid.Alphabet)
	for i := range next {
		next[i] = uint32(i % 2)
	}
	b, err := json.Marshal(map[string]any{
		"tk_nextmove": next,
		"tk_output":   map[string][]uint32{"0": {1, 2}},
		"nb_pc":       []float64{-0.5, -0.25},
		"nb_ptc":      [][]float64{{-1, -2}, {-3, -4}, {-5, -6}},
		"nb_classes":  []string{"en", "fr"},
	})
	if err != nil {
		t.Fatalf("marshal model: %v", err)
	}
	path := filepath.Join(dir, "tiny.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Setenv(envConfig, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(envOutDir, "")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(context.Background(), append([]string{"ldc", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestRootCompilesSource(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)
	out := filepath.Join(dir, "build", "model.c")

	if _, err := run(t, "-o", out, model); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(got), `#include "model.h"`) {
		t.Fatalf("unexpected source:\n%s", got)
	}
	if !strings.Contains(string(got), `"fr"`) {
		t.Fatalf("labels missing:\n%s", got)
	}
}

func TestCompileConstStyle(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)
	out := filepath.Join(dir, "model.c")

	if _, err := run(t, "compile", "--style", "const", "-o", out, model); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(got), "#define NUM_FEATS 3") {
		t.Fatalf("expected self-contained source:\n%s", got)
	}
}

func TestCompileHeaderAndProtobufIsUsageError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	// The model does not exist: the conflict must be reported first.
	_, err := run(t, "compile", "--header", "--protobuf", "-o", out, filepath.Join(dir, "missing.json"))
	if !errors.Is(err, compile.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no output, stat err=%v", err)
	}
}

func TestCompileMissingModelLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "model.h")

	_, err := run(t, "compile", "--header", "-o", out, filepath.Join(dir, "missing.json"))
	if err == nil {
		t.Fatal("expected load error")
	}
	if errors.Is(err, compile.ErrUsage) {
		t.Fatalf("load failure reported as usage error: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no output, stat err=%v", err)
	}
}

func TestCompileRejectsBadHeaderName(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)
	out := filepath.Join(dir, "model.c")

	if _, err := run(t, "compile", "--header-name", "my model.h", "-o", out, model); !errors.Is(err, compile.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no output, stat err=%v", err)
	}
}

func TestCompileRequiresOneModel(t *testing.T) {
	if _, err := run(t, "compile"); !errors.Is(err, compile.ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestCompileProtobufToOutputDir(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir)
	outDir := filepath.Join(dir, "artifacts")

	if _, err := run(t, "compile", "--protobuf", "--output-dir", outDir, model); err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(outDir, "tiny.pb"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	tables, err := langid.UnmarshalProto(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tables.NumStates != 2 || len(tables.NbClasses) != 2 || tables.NbClasses[1] != "fr" {
		t.Fatalf("unexpected tables: %+v", tables.Sizes)
	}
}

func TestPrintSchema(t *testing.T) {
	out, err := run(t, "compile", "--print-schema")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != langid.SchemaProto {
		t.Fatalf("unexpected schema output:\n%s", out)
	}
}

func TestInspect(t *testing.T) {
	model := writeModel(t, t.TempDir())

	out, err := run(t, "inspect", model)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{
		"num_feats:     3",
		"num_langs:     2",
		"num_states:    2",
		"nb_ptc:        6",
		"output states: 1",
		"tk_output:     2",
		"classes:       en fr",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, "version:") {
		t.Fatalf("unexpected output: %q", out)
	}
}
