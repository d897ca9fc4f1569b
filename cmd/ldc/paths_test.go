package main

import (
	"path/filepath"
	"testing"

	"github.com/samcharles93/ldc/internal/compile"
	"github.com/samcharles93/ldc/internal/sink"
)

func TestResolveOutput(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		model   string
		out     string
		outDir  string
		mode    compile.Mode
		want    string
		wantErr bool
	}{
		{name: "explicit output wins", model: "m.json", out: "x.c", outDir: dir, mode: compile.ModeSource, want: "x.c"},
		{name: "s3 output kept verbatim", model: "m.json", out: "s3://b/k.pb", mode: compile.ModeProtobuf, want: "s3://b/k.pb"},
		{name: "stdout by default", model: "m.json", mode: compile.ModeSource, want: sink.Stdout},
		{name: "dir source", model: "/models/en-fr.json", outDir: dir, mode: compile.ModeSource, want: filepath.Join(dir, "en-fr.c")},
		{name: "dir header", model: "en-fr.pb", outDir: dir, mode: compile.ModeHeader, want: filepath.Join(dir, "en-fr.h")},
		{name: "dir protobuf", model: "en-fr.json", outDir: dir, mode: compile.ModeProtobuf, want: filepath.Join(dir, "en-fr.pb")},
		{name: "bad model path", model: "/", outDir: dir, mode: compile.ModeSource, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveOutput(tt.model, tt.out, tt.outDir, tt.mode)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveOutput: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestResolveModelsDir(t *testing.T) {
	t.Setenv(envModelsDir, "/from/env")
	if got := resolveModelsDir(" /flag "); got != "/flag" {
		t.Fatalf("flag: got %q", got)
	}
	if got := resolveModelsDir(""); got != "/from/env" {
		t.Fatalf("env: got %q", got)
	}
}
