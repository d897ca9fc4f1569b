package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/ldc/internal/compile"
	"github.com/samcharles93/ldc/internal/sink"
)

// resolveOutput picks the artifact destination. An explicit --output wins;
// otherwise an output directory yields DIR/<model stem><ext>, and with
// neither the artifact goes to stdout.
func resolveOutput(modelPath, outFlag, outDir string, mode compile.Mode) (string, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		return outFlag, nil
	}
	outDir = strings.TrimSpace(outDir)
	if outDir == "" {
		return sink.Stdout, nil
	}

	base := filepath.Base(filepath.Clean(modelPath))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid model path: %q", modelPath)
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, stem+mode.Ext()), nil
}

// resolveModelsDir returns the serve models directory, falling back to
// LDC_MODELS_DIR.
func resolveModelsDir(flag string) string {
	if dir := strings.TrimSpace(flag); dir != "" {
		return dir
	}
	return strings.TrimSpace(os.Getenv(envModelsDir))
}
