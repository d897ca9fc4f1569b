// Package api serves model compilation over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ldc/internal/compile"
	"github.com/samcharles93/ldc/internal/csource"
	"github.com/samcharles93/ldc/internal/logger"
	"github.com/samcharles93/ldc/internal/modelsrc"
	"github.com/samcharles93/ldc/internal/version"
)

const (
	defaultCacheSize    = 32
	defaultMaxBodyBytes = 512 << 20
)

type Config struct {
	// ModelsDir holds .json and .pb models served by name. Optional.
	ModelsDir string
	// CacheSize bounds the number of rendered artifacts kept in memory.
	CacheSize int
	// MaxBodyBytes bounds uploaded model size.
	MaxBodyBytes int64
	Log          logger.Logger
}

// Server compiles models per request. Each request loads its own model
// snapshot; only rendered artifacts, which are immutable, are cached.
type Server struct {
	modelsDir string
	maxBody   int64
	loader    compile.Loader
	cache     *lru.Cache[artifactKey, *compile.Artifact]
	log       logger.Logger
}

// artifactKey identifies a rendered artifact of one version of a model file.
type artifactKey struct {
	path       string
	modTime    int64
	size       int64
	mode       compile.Mode
	style      csource.Style
	headerName string
}

func NewServer(cfg Config) (*Server, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[artifactKey, *compile.Artifact](size)
	if err != nil {
		return nil, fmt.Errorf("artifact cache: %w", err)
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		modelsDir: strings.TrimSpace(cfg.ModelsDir),
		maxBody:   maxBody,
		loader:    modelsrc.File{},
		cache:     cache,
		log:       log,
	}, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(requestID)
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/compile", s.handleCompile)
	e.GET("/v1/models", s.handleListModels)
	e.GET("/v1/models/:name/artifact", s.handleModelArtifact)
}

func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version.String()})
}

func (s *Server) handleListModels(c *echo.Context) error {
	if s.modelsDir == "" {
		return writeError(c, http.StatusNotFound, "not_found_error", "no models directory configured")
	}
	models, err := discoverModels(s.modelsDir)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"models": models})
}

// discoverModels lists model file names in dir, sorted.
func discoverModels(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	models := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".pb":
			models = append(models, e.Name())
		}
	}
	sort.Strings(models)
	return models, nil
}

// resolveModel maps a model name to a file inside the models directory.
func (s *Server) resolveModel(name string) (string, os.FileInfo, error) {
	if s.modelsDir == "" {
		return "", nil, fmt.Errorf("no models directory configured: %w", os.ErrNotExist)
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", nil, fmt.Errorf("invalid model name %q: %w", name, os.ErrNotExist)
	}
	path := filepath.Join(s.modelsDir, name)
	st, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if st.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory: %w", name, os.ErrNotExist)
	}
	return path, st, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
