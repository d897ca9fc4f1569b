package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/ldc/internal/compile"
	"github.com/samcharles93/ldc/internal/csource"
	"github.com/samcharles93/ldc/internal/modelsrc"
)

type renderRequest struct {
	mode compile.Mode
	opts csource.Options
}

func parseRenderRequest(c *echo.Context) (renderRequest, error) {
	mode, err := compile.ParseModeName(c.QueryParam("mode"))
	if err != nil {
		return renderRequest{}, newInvalidRequest(err.Error())
	}
	style, err := csource.ParseStyle(c.QueryParam("style"))
	if err != nil {
		return renderRequest{}, newInvalidRequest(err.Error())
	}
	headerName := c.QueryParam("header_name")
	if err := csource.ValidateHeaderName(headerName); err != nil {
		return renderRequest{}, newInvalidRequest(err.Error())
	}
	return renderRequest{
		mode: mode,
		opts: csource.Options{Style: style, HeaderName: headerName},
	}, nil
}

// handleCompile renders an uploaded model. JSON bodies are JSON models;
// application/x-protobuf bodies are previously compiled protobuf models.
func (s *Server) handleCompile(c *echo.Context) error {
	req, err := parseRenderRequest(c)
	if err != nil {
		return s.writeCompileError(c, err)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, s.maxBody+1))
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("read body: %v", err))
	}
	if int64(len(body)) > s.maxBody {
		return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error",
			fmt.Sprintf("model exceeds %d bytes", s.maxBody))
	}

	format := modelsrc.FormatJSON
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), protobufContentType) {
		format = modelsrc.FormatProto
	}
	m, err := modelsrc.Decode("", body, format)
	if err != nil {
		return s.writeCompileError(c, err)
	}

	art, err := compile.RenderModel(m, req.mode, req.opts)
	if err != nil {
		return s.writeCompileError(c, err)
	}
	s.log.Info("compiled upload",
		"mode", req.mode.String(),
		"style", req.opts.Style.String(),
		"bytes", len(art.Data),
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	)
	return writeArtifact(c, art)
}

// handleModelArtifact renders a model from the models directory, serving
// repeated requests for an unchanged file from the artifact cache.
func (s *Server) handleModelArtifact(c *echo.Context) error {
	req, err := parseRenderRequest(c)
	if err != nil {
		return s.writeCompileError(c, err)
	}
	path, st, err := s.resolveModel(c.Param("name"))
	if err != nil {
		return s.writeCompileError(c, err)
	}

	key := artifactKey{
		path:       path,
		modTime:    st.ModTime().UnixNano(),
		size:       st.Size(),
		mode:       req.mode,
		style:      req.opts.Style,
		headerName: req.opts.HeaderName,
	}
	if art, ok := s.cache.Get(key); ok {
		c.Response().Header().Set(headerCache, "hit")
		return writeArtifact(c, art)
	}

	m, err := s.loader.Load(c.Request().Context(), path)
	if err != nil {
		return s.writeCompileError(c, err)
	}
	art, err := compile.RenderModel(m, req.mode, req.opts)
	if err != nil {
		return s.writeCompileError(c, err)
	}
	s.cache.Add(key, art)
	s.log.Info("compiled model",
		"model", path,
		"mode", req.mode.String(),
		"style", req.opts.Style.String(),
		"bytes", len(art.Data),
	)
	c.Response().Header().Set(headerCache, "miss")
	return writeArtifact(c, art)
}

const (
	protobufContentType = "application/x-protobuf"
	headerCache         = "X-Ldc-Cache"
	headerNumFeats      = "X-Ldc-Num-Feats"
	headerNumLangs      = "X-Ldc-Num-Langs"
	headerNumStates     = "X-Ldc-Num-States"
)

func writeArtifact(c *echo.Context, art *compile.Artifact) error {
	h := c.Response().Header()
	h.Set(headerNumFeats, strconv.Itoa(art.Sizes.NumFeats))
	h.Set(headerNumLangs, strconv.Itoa(art.Sizes.NumLangs))
	h.Set(headerNumStates, strconv.Itoa(art.Sizes.NumStates))
	return c.Blob(http.StatusOK, art.Mode.ContentType(), art.Data)
}

func (s *Server) writeCompileError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrInvalidRequest), isModelError(err):
		return writeBadRequest(c, err.Error())
	case isNotFound(err):
		return writeNotFound(c, err.Error())
	default:
		s.log.Error("compile failed", "error", err.Error())
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}
