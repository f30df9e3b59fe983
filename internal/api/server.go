// Package api exposes the converter and the native inspector over HTTP.
package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/rrdarch/internal/logger"
	"github.com/samcharles93/rrdarch/pkg/rrd"
)

// DefaultMaxBodyBytes bounds uploaded RRD files.
const DefaultMaxBodyBytes int64 = 64 << 20

type Config struct {
	Logger       logger.Logger
	MaxBodyBytes int64
	Version      string
	// History is the number of conversion records kept for
	// GET /v1/conversions.
	History int
}

type Server struct {
	cfg   Config
	log   logger.Logger
	store *ConversionStore
	clock func() time.Time
}

func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		cfg:   cfg,
		log:   cfg.Logger,
		store: NewConversionStore(cfg.History),
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/health", s.handleHealth)
	e.POST("/v1/convert", s.handleConvert)
	e.POST("/v1/inspect", s.handleInspect)
	e.GET("/v1/conversions", s.handleListConversions)
	e.GET("/v1/conversions/:id", s.handleGetConversion)
	e.DELETE("/v1/conversions/:id", s.handleDeleteConversion)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleConvert(c *echo.Context) error {
	id := uuid.NewString()
	c.Response().Header().Set(headerRequestID, id)
	log := s.log.With("request_id", id)

	target, err := rrd.ParseArch(c.QueryParam("target"))
	if err != nil {
		return writeBadRequest(c, err.Error(), id)
	}
	body, err := readBody(c, s.cfg.MaxBodyBytes)
	if err != nil {
		return s.fail(c, log, newRecord(id, s.clock(), target.String(), 0), err)
	}
	rec := newRecord(id, s.clock(), target.String(), len(body))

	var out bytes.Buffer
	out.Grow(len(body) + len(body)/8)
	res, err := rrd.Transcode(bytes.NewReader(body), &out, target, rrd.Options{Logger: log})
	rec.Result = res
	if err != nil {
		return s.fail(c, log, rec, err)
	}
	rec.Target = res.TargetArch.String()
	s.store.Put(rec)

	log.Info("converted",
		"source", res.SourceArch.String(),
		"target", res.TargetArch.String(),
		"rows", res.Rows,
		"bytes_in", len(body),
		"bytes_out", res.BytesWritten,
	)

	h := c.Response().Header()
	h.Set("X-Rrd-Source-Arch", res.SourceArch.String())
	h.Set("X-Rrd-Target-Arch", res.TargetArch.String())
	h.Set("X-Rrd-Rows", strconv.FormatUint(res.Rows, 10))
	return c.Blob(http.StatusOK, "application/octet-stream", out.Bytes())
}

func (s *Server) fail(c *echo.Context, log logger.Logger, rec ConversionRecord, err error) error {
	status, errType := classify(err)
	rec.Status = "failed"
	rec.Error = err.Error()
	s.store.Put(rec)
	if status >= http.StatusInternalServerError {
		log.Error("conversion failed", "status", status, "error", err)
	} else {
		log.Warn("conversion rejected", "status", status, "error", err)
	}
	return writeError(c, status, errType, err.Error(), rec.ID)
}

func (s *Server) handleInspect(c *echo.Context) error {
	id := uuid.NewString()
	c.Response().Header().Set(headerRequestID, id)

	body, err := readBody(c, s.cfg.MaxBodyBytes)
	if err != nil {
		status, errType := classify(err)
		return writeError(c, status, errType, err.Error(), id)
	}
	info, err := rrd.InspectReader(bytes.NewReader(body))
	if err != nil {
		status, errType := classify(err)
		s.log.Warn("inspect rejected", "request_id", id, "error", err)
		return writeError(c, status, errType, err.Error(), id)
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleListConversions(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   s.store.List(),
	})
}

func (s *Server) handleGetConversion(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "conversion not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteConversion(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "conversion not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"id":      id,
		"deleted": true,
	})
}
