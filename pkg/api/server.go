// Package api provides the REST API server for musx2mxl
package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/musx2mxl/pkg/converter"
)

// @title musx2mxl API
// @version 1.0
// @description API for converting Finale scores to MusicXML and MIDI
// @host localhost:8080
// @BasePath /api/v1

// RequestIDHeader carries the id of a request in and out
const RequestIDHeader = "X-Request-ID"

// WarningsHeader carries the number of conversion warnings
const WarningsHeader = "X-Conversion-Warnings"

// maxUpload bounds the multipart memory of one upload
const maxUpload = 32 << 20

// Server serves conversions over HTTP
type Server struct {
	conv   *converter.Converter
	logger *slog.Logger
}

// NewServer creates a server converting with conv
func NewServer(conv *converter.Converter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{conv: conv, logger: logger}
}

// Router builds the gin engine with every route mounted
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUpload
	r.Use(gin.Recovery(), requestID(), s.requestLogger(), corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.POST("/convert", s.handleConvert)
		v1.POST("/inspect", s.handleInspect)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer starts the API server on the specified port
func StartServer(port int, logger *slog.Logger) error {
	s := NewServer(converter.New(converter.Options{Logger: logger}), logger)
	s.logger.Info("api server starting", "port", port)
	return s.Router().Run(fmt.Sprintf(":%d", port))
}

// requestID tags every request with an id, reusing the caller's when given
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"id", c.GetString(RequestIDHeader),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, "+RequestIDHeader+", "+WarningsHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "musx2mxl",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the readable and writable formats and the conversions between them
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"input":       []converter.Format{converter.FormatMusx, converter.FormatEnigma, converter.FormatMusicXML, converter.FormatMXL},
		"output":      []converter.Format{converter.FormatMusicXML, converter.FormatMXL, converter.FormatMIDI},
		"conversions": converter.GetSupportedConversions(),
	})
}

// handleConvert godoc
// @Summary Convert a score
// @Description Upload a .musx, .enigmaxml, .musicxml or .mxl file and receive it as MusicXML, compressed MusicXML or MIDI
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "Score to convert"
// @Param metadata formData file false "NotationMetadata.xml for an .enigmaxml score"
// @Param format query string false "Output format: mxl (default), musicxml or midi"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert [post]
func (s *Server) handleConvert(c *gin.Context) {
	to := converter.ParseFormat(c.DefaultQuery("format", string(converter.FormatMXL)))
	res, name, ok := s.convertUpload(c, to)
	if !ok {
		return
	}

	outputName := strings.TrimSuffix(name, filepath.Ext(name)) + to.Extension()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName))
	c.Header(WarningsHeader, strconv.Itoa(len(res.Warnings)))
	c.Data(http.StatusOK, to.ContentType(), res.Data)
}

// handleInspect godoc
// @Summary Inspect a score
// @Description Upload a score and receive its parts and conversion warnings
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Score to inspect"
// @Param metadata formData file false "NotationMetadata.xml for an .enigmaxml score"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/inspect [post]
func (s *Server) handleInspect(c *gin.Context) {
	res, _, ok := s.convertUpload(c, converter.FormatMusicXML)
	if !ok {
		return
	}

	parts := make([]gin.H, 0, len(res.Parts))
	for _, p := range res.Parts {
		parts = append(parts, gin.H{
			"id":           p.ID,
			"name":         p.Name,
			"abbreviation": p.Abbreviation,
			"staves":       len(p.Staves),
		})
	}
	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.String())
	}
	c.JSON(http.StatusOK, gin.H{"parts": parts, "warnings": warnings})
}

// convertUpload converts the uploaded file. On failure the response is
// written and ok is false.
func (s *Server) convertUpload(c *gin.Context, to converter.Format) (res *converter.ConversionResult, name string, ok bool) {
	if to == converter.FormatUnknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported output format"})
		return nil, "", false
	}

	// Get uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	// Read file content
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}

	from := converter.DetectFormatFromContent(data)
	if from == converter.FormatUnknown {
		from = converter.DetectFormat(header.Filename)
	}

	if from == converter.FormatEnigma {
		meta, err := formFile(c, "metadata")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read metadata"})
			return nil, "", false
		}
		if meta != nil {
			res, err = s.conv.Convert(bytes.NewReader(data), bytes.NewReader(meta))
			if err == nil {
				res, err = s.conv.Encode(res, to)
			}
			return s.finish(c, res, header.Filename, err)
		}
	}

	res, err = s.conv.ConvertBytes(data, from, to)
	return s.finish(c, res, header.Filename, err)
}

func (s *Server) finish(c *gin.Context, res *converter.ConversionResult, name string, err error) (*converter.ConversionResult, string, bool) {
	if err != nil {
		s.logger.Warn("conversion failed", "id", c.GetString(RequestIDHeader), "file", name, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return nil, "", false
	}
	return res, name, true
}

// formFile reads an optional upload; nil when the field is absent.
func formFile(c *gin.Context, field string) ([]byte, error) {
	file, _, err := c.Request.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return io.ReadAll(file)
}
