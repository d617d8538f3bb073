// Package routes assembles the HTTP surface.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lecturenotes/backend/internal/courses"
	"github.com/lecturenotes/backend/internal/lectures"
	"github.com/lecturenotes/backend/internal/media"
	"github.com/lecturenotes/backend/internal/middleware"
	"github.com/lecturenotes/backend/internal/realtime"
	"github.com/lecturenotes/backend/internal/summarization"
	"github.com/lecturenotes/backend/internal/transcription"
	"github.com/lecturenotes/backend/internal/units"
	"github.com/lecturenotes/backend/pkg/response"
)

// Handlers are the feature handlers mounted by NewRouter.
type Handlers struct {
	Courses       *courses.Handler
	Units         *units.Handler
	Lectures      *lectures.Handler
	Media         *media.Handler
	Transcription *transcription.Handler
	Summarization *summarization.Handler
	Hub           *realtime.Hub
}

// Options control the non-API parts of the router.
type Options struct {
	CORSAllowedOrigins string
	// UploadDir is served at UploadURLPrefix when audio is stored locally.
	UploadDir       string
	UploadURLPrefix string
	// StaticDir holds the web client, served for unmatched GET requests.
	StaticDir string
}

// NewRouter builds the gin engine with every route.
func NewRouter(h Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(opts.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/api")
	{
		// Courses
		api.GET("/courses", h.Courses.List)
		api.POST("/courses", h.Courses.Create)
		api.DELETE("/courses/:id", h.Courses.Delete)
		api.GET("/courses/:id/units", h.Units.ListByCourse)

		// Units
		api.POST("/units", h.Units.Create)
		api.DELETE("/units/:id", h.Units.Delete)
		api.GET("/units/:id/lectures", h.Lectures.ListByUnit)

		// Lectures
		api.POST("/lectures", h.Lectures.Create)
		api.GET("/lectures/:id", h.Lectures.GetByID)
		api.DELETE("/lectures/:id", h.Lectures.Delete)

		// Audio
		api.POST("/lectures/:id/audio", h.Media.Upload)
		api.GET("/lectures/:id/audio", h.Media.Get)
		api.DELETE("/lectures/:id/audio", h.Media.Delete)

		// Derived content
		api.POST("/lectures/:id/transcribe", h.Transcription.Transcribe)
		api.POST("/lectures/summarize", h.Summarization.Summarize)
		api.POST("/lectures/:id/summary", h.Lectures.SaveSummary)

		// Notes
		api.GET("/lectures/:id/notes", h.Lectures.GetNotes)
		api.POST("/lectures/:id/notes", h.Lectures.SetNotes)
		api.PUT("/lectures/:id/notes", h.Lectures.SetNotes)
	}

	if h.Hub != nil {
		router.GET("/ws", realtime.ServeWs(h.Hub, logger))
	}

	if opts.UploadDir != "" && opts.UploadURLPrefix != "" {
		router.Static(opts.UploadURLPrefix, opts.UploadDir)
	}
	if opts.StaticDir != "" {
		files := http.FileServer(http.Dir(opts.StaticDir))
		router.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
				response.NotFound(c, "not found")
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
	} else {
		router.NoRoute(func(c *gin.Context) { response.NotFound(c, "not found") })
	}
	return router
}
