// Package httpapi exposes form rendering and submission over HTTP.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-jsonform"
	"github.com/goliatone/go-jsonform/pkg/codec"
	"github.com/goliatone/go-jsonform/pkg/definition"
	"github.com/goliatone/go-jsonform/pkg/form"
)

// DefaultActorHeader carries the acting user's identifier.
const DefaultActorHeader = "X-Actor-ID"

// Option configures the router.
type Option func(*handler)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics mounts GET /metrics serving gatherer.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(h *handler) { h.gatherer = gatherer }
}

// WithActorHeader overrides the header the actor identifier is read from.
func WithActorHeader(name string) Option {
	return func(h *handler) {
		if name != "" {
			h.actorHeader = name
		}
	}
}

type handler struct {
	forms       *jsonform.Forms
	logger      *zap.Logger
	gatherer    prometheus.Gatherer
	actorHeader string
}

// NewRouter builds the gin engine serving forms.
func NewRouter(forms *jsonform.Forms, options ...Option) *gin.Engine {
	h := &handler{
		forms:       forms,
		logger:      zap.NewNop(),
		actorHeader: DefaultActorHeader,
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}

	router := gin.New()
	router.Use(gin.Recovery(), h.accessLog(), h.actor())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	group := router.Group("/forms")
	group.GET("", h.list)
	group.GET("/:name", h.render)
	group.POST("/:name", h.submit)
	return router
}

func (h *handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// actor stores the header identifier on the request context so instances
// are bound to it.
func (h *handler) actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(h.actorHeader); id != "" {
			ctx := form.ContextWithActor(c.Request.Context(), form.ActorID(id))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func (h *handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"forms": h.forms.Registry().List()})
}

func (h *handler) render(c *gin.Context) {
	name := c.Param("name")
	out, err := h.forms.Render(c.Request.Context(), name)
	if err != nil {
		h.fail(c, name, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": out})
}

func (h *handler) submit(c *gin.Context) {
	name := c.Param("name")
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	inst, err := h.forms.Submit(c.Request.Context(), name, data)
	if err != nil {
		h.fail(c, name, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"values":  inst.Values(),
		"actions": inst.Actions(),
	})
}

// fail maps codec and registry errors onto status codes. Validation failures
// are client errors; anything else is a server fault.
func (h *handler) fail(c *gin.Context, name string, err error) {
	var (
		mismatch *codec.FieldMismatchError
		binding  form.BindingErrors
	)
	switch {
	case errors.Is(err, definition.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown form " + name})
	case errors.Is(err, codec.ErrCacheMiss), errors.Is(err, codec.ErrFormKeyMissing):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.As(err, &mismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   mismatch.Error(),
			"extra":   mismatch.Extra,
			"missing": mismatch.Missing,
		})
	case errors.As(err, &binding):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "form has invalid fields",
			"errors": binding.Fields(),
		})
	default:
		h.logger.Error("form request failed", zap.String("form", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
