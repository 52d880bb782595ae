// Package api exposes a component's direct-invocation entry point over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/disaster-early-warning/internal/invocation"
)

// StatusHeader carries the invocation status so callers can tell a
// not-configured success from a delivered one.
const StatusHeader = "X-Invocation-Status"

// Invoker is implemented by the generator, the predictor and the alert sender.
type Invoker interface {
	Invoke(ctx context.Context, payload []byte) invocation.Result
}

type Handler struct {
	component string
	invoker   Invoker
	logger    *slog.Logger
}

func NewHandler(component string, inv Invoker, logger *slog.Logger) *Handler {
	return &Handler{
		component: component,
		invoker:   inv,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/invoke", h.invoke)
}

// NewRouter builds a gin engine serving the invocation route.
func NewRouter(component string, inv Invoker, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	NewHandler(component, inv, logger).RegisterRoutes(r)
	return r
}

func (h *Handler) invoke(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "failed to read request body",
		})
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	res := h.invoker.Invoke(c.Request.Context(), body)
	h.logger.Debug("invocation complete", "component", h.component, "status", res.Status)

	c.Header(StatusHeader, string(res.Status))
	c.JSON(res.StatusCode(), res.Payload())
}
