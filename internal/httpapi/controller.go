package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1broseidon/wallboard/internal/config"
	"github.com/1broseidon/wallboard/internal/settings"
	"github.com/1broseidon/wallboard/internal/tiling"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Controller maps settings operations onto routes.
type Controller struct {
	ops settings.Operations
}

func NewController(ops settings.Operations) *Controller {
	return &Controller{ops: ops}
}

// RegisterRoutes registers the API under /api/v1 plus /healthz.
func (a *Controller) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.GET("/config", a.GetConfig)
	api.PUT("/config", a.SaveConfig)
	api.GET("/monitors", a.ListMonitors)
	api.POST("/plan", a.Plan)
	api.POST("/apply", a.Apply)
	api.POST("/rebuild", a.Rebuild)
	api.POST("/toggle", a.Toggle)
	api.GET("/status", a.Status)
	r.GET("/healthz", a.Healthz)
}

func (a *Controller) GetConfig(c *gin.Context) {
	cfg, err := a.ops.GetConfig(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// SaveConfig validates, persists and applies the body. A body that fails
// validation is rejected with 422 and nothing changes.
func (a *Controller) SaveConfig(c *gin.Context) {
	var cfg config.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		writeBindError(c, err)
		return
	}
	if err := a.ops.SaveConfig(c.Request.Context(), &cfg); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (a *Controller) ListMonitors(c *gin.Context) {
	monitors, err := a.ops.ListMonitors(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, monitors)
}

// Plan resolves display and tiles for the body, or for the active config
// when the body is empty.
func (a *Controller) Plan(c *gin.Context) {
	var cfg *config.Config
	if c.Request.ContentLength != 0 {
		var body config.Config
		if err := c.ShouldBindJSON(&body); err != nil {
			writeBindError(c, err)
			return
		}
		cfg = &body
	}
	plan, err := a.ops.PlanConfig(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (a *Controller) Apply(c *gin.Context) {
	if err := a.ops.Apply(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}

func (a *Controller) Rebuild(c *gin.Context) {
	if err := a.ops.Rebuild(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rebuilt"})
}

func (a *Controller) Toggle(c *gin.Context) {
	concealed, err := a.ops.ToggleVisibility(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"concealed": concealed})
}

func (a *Controller) Status(c *gin.Context) {
	st, err := a.ops.Status(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (a *Controller) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, err error) {
	var verr *config.ValidationError
	var rerr *tiling.ReconcileError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: "config.invalid", Error: err.Error()})
	case errors.As(err, &rerr):
		c.JSON(http.StatusConflict, ErrorResponse{Code: "reconcile." + string(rerr.Kind), Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Code: "timeout", Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "internal", Error: err.Error()})
	}
}

func writeBindError(c *gin.Context, err error) {
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: "request.invalid", Error: err.Error()})
}
