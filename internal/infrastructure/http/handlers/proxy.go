package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthyplate/server/internal/infrastructure/http/middleware"
	"github.com/healthyplate/server/internal/infrastructure/http/response"
	"github.com/healthyplate/server/internal/ports/inbound"
	"github.com/healthyplate/server/internal/ports/outbound"
	"github.com/healthyplate/server/pkg/errors"
	"go.uber.org/zap"
)

// ProxyHandler passes requests through to the recipe API and returns its
// JSON unchanged
type ProxyHandler struct {
	recipes inbound.RecipeService
	logger  *zap.Logger
}

// NewProxyHandler creates the passthrough handler
func NewProxyHandler(recipes inbound.RecipeService, logger *zap.Logger) *ProxyHandler {
	return &ProxyHandler{
		recipes: recipes,
		logger:  logger.Named("proxy"),
	}
}

// Forward handles POST /spoonacular and POST /spoonacular/:endpoint. The
// endpoint in the path takes precedence over the one in the body.
func (h *ProxyHandler) Forward(c *gin.Context) {
	// An unreadable body is treated as {}
	var req outbound.UpstreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if !stderrors.Is(err, io.EOF) {
			h.logger.Debug("Ignoring malformed proxy body",
				zap.String("request_id", c.GetString(response.RequestIDKey)),
				zap.Error(err),
			)
		}
		req = outbound.UpstreamRequest{}
	}

	if endpoint := c.Param("endpoint"); endpoint != "" {
		req.Endpoint = endpoint
	}
	switch req.Endpoint {
	case outbound.EndpointSearch, outbound.EndpointRecipe, outbound.EndpointGenerate:
	default:
		response.ProxyFail(c, errors.NewInvalidEndpointError(req.Endpoint))
		return
	}

	if userID := middleware.UserID(c); userID != "" {
		req.UserID = userID
	}

	data, err := h.recipes.Proxy(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Proxy request failed",
			zap.String("request_id", c.GetString(response.RequestIDKey)),
			zap.String("endpoint", req.Endpoint),
			zap.Error(err),
		)
		response.ProxyFail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
