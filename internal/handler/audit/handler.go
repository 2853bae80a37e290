package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medchain/inventory-api/internal/service/audit"
	"github.com/medchain/inventory-api/pkg/httputil"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit", h.ListAuditRecords)
}

func (h *Handler) ListAuditRecords(c *gin.Context) {
	filters := make(map[string]interface{})
	if action := c.Query("action"); action != "" {
		filters["action"] = action
	}
	if id := c.Query("resource_id"); id != "" {
		filters["resource_id"] = id
	}

	records, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	httputil.RespondWithSuccess(c, records)
}
