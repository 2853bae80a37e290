package inventory

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medchain/inventory-api/internal/docstore"
	"github.com/medchain/inventory-api/internal/inventory"
	"github.com/medchain/inventory-api/internal/model"
	apperrors "github.com/medchain/inventory-api/pkg/errors"
	"github.com/medchain/inventory-api/pkg/httputil"
)

const summaryCacheKey = "inventory-summary"

// Handler exposes the inventory store to the admin dashboard.
type Handler struct {
	service *inventory.Service
	summary *gocache.Cache
}

func NewHandler(service *inventory.Service) *Handler {
	return &Handler{
		service: service,
		// The summary widgets tolerate a few seconds of staleness;
		// fetch itself is never cached.
		summary: gocache.New(5*time.Second, time.Minute),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	inv := r.Group("/inventory")
	{
		inv.GET("", h.GetInventory)
		inv.POST("/refresh", h.Refresh)
		inv.GET("/summary", h.GetSummary)
	}

	medicines := r.Group("/medicines")
	{
		medicines.POST("", h.AddMedicine)
		medicines.PUT("/:id", h.UpdateMedicine)
		medicines.POST("/:id/approve", h.ApproveMedicine)
	}
}

// GetInventory returns the current snapshot, filtered and sorted for the
// dashboard table. It never triggers a fetch; POST /inventory/refresh
// does.
func (h *Handler) GetInventory(c *gin.Context) {
	var filters model.InventoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.Error(err)
		return
	}

	snap := h.service.Snapshot()
	snap.Medicines = inventory.Filter(snap.Medicines, &filters)

	httputil.RespondWithSuccess(c, snap)
}

func (h *Handler) Refresh(c *gin.Context) {
	if err := h.service.Fetch(c.Request.Context()); err != nil {
		respondFailure(c, err)
		return
	}
	httputil.RespondWithSuccess(c, h.service.Snapshot())
}

func (h *Handler) GetSummary(c *gin.Context) {
	if cached, ok := h.summary.Get(summaryCacheKey); ok {
		httputil.RespondWithSuccess(c, cached)
		return
	}

	snap := h.service.Snapshot()
	summary := inventory.Summarize(snap.Medicines)
	h.summary.SetDefault(summaryCacheKey, summary)

	httputil.RespondWithSuccess(c, summary)
}

func (h *Handler) AddMedicine(c *gin.Context) {
	var req model.AddMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(err)
		return
	}

	medicine, err := h.service.Add(c.Request.Context(), &req)
	if err != nil {
		respondFailure(c, err)
		return
	}

	httputil.RespondWithCreated(c, medicine)
}

func (h *Handler) UpdateMedicine(c *gin.Context) {
	id := c.Param("id")

	var req model.UpdateMedicineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(err)
		return
	}

	medicine, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondFailure(c, err)
		return
	}

	httputil.RespondWithSuccess(c, medicine)
}

func (h *Handler) ApproveMedicine(c *gin.Context) {
	id := c.Param("id")

	medicine, err := h.service.Approve(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, err)
		return
	}

	httputil.RespondWithSuccess(c, medicine)
}

// respondFailure maps service errors onto the response envelope: an
// unknown record is 404, anything else means a collaborator could not
// be reached and is 502.
func respondFailure(c *gin.Context, err error) {
	if errors.Is(err, docstore.ErrNotFound) {
		httputil.RespondWithError(c, apperrors.NotFound("medicine", err))
		return
	}
	httputil.RespondWithError(c, apperrors.Unavailable("inventory backend", err))
}
