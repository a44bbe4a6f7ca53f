package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"labreserve/internal/middleware"
	"labreserve/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	labs := rg.Group("/labs")
	{
		labs.GET("", h.ListLabs)
		labs.GET("/:id", h.GetLab)
		labs.GET("/:id/workstations", h.ListWorkstations)
	}
}

// ListLabs handles GET /api/v1/labs
func (h *Handler) ListLabs(c *gin.Context) {
	labs, err := h.service.ListLabs(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"labs": labs})
}

// GetLab handles GET /api/v1/labs/:id
func (h *Handler) GetLab(c *gin.Context) {
	id, ok := labID(c)
	if !ok {
		return
	}
	lab, err := h.service.GetLab(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lab": lab})
}

// ListWorkstations handles GET /api/v1/labs/:id/workstations
func (h *Handler) ListWorkstations(c *gin.Context) {
	id, ok := labID(c)
	if !ok {
		return
	}
	rows, err := h.service.ListWorkstations(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"workstations": rows})
}

func labID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid lab ID")
		return 0, false
	}
	return id, true
}
