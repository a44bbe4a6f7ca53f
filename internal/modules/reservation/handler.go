package reservation

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"labreserve/internal/domain"
	"labreserve/internal/middleware"
	"labreserve/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the workflow on a group that already runs JWTAuth
// and LoadUser.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	res := rg.Group("/reservations")
	{
		res.POST("", h.Create)
		res.POST("/recurring", h.CreateRecurring)
		res.GET("/my", h.ListMine)
		res.GET("/pending", middleware.ManagersOnly(), h.ListPending)
		res.GET("/:id", h.Get)
		res.GET("/:id/proposals", h.ListProposals)
		res.PATCH("/:id/approve", middleware.ManagersOnly(), h.Approve)
		res.PATCH("/:id/decline", middleware.ManagersOnly(), h.Decline)
	}

	groups := rg.Group("/reservation-groups", middleware.ManagersOnly())
	{
		groups.PATCH("/:groupId/approve", h.ApproveGroup)
		groups.PATCH("/:groupId/decline", h.DeclineGroup)
	}

	mgr := rg.Group("/manager", middleware.ManagersOnly())
	{
		mgr.PUT("/reservations/:id", h.EditByManager)
		mgr.PUT("/reservations/:id/occurrence", h.EditOccurrenceByManager)
		mgr.PATCH("/reservations/:id/edit/approve", h.ApproveEditByManager)
		mgr.PATCH("/reservations/:id/edit/reject", h.RejectEditByManager)
		mgr.PUT("/reservation-groups/:groupId", h.EditGroupByManager)
		mgr.PATCH("/reservation-groups/:groupId/edit/approve", h.ApproveGroupEditsByManager)
		mgr.PATCH("/reservation-groups/:groupId/edit/reject", h.RejectGroupEditsByManager)
	}

	// Ownership is checked per reservation, so any role may use these.
	prof := rg.Group("/professor")
	{
		prof.PUT("/reservations/:id", h.EditByProfessor)
		prof.PUT("/reservations/:id/occurrence", h.EditOccurrenceByProfessor)
		prof.PATCH("/reservations/:id/edit/approve", h.ApproveEditByProfessor)
		prof.PATCH("/reservations/:id/edit/reject", h.RejectEditByProfessor)
		prof.PUT("/reservation-groups/:groupId", h.EditGroupByProfessor)
		prof.PATCH("/reservation-groups/:groupId/edit/approve", h.ApproveGroupEditsByProfessor)
		prof.PATCH("/reservation-groups/:groupId/edit/reject", h.RejectGroupEditsByProfessor)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	r, err := h.service.CreateReservation(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"reservation": r})
}

func (h *Handler) CreateRecurring(c *gin.Context) {
	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	rows, err := h.service.CreateRecurringReservation(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	groupID := ""
	if len(rows) > 0 && rows[0].RecurringGroupID != nil {
		groupID = *rows[0].RecurringGroupID
	}
	response.Success(c, http.StatusCreated, gin.H{
		"group_id":     groupID,
		"reservations": rows,
	})
}

func (h *Handler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	r, err := h.service.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if r == nil {
		response.FromError(c, ErrReservationNotFound)
		return
	}
	if !h.service.CanView(c.Request.Context(), user, r) {
		response.FromError(c, ErrNotAuthorized)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func (h *Handler) ListMine(c *gin.Context) {
	rows, err := h.service.GetUserReservations(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": rows})
}

func (h *Handler) ListPending(c *gin.Context) {
	rows, err := h.service.GetPendingReservationsForManager(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservations": rows})
}

func (h *Handler) ListProposals(c *gin.Context) {
	rows, err := h.service.ListProposals(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"proposals": rows})
}

func (h *Handler) Approve(c *gin.Context) {
	h.decision(c, h.service.ApproveReservation)
}

func (h *Handler) Decline(c *gin.Context) {
	h.decision(c, h.service.DeclineReservation)
}

func (h *Handler) ApproveGroup(c *gin.Context) {
	h.groupDecision(c, h.service.ApproveRecurringGroup)
}

func (h *Handler) DeclineGroup(c *gin.Context) {
	h.groupDecision(c, h.service.DeclineRecurringGroup)
}

func (h *Handler) EditByManager(c *gin.Context) {
	h.edit(c, h.service.EditReservationByManager)
}

func (h *Handler) EditByProfessor(c *gin.Context) {
	h.edit(c, h.service.EditReservationByProfessor)
}

func (h *Handler) EditOccurrenceByManager(c *gin.Context) {
	h.edit(c, h.service.EditRecurringGroupOccurrenceByManager)
}

func (h *Handler) EditOccurrenceByProfessor(c *gin.Context) {
	h.edit(c, h.service.EditRecurringGroupOccurrenceByProfessor)
}

func (h *Handler) ApproveEditByManager(c *gin.Context) {
	h.decision(c, func(ctx context.Context, id string, u *domain.User, _ string) (*domain.Reservation, error) {
		return h.service.ApproveEditByManager(ctx, id, u)
	})
}

func (h *Handler) ApproveEditByProfessor(c *gin.Context) {
	h.decision(c, func(ctx context.Context, id string, u *domain.User, _ string) (*domain.Reservation, error) {
		return h.service.ApproveEditByProfessor(ctx, id, u)
	})
}

func (h *Handler) RejectEditByManager(c *gin.Context) {
	h.decision(c, h.service.RejectEditByManager)
}

func (h *Handler) RejectEditByProfessor(c *gin.Context) {
	h.decision(c, h.service.RejectEditByProfessor)
}

func (h *Handler) EditGroupByManager(c *gin.Context) {
	h.editGroup(c, h.service.EditRecurringGroupByManager)
}

func (h *Handler) EditGroupByProfessor(c *gin.Context) {
	h.editGroup(c, h.service.EditRecurringGroupByProfessor)
}

func (h *Handler) ApproveGroupEditsByManager(c *gin.Context) {
	h.groupDecision(c, func(ctx context.Context, id string, u *domain.User, _ string) (*GroupResult, error) {
		return h.service.ApproveRecurringGroupEditsByManager(ctx, id, u)
	})
}

func (h *Handler) ApproveGroupEditsByProfessor(c *gin.Context) {
	h.groupDecision(c, func(ctx context.Context, id string, u *domain.User, _ string) (*GroupResult, error) {
		return h.service.ApproveRecurringGroupEditsByProfessor(ctx, id, u)
	})
}

func (h *Handler) RejectGroupEditsByManager(c *gin.Context) {
	h.groupDecision(c, h.service.RejectRecurringGroupEditsByManager)
}

func (h *Handler) RejectGroupEditsByProfessor(c *gin.Context) {
	h.groupDecision(c, h.service.RejectRecurringGroupEditsByProfessor)
}

// bindReason reads the optional decision body; an empty body means no reason.
func bindReason(c *gin.Context) (string, bool) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err)
		return "", false
	}
	return req.Reason, true
}

func (h *Handler) decision(c *gin.Context, fn func(context.Context, string, *domain.User, string) (*domain.Reservation, error)) {
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	r, err := fn(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reservation": r})
}

func (h *Handler) groupDecision(c *gin.Context, fn func(context.Context, string, *domain.User, string) (*GroupResult, error)) {
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	res, err := fn(c.Request.Context(), c.Param("groupId"), middleware.CurrentUser(c), reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) edit(c *gin.Context, fn func(context.Context, string, *domain.User, EditReservationRequest) (*EditOutcome, error)) {
	var req EditReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	out, err := fn(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) editGroup(c *gin.Context, fn func(context.Context, string, *domain.User, EditReservationRequest) (*GroupResult, error)) {
	var req EditReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	res, err := fn(c.Request.Context(), c.Param("groupId"), middleware.CurrentUser(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}
