package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hankpharris/tempora-ai-sub000/internal/service"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
	"github.com/hankpharris/tempora-ai-sub000/pkg/response"
)

// AdminHandler exposes privileged column-level edits.
type AdminHandler struct {
	service *service.AdminService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// Edit godoc
// @Summary Apply admin edit
// @Description Update one allow-listed column on one row
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.AdminEditRequest true "Edit payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/edits [post]
func (h *AdminHandler) Edit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.AdminEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid edit payload"))
		return
	}

	if err := h.service.Edit(c.Request.Context(), claims.UserID, req, c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Columns godoc
// @Summary List editable columns
// @Description Report which table columns administrators may change
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/edits/columns [get]
func (h *AdminHandler) Columns(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.EditableColumns(), nil)
}
