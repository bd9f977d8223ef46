package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/grocerypos/backend/internal/application/identity"
)

// OperatorHandler manages till operators
type OperatorHandler struct {
	BaseHandler
	operatorService *identityapp.OperatorService
}

// NewOperatorHandler creates a new OperatorHandler
func NewOperatorHandler(operatorService *identityapp.OperatorService) *OperatorHandler {
	return &OperatorHandler{operatorService: operatorService}
}

// Create registers an operator
// @Summary      Create operator
// @Tags         operators
// @Accept       json
// @Produce      json
// @Param        request body identityapp.CreateOperatorRequest true "Operator"
// @Success      201 {object} dto.Response{data=identityapp.OperatorInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /operators [post]
func (h *OperatorHandler) Create(c *gin.Context) {
	var req identityapp.CreateOperatorRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)

	info, err := h.operatorService.CreateOperator(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, info)
}

// GetByID returns one operator
// @Summary      Get operator
// @Tags         operators
// @Produce      json
// @Param        id path string true "Operator ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.OperatorInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /operators/{id} [get]
func (h *OperatorHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	info, err := h.operatorService.GetOperator(c.Request.Context(), getActor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// SetPin replaces an operator's PIN
// @Summary      Set operator PIN
// @Tags         operators
// @Accept       json
// @Produce      json
// @Param        id path string true "Operator ID" format(uuid)
// @Param        request body identityapp.SetPinRequest true "New PIN"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /operators/{id}/pin [put]
func (h *OperatorHandler) SetPin(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req identityapp.SetPinRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.OperatorID = id
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)

	if err := h.operatorService.SetPin(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Deactivate blocks an operator and revokes their tokens
// @Summary      Deactivate operator
// @Tags         operators
// @Produce      json
// @Param        id path string true "Operator ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.OperatorInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /operators/{id}/deactivate [post]
func (h *OperatorHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	info, err := h.operatorService.Deactivate(c.Request.Context(), identityapp.DeactivateOperatorRequest{
		OperatorID: id,
		Actor:      getActor(c),
		RequestID:  getRequestID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}
