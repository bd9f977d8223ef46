package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	quicksalesapp "github.com/grocerypos/backend/internal/application/quicksales"
)

// QuickSalesHandler handles the quick-sales session endpoints
type QuickSalesHandler struct {
	BaseHandler
	manager *quicksalesapp.SessionManager
}

// NewQuickSalesHandler creates a new QuickSalesHandler
func NewQuickSalesHandler(manager *quicksalesapp.SessionManager) *QuickSalesHandler {
	return &QuickSalesHandler{manager: manager}
}

// EnsureOpen returns the scope's open session, opening today's when needed.
// A new session answers 201, an existing one 200.
// @Summary      Open or resume today's session
// @Tags         quick-sales
// @Accept       json
// @Produce      json
// @Param        request body quicksalesapp.EnsureOpenRequest false "Scope"
// @Success      200 {object} dto.Response{data=quicksalesapp.EnsureOpenResult}
// @Success      201 {object} dto.Response{data=quicksalesapp.EnsureOpenResult}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quick-sales/session [post]
func (h *QuickSalesHandler) EnsureOpen(c *gin.Context) {
	var req quicksalesapp.EnsureOpenRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)

	result, err := h.manager.EnsureTodayOpen(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Created {
		h.Created(c, result)
		return
	}
	h.Success(c, result)
}

// AddLine records one sale entry
// @Summary      Add sale line
// @Tags         quick-sales
// @Accept       json
// @Produce      json
// @Param        request body quicksalesapp.AddLineRequest true "Line"
// @Success      201 {object} dto.Response{data=quicksalesapp.AddLineResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quick-sales/lines [post]
func (h *QuickSalesHandler) AddLine(c *gin.Context) {
	var req quicksalesapp.AddLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)

	result, err := h.manager.AddLine(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RemoveLine deletes a line from the open session
// @Summary      Remove sale line
// @Tags         quick-sales
// @Produce      json
// @Param        id path int true "Line ID"
// @Param        scope query string false "Session scope"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quick-sales/lines/{id} [delete]
func (h *QuickSalesHandler) RemoveLine(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || lineID <= 0 {
		h.BadRequest(c, "Invalid line id")
		return
	}

	err = h.manager.RemoveLine(c.Request.Context(), quicksalesapp.RemoveLineRequest{
		Scope:     c.Query("scope"),
		LineID:    lineID,
		Actor:     getActor(c),
		RequestID: getRequestID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLines pages through the open session's lines in entry order
// @Summary      List session lines
// @Tags         quick-sales
// @Produce      json
// @Param        scope query string false "Session scope"
// @Param        cursor query string false "Cursor from the previous page"
// @Param        limit query int false "Page size"
// @Success      200 {object} dto.Response{data=quicksalesapp.LinesPage}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quick-sales/lines [get]
func (h *QuickSalesHandler) GetLines(c *gin.Context) {
	var req quicksalesapp.GetLinesRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.RequestID = getRequestID(c)

	page, err := h.manager.GetLines(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Close closes the open session into one invoice
// @Summary      Close session
// @Tags         quick-sales
// @Accept       json
// @Produce      json
// @Param        request body quicksalesapp.CloseSessionRequest true "Manager PIN and tender"
// @Success      200 {object} dto.Response{data=quicksalesapp.CloseSessionResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /quick-sales/close [post]
func (h *QuickSalesHandler) Close(c *gin.Context) {
	var req quicksalesapp.CloseSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)

	result, err := h.manager.CloseSession(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
