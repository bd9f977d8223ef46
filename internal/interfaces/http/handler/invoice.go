package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/grocerypos/backend/internal/application/trade"
)

// InvoiceHandler handles checkout, invoice reads and returns
type InvoiceHandler struct {
	BaseHandler
	postingService *tradeapp.PostingService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(postingService *tradeapp.PostingService) *InvoiceHandler {
	return &InvoiceHandler{postingService: postingService}
}

// Post checks out a cart into a posted invoice
// @Summary      Post invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.PostInvoiceRequest true "Cart and payments"
// @Success      201 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Post(c *gin.Context) {
	var req tradeapp.PostInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)

	invoice, err := h.postingService.PostInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID returns a posted invoice
// @Summary      Get invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.postingService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// GetByReceipt returns the invoice printed with a receipt number
// @Summary      Get invoice by receipt number
// @Tags         invoices
// @Produce      json
// @Param        receipt_no path string true "Receipt number"
// @Success      200 {object} dto.Response{data=tradeapp.InvoiceResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/receipt/{receipt_no} [get]
func (h *InvoiceHandler) GetByReceipt(c *gin.Context) {
	invoice, err := h.postingService.GetInvoiceByReceipt(c.Request.Context(), c.Param("receipt_no"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// CreateReturn books returned goods against an invoice
// @Summary      Return goods
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body tradeapp.ReturnRequest true "Returned lines"
// @Success      201 {object} dto.Response{data=tradeapp.SalesReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/returns [post]
func (h *InvoiceHandler) CreateReturn(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.InvoiceID = id
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)

	ret, err := h.postingService.ProcessReturn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}

// ListReturns lists the returns booked against an invoice
// @Summary      List returns
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]tradeapp.SalesReturnResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /invoices/{id}/returns [get]
func (h *InvoiceHandler) ListReturns(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	returns, err := h.postingService.ReturnsFor(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, returns)
}
