package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/grocerypos/backend/internal/domain/inventory"
	"github.com/grocerypos/backend/internal/domain/shared"
)

// StockHandler handles stock documents, the movement ledger and valuation
type StockHandler struct {
	BaseHandler
	stockService     *inventoryapp.StockService
	ledgerService    *inventoryapp.LedgerService
	valuationService *inventoryapp.ValuationService
	reconciliation   *inventoryapp.ReconciliationService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(
	stockService *inventoryapp.StockService,
	ledgerService *inventoryapp.LedgerService,
	valuationService *inventoryapp.ValuationService,
	reconciliation *inventoryapp.ReconciliationService,
) *StockHandler {
	return &StockHandler{
		stockService:     stockService,
		ledgerService:    ledgerService,
		valuationService: valuationService,
		reconciliation:   reconciliation,
	}
}

// ReceiveGoods books a goods received note
// @Summary      Receive goods
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.ReceiveGoodsRequest true "Goods received note"
// @Success      201 {object} dto.Response{data=inventoryapp.StockDocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/grn [post]
func (h *StockHandler) ReceiveGoods(c *gin.Context) {
	var req inventoryapp.ReceiveGoodsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)
	h.document(c, func(ctx context.Context) (*inventoryapp.StockDocumentResponse, error) {
		return h.stockService.ReceiveGoods(ctx, req)
	})
}

// Adjust corrects one product's stock
// @Summary      Adjust stock
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.AdjustmentRequest true "Adjustment"
// @Success      201 {object} dto.Response{data=inventoryapp.StockDocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/adjustments [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	var req inventoryapp.AdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)
	h.document(c, func(ctx context.Context) (*inventoryapp.StockDocumentResponse, error) {
		return h.stockService.Adjust(ctx, req)
	})
}

// StockTake books the differences between counted and recorded stock
// @Summary      Book stock take
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.StockTakeRequest true "Counted quantities"
// @Success      201 {object} dto.Response{data=inventoryapp.StockDocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/stocktakes [post]
func (h *StockHandler) StockTake(c *gin.Context) {
	var req inventoryapp.StockTakeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)
	h.document(c, func(ctx context.Context) (*inventoryapp.StockDocumentResponse, error) {
		return h.stockService.StockTake(ctx, req)
	})
}

// TransferOut sends stock to another location
// @Summary      Transfer stock out
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.TransferRequest true "Transfer"
// @Success      201 {object} dto.Response{data=inventoryapp.StockDocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/transfers/out [post]
func (h *StockHandler) TransferOut(c *gin.Context) {
	var req inventoryapp.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)
	h.document(c, func(ctx context.Context) (*inventoryapp.StockDocumentResponse, error) {
		return h.stockService.TransferOut(ctx, req)
	})
}

// TransferIn receives stock from another location
// @Summary      Transfer stock in
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.TransferRequest true "Transfer"
// @Success      201 {object} dto.Response{data=inventoryapp.StockDocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/transfers/in [post]
func (h *StockHandler) TransferIn(c *gin.Context) {
	var req inventoryapp.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Actor = getActor(c)
	req.RequestID = getRequestID(c)
	h.document(c, func(ctx context.Context) (*inventoryapp.StockDocumentResponse, error) {
		return h.stockService.TransferIn(ctx, req)
	})
}

func (h *StockHandler) document(c *gin.Context, fn func(context.Context) (*inventoryapp.StockDocumentResponse, error)) {
	doc, err := fn(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// Movements pages through a product's ledger, newest first
// @Summary      Product movements
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        from query string false "RFC 3339 lower bound"
// @Param        to query string false "RFC 3339 upper bound"
// @Param        cursor query string false "Cursor from the previous page"
// @Param        limit query int false "Page size"
// @Success      200 {object} dto.Response{data=inventoryapp.MovementPage}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/products/{id}/movements [get]
func (h *StockHandler) Movements(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var q inventoryapp.MovementListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.ledgerService.MovementsFor(c.Request.Context(), id, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, page)
}

// Document lists the movements one stock document wrote
// @Summary      Stock document
// @Tags         stock
// @Produce      json
// @Param        type path string true "Reference type" Enums(INVOICE, SALES_RETURN, GRN, TRANSFER, STOCKTAKE, ADJUSTMENT)
// @Param        ref path string true "Reference ID"
// @Success      200 {object} dto.Response{data=inventoryapp.StockDocumentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/documents/{type}/{ref} [get]
func (h *StockHandler) Document(c *gin.Context) {
	refType := inventory.ReferenceType(strings.ToUpper(c.Param("type")))
	doc, err := h.ledgerService.Document(c.Request.Context(), refType, c.Param("ref"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Balance compares a product's ledger sum with its stock quantity
// @Summary      Ledger balance
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.BalanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/products/{id}/balance [get]
func (h *StockHandler) Balance(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	balance, err := h.ledgerService.CurrentBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Valuation values current stock
// @Summary      Stock valuation
// @Tags         stock
// @Produce      json
// @Param        method query string false "Costing method" Enums(FIFO, AVERAGE, LIFO)
// @Success      200 {object} dto.Response{data=inventoryapp.ValuationReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/valuation [get]
func (h *StockHandler) Valuation(c *gin.Context) {
	var q inventoryapp.ValuationQuery
	if !h.BindQuery(c, &q) {
		return
	}
	report, err := h.valuationService.Valuation(c.Request.Context(), q.Method)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Snapshot values stock as it stood at the end of a business day
// @Summary      Closing valuation of a day
// @Tags         stock
// @Produce      json
// @Param        date query string true "Business day" format(date)
// @Param        method query string false "Costing method" Enums(FIFO, AVERAGE, LIFO)
// @Success      200 {object} dto.Response{data=inventoryapp.ValuationReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/valuation/snapshot [get]
func (h *StockHandler) Snapshot(c *gin.Context) {
	var q inventoryapp.ValuationQuery
	if !h.BindQuery(c, &q) {
		return
	}
	if q.Date == "" {
		h.BadRequest(c, "date is required")
		return
	}
	report, err := h.valuationService.Snapshot(c.Request.Context(), q.Date, q.Method)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Reconcile compares every product's stock quantity with its ledger.
// With repair=true drifted quantities are reset to the ledger sum.
// @Summary      Reconcile stock with the ledger
// @Tags         stock
// @Produce      json
// @Param        repair query bool false "Reset drifted quantities"
// @Success      200 {object} dto.Response{data=inventoryapp.ReconciliationReport}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stock/reconciliation [post]
func (h *StockHandler) Reconcile(c *gin.Context) {
	repair := c.Query("repair") == "true"
	report, err := h.reconciliation.RunExclusive(c.Request.Context(), repair)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if report == nil {
		h.HandleError(c, shared.ErrConcurrencyConflict.WithMessage("Reconciliation is already running"))
		return
	}
	h.Success(c, report)
}
