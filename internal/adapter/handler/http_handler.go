package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yitao-mall/stock-engine/internal/core/domain"
	"github.com/yitao-mall/stock-engine/internal/core/service"
	"github.com/yitao-mall/stock-engine/internal/port"
)

type HTTPHandler struct {
	seckill  *service.SeckillService
	purchase *service.PurchaseService
	cache    port.SeckillCache
}

type AdmitHTTPRequest struct {
	SkuID     string          `json:"sku_id"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Quantity  int             `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
}

type PurchaseHTTPRequest struct {
	Items     []domain.PurchaseItem `json:"items"`
	FlashSale bool                  `json:"flash_sale"`
}

type ErrorHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(seckill *service.SeckillService, purchase *service.PurchaseService, cache port.SeckillCache) *HTTPHandler {
	return &HTTPHandler{seckill: seckill, purchase: purchase, cache: cache}
}

// Admit handles POST /api/seckill: create a campaign and carve its stock out
// of the general pool.
func (h *HTTPHandler) Admit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AdmitHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Message: "invalid request body"})
		return
	}

	campaign, err := h.seckill.Admit(r.Context(), service.AdmitParams{
		SkuID:     req.SkuID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Quantity:  req.Quantity,
		Discount:  req.Discount,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

// ListSeckill handles GET /api/seckill: active campaigns with live stock.
func (h *HTTPHandler) ListSeckill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	goods, err := h.seckill.ListGoods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goods)
}

// SeckillStock handles GET /api/seckill/stock?sku_id=...: the fast-path
// cache read used to pre-screen purchase attempts.
func (h *HTTPHandler) SeckillStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	skuID := r.URL.Query().Get("sku_id")
	if skuID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Message: "sku_id is required"})
		return
	}

	remaining, found, err := h.cache.GetRemaining(r.Context(), skuID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, ErrorHTTPResponse{Message: "no active campaign"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sku_id":    skuID,
		"remaining": remaining,
	})
}

// Purchase handles POST /api/purchase: one or more conditional decrements
// against the ledger, all-or-nothing across the batch.
func (h *HTTPHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PurchaseHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Message: "invalid request body"})
		return
	}

	if err := h.purchase.PurchaseBatch(r.Context(), req.Items, req.FlashSale); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "stock taken",
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, domain.ErrOutOfStock):
		status = http.StatusGone
		message = "sold out"
	}

	writeJSON(w, status, ErrorHTTPResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
