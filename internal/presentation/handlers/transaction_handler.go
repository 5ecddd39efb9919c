package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/datjpro/viepropchain-indexer/internal/application/services"
	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// TransactionHandler handles HTTP requests for the transaction ledger
type TransactionHandler struct {
	service *services.TransactionService
	logger  *zap.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service *services.TransactionService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the transaction routes
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/transactions", h.GetTransactions)
	r.Get("/transactions/{txHash}", h.GetByHash)
}

// GetTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePagination(r)

	filter := entities.TransactionFilter{
		Limit:  limit,
		Offset: offset,
	}

	if v := r.URL.Query().Get("type"); v != "" {
		txType := entities.TxType(strings.ToLower(v))
		if txType != entities.TxTypeMint && txType != entities.TxTypeTransfer {
			h.respondError(w, http.StatusBadRequest, "Invalid transaction type")
			return
		}
		filter.Type = &txType
	}

	if v := r.URL.Query().Get("address"); v != "" {
		if !isValidAddress(v) {
			h.respondError(w, http.StatusBadRequest, "Invalid address format")
			return
		}
		normalized := strings.ToLower(v)
		filter.Address = &normalized
	}

	if v := r.URL.Query().Get("token_id"); v != "" {
		tokenID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || tokenID < 0 {
			h.respondError(w, http.StatusBadRequest, "Invalid token id")
			return
		}
		filter.TokenID = &tokenID
	}

	if v := r.URL.Query().Get("from_block"); v != "" {
		if b, err := strconv.ParseInt(v, 10, 64); err == nil && b >= 0 {
			filter.FromBlock = &b
		}
	}
	if v := r.URL.Query().Get("to_block"); v != "" {
		if b, err := strconv.ParseInt(v, 10, 64); err == nil && b >= 0 {
			filter.ToBlock = &b
		}
	}

	response, err := h.service.GetTransactions(ctx, filter)
	if err != nil {
		h.logger.Error("Failed to get transactions", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to get transactions")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetByHash handles GET /api/v1/transactions/{txHash}
func (h *TransactionHandler) GetByHash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txHash := chi.URLParam(r, "txHash")

	if !txHashPattern.MatchString(txHash) {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction hash format")
		return
	}

	response, err := h.service.GetByHash(ctx, txHash)
	if err != nil {
		h.logger.Error("Failed to get transaction", zap.Error(err), zap.String("tx_hash", txHash))
		h.respondError(w, http.StatusInternalServerError, "Failed to get transaction")
		return
	}

	if response == nil {
		h.respondError(w, http.StatusNotFound, "transaction not found")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

func (h *TransactionHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *TransactionHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
