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

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// isValidAddress checks that a string is a 0x-prefixed 20-byte hex address
func isValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// NFTHandler handles HTTP requests for ownership records
type NFTHandler struct {
	service *services.NFTService
	logger  *zap.Logger
}

// NewNFTHandler creates a new NFT handler
func NewNFTHandler(service *services.NFTService, logger *zap.Logger) *NFTHandler {
	return &NFTHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the NFT routes
func (h *NFTHandler) RegisterRoutes(r chi.Router) {
	r.Get("/nfts", h.GetNFTs)
	r.Get("/nfts/{tokenID}", h.GetByTokenID)
	r.Get("/nfts/{tokenID}/history", h.GetHistory)
	r.Get("/nfts/owner/{address}", h.GetByOwner)
}

// GetNFTs handles GET /api/v1/nfts
func (h *NFTHandler) GetNFTs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, offset := parsePagination(r)

	filter := entities.NFTFilter{
		Limit:  limit,
		Offset: offset,
	}
	if owner := r.URL.Query().Get("owner"); owner != "" {
		if !isValidAddress(owner) {
			h.respondError(w, http.StatusBadRequest, "Invalid address format")
			return
		}
		normalized := strings.ToLower(owner)
		filter.Owner = &normalized
	}

	response, err := h.service.GetNFTs(ctx, filter)
	if err != nil {
		h.logger.Error("Failed to get nfts", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to get nfts")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetByTokenID handles GET /api/v1/nfts/{tokenID}
func (h *NFTHandler) GetByTokenID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tokenID, err := strconv.ParseInt(chi.URLParam(r, "tokenID"), 10, 64)
	if err != nil || tokenID < 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid token id")
		return
	}

	response, err := h.service.GetByTokenID(ctx, tokenID)
	if err != nil {
		h.logger.Error("Failed to get nft", zap.Error(err), zap.Int64("token_id", tokenID))
		h.respondError(w, http.StatusInternalServerError, "Failed to get nft")
		return
	}

	if response == nil {
		h.respondError(w, http.StatusNotFound, "nft not found")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetHistory handles GET /api/v1/nfts/{tokenID}/history
func (h *NFTHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tokenID, err := strconv.ParseInt(chi.URLParam(r, "tokenID"), 10, 64)
	if err != nil || tokenID < 0 {
		h.respondError(w, http.StatusBadRequest, "Invalid token id")
		return
	}

	response, err := h.service.GetHistory(ctx, tokenID)
	if err != nil {
		h.logger.Error("Failed to get transfer history", zap.Error(err), zap.Int64("token_id", tokenID))
		h.respondError(w, http.StatusInternalServerError, "Failed to get transfer history")
		return
	}

	if response == nil {
		h.respondError(w, http.StatusNotFound, "nft not found")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// GetByOwner handles GET /api/v1/nfts/owner/{address}
func (h *NFTHandler) GetByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	if !isValidAddress(address) {
		h.respondError(w, http.StatusBadRequest, "Invalid address format")
		return
	}

	limit, offset := parsePagination(r)

	response, err := h.service.GetByOwner(ctx, strings.ToLower(address), limit, offset)
	if err != nil {
		h.logger.Error("Failed to get nfts by owner", zap.Error(err), zap.String("owner", address))
		h.respondError(w, http.StatusInternalServerError, "Failed to get nfts")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// parsePagination parses limit/offset query parameters with defaults
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 100
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}

func (h *NFTHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *NFTHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
