package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/datjpro/viepropchain-indexer/internal/application/services"
	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/testutil"
)

func setupTransactionHandlerTest() (*TransactionHandler, *testutil.MockTransactionRepository) {
	transactionRepo := testutil.NewMockTransactionRepository()
	logger := zap.NewNop()

	service := services.NewTransactionService(transactionRepo, nil, logger)
	handler := NewTransactionHandler(service, logger)
	return handler, transactionRepo
}

func transactionTestRouter(handler *TransactionHandler) chi.Router {
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func TestTransactionHandler_GetTransactions_Success(t *testing.T) {
	handler, transactionRepo := setupTransactionHandlerTest()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(1))),
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(2))),
	)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()

	transactionTestRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response services.TransactionListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Total != 2 {
		t.Errorf("expected total 2, got %d", response.Total)
	}
}

func TestTransactionHandler_GetTransactions_TypeFilter(t *testing.T) {
	handler, transactionRepo := setupTransactionHandlerTest()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(
			testutil.WithTxHash(testutil.TestTxHash(1)),
			testutil.WithTxType(entities.TxTypeMint),
		),
		testutil.CreateTestTransaction(
			testutil.WithTxHash(testutil.TestTxHash(2)),
			testutil.WithTxType(entities.TxTypeTransfer),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/transactions?type=mint", nil)
	rec := httptest.NewRecorder()

	transactionTestRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response services.TransactionListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Total != 1 {
		t.Errorf("expected total 1, got %d", response.Total)
	}
}

func TestTransactionHandler_GetTransactions_InvalidType(t *testing.T) {
	handler, _ := setupTransactionHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/transactions?type=burn", nil)
	rec := httptest.NewRecorder()

	transactionTestRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_GetTransactions_InvalidAddress(t *testing.T) {
	handler, _ := setupTransactionHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/transactions?address=nothex", nil)
	rec := httptest.NewRecorder()

	transactionTestRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_GetTransactions_TokenFilter(t *testing.T) {
	handler, transactionRepo := setupTransactionHandlerTest()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(
			testutil.WithTxHash(testutil.TestTxHash(1)),
			testutil.WithTxTokenID(5),
		),
		testutil.CreateTestTransaction(
			testutil.WithTxHash(testutil.TestTxHash(2)),
			testutil.WithTxTokenID(6),
		),
	)

	req := httptest.NewRequest(http.MethodGet, "/transactions?token_id=5", nil)
	rec := httptest.NewRecorder()

	transactionTestRouter(handler).ServeHTTP(rec, req)

	var response services.TransactionListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Total != 1 {
		t.Errorf("expected total 1, got %d", response.Total)
	}
	if response.Transactions[0].TokenID != 5 {
		t.Errorf("expected token id 5, got %d", response.Transactions[0].TokenID)
	}
}

func TestTransactionHandler_GetTransactions_BlockRange(t *testing.T) {
	handler, transactionRepo := setupTransactionHandlerTest()

	transactionRepo.AddTransactions(
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(1)), testutil.WithBlockNumber(100)),
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(2)), testutil.WithBlockNumber(200)),
		testutil.CreateTestTransaction(testutil.WithTxHash(testutil.TestTxHash(3)), testutil.WithBlockNumber(300)),
	)

	req := httptest.NewRequest(http.MethodGet, "/transactions?from_block=150&to_block=250", nil)
	rec := httptest.NewRecorder()

	transactionTestRouter(handler).ServeHTTP(rec, req)

	var response services.TransactionListResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Total != 1 {
		t.Errorf("expected total 1, got %d", response.Total)
	}
}

func TestTransactionHandler_GetByHash_Success(t *testing.T) {
	handler, transactionRepo := setupTransactionHandlerTest()

	transactionRepo.AddTransactions(testutil.CreateTestTransaction(
		testutil.WithTxHash(testutil.TestTxHash(9)),
	))

	req := httptest.NewRequest(http.MethodGet, "/transactions/"+testutil.TestTxHash(9), nil)
	rec := httptest.NewRecorder()

	transactionTestRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var dto services.TransactionDTO
	if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if dto.TxHash != testutil.TestTxHash(9) {
		t.Errorf("tx hash mismatch: %s", dto.TxHash)
	}
}

func TestTransactionHandler_GetByHash_NotFound(t *testing.T) {
	handler, _ := setupTransactionHandlerTest()

	req := httptest.NewRequest(http.MethodGet, "/transactions/"+testutil.TestTxHash(404), nil)
	rec := httptest.NewRecorder()

	transactionTestRouter(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestTransactionHandler_GetByHash_InvalidHash(t *testing.T) {
	handler, _ := setupTransactionHandlerTest()

	tests := []struct {
		name   string
		txHash string
	}{
		{"too short", "0x1234"},
		{"no prefix", "1111111111111111111111111111111111111111111111111111111111111111"},
		{"not hex", "0xzz11111111111111111111111111111111111111111111111111111111111111"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/transactions/"+tt.txHash, nil)
			rec := httptest.NewRecorder()

			transactionTestRouter(handler).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}
