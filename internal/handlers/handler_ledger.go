package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/openledger/ledger-engine/internal/core/ports/services"
	"github.com/openledger/ledger-engine/internal/dto"
	"github.com/openledger/ledger-engine/internal/middleware"
)

// ledgerHandler handles HTTP requests that post or read transactions.
type ledgerHandler struct {
	ledgerService portssvc.LedgerService
}

// registerLedgerRoutes registers routes related to transactions, transfers and deposits.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerService) {
	h := &ledgerHandler{ledgerService: ledgerService}

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.postTransaction)
		transactions.GET("/:id", h.getTransaction)
	}
	rg.POST("/transfers", h.transferFunds)
	rg.POST("/deposits", h.deposit)
}

func (h *ledgerHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to post transaction", slog.Int("posting_count", len(req.Postings)))

	transactionID, err := h.ledgerService.PostTransaction(c.Request.Context(), req)
	if err != nil {
		logger.Warn("Failed to post transaction", slog.String("error", err.Error()))
		respondWithError(c, err)
		return
	}

	logger.Info("Transaction posted successfully", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusCreated, dto.TransactionIDResponse{TransactionID: transactionID})
}

func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		logger.Warn("Failed to get transaction", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

func (h *ledgerHandler) transferFunds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransferFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for TransferFunds", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to transfer funds",
		slog.String("from_account_id", req.FromAccountID),
		slog.String("to_account_id", req.ToAccountID),
		slog.String("amount", req.Amount.String()),
		slog.String("currency_code", req.CurrencyCode))

	transactionID, err := h.ledgerService.TransferFunds(c.Request.Context(), req)
	if err != nil {
		logger.Warn("Failed to transfer funds", slog.String("error", err.Error()))
		respondWithError(c, err)
		return
	}

	logger.Info("Transfer posted successfully", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusCreated, dto.TransactionIDResponse{TransactionID: transactionID})
}

func (h *ledgerHandler) deposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Deposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to deposit funds",
		slog.String("account_id", req.AccountID),
		slog.String("amount", req.Amount.String()),
		slog.String("currency_code", req.CurrencyCode))

	transactionID, err := h.ledgerService.Deposit(c.Request.Context(), req)
	if err != nil {
		logger.Warn("Failed to deposit funds", slog.String("error", err.Error()))
		respondWithError(c, err)
		return
	}

	logger.Info("Deposit posted successfully", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusCreated, dto.TransactionIDResponse{TransactionID: transactionID})
}
