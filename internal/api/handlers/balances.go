package handlers

import (
	"net/http"
	"strings"

	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/api/models"
)

// GetBalancesHandler lists a trader's balances
func (eh *ExchangeHolder) GetBalancesHandler(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user"))
	if userID == "" {
		writeErrorResponse(w, models.ErrBadRequest("user cannot be empty", map[string]interface{}{"field": "user"}))
		return
	}

	assets := eh.Ledger.Assets(userID)
	balances := make([]models.BalanceDTO, len(assets))
	for i, asset := range assets {
		balances[i] = models.NewBalanceDTO(asset, eh.Ledger.Balance(userID, asset))
	}

	writeJSON(w, http.StatusOK, models.BalancesResponse{
		BaseResponse: ok(""),
		UserID:       userID,
		Balances:     balances,
	})
}

// DepositHandler credits funds to a trader
func (eh *ExchangeHolder) DepositHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FundsRequest
	if httpErr := decodeBody(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if err := eh.Ledger.Deposit(r.Context(), req.UserID, req.Asset, req.Amount); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	logger.Info("Deposit credited", map[string]interface{}{
		"user_id": req.UserID,
		"asset":   req.Asset,
		"amount":  req.Amount.String(),
	})
	eh.writeBalance(w, "Deposit credited", req.UserID, req.Asset)
}

// WithdrawHandler debits funds once the asset's pairs allow withdrawals
func (eh *ExchangeHolder) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FundsRequest
	if httpErr := decodeBody(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if err := eh.Ledger.Withdraw(r.Context(), req.UserID, req.Asset, req.Amount); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	logger.Info("Withdrawal debited", map[string]interface{}{
		"user_id": req.UserID,
		"asset":   req.Asset,
		"amount":  req.Amount.String(),
	})
	eh.writeBalance(w, "Withdrawal processed", req.UserID, req.Asset)
}

// TransferHandler moves available funds between traders
func (eh *ExchangeHolder) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if httpErr := decodeBody(r, &req); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if httpErr := req.Validate(); httpErr != nil {
		writeErrorResponse(w, httpErr)
		return
	}
	if err := eh.Ledger.Transfer(r.Context(), req.From, req.To, req.Asset, req.Amount); err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	logger.Info("Transfer completed", map[string]interface{}{
		"from":   req.From,
		"to":     req.To,
		"asset":  req.Asset,
		"amount": req.Amount.String(),
	})
	eh.writeBalance(w, "Transfer completed", req.From, req.Asset)
}

func (eh *ExchangeHolder) writeBalance(w http.ResponseWriter, message, userID, asset string) {
	writeJSON(w, http.StatusOK, models.BalanceResponse{
		BaseResponse: ok(message),
		UserID:       userID,
		Balance:      models.NewBalanceDTO(asset, eh.Ledger.Balance(userID, asset)),
	})
}
