package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vaultlabs-io/defi-vault-engine/internal/services"
	"github.com/vaultlabs-io/defi-vault-engine/internal/types"
)

type initializeVaultRequest struct {
	Authority       string `json:"authority"`
	AssetID         string `json:"asset_id"`
	InterestRateBps uint32 `json:"interest_rate_bps"`
	MinDeposit      uint64 `json:"min_deposit"`
}

type initializeVaultResponse struct {
	VaultAddress   string `json:"vault_address"`
	CustodyAddress string `json:"custody_address"`
	Created        bool   `json:"created"`
}

func (s *Server) handleInitializeVault(w http.ResponseWriter, r *http.Request) {
	var req initializeVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, types.NewValidationFailedError(types.InvalidRequest, err))
		return
	}

	result, err := s.service.InitializeVault(r.Context(), &services.InitializeVaultRequest{
		Authority:       req.Authority,
		AssetID:         req.AssetID,
		InterestRateBps: req.InterestRateBps,
		MinDeposit:      req.MinDeposit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, initializeVaultResponse{
		VaultAddress:   result.VaultAddress,
		CustodyAddress: result.CustodyAddress,
		Created:        result.Created,
	})
}

type depositRequest struct {
	AssetID         string `json:"asset_id"`
	Depositor       string `json:"depositor"`
	Amount          uint64 `json:"amount"`
	InterestRateBps uint32 `json:"interest_rate_bps,omitempty"`
	MinDeposit      uint64 `json:"min_deposit,omitempty"`
}

type operationResponse struct {
	VaultAddress    string `json:"vault_address"`
	PositionAddress string `json:"position_address"`
	Principal       uint64 `json:"principal"`
	AccruedInterest uint64 `json:"accrued_interest"`
	TotalDeposited  uint64 `json:"total_deposited"`
	Timestamp       int64  `json:"timestamp"`
}

func toOperationResponse(result *services.OperationResult) operationResponse {
	return operationResponse{
		VaultAddress:    result.VaultAddress,
		PositionAddress: result.PositionAddress,
		Principal:       result.Principal,
		AccruedInterest: result.AccruedInterest,
		TotalDeposited:  result.TotalDeposited,
		Timestamp:       result.Timestamp,
	}
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, types.NewValidationFailedError(types.InvalidRequest, err))
		return
	}

	result, err := s.service.Deposit(r.Context(), &services.DepositRequest{
		AssetID:         req.AssetID,
		Depositor:       req.Depositor,
		Amount:          req.Amount,
		InterestRateBps: req.InterestRateBps,
		MinDeposit:      req.MinDeposit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOperationResponse(result))
}

type withdrawRequest struct {
	AssetID   string `json:"asset_id"`
	Depositor string `json:"depositor"`
	Amount    uint64 `json:"amount"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, types.NewValidationFailedError(types.InvalidRequest, err))
		return
	}

	result, err := s.service.Withdraw(r.Context(), &services.WithdrawRequest{
		AssetID:   req.AssetID,
		Depositor: req.Depositor,
		Amount:    req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOperationResponse(result))
}

type balanceResponse struct {
	VaultAddress    string `json:"vault_address"`
	PositionAddress string `json:"position_address"`
	Principal       uint64 `json:"principal"`
	AccruedInterest uint64 `json:"accrued_interest"`
	TotalBalance    uint64 `json:"total_balance"`
	LastUpdateTime  int64  `json:"last_update_time"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	assetID := r.URL.Query().Get("asset_id")
	depositor := r.URL.Query().Get("depositor")
	if assetID == "" || depositor == "" {
		writeError(w, r, types.NewValidationFailedError(types.InvalidRequest,
			errors.New("asset_id and depositor query parameters are required")))
		return
	}

	info, err := s.service.GetBalance(r.Context(), assetID, depositor)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		VaultAddress:    info.VaultAddress,
		PositionAddress: info.PositionAddress,
		Principal:       info.Principal,
		AccruedInterest: info.AccruedInterest,
		TotalBalance:    info.TotalBalance,
		LastUpdateTime:  info.LastUpdateTime,
	})
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		writeError(w, r, types.NewInternalServiceError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
