package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"accruald/config"
	"accruald/models"
	"accruald/service"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Handler serves the account CRUD and manual interest trigger endpoints
type Handler struct {
	accounts service.AccountService
	accrual  service.AccrualService
	location *time.Location
}

// NewHandler creates a new API handler
func NewHandler(accounts service.AccountService, accrual service.AccrualService, cfg *config.Config) *Handler {
	return &Handler{
		accounts: accounts,
		accrual:  accrual,
		location: cfg.Location(),
	}
}

// Router builds the HTTP route table
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/accounts", h.CreateAccount).Methods("POST")
	r.HandleFunc("/api/accounts", h.ListAccounts).Methods("GET")
	r.HandleFunc("/api/accounts/{id:[0-9]+}", h.GetAccount).Methods("GET")

	r.HandleFunc("/api/interest/apply-daily", h.ApplyDailyInterest).Methods("POST")
	r.HandleFunc("/api/interest/apply-month-end", h.ApplyMonthEndInterest).Methods("POST")
	r.HandleFunc("/api/interest/runs/latest", h.LatestRun).Methods("GET")

	return r
}

type createAccountRequest struct {
	AccountHolderName string          `json:"accountHolderName"`
	PrincipalAmount   decimal.Decimal `json:"principalAmount"`
	InterestRate      decimal.Decimal `json:"interestRate"`
	DateOfDisbursal   string          `json:"dateOfDisbursal"`
}

type accountResponse struct {
	ID                    int64           `json:"id"`
	AccountNumber         string          `json:"accountNumber"`
	AccountHolderName     string          `json:"accountHolderName"`
	PrincipalAmount       decimal.Decimal `json:"principalAmount"`
	InterestRate          decimal.Decimal `json:"interestRate"`
	InterestAmount        decimal.Decimal `json:"interestAmount"`
	DateOfDisbursal       string          `json:"dateOfDisbursal"`
	LastInterestAppliedAt *time.Time      `json:"lastInterestAppliedAt"`
	Version               int64           `json:"version"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func toAccountResponse(account *models.LoanAccount) accountResponse {
	return accountResponse{
		ID:                    account.ID,
		AccountNumber:         account.AccountNumber,
		AccountHolderName:     account.AccountHolderName,
		PrincipalAmount:       account.PrincipalAmount,
		InterestRate:          account.InterestRate,
		InterestAmount:        account.InterestAmount,
		DateOfDisbursal:       account.DateOfDisbursal.Format(dateLayout),
		LastInterestAppliedAt: account.LastInterestAppliedAt,
		Version:               account.Version,
		CreatedAt:             account.CreatedAt,
		UpdatedAt:             account.UpdatedAt,
	}
}

// CreateAccount handles POST /api/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	disbursal, err := time.ParseInLocation(dateLayout, req.DateOfDisbursal, h.location)
	if err != nil {
		respondError(w, http.StatusBadRequest, "dateOfDisbursal must be formatted as YYYY-MM-DD")
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.AccountHolderName, req.PrincipalAmount, req.InterestRate, disbursal)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, toAccountResponse(account))
}

// ListAccounts handles GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		size = 20
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), page, size)
	if err != nil {
		log.WithError(err).Error("Failed to list accounts")
		respondError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}

	responses := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, toAccountResponse(account))
	}

	respondJSON(w, http.StatusOK, responses)
}

// GetAccount handles GET /api/accounts/{id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid account ID")
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		log.WithError(err).WithField("accountId", id).Error("Failed to get account")
		respondError(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if account == nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}

	respondJSON(w, http.StatusOK, toAccountResponse(account))
}

// targetDate resolves the optional date query parameter, defaulting to today
// in the accrual timezone.
func (h *Handler) targetDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now().In(h.location), nil
	}
	return time.ParseInLocation(dateLayout, raw, h.location)
}

// ApplyDailyInterest handles POST /api/interest/apply-daily
func (h *Handler) ApplyDailyInterest(w http.ResponseWriter, r *http.Request) {
	forDate, err := h.targetDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	log.WithField("date", forDate.Format(dateLayout)).Info("Manually triggering daily interest accrual")

	result, err := h.accrual.ApplyDailyAccrual(r.Context(), forDate)
	if err != nil {
		log.WithError(err).Error("Daily interest accrual failed")
		respondError(w, http.StatusInternalServerError, "daily interest accrual failed")
		return
	}

	if err := h.accrual.RecordRun(r.Context(), models.AccrualJobDaily, result); err != nil {
		// The accrual itself succeeded; a duplicate or failed run record is
		// worth a warning, not a client error.
		log.WithError(err).Warn("Failed to record daily accrual run")
	}

	respondJSON(w, http.StatusOK, result)
}

// ApplyMonthEndInterest handles POST /api/interest/apply-month-end
func (h *Handler) ApplyMonthEndInterest(w http.ResponseWriter, r *http.Request) {
	forDate, err := h.targetDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}

	log.WithField("date", forDate.Format(dateLayout)).Info("Manually triggering month-end compounding")

	result, err := h.accrual.ApplyMonthEndCompounding(r.Context(), forDate)
	if err != nil {
		log.WithError(err).Error("Month-end compounding failed")
		respondError(w, http.StatusInternalServerError, "month-end compounding failed")
		return
	}

	if err := h.accrual.RecordRun(r.Context(), models.AccrualJobMonthEnd, result); err != nil {
		log.WithError(err).Warn("Failed to record month-end run")
	}

	respondJSON(w, http.StatusOK, result)
}

// LatestRun handles GET /api/interest/runs/latest
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	job := models.AccrualJob(r.URL.Query().Get("job"))
	if job == "" {
		job = models.AccrualJobDaily
	}
	if job != models.AccrualJobDaily && job != models.AccrualJobMonthEnd {
		respondError(w, http.StatusBadRequest, "job must be daily or month_end")
		return
	}

	run, err := h.accrual.LastRun(r.Context(), job)
	if err != nil {
		log.WithError(err).Error("Failed to get latest run")
		respondError(w, http.StatusInternalServerError, "failed to get latest run")
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "no runs recorded")
		return
	}

	respondJSON(w, http.StatusOK, run)
}
