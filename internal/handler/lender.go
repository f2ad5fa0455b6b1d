package handler

import (
	"log/slog"
	"net/http"

	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/pkg/response"

	"github.com/go-playground/validator/v10"
)

type LenderHandler struct {
	lenders   LenderService
	settings  domain.Settings
	validator *validator.Validate
	logger    *slog.Logger
}

func NewLenderHandler(lenders LenderService, settings domain.Settings, logger *slog.Logger) *LenderHandler {
	return &LenderHandler{
		lenders:   lenders,
		settings:  settings,
		validator: newValidator(),
		logger:    logger,
	}
}

func (h *LenderHandler) RegisterLender(w http.ResponseWriter, r *http.Request) {
	var request domain.RegisterLenderRequest
	if err := decode(r, h.validator, &request); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	lender, err := h.lenders.RegisterLender(r.Context(), &request)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, lender)
}

func (h *LenderHandler) GetLender(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "lenderId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	lender, err := h.lenders.GetLender(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, lender)
}

// RecordCashEntry handles POST /lenders/{lenderId}/cash-entries.
func (h *LenderHandler) RecordCashEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "lenderId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var request domain.CashEntryRequest
	if err := decode(r, h.validator, &request); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.lenders.RecordCashEntry(r.Context(), id, &request, h.settings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Created(w, result)
}

func (h *LenderHandler) ListCashEntries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "lenderId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entries, err := h.lenders.ListCashEntries(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, entries)
}
