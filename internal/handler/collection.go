package handler

import (
	"log/slog"
	"net/http"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CollectionHandler struct {
	collections CollectionService
	settings    domain.Settings
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewCollectionHandler(collections CollectionService, settings domain.Settings, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		collections: collections,
		settings:    settings,
		validator:   newValidator(),
		logger:      logger,
	}
}

// RecordCollection handles POST /loans/{loanId}/collections. A replayed
// device transaction answers 200 with the stored record instead of 201.
func (h *CollectionHandler) RecordCollection(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var request domain.RecordCollectionRequest
	if err := decode(r, h.validator, &request); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.collections.RecordCollection(r.Context(), loanID, &request, h.settings)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if result.Replayed {
		response.Success(w, result)
		return
	}
	response.Created(w, result)
}

// ListTransactions handles GET /transactions?loan_id=&customer_id=&limit=&offset=.
func (h *CollectionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	filter := domain.TransactionFilter{
		CustomerID: r.URL.Query().Get("customer_id"),
		Limit:      limit,
		Offset:     offset,
	}
	if raw := r.URL.Query().Get("loan_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, h.logger, customError.WrapInvalidRequest("invalid loan_id"))
			return
		}
		filter.LoanID = &id
	}

	txns, err := h.collections.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	response.Success(w, txns)
}
