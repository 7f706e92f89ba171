package response

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"context"
	"errors"
	"net/http"
	"time"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type UpdateRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

type Response struct {
	ID          string            `json:"id"`
	FormID      string            `json:"formId"`
	SubmittedAt time.Time         `json:"submittedAt"`
	Answers     map[string]string `json:"answers"`
}

type ListResponse struct {
	FormID    string     `json:"formId"`
	Responses []Response `json:"responses"`
}

type Store interface {
	ListByFormID(ctx context.Context, formID uuid.UUID) ([]Record, error)
	Get(ctx context.Context, formID uuid.UUID, id uuid.UUID) (Record, error)
	UpdateAnswers(ctx context.Context, schema form.Schema, id uuid.UUID, values map[string]string) (Record, error)
	Delete(ctx context.Context, formID uuid.UUID, id uuid.UUID) error
}

// FormStore resolves a form owned by the calling operator.
type FormStore interface {
	Get(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (form.Schema, error)
}

type Handler struct {
	logger        *zap.Logger
	validator     *validator.Validate
	problemWriter *problem.HttpWriter
	store         Store
	formStore     FormStore
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, validator *validator.Validate, problemWriter *problem.HttpWriter, store Store, formStore FormStore) *Handler {
	return &Handler{
		logger:        logger,
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
		formStore:     formStore,
		tracer:        otel.Tracer("response/handler"),
	}
}

func ToResponse(record Record) Response {
	answers := make(map[string]string, len(record.Answers))
	for id, value := range record.Answers {
		answers[id.String()] = value
	}

	return Response{
		ID:          record.ID.String(),
		FormID:      record.FormID.String(),
		SubmittedAt: record.SubmittedAt,
		Answers:     answers,
	}
}

// ownedForm resolves the form in the path and checks the operator owns it.
func (h *Handler) ownedForm(ctx context.Context, r *http.Request) (form.Schema, error) {
	operatorID, ok := internal.GetOperatorIDFromContext(ctx)
	if !ok {
		return form.Schema{}, internal.ErrNoOperatorInContext
	}

	formID, err := handlerutil.ParseUUID(r.PathValue("formId"))
	if err != nil {
		return form.Schema{}, err
	}

	return h.formStore.Get(ctx, formID, operatorID)
}

// ListHandler lists all responses for a form, newest first
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	schema, err := h.ownedForm(traceCtx, r)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	records, err := h.store.ListByFormID(traceCtx, schema.ID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	listResponse := ListResponse{
		FormID:    schema.ID.String(),
		Responses: make([]Response, 0, len(records)),
	}
	for _, record := range records {
		listResponse.Responses = append(listResponse.Responses, ToResponse(record))
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, listResponse)
}

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	schema, err := h.ownedForm(traceCtx, r)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	responseID, err := handlerutil.ParseUUID(r.PathValue("responseId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	record, err := h.store.Get(traceCtx, schema.ID, responseID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(record))
}

func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	schema, err := h.ownedForm(traceCtx, r)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	responseID, err := handlerutil.ParseUUID(r.PathValue("responseId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req UpdateRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	record, err := h.store.UpdateAnswers(traceCtx, schema, responseID, req.Answers)
	if err != nil {
		var verr *field.ValidationError
		if errors.As(err, &verr) {
			err = handlerutil.NewValidationErrorWithErrors("validation errors occurred while updating answers", verr.Messages())
		}
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(record))
}

func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	schema, err := h.ownedForm(traceCtx, r)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	responseID, err := handlerutil.ParseUUID(r.PathValue("responseId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	err = h.store.Delete(traceCtx, schema.ID, responseID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusNoContent, nil)
}
