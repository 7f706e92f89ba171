package form

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"context"
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

type FieldRequest struct {
	ID       string   `json:"id" validate:"omitempty,uuid"`
	Label    string   `json:"label" validate:"required,not_blank"`
	Kind     string   `json:"kind" validate:"required,field_kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

type Request struct {
	Title       string         `json:"title" validate:"required,not_blank"`
	Description string         `json:"description"`
	Fields      []FieldRequest `json:"fields" validate:"required,min=1,dive"`
}

type ActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type FieldResponse struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Kind      string   `json:"kind"`
	InputType string   `json:"inputType"`
	Required  bool     `json:"required"`
	Order     int32    `json:"order"`
	Options   []string `json:"options"`
}

type Response struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Fields      []FieldResponse `json:"fields"`
}

type SummaryResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	ResponseCount int64     `json:"responseCount"`
}

type Store interface {
	Create(ctx context.Context, ownerID uuid.UUID, in Input) (Schema, error)
	Replace(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, in Input) (Schema, error)
	SetActive(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, active bool) (Schema, error)
	Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (Schema, error)
	GetActive(ctx context.Context, id uuid.UUID) (Schema, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Summary, error)
}

type Handler struct {
	logger        *zap.Logger
	validator     *validator.Validate
	problemWriter *problem.HttpWriter
	store         Store
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, validator *validator.Validate, problemWriter *problem.HttpWriter, store Store) *Handler {
	return &Handler{
		logger:        logger,
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
		tracer:        otel.Tracer("form/handler"),
	}
}

func ToResponse(schema Schema) Response {
	fields := make([]FieldResponse, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		options := f.Options
		if options == nil {
			options = []string{}
		}
		fields = append(fields, FieldResponse{
			ID:        f.ID.String(),
			Label:     f.Label,
			Kind:      f.Kind.String(),
			InputType: field.InputType(f.Kind),
			Required:  f.Required,
			Order:     f.Order,
			Options:   options,
		})
	}

	return Response{
		ID:          schema.ID.String(),
		Title:       schema.Title,
		Description: schema.Description,
		Active:      schema.Active,
		CreatedAt:   schema.CreatedAt,
		UpdatedAt:   schema.UpdatedAt,
		Fields:      fields,
	}
}

func (r Request) toInput() (Input, error) {
	in := Input{
		Title:       r.Title,
		Description: r.Description,
		Fields:      make([]FieldInput, 0, len(r.Fields)),
	}

	for _, f := range r.Fields {
		kind, err := field.Parse(f.Kind)
		if err != nil {
			return Input{}, SchemaError{Problems: []string{err.Error()}}
		}

		var id uuid.UUID
		if f.ID != "" {
			id, err = handlerutil.ParseUUID(f.ID)
			if err != nil {
				return Input{}, err
			}
		}

		in.Fields = append(in.Fields, FieldInput{
			ID:       id,
			Label:    f.Label,
			Kind:     kind,
			Required: f.Required,
			Options:  f.Options,
		})
	}

	return in, nil
}

func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "CreateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	operatorID, ok := internal.GetOperatorIDFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoOperatorInContext, logger)
		return
	}

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	schema, err := h.store.Create(traceCtx, operatorID, in)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, ToResponse(schema))
}

func (h *Handler) ReplaceHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ReplaceHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	operatorID, ok := internal.GetOperatorIDFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoOperatorInContext, logger)
		return
	}

	id, err := handlerutil.ParseUUID(r.PathValue("formId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	schema, err := h.store.Replace(traceCtx, id, operatorID, in)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(schema))
}

func (h *Handler) SetActiveHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SetActiveHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	operatorID, ok := internal.GetOperatorIDFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoOperatorInContext, logger)
		return
	}

	id, err := handlerutil.ParseUUID(r.PathValue("formId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req ActiveRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	schema, err := h.store.SetActive(traceCtx, id, operatorID, *req.Active)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(schema))
}

func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	operatorID, ok := internal.GetOperatorIDFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoOperatorInContext, logger)
		return
	}

	id, err := handlerutil.ParseUUID(r.PathValue("formId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	err = h.store.Delete(traceCtx, id, operatorID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusNoContent, nil)
}

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	operatorID, ok := internal.GetOperatorIDFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoOperatorInContext, logger)
		return
	}

	id, err := handlerutil.ParseUUID(r.PathValue("formId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	schema, err := h.store.Get(traceCtx, id, operatorID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(schema))
}

// GetPublicHandler serves the schema of an active form to submitters.
func (h *Handler) GetPublicHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetPublicHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("formId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	schema, err := h.store.GetActive(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToResponse(schema))
}

func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	operatorID, ok := internal.GetOperatorIDFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoOperatorInContext, logger)
		return
	}

	summaries, err := h.store.ListByOwner(traceCtx, operatorID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	response := make([]SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		response = append(response, SummaryResponse{
			ID:            s.ID.String(),
			Title:         s.Title,
			Description:   s.Description,
			Active:        s.Active,
			CreatedAt:     s.CreatedAt,
			UpdatedAt:     s.UpdatedAt,
			ResponseCount: s.ResponseCount,
		})
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, response)
}
