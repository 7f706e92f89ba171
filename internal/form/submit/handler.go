package submit

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxMultipartMemory = 8 << 20

type Request struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

type Response struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type Store interface {
	Submit(ctx context.Context, formID uuid.UUID, answers map[string]field.Value) (Result, error)
}

type Handler struct {
	logger         *zap.Logger
	validator      *validator.Validate
	problemWriter  *problem.HttpWriter
	store          Store
	tracer         trace.Tracer
	maxRequestSize int64
}

func NewHandler(logger *zap.Logger, validator *validator.Validate, problemWriter *problem.HttpWriter, store Store, maxRequestSize int64) *Handler {
	return &Handler{
		logger:         logger,
		validator:      validator,
		problemWriter:  problemWriter,
		store:          store,
		tracer:         otel.Tracer("submit/handler"),
		maxRequestSize: maxRequestSize,
	}
}

// SubmitHandler accepts a public submission as multipart/form-data, with text
// values and image files keyed by field id, or as JSON.
func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SubmitHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	formID, err := handlerutil.ParseUUID(r.PathValue("formId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if h.maxRequestSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	}

	var answers map[string]field.Value
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var closeFiles func()
		answers, closeFiles, err = parseMultipart(r)
		if err != nil {
			logger.Warn("Failed to parse multipart submission", zap.Error(err))
			h.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}
		defer closeFiles()
	} else {
		var req Request
		if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
			h.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}
		answers = make(map[string]field.Value, len(req.Answers))
		for key, value := range req.Answers {
			answers[key] = field.Value{Text: value}
		}
	}

	result, err := h.store.Submit(traceCtx, formID, answers)
	if err != nil {
		var verr *field.ValidationError
		if errors.As(err, &verr) {
			err = handlerutil.NewValidationErrorWithErrors("validation errors occurred while submitting the form", verr.Messages())
		}
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, Response{
		ID:    result.ResponseID.String(),
		State: string(result.State),
	})
}

// parseMultipart collects text values and the first file of every key. The
// returned func closes the opened files and removes temporary parts.
func parseMultipart(r *http.Request) (map[string]field.Value, func(), error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, func() {}, fmt.Errorf("%w: %w", internal.ErrInvalidMultipart, err)
	}

	var opened []multipart.File
	closeFiles := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}

	answers := make(map[string]field.Value, len(r.MultipartForm.Value)+len(r.MultipartForm.File))
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			answers[key] = field.Value{Text: values[0]}
		}
	}

	for key, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		header := headers[0]
		f, err := header.Open()
		if err != nil {
			closeFiles()
			return nil, func() {}, fmt.Errorf("%w: %w", internal.ErrInvalidMultipart, err)
		}
		opened = append(opened, f)

		value := answers[key]
		value.File = &field.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      f,
		}
		answers[key] = value
	}

	return answers, closeFiles, nil
}
