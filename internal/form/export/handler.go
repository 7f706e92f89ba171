package export

import (
	"NYCU-SDC/form-collector-backend/internal"
	"context"
	"mime"
	"net/http"
	"strconv"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TableResponse struct {
	FormID string     `json:"formId"`
	Title  string     `json:"title"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

type Handler struct {
	logger        *zap.Logger
	problemWriter *problem.HttpWriter
	service       *Service
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, problemWriter *problem.HttpWriter, service *Service) *Handler {
	return &Handler{
		logger:        logger,
		problemWriter: problemWriter,
		service:       service,
		tracer:        otel.Tracer("export/handler"),
	}
}

func (h *Handler) TableHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "TableHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	formID, operatorID, err := pathParams(traceCtx, r)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	schema, rows, err := h.service.Table(traceCtx, formID, operatorID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, TableResponse{
		FormID: schema.ID.String(),
		Title:  schema.Title,
		Header: rows[0],
		Rows:   rows[1:],
	})
}

func (h *Handler) CSVHandler(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, "CSVHandler", h.service.CSV)
}

func (h *Handler) XLSXHandler(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, "XLSXHandler", h.service.XLSX)
}

func (h *Handler) ImagesHandler(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, "ImagesHandler", h.service.Images)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request, name string, render func(ctx context.Context, formID uuid.UUID, ownerID uuid.UUID) (Artifact, error)) {
	traceCtx, span := h.tracer.Start(r.Context(), name)
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	formID, operatorID, err := pathParams(traceCtx, r)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	artifact, err := render(traceCtx, formID, operatorID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		logger.Warn("Failed to write export", zap.String("filename", artifact.Filename), zap.Error(err))
	}
}

func pathParams(ctx context.Context, r *http.Request) (uuid.UUID, uuid.UUID, error) {
	operatorID, ok := internal.GetOperatorIDFromContext(ctx)
	if !ok {
		return uuid.Nil, uuid.Nil, internal.ErrNoOperatorInContext
	}

	formID, err := handlerutil.ParseUUID(r.PathValue("formId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	return formID, operatorID, nil
}
