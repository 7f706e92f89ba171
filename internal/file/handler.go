package file

import (
	"NYCU-SDC/form-collector-backend/internal"
	"bytes"
	"context"
	"net/http"
	"path"
	"strconv"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (File, error)
}

type Handler struct {
	logger        *zap.Logger
	problemWriter *problem.HttpWriter
	store         Store
	tracer        trace.Tracer
}

func NewHandler(logger *zap.Logger, problemWriter *problem.HttpWriter, store Store) *Handler {
	return &Handler{
		logger:        logger,
		problemWriter: problemWriter,
		store:         store,
		tracer:        otel.Tracer("file/handler"),
	}
}

// Download handles GET /api/files/{id}. Stored images are public so exported
// links stay usable outside the application.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Download")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	fileIDStr := r.PathValue("id")
	fileID, err := uuid.Parse(fileIDStr)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidFileID, logger)
		return
	}

	fileInfo, err := h.store.GetByID(traceCtx, fileID)
	if err != nil {
		logger.Warn("Failed to get file", zap.Error(err), zap.String("file_id", fileIDStr))
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		span.RecordError(err)
		return
	}

	name := path.Base(fileInfo.Path)

	w.Header().Set("Content-Type", fileInfo.ContentType)
	w.Header().Set("Content-Disposition", "inline; filename=\""+name+"\"")
	w.Header().Set("Content-Length", strconv.FormatInt(fileInfo.Size, 10))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

	http.ServeContent(w, r, name, fileInfo.CreatedAt.Time, bytes.NewReader(fileInfo.Data))
}
