package export

import (
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/response"
	"bytes"
	"context"
	"time"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeZIP  = "application/zip"
)

type FormStore interface {
	Get(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (form.Schema, error)
}

type ResponseStore interface {
	ListByFormID(ctx context.Context, formID uuid.UUID) ([]response.Record, error)
}

// Artifact is a rendered export ready to be sent as a download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Service struct {
	logger        *zap.Logger
	tracer        trace.Tracer
	formStore     FormStore
	responseStore ResponseStore
	fetcher       AssetFetcher
	location      *time.Location
}

func NewService(logger *zap.Logger, formStore FormStore, responseStore ResponseStore, fetcher AssetFetcher, location *time.Location) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		logger:        logger,
		tracer:        otel.Tracer("export/service"),
		formStore:     formStore,
		responseStore: responseStore,
		fetcher:       fetcher,
		location:      location,
	}
}

func (s *Service) load(ctx context.Context, formID uuid.UUID, ownerID uuid.UUID) (form.Schema, []response.Record, error) {
	schema, err := s.formStore.Get(ctx, formID, ownerID)
	if err != nil {
		return form.Schema{}, nil, err
	}

	records, err := s.responseStore.ListByFormID(ctx, formID)
	if err != nil {
		return form.Schema{}, nil, err
	}

	return schema, records, nil
}

// Table returns the response table as shown in the dashboard, with "-" for
// missing answers.
func (s *Service) Table(ctx context.Context, formID uuid.UUID, ownerID uuid.UUID) (form.Schema, [][]string, error) {
	traceCtx, span := s.tracer.Start(ctx, "Table")
	defer span.End()

	schema, records, err := s.load(traceCtx, formID, ownerID)
	if err != nil {
		span.RecordError(err)
		return form.Schema{}, nil, err
	}

	return schema, ToTable(schema, records, TableOptions{Location: s.location, EmptyCell: EmptyViewCell}), nil
}

func (s *Service) CSV(ctx context.Context, formID uuid.UUID, ownerID uuid.UUID) (Artifact, error) {
	traceCtx, span := s.tracer.Start(ctx, "CSV")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	schema, records, err := s.load(traceCtx, formID, ownerID)
	if err != nil {
		span.RecordError(err)
		return Artifact{}, err
	}

	var buf bytes.Buffer
	rows := ToTable(schema, records, TableOptions{Location: s.location, EmptyCell: EmptyFileCell})
	if err := WriteCSV(&buf, rows); err != nil {
		logger.Error("Failed to write CSV export", zap.String("form_id", formID.String()), zap.Error(err))
		span.RecordError(err)
		return Artifact{}, err
	}

	return Artifact{
		Filename:    schema.Title + "-responses.csv",
		ContentType: ContentTypeCSV,
		Data:        buf.Bytes(),
	}, nil
}

func (s *Service) XLSX(ctx context.Context, formID uuid.UUID, ownerID uuid.UUID) (Artifact, error) {
	traceCtx, span := s.tracer.Start(ctx, "XLSX")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	schema, records, err := s.load(traceCtx, formID, ownerID)
	if err != nil {
		span.RecordError(err)
		return Artifact{}, err
	}

	var buf bytes.Buffer
	rows := ToTable(schema, records, TableOptions{Location: s.location, EmptyCell: EmptyFileCell})
	if err := WriteXLSX(&buf, schema, rows); err != nil {
		logger.Error("Failed to write spreadsheet export", zap.String("form_id", formID.String()), zap.Error(err))
		span.RecordError(err)
		return Artifact{}, err
	}

	return Artifact{
		Filename:    schema.Title + "-responses.xlsx",
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

func (s *Service) Images(ctx context.Context, formID uuid.UUID, ownerID uuid.UUID) (Artifact, error) {
	traceCtx, span := s.tracer.Start(ctx, "Images")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	tracker := logutil.StartMethod(traceCtx, logger, "Images", map[string]interface{}{
		"form_id": formID.String(),
	})

	schema, records, err := s.load(traceCtx, formID, ownerID)
	if err != nil {
		span.RecordError(err)
		return Artifact{}, err
	}

	data, stats, err := BuildImageArchive(traceCtx, logger, s.fetcher, schema, records)
	if err != nil {
		logger.Info("Image archive not produced", zap.String("form_id", formID.String()), zap.Int("failed", stats.Failed), zap.Error(err))
		span.RecordError(err)
		return Artifact{}, err
	}

	tracker.Complete(map[string]interface{}{
		"collected": stats.Collected,
		"failed":    stats.Failed,
	})

	return Artifact{
		Filename:    schema.Title + "-images.zip",
		ContentType: ContentTypeZIP,
		Data:        data,
	}, nil
}
