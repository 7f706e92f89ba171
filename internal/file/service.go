package file

import (
	"NYCU-SDC/form-collector-backend/internal"
	"context"
	"errors"
	"io"
	"strings"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (CreateRow, error)
	GetByID(ctx context.Context, id uuid.UUID) (File, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Object describes a stored blob.
type Object struct {
	ID          uuid.UUID
	Path        string
	URI         string
	ContentType string
	Size        int64
}

type Service struct {
	logger    *zap.Logger
	queries   Querier
	tracer    trace.Tracer
	validator *Validator
	uriPrefix string
}

func NewService(logger *zap.Logger, db DBTX, baseURL string) *Service {
	return &Service{
		logger:    logger,
		queries:   New(db),
		tracer:    otel.Tracer("file/service"),
		validator: NewValidator(),
		uriPrefix: strings.TrimRight(baseURL, "/") + "/api/files/",
	}
}

// Put validates content with opts and stores it under path. The returned URI
// is publicly resolvable through the download route.
func (s *Service) Put(ctx context.Context, path string, content io.Reader, contentType string, opts ...ValidatorOption) (Object, error) {
	traceCtx, span := s.tracer.Start(ctx, "Put")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	data, contentType, err := s.validator.Validate(content, contentType, opts...)
	if err != nil {
		logger.Warn("File validation failed", zap.String("path", path), zap.Error(err))
		span.RecordError(err)
		return Object{}, err
	}

	tracker := logutil.StartDBOperation(traceCtx, logger, "Put", map[string]interface{}{
		"path":         path,
		"content_type": contentType,
		"size":         len(data),
	})

	row, err := s.queries.Create(traceCtx, CreateParams{
		Path:        path,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	})
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "create file record")
		span.RecordError(err)
		return Object{}, err
	}

	tracker.SuccessWrite(row.ID.String())

	return Object{
		ID:          row.ID,
		Path:        row.Path,
		URI:         s.URI(row.ID),
		ContentType: row.ContentType,
		Size:        row.Size,
	}, nil
}

// GetByID retrieves a file record with data by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (File, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	file, err := s.queries.GetByID(traceCtx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(internal.ErrFileNotFound)
			return File{}, internal.ErrFileNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get file by id")
		span.RecordError(err)
		return File{}, err
	}

	return file, nil
}

// Get resolves a URI produced by Put to the stored bytes.
func (s *Service) Get(ctx context.Context, uri string) ([]byte, error) {
	id, ok := s.idFromURI(uri)
	if !ok {
		return nil, internal.ErrFileNotFound
	}

	file, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return file.Data, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	traceCtx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	tracker := logutil.StartDBOperation(traceCtx, logger, "Delete", map[string]interface{}{
		"id": id.String(),
	})

	err := s.queries.Delete(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "delete file")
		span.RecordError(err)
		return err
	}

	tracker.SuccessWrite(id.String())

	return nil
}

func (s *Service) URI(id uuid.UUID) string {
	return s.uriPrefix + id.String()
}

// Owns reports whether uri points into this store.
func (s *Service) Owns(uri string) bool {
	_, ok := s.idFromURI(uri)
	return ok
}

func (s *Service) idFromURI(uri string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(uri, s.uriPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
