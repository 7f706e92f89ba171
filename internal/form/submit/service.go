package submit

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/file"
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"NYCU-SDC/form-collector-backend/internal/form/response"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type FormStore interface {
	GetActive(ctx context.Context, id uuid.UUID) (form.Schema, error)
}

type BlobStore interface {
	Put(ctx context.Context, path string, content io.Reader, contentType string, opts ...file.ValidatorOption) (file.Object, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ResponseStore interface {
	Create(ctx context.Context, formID uuid.UUID, answers []response.Answer) (response.Record, error)
}

type Result struct {
	State      State
	ResponseID uuid.UUID
}

type Service struct {
	logger *zap.Logger
	tracer trace.Tracer

	formStore     FormStore
	blobStore     BlobStore
	responseStore ResponseStore

	maxUploadSize     int64
	uploadConcurrency int
}

func NewService(logger *zap.Logger, formStore FormStore, blobStore BlobStore, responseStore ResponseStore, maxUploadSize int64, uploadConcurrency int) *Service {
	return &Service{
		logger:            logger,
		tracer:            otel.Tracer("submit/service"),
		formStore:         formStore,
		blobStore:         blobStore,
		responseStore:     responseStore,
		maxUploadSize:     maxUploadSize,
		uploadConcurrency: uploadConcurrency,
	}
}

// Submit validates the answers against the active schema of the form, stores
// attached images and persists the response.
//
// A rejected submission returns a *field.ValidationError listing every
// offending field. Upload and persistence failures wrap ErrUploadFailed and
// ErrPersistFailed.
func (s *Service) Submit(ctx context.Context, formID uuid.UUID, answers map[string]field.Value) (Result, error) {
	traceCtx, span := s.tracer.Start(ctx, "Submit")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	sub := newSubmission(formID, answers, logger)

	schema, err := s.formStore.GetActive(traceCtx, formID)
	if err != nil {
		span.RecordError(err)
		return Result{State: sub.State()}, err
	}
	sub.schema = schema

	sub.transition(StateValidating)
	if err := validate(sub); err != nil {
		sub.transition(StateRejected)
		logger.Info("Submission rejected", zap.String("form_id", formID.String()), zap.Error(err))
		span.RecordError(err)
		return Result{State: sub.State()}, err
	}

	jobs := sub.pendingUploads()
	if len(jobs) > 0 {
		sub.transition(StateUploadingAssets)
		if err := s.upload(traceCtx, sub, jobs); err != nil {
			sub.transition(StateFailed)
			s.discardUploads(traceCtx, sub)
			err = fmt.Errorf("%w: %w", internal.ErrUploadFailed, err)
			logger.Error("Failed to upload submitted files", zap.String("form_id", formID.String()), zap.Error(err))
			span.RecordError(err)
			return Result{State: sub.State()}, err
		}
	}

	sub.transition(StatePersisting)
	record, err := s.responseStore.Create(traceCtx, formID, sub.answers())
	if err != nil {
		sub.transition(StateFailed)

		var partial response.PartialWriteError
		if errors.As(err, &partial) {
			logger.Error("Response stored with missing answers",
				zap.String("form_id", formID.String()),
				zap.String("response_id", partial.ResponseID.String()),
				zap.String("field_id", partial.FieldID.String()),
				zap.Error(err))
		} else {
			s.discardUploads(traceCtx, sub)
		}

		err = fmt.Errorf("%w: %w", internal.ErrPersistFailed, err)
		span.RecordError(err)
		return Result{State: sub.State(), ResponseID: partial.ResponseID}, err
	}

	sub.transition(StateCompleted)
	logger.Info("Submission completed",
		zap.String("form_id", formID.String()),
		zap.String("response_id", record.ID.String()),
		zap.Int("uploads", len(sub.uploads)))

	return Result{State: sub.State(), ResponseID: record.ID}, nil
}

// validate runs every schema field through the registry and rejects answer
// keys the schema does not know.
func validate(sub *Submission) error {
	verr := &field.ValidationError{}
	known := make(map[string]bool, len(sub.schema.Fields))

	for _, f := range sub.schema.Fields {
		key := f.ID.String()
		known[key] = true

		value := sub.Answers[key]
		if field.IsAsset(f.Kind) {
			// Respondents can only attach files, never point at existing URIs.
			value = field.Value{File: value.File}
		}

		canonical, err := field.Validate(f.Kind, value, f.Required)
		if err != nil {
			verr.Add(f.ID, f.Label, err)
			continue
		}
		sub.values[f.ID] = canonical
	}

	for _, key := range slices.Sorted(maps.Keys(sub.Answers)) {
		if known[key] {
			continue
		}
		id, err := uuid.Parse(key)
		if err != nil {
			verr.Add(uuid.Nil, key, field.Violation{Reason: field.ReasonUnknownField})
			continue
		}
		verr.Add(id, "", field.Violation{Reason: field.ReasonUnknownField})
	}

	if !verr.Empty() {
		return verr
	}
	return nil
}

func (s *Service) upload(ctx context.Context, sub *Submission, jobs []uploadJob) error {
	objects := make([]file.Object, len(jobs))

	put := func(ctx context.Context, i int) error {
		job := jobs[i]
		obj, err := s.blobStore.Put(ctx,
			assetPath(sub.FormID, job.upload.Filename),
			job.upload.Reader,
			job.upload.ContentType,
			file.WithImageFormats(),
			file.WithMaxSize(s.maxUploadSize),
		)
		if err != nil {
			return fmt.Errorf("field %s (%s): %w", job.field.ID, job.field.Label, err)
		}
		objects[i] = obj
		return nil
	}

	var err error
	if s.uploadConcurrency <= 1 {
		for i := range jobs {
			if err = put(ctx, i); err != nil {
				break
			}
		}
	} else {
		g, groupCtx := errgroup.WithContext(ctx)
		g.SetLimit(s.uploadConcurrency)
		for i := range jobs {
			g.Go(func() error {
				return put(groupCtx, i)
			})
		}
		err = g.Wait()
	}

	for i, obj := range objects {
		if obj.ID == uuid.Nil {
			continue
		}
		sub.uploads = append(sub.uploads, obj)
		sub.values[jobs[i].field.ID] = obj.URI
	}

	return err
}

// discardUploads removes blobs stored for a submission that will not be
// persisted. Failures are logged and otherwise ignored.
func (s *Service) discardUploads(ctx context.Context, sub *Submission) {
	for _, obj := range sub.uploads {
		if err := s.blobStore.Delete(ctx, obj.ID); err != nil {
			sub.logger.Warn("Failed to delete uploaded file", zap.String("file_id", obj.ID.String()), zap.Error(err))
		}
	}
	sub.uploads = nil
}

var extensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// assetPath builds a collision-free blob path for an upload of a form.
func assetPath(formID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extensionPattern.MatchString(ext) {
		ext = ""
	}
	return formID.String() + "/" + uuid.NewString() + ext
}
