package form

import (
	"NYCU-SDC/form-collector-backend/internal"
	"context"
	"errors"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (Form, error)
	Update(ctx context.Context, arg UpdateParams) (Form, error)
	SetActive(ctx context.Context, arg SetActiveParams) (Form, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Form, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (Form, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]ListByOwnerRow, error)
	ListFieldsByFormID(ctx context.Context, formID uuid.UUID) ([]FormField, error)
	DeleteFieldsByFormID(ctx context.Context, formID uuid.UUID) error
	CreateFields(ctx context.Context, arg CreateFieldsParams) ([]FormField, error)
}

// TxRunner runs fn inside one database transaction, committing when fn
// returns nil and rolling back otherwise.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q Querier) error) error
}

// Database is a connection that can open transactions, satisfied by *pgxpool.Pool.
type Database interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

type pgxTxRunner struct {
	db Database
}

func (r pgxTxRunner) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(New(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type Service struct {
	logger  *zap.Logger
	queries Querier
	tx      TxRunner
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db Database) *Service {
	return &Service{
		logger:  logger,
		queries: New(db),
		tx:      pgxTxRunner{db: db},
		tracer:  otel.Tracer("form/service"),
	}
}

// Create stores a new active form with its fields in one transaction.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in Input) (Schema, error) {
	traceCtx, span := s.tracer.Start(ctx, "Create")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	in, err := normalize(in)
	if err != nil {
		span.RecordError(err)
		return Schema{}, err
	}

	tracker := logutil.StartDBOperation(traceCtx, logger, "Create", map[string]interface{}{
		"owner_id":    ownerID.String(),
		"title":       in.Title,
		"field_count": len(in.Fields),
	})

	var schema Schema
	err = s.tx.InTx(traceCtx, func(q Querier) error {
		header, err := q.Create(traceCtx, CreateParams{
			Title:       in.Title,
			Description: pgtype.Text{String: in.Description, Valid: in.Description != ""},
			OwnerID:     ownerID,
		})
		if err != nil {
			return err
		}

		params, err := buildFieldsParams(header.ID, in.Fields, nil)
		if err != nil {
			return err
		}

		rows, err := q.CreateFields(traceCtx, params)
		if err != nil {
			return err
		}

		schema = toSchema(header, rows)
		return nil
	})
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "create form")
		span.RecordError(err)
		return Schema{}, err
	}

	tracker.SuccessWrite(schema.ID.String())

	return schema, nil
}

// Replace overwrites the header and the whole field list of a form. Either
// every change is visible afterwards or none is.
func (s *Service) Replace(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, in Input) (Schema, error) {
	traceCtx, span := s.tracer.Start(ctx, "Replace")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	in, err := normalize(in)
	if err != nil {
		span.RecordError(err)
		return Schema{}, err
	}

	tracker := logutil.StartDBOperation(traceCtx, logger, "Replace", map[string]interface{}{
		"id":          id.String(),
		"owner_id":    ownerID.String(),
		"field_count": len(in.Fields),
	})

	var schema Schema
	err = s.tx.InTx(traceCtx, func(q Querier) error {
		current, err := q.GetByIDForUpdate(traceCtx, id)
		if err != nil {
			return notFound(err)
		}
		if current.OwnerID != ownerID {
			return internal.ErrFormNotFound
		}

		existing, err := q.ListFieldsByFormID(traceCtx, id)
		if err != nil {
			return err
		}
		owned := make(map[uuid.UUID]bool, len(existing))
		for _, f := range existing {
			owned[f.ID] = true
		}

		header, err := q.Update(traceCtx, UpdateParams{
			ID:          id,
			Title:       in.Title,
			Description: pgtype.Text{String: in.Description, Valid: in.Description != ""},
		})
		if err != nil {
			return err
		}

		err = q.DeleteFieldsByFormID(traceCtx, id)
		if err != nil {
			return err
		}

		params, err := buildFieldsParams(id, in.Fields, owned)
		if err != nil {
			return err
		}

		rows, err := q.CreateFields(traceCtx, params)
		if err != nil {
			return err
		}

		schema = toSchema(header, rows)
		return nil
	})
	if err != nil {
		if !errors.Is(err, internal.ErrFormNotFound) {
			err = databaseutil.WrapDBErrorWithTracker(err, tracker, "replace form")
		}
		span.RecordError(err)
		return Schema{}, err
	}

	tracker.SuccessWrite(id.String())

	return schema, nil
}

// SetActive opens or closes a form for public submissions.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, ownerID uuid.UUID, active bool) (Schema, error) {
	traceCtx, span := s.tracer.Start(ctx, "SetActive")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	_, err := s.owned(traceCtx, id, ownerID)
	if err != nil {
		err = wrapError(err, logger, "get form for activation")
		span.RecordError(err)
		return Schema{}, err
	}

	tracker := logutil.StartDBOperation(traceCtx, logger, "SetActive", map[string]interface{}{
		"id":     id.String(),
		"active": active,
	})

	header, err := s.queries.SetActive(traceCtx, SetActiveParams{ID: id, Active: active})
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "set form active")
		span.RecordError(err)
		return Schema{}, err
	}

	tracker.SuccessWrite(id.String())

	fields, err := s.queries.ListFieldsByFormID(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list form fields")
		span.RecordError(err)
		return Schema{}, err
	}

	return toSchema(header, fields), nil
}

// Delete removes a form. Fields, responses and answers go with it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	traceCtx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	_, err := s.owned(traceCtx, id, ownerID)
	if err != nil {
		err = wrapError(err, logger, "get form for deletion")
		span.RecordError(err)
		return err
	}

	tracker := logutil.StartDBOperation(traceCtx, logger, "Delete", map[string]interface{}{
		"id": id.String(),
	})

	err = s.queries.Delete(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "delete form")
		span.RecordError(err)
		return err
	}

	tracker.SuccessWrite(id.String())

	return nil
}

// Get returns a form owned by the operator, active or not.
func (s *Service) Get(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (Schema, error) {
	traceCtx, span := s.tracer.Start(ctx, "Get")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	header, err := s.owned(traceCtx, id, ownerID)
	if err != nil {
		err = wrapError(err, logger, "get form")
		span.RecordError(err)
		return Schema{}, err
	}

	return s.withFields(traceCtx, logger, header)
}

// GetActive returns a form open for submissions. Inactive forms are reported
// as not found.
func (s *Service) GetActive(ctx context.Context, id uuid.UUID) (Schema, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetActive")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	header, err := s.queries.GetByID(traceCtx, id)
	if err != nil {
		err = wrapError(err, logger, "get active form")
		span.RecordError(err)
		return Schema{}, err
	}
	if !header.Active {
		logger.Debug("Form is not accepting submissions", zap.String("form_id", id.String()))
		return Schema{}, internal.ErrFormNotFound
	}

	return s.withFields(traceCtx, logger, header)
}

// ListByOwner returns the operator's forms, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Summary, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListByOwner")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	tracker := logutil.StartDBOperation(traceCtx, logger, "ListByOwner", map[string]interface{}{
		"owner_id": ownerID.String(),
	})

	rows, err := s.queries.ListByOwner(traceCtx, ownerID)
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "list forms by owner")
		span.RecordError(err)
		return nil, err
	}

	tracker.SuccessRead(len(rows), ownerID.String())

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, Summary{
			ID:            row.ID,
			Title:         row.Title,
			Description:   row.Description.String,
			Active:        row.Active,
			CreatedAt:     row.CreatedAt.Time,
			UpdatedAt:     row.UpdatedAt.Time,
			ResponseCount: row.ResponseCount,
		})
	}

	return summaries, nil
}

// owned loads a form header and hides forms of other operators.
func (s *Service) owned(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (Form, error) {
	header, err := s.queries.GetByID(ctx, id)
	if err != nil {
		return Form{}, notFound(err)
	}
	if header.OwnerID != ownerID {
		return Form{}, internal.ErrFormNotFound
	}
	return header, nil
}

func (s *Service) withFields(ctx context.Context, logger *zap.Logger, header Form) (Schema, error) {
	fields, err := s.queries.ListFieldsByFormID(ctx, header.ID)
	if err != nil {
		return Schema{}, databaseutil.WrapDBError(err, logger, "list form fields")
	}
	return toSchema(header, fields), nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return internal.ErrFormNotFound
	}
	return err
}

// wrapError passes domain errors through and wraps everything else as a
// database failure.
func wrapError(err error, logger *zap.Logger, message string) error {
	err = notFound(err)
	if errors.Is(err, internal.ErrFormNotFound) {
		return err
	}
	return databaseutil.WrapDBError(err, logger, message)
}
