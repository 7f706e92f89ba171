package response

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, formID uuid.UUID) (FormResponse, error)
	CreateAnswer(ctx context.Context, arg CreateAnswerParams) error
	Get(ctx context.Context, arg GetParams) (FormResponse, error)
	ListByFormID(ctx context.Context, formID uuid.UUID) ([]FormResponse, error)
	ListAnswersByFormID(ctx context.Context, formID uuid.UUID) ([]ResponseAnswer, error)
	ListAnswersByResponseID(ctx context.Context, responseID uuid.UUID) ([]ResponseAnswer, error)
	UpsertAnswer(ctx context.Context, arg UpsertAnswerParams) (ResponseAnswer, error)
	Delete(ctx context.Context, arg DeleteParams) (int64, error)
}

type Answer struct {
	FieldID uuid.UUID
	Value   string
}

// Record is one submission with its answers keyed by field id. Answers to
// fields no longer in the schema stay in the map.
type Record struct {
	ID          uuid.UUID
	FormID      uuid.UUID
	SubmittedAt time.Time
	Answers     map[uuid.UUID]string
}

// PartialWriteError reports a response row that was stored while one of its
// answers was not.
type PartialWriteError struct {
	ResponseID uuid.UUID
	FieldID    uuid.UUID
	Err        error
}

func (e PartialWriteError) Error() string {
	return fmt.Sprintf("response %s stored without answer for field %s: %v", e.ResponseID, e.FieldID, e.Err)
}

func (e PartialWriteError) Unwrap() error {
	return e.Err
}

type Service struct {
	logger  *zap.Logger
	queries Querier
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db DBTX) *Service {
	return &Service{
		logger:  logger,
		queries: New(db),
		tracer:  otel.Tracer("response/service"),
	}
}

// Create stores a response row and then each answer in order. When an answer
// fails the response row is left in place and a PartialWriteError is returned.
func (s *Service) Create(ctx context.Context, formID uuid.UUID, answers []Answer) (Record, error) {
	traceCtx, span := s.tracer.Start(ctx, "Create")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	tracker := logutil.StartDBOperation(traceCtx, logger, "Create", map[string]interface{}{
		"form_id":      formID.String(),
		"answer_count": len(answers),
	})

	row, err := s.queries.Create(traceCtx, formID)
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "create response")
		span.RecordError(err)
		return Record{}, err
	}

	record := Record{
		ID:          row.ID,
		FormID:      row.FormID,
		SubmittedAt: row.SubmittedAt.Time,
		Answers:     make(map[uuid.UUID]string, len(answers)),
	}

	for _, answer := range answers {
		err = s.queries.CreateAnswer(traceCtx, CreateAnswerParams{
			ResponseID: row.ID,
			FieldID:    answer.FieldID,
			Value:      answer.Value,
		})
		if err != nil {
			err = PartialWriteError{
				ResponseID: row.ID,
				FieldID:    answer.FieldID,
				Err:        databaseutil.WrapDBErrorWithTracker(err, tracker, "create answer"),
			}
			span.RecordError(err)
			return record, err
		}
		record.Answers[answer.FieldID] = answer.Value
	}

	tracker.SuccessWrite(row.ID.String())

	return record, nil
}

// ListByFormID returns every response of a form, newest first.
func (s *Service) ListByFormID(ctx context.Context, formID uuid.UUID) ([]Record, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListByFormID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	tracker := logutil.StartDBOperation(traceCtx, logger, "ListByFormID", map[string]interface{}{
		"form_id": formID.String(),
	})

	rows, err := s.queries.ListByFormID(traceCtx, formID)
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "list responses by form id")
		span.RecordError(err)
		return nil, err
	}

	answers, err := s.queries.ListAnswersByFormID(traceCtx, formID)
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "list answers by form id")
		span.RecordError(err)
		return nil, err
	}

	tracker.SuccessRead(len(rows), formID.String())

	byResponse := make(map[uuid.UUID]map[uuid.UUID]string, len(rows))
	for _, a := range answers {
		if byResponse[a.ResponseID] == nil {
			byResponse[a.ResponseID] = make(map[uuid.UUID]string)
		}
		byResponse[a.ResponseID][a.FieldID] = a.Value
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		values := byResponse[row.ID]
		if values == nil {
			values = map[uuid.UUID]string{}
		}
		records = append(records, Record{
			ID:          row.ID,
			FormID:      row.FormID,
			SubmittedAt: row.SubmittedAt.Time,
			Answers:     values,
		})
	}

	return records, nil
}

func (s *Service) Get(ctx context.Context, formID uuid.UUID, id uuid.UUID) (Record, error) {
	traceCtx, span := s.tracer.Start(ctx, "Get")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	record, err := s.get(traceCtx, formID, id)
	if err != nil {
		if !errors.Is(err, internal.ErrResponseNotFound) {
			err = databaseutil.WrapDBError(err, logger, "get response")
		}
		span.RecordError(err)
		return Record{}, err
	}

	return record, nil
}

// UpdateAnswers validates the edited values against the current schema and
// upserts them. Keys are field ids; nothing is written when any value fails.
func (s *Service) UpdateAnswers(ctx context.Context, schema form.Schema, id uuid.UUID, values map[string]string) (Record, error) {
	traceCtx, span := s.tracer.Start(ctx, "UpdateAnswers")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	record, err := s.get(traceCtx, schema.ID, id)
	if err != nil {
		if !errors.Is(err, internal.ErrResponseNotFound) {
			err = databaseutil.WrapDBError(err, logger, "get response for update")
		}
		span.RecordError(err)
		return Record{}, err
	}

	answers, err := validateEdits(schema, values)
	if err != nil {
		span.RecordError(err)
		return Record{}, err
	}

	tracker := logutil.StartDBOperation(traceCtx, logger, "UpdateAnswers", map[string]interface{}{
		"response_id":  id.String(),
		"answer_count": len(answers),
	})

	for _, answer := range answers {
		row, err := s.queries.UpsertAnswer(traceCtx, UpsertAnswerParams{
			ResponseID: id,
			FieldID:    answer.FieldID,
			Value:      answer.Value,
		})
		if err != nil {
			err = databaseutil.WrapDBErrorWithTracker(err, tracker, "upsert answer")
			span.RecordError(err)
			return Record{}, err
		}
		record.Answers[row.FieldID] = row.Value
	}

	tracker.SuccessWriteBulk(len(answers))

	return record, nil
}

func (s *Service) Delete(ctx context.Context, formID uuid.UUID, id uuid.UUID) error {
	traceCtx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	tracker := logutil.StartDBOperation(traceCtx, logger, "Delete", map[string]interface{}{
		"form_id": formID.String(),
		"id":      id.String(),
	})

	affected, err := s.queries.Delete(traceCtx, DeleteParams{ID: id, FormID: formID})
	if err != nil {
		err = databaseutil.WrapDBErrorWithTracker(err, tracker, "delete response")
		span.RecordError(err)
		return err
	}
	if affected == 0 {
		span.RecordError(internal.ErrResponseNotFound)
		return internal.ErrResponseNotFound
	}

	tracker.SuccessWrite(id.String())

	return nil
}

func (s *Service) get(ctx context.Context, formID uuid.UUID, id uuid.UUID) (Record, error) {
	row, err := s.queries.Get(ctx, GetParams{ID: id, FormID: formID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, internal.ErrResponseNotFound
		}
		return Record{}, err
	}

	answers, err := s.queries.ListAnswersByResponseID(ctx, id)
	if err != nil {
		return Record{}, err
	}

	values := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		values[a.FieldID] = a.Value
	}

	return Record{
		ID:          row.ID,
		FormID:      row.FormID,
		SubmittedAt: row.SubmittedAt.Time,
		Answers:     values,
	}, nil
}

func validateEdits(schema form.Schema, values map[string]string) ([]Answer, error) {
	verr := &field.ValidationError{}
	answers := make([]Answer, 0, len(values))

	for _, key := range slices.Sorted(maps.Keys(values)) {
		value := values[key]
		id, err := uuid.Parse(key)
		if err != nil {
			verr.Add(uuid.Nil, key, field.Violation{Reason: field.ReasonUnknownField})
			continue
		}

		f, ok := schema.FieldByID(id)
		if !ok {
			verr.Add(id, "", field.Violation{Reason: field.ReasonUnknownField})
			continue
		}

		canonical, err := field.Validate(f.Kind, field.Value{Text: value}, f.Required)
		if err != nil {
			verr.Add(f.ID, f.Label, err)
			continue
		}

		answers = append(answers, Answer{FieldID: f.ID, Value: canonical})
	}

	if !verr.Empty() {
		return nil, verr
	}
	return answers, nil
}
