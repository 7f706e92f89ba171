package response

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Create(ctx context.Context, formID uuid.UUID) (FormResponse, error) {
	args := m.Called(ctx, formID)
	row, _ := args.Get(0).(FormResponse)
	return row, args.Error(1)
}

func (m *mockQuerier) CreateAnswer(ctx context.Context, arg CreateAnswerParams) error {
	args := m.Called(ctx, arg)
	return args.Error(0)
}

func (m *mockQuerier) Get(ctx context.Context, arg GetParams) (FormResponse, error) {
	args := m.Called(ctx, arg)
	row, _ := args.Get(0).(FormResponse)
	return row, args.Error(1)
}

func (m *mockQuerier) ListByFormID(ctx context.Context, formID uuid.UUID) ([]FormResponse, error) {
	args := m.Called(ctx, formID)
	rows, _ := args.Get(0).([]FormResponse)
	return rows, args.Error(1)
}

func (m *mockQuerier) ListAnswersByFormID(ctx context.Context, formID uuid.UUID) ([]ResponseAnswer, error) {
	args := m.Called(ctx, formID)
	rows, _ := args.Get(0).([]ResponseAnswer)
	return rows, args.Error(1)
}

func (m *mockQuerier) ListAnswersByResponseID(ctx context.Context, responseID uuid.UUID) ([]ResponseAnswer, error) {
	args := m.Called(ctx, responseID)
	rows, _ := args.Get(0).([]ResponseAnswer)
	return rows, args.Error(1)
}

func (m *mockQuerier) UpsertAnswer(ctx context.Context, arg UpsertAnswerParams) (ResponseAnswer, error) {
	args := m.Called(ctx, arg)
	row, _ := args.Get(0).(ResponseAnswer)
	return row, args.Error(1)
}

func (m *mockQuerier) Delete(ctx context.Context, arg DeleteParams) (int64, error) {
	args := m.Called(ctx, arg)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func newTestService(t *testing.T) (*Service, *mockQuerier) {
	t.Helper()
	q := new(mockQuerier)
	return &Service{
		logger:  zap.NewNop(),
		queries: q,
		tracer:  noop.NewTracerProvider().Tracer("test"),
	}, q
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func TestService_Create(t *testing.T) {
	formID := uuid.New()
	responseID := uuid.New()
	nameID, ageID := uuid.New(), uuid.New()
	answers := []Answer{{FieldID: nameID, Value: "Ann"}, {FieldID: ageID, Value: "30"}}

	t.Run("Should store response then every answer", func(t *testing.T) {
		svc, q := newTestService(t)
		q.On("Create", mock.Anything, formID).Return(FormResponse{ID: responseID, FormID: formID}, nil)
		q.On("CreateAnswer", mock.Anything, CreateAnswerParams{ResponseID: responseID, FieldID: nameID, Value: "Ann"}).Return(nil)
		q.On("CreateAnswer", mock.Anything, CreateAnswerParams{ResponseID: responseID, FieldID: ageID, Value: "30"}).Return(nil)

		record, err := svc.Create(context.Background(), formID, answers)
		require.NoError(t, err)
		require.Equal(t, responseID, record.ID)
		require.Equal(t, map[uuid.UUID]string{nameID: "Ann", ageID: "30"}, record.Answers)
		q.AssertExpectations(t)
	})

	t.Run("Should report partial write when an answer fails", func(t *testing.T) {
		svc, q := newTestService(t)
		q.On("Create", mock.Anything, formID).Return(FormResponse{ID: responseID, FormID: formID}, nil)
		q.On("CreateAnswer", mock.Anything, CreateAnswerParams{ResponseID: responseID, FieldID: nameID, Value: "Ann"}).Return(nil)
		q.On("CreateAnswer", mock.Anything, CreateAnswerParams{ResponseID: responseID, FieldID: ageID, Value: "30"}).Return(errors.New("connection reset"))

		record, err := svc.Create(context.Background(), formID, answers)

		var partial PartialWriteError
		require.ErrorAs(t, err, &partial)
		require.Equal(t, responseID, partial.ResponseID)
		require.Equal(t, ageID, partial.FieldID)
		require.Equal(t, map[uuid.UUID]string{nameID: "Ann"}, record.Answers)
	})

	t.Run("Should not write answers when the response row fails", func(t *testing.T) {
		svc, q := newTestService(t)
		q.On("Create", mock.Anything, formID).Return(FormResponse{}, errors.New("connection reset"))

		_, err := svc.Create(context.Background(), formID, answers)
		require.Error(t, err)

		var partial PartialWriteError
		require.False(t, errors.As(err, &partial))
		q.AssertNotCalled(t, "CreateAnswer", mock.Anything, mock.Anything)
	})
}

func TestService_ListByFormID(t *testing.T) {
	svc, q := newTestService(t)
	formID := uuid.New()
	newer, older := uuid.New(), uuid.New()
	fieldID, orphanID := uuid.New(), uuid.New()
	now := time.Now()

	q.On("ListByFormID", mock.Anything, formID).Return([]FormResponse{
		{ID: newer, FormID: formID, SubmittedAt: timestamptz(now)},
		{ID: older, FormID: formID, SubmittedAt: timestamptz(now.Add(-time.Hour))},
	}, nil)
	q.On("ListAnswersByFormID", mock.Anything, formID).Return([]ResponseAnswer{
		{ResponseID: older, FieldID: fieldID, Value: "Bob"},
		{ResponseID: older, FieldID: orphanID, Value: "kept"},
	}, nil)

	records, err := svc.ListByFormID(context.Background(), formID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, newer, records[0].ID)
	require.Empty(t, records[0].Answers)
	require.NotNil(t, records[0].Answers)
	require.Equal(t, "Bob", records[1].Answers[fieldID])
	require.Equal(t, "kept", records[1].Answers[orphanID])
}

func TestService_UpdateAnswers(t *testing.T) {
	formID := uuid.New()
	responseID := uuid.New()
	ageID, photoID := uuid.New(), uuid.New()

	schema := form.Schema{
		ID: formID,
		Fields: []form.Field{
			{ID: ageID, Label: "Age", Kind: field.KindNumber, Required: true},
			{ID: photoID, Label: "Photo", Kind: field.KindImage, Required: true},
		},
	}

	tests := []struct {
		name    string
		values  map[string]string
		setup   func(q *mockQuerier)
		reasons []field.Reason
		verify  func(t *testing.T, record Record)
	}{
		{
			name:   "Should upsert valid values",
			values: map[string]string{ageID.String(): " 42 ", photoID.String(): "http://localhost/api/files/1"},
			setup: func(q *mockQuerier) {
				q.On("UpsertAnswer", mock.Anything, UpsertAnswerParams{ResponseID: responseID, FieldID: ageID, Value: "42"}).
					Return(ResponseAnswer{ResponseID: responseID, FieldID: ageID, Value: "42"}, nil)
				q.On("UpsertAnswer", mock.Anything, UpsertAnswerParams{ResponseID: responseID, FieldID: photoID, Value: "http://localhost/api/files/1"}).
					Return(ResponseAnswer{ResponseID: responseID, FieldID: photoID, Value: "http://localhost/api/files/1"}, nil)
			},
			verify: func(t *testing.T, record Record) {
				require.Equal(t, "42", record.Answers[ageID])
				require.Equal(t, "http://localhost/api/files/1", record.Answers[photoID])
			},
		},
		{
			name:    "Should reject non-numeric value",
			values:  map[string]string{ageID.String(): "forty"},
			reasons: []field.Reason{field.ReasonNotNumeric},
		},
		{
			name:    "Should reject clearing a required image",
			values:  map[string]string{photoID.String(): ""},
			reasons: []field.Reason{field.ReasonMissingRequired},
		},
		{
			name:    "Should reject unknown fields",
			values:  map[string]string{uuid.NewString(): "x", "not-a-uuid": "y"},
			reasons: []field.Reason{field.ReasonUnknownField, field.ReasonUnknownField},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, q := newTestService(t)
			q.On("Get", mock.Anything, GetParams{ID: responseID, FormID: formID}).Return(FormResponse{ID: responseID, FormID: formID}, nil)
			q.On("ListAnswersByResponseID", mock.Anything, responseID).Return([]ResponseAnswer{}, nil)
			if tt.setup != nil {
				tt.setup(q)
			}

			record, err := svc.UpdateAnswers(context.Background(), schema, responseID, tt.values)

			if len(tt.reasons) > 0 {
				var verr *field.ValidationError
				require.ErrorAs(t, err, &verr)
				require.ErrorIs(t, err, internal.ErrValidationFailed)
				require.Len(t, verr.Fields, len(tt.reasons))
				for i, reason := range tt.reasons {
					require.Equal(t, reason, verr.Fields[i].Reason)
				}
				q.AssertNotCalled(t, "UpsertAnswer", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			tt.verify(t, record)
			q.AssertExpectations(t)
		})
	}
}

func TestService_UpdateAnswers_ResponseNotFound(t *testing.T) {
	svc, q := newTestService(t)
	formID, responseID := uuid.New(), uuid.New()
	q.On("Get", mock.Anything, GetParams{ID: responseID, FormID: formID}).Return(FormResponse{}, pgx.ErrNoRows)

	_, err := svc.UpdateAnswers(context.Background(), form.Schema{ID: formID}, responseID, map[string]string{"a": "b"})
	require.ErrorIs(t, err, internal.ErrResponseNotFound)
}

func TestService_Delete(t *testing.T) {
	svc, q := newTestService(t)
	formID := uuid.New()
	existing, missing := uuid.New(), uuid.New()

	q.On("Delete", mock.Anything, DeleteParams{ID: existing, FormID: formID}).Return(int64(1), nil)
	q.On("Delete", mock.Anything, DeleteParams{ID: missing, FormID: formID}).Return(int64(0), nil)

	require.NoError(t, svc.Delete(context.Background(), formID, existing))
	require.ErrorIs(t, svc.Delete(context.Background(), formID, missing), internal.ErrResponseNotFound)
}
