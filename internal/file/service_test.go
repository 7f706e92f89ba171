package file

import (
	"NYCU-SDC/form-collector-backend/internal"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
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

func (m *mockQuerier) Create(ctx context.Context, arg CreateParams) (CreateRow, error) {
	args := m.Called(ctx, arg)
	row, _ := args.Get(0).(CreateRow)
	return row, args.Error(1)
}

func (m *mockQuerier) GetByID(ctx context.Context, id uuid.UUID) (File, error) {
	args := m.Called(ctx, id)
	row, _ := args.Get(0).(File)
	return row, args.Error(1)
}

func (m *mockQuerier) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService(t *testing.T) (*Service, *mockQuerier) {
	t.Helper()
	q := new(mockQuerier)
	return &Service{
		logger:    zap.NewNop(),
		queries:   q,
		tracer:    noop.NewTracerProvider().Tracer("test"),
		validator: NewValidator(),
		uriPrefix: "http://localhost:8080/api/files/",
	}, q
}

func TestService_Put(t *testing.T) {
	svc, q := newTestService(t)
	id := uuid.New()
	path := uuid.NewString() + "/" + uuid.NewString() + ".png"

	q.On("Create", mock.Anything, CreateParams{
		Path:        path,
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
		Data:        pngBytes,
	}).Return(CreateRow{ID: id, Path: path, ContentType: "image/png", Size: int64(len(pngBytes))}, nil)

	obj, err := svc.Put(context.Background(), path, bytes.NewReader(pngBytes), "", WithImageFormats())
	require.NoError(t, err)
	require.Equal(t, id, obj.ID)
	require.Equal(t, "http://localhost:8080/api/files/"+id.String(), obj.URI)
	require.True(t, svc.Owns(obj.URI))
	q.AssertExpectations(t)
}

func TestService_Put_RejectsBeforeWriting(t *testing.T) {
	svc, q := newTestService(t)

	_, err := svc.Put(context.Background(), "a/b.png", bytes.NewReader([]byte("not an image")), "image/png", WithImageFormats())
	require.ErrorIs(t, err, internal.ErrInvalidImageFormat)
	q.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Get(t *testing.T) {
	svc, q := newTestService(t)
	id := uuid.New()
	missing := uuid.New()

	q.On("GetByID", mock.Anything, id).Return(File{ID: id, Data: pngBytes}, nil)
	q.On("GetByID", mock.Anything, missing).Return(File{}, pgx.ErrNoRows)

	data, err := svc.Get(context.Background(), svc.URI(id))
	require.NoError(t, err)
	require.Equal(t, pngBytes, data)

	_, err = svc.Get(context.Background(), svc.URI(missing))
	require.ErrorIs(t, err, internal.ErrFileNotFound)

	_, err = svc.Get(context.Background(), "https://elsewhere.example.com/api/files/"+id.String())
	require.ErrorIs(t, err, internal.ErrFileNotFound)
	require.False(t, svc.Owns("http://localhost:8080/api/files/not-a-uuid"))
}

type stubStore struct {
	file File
	err  error
}

func (s stubStore) GetByID(context.Context, uuid.UUID) (File, error) {
	return s.file, s.err
}

func TestHandler_Download(t *testing.T) {
	id := uuid.New()
	store := stubStore{file: File{
		ID:          id,
		Path:        "form/" + id.String() + ".png",
		ContentType: "image/png",
		Size:        int64(len(pngBytes)),
		Data:        pngBytes,
		CreatedAt:   pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}}
	h := NewHandler(zap.NewNop(), internal.NewProblemWriter(), store)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files/{id}", h.Download)

	req := httptest.NewRequest(http.MethodGet, "/api/files/"+id.String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, pngBytes, rec.Body.Bytes())

	req = httptest.NewRequest(http.MethodGet, "/api/files/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
