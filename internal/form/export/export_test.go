package export

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"NYCU-SDC/form-collector-backend/internal/form/response"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	nameFieldID  = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	photoFieldID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	emailFieldID = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

func testSchema() form.Schema {
	return form.Schema{
		ID:    uuid.MustParse("10000000-0000-0000-0000-000000000000"),
		Title: "Club Signup",
		// Stored out of order on purpose.
		Fields: []form.Field{
			{ID: photoFieldID, Label: "Profile Photo", Kind: field.KindImage, Order: 2},
			{ID: nameFieldID, Label: "Name", Kind: field.KindText, Order: 0},
			{ID: emailFieldID, Label: "Email", Kind: field.KindEmail, Order: 1},
		},
	}
}

func testRecords() []response.Record {
	return []response.Record{
		{
			ID:          uuid.MustParse("20000000-0000-0000-0000-000000000001"),
			SubmittedAt: time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC),
			Answers: map[uuid.UUID]string{
				nameFieldID:  `Ann "the" Coder`,
				photoFieldID: "https://cdn.example.com/a.jpg",
				emailFieldID: "ann@example.com",
			},
		},
		{
			ID:          uuid.MustParse("20000000-0000-0000-0000-000000000002"),
			SubmittedAt: time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC),
			Answers: map[uuid.UUID]string{
				nameFieldID: "Bob",
				// Answer to a field that was removed from the form.
				uuid.MustParse("00000000-0000-0000-0000-0000000000ff"): "orphan",
			},
		},
	}
}

func TestToTable(t *testing.T) {
	taipei := time.FixedZone("Asia/Taipei", 8*60*60)

	testCases := []struct {
		name     string
		opts     TableOptions
		expected [][]string
	}{
		{
			name: "Should render view table with dash for missing answers",
			opts: TableOptions{Location: time.UTC, EmptyCell: EmptyViewCell},
			expected: [][]string{
				{SubmittedAtHeader, "Name", "Email", "Profile Photo"},
				{"2024-03-01 16:30:00", `Ann "the" Coder`, "ann@example.com", "https://cdn.example.com/a.jpg"},
				{"2024-03-02 01:00:00", "Bob", "-", "-"},
			},
		},
		{
			name: "Should render file table in configured timezone",
			opts: TableOptions{Location: taipei, EmptyCell: EmptyFileCell},
			expected: [][]string{
				{SubmittedAtHeader, "Name", "Email", "Profile Photo"},
				{"2024-03-02 00:30:00", `Ann "the" Coder`, "ann@example.com", "https://cdn.example.com/a.jpg"},
				{"2024-03-02 09:00:00", "Bob", "", ""},
			},
		},
		{
			name: "Should default to UTC when location is nil",
			opts: TableOptions{EmptyCell: EmptyFileCell},
			expected: [][]string{
				{SubmittedAtHeader, "Name", "Email", "Profile Photo"},
				{"2024-03-01 16:30:00", `Ann "the" Coder`, "ann@example.com", "https://cdn.example.com/a.jpg"},
				{"2024-03-02 01:00:00", "Bob", "", ""},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rows := ToTable(testSchema(), testRecords(), tc.opts)
			if diff := cmp.Diff(tc.expected, rows); diff != "" {
				t.Errorf("ToTable() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToTable_NoResponses(t *testing.T) {
	rows := ToTable(testSchema(), nil, TableOptions{})
	require.Len(t, rows, 1)
	require.Equal(t, []string{SubmittedAtHeader, "Name", "Email", "Profile Photo"}, rows[0])
}

func TestWriteCSV(t *testing.T) {
	testCases := []struct {
		name     string
		rows     [][]string
		expected string
	}{
		{
			name:     "Should quote every cell",
			rows:     [][]string{{"a", "b"}, {"1", ""}},
			expected: "\"a\",\"b\"\n\"1\",\"\"",
		},
		{
			name:     "Should double embedded quotes",
			rows:     [][]string{{`say "hi"`}},
			expected: `"say ""hi"""`,
		},
		{
			name:     "Should keep commas and newlines inside quotes",
			rows:     [][]string{{"a,b", "line1\nline2"}},
			expected: "\"a,b\",\"line1\nline2\"",
		},
		{
			name:     "Should write nothing for no rows",
			rows:     nil,
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, tc.rows))
			require.Equal(t, tc.expected, buf.String())
		})
	}
}

func TestWriteXLSX(t *testing.T) {
	schema := testSchema()
	rows := ToTable(schema, testRecords(), TableOptions{Location: time.UTC, EmptyCell: EmptyFileCell})

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, schema, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() {
		_ = f.Close()
	}()

	require.Equal(t, []string{SheetName}, f.GetSheetList())

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Equal(t, rows[0], got[0])
	require.Equal(t, rows[1], got[1])
	require.Equal(t, []string{"2024-03-02 01:00:00", "Bob"}, got[2][:2])

	linked, target, err := f.GetCellHyperLink(SheetName, "D2")
	require.NoError(t, err)
	require.True(t, linked)
	require.Equal(t, "https://cdn.example.com/a.jpg", target)

	linked, _, err = f.GetCellHyperLink(SheetName, "D1")
	require.NoError(t, err)
	require.False(t, linked)
}

type stubFetcher struct {
	assets map[string][]byte
	calls  []string
}

func (s *stubFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	s.calls = append(s.calls, uri)
	data, ok := s.assets[uri]
	if !ok {
		return nil, internal.ErrFetchAsset
	}
	return data, nil
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string]string)
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		entries[file.Name] = string(content)
	}
	return entries
}

func TestEntryName(t *testing.T) {
	record := response.Record{SubmittedAt: time.Date(2024, 3, 1, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*60*60))}
	got := EntryName(record, "Profile Photo (front)", 3)
	if got != "2024-03-02_Profile_Photo__front__3.jpg" {
		t.Errorf("EntryName() = %q", got)
	}
}

func TestBuildImageArchive(t *testing.T) {
	schema := testSchema()
	records := []response.Record{
		{
			ID:          uuid.New(),
			SubmittedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Answers:     map[uuid.UUID]string{photoFieldID: "https://cdn.example.com/missing.jpg"},
		},
		{
			ID:          uuid.New(),
			SubmittedAt: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
			Answers:     map[uuid.UUID]string{photoFieldID: "https://cdn.example.com/b.jpg"},
		},
		{
			ID:          uuid.New(),
			SubmittedAt: time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC),
			Answers:     map[uuid.UUID]string{nameFieldID: "no photo"},
		},
		{
			ID:          uuid.New(),
			SubmittedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
			Answers:     map[uuid.UUID]string{photoFieldID: "https://cdn.example.com/c.jpg"},
		},
	}

	t.Run("Should skip unreachable images and number the rest", func(t *testing.T) {
		fetcher := &stubFetcher{assets: map[string][]byte{
			"https://cdn.example.com/b.jpg": []byte("bbb"),
			"https://cdn.example.com/c.jpg": []byte("ccc"),
		}}

		data, stats, err := BuildImageArchive(context.Background(), zap.NewNop(), fetcher, schema, records)
		require.NoError(t, err)
		require.Equal(t, ArchiveStats{Collected: 2, Failed: 1}, stats)
		require.Len(t, fetcher.calls, 3)

		expected := map[string]string{
			"2024-03-02_Profile_Photo_0.jpg": "bbb",
			"2024-03-04_Profile_Photo_1.jpg": "ccc",
		}
		if diff := cmp.Diff(expected, readArchive(t, data)); diff != "" {
			t.Errorf("archive mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Should report no content when nothing could be fetched", func(t *testing.T) {
		_, stats, err := BuildImageArchive(context.Background(), zap.NewNop(), &stubFetcher{}, schema, records)
		require.ErrorIs(t, err, internal.ErrExportNoContent)
		require.Equal(t, 3, stats.Failed)
	})

	t.Run("Should report no content for forms without image fields", func(t *testing.T) {
		textOnly := form.Schema{Fields: []form.Field{{ID: nameFieldID, Label: "Name", Kind: field.KindText}}}
		fetcher := &stubFetcher{}

		_, _, err := BuildImageArchive(context.Background(), zap.NewNop(), fetcher, textOnly, records)
		require.ErrorIs(t, err, internal.ErrExportNoContent)
		require.Empty(t, fetcher.calls)
	})

	t.Run("Should stop when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := BuildImageArchive(ctx, zap.NewNop(), &stubFetcher{}, schema, records)
		require.True(t, errors.Is(err, context.Canceled))
	})
}
