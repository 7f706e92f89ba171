package export

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"NYCU-SDC/form-collector-backend/internal/form/response"
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

type AssetFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ArchiveStats counts what went into an image archive.
type ArchiveStats struct {
	Collected int
	Failed    int
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// EntryName names an archived image after its submission date, the field
// label and its position among collected images.
func EntryName(record response.Record, label string, seq int) string {
	return fmt.Sprintf("%s_%s_%d.jpg",
		record.SubmittedAt.UTC().Format("2006-01-02"),
		nonAlphanumeric.ReplaceAllString(label, "_"),
		seq,
	)
}

// BuildImageArchive fetches every image answer and packs the images into a
// ZIP archive. Images that cannot be fetched are logged and skipped. An
// archive without entries is never produced.
func BuildImageArchive(ctx context.Context, logger *zap.Logger, fetcher AssetFetcher, schema form.Schema, records []response.Record) ([]byte, ArchiveStats, error) {
	var imageFields []form.Field
	for _, f := range orderedFields(schema) {
		if field.IsAsset(f.Kind) {
			imageFields = append(imageFields, f)
		}
	}
	if len(imageFields) == 0 {
		return nil, ArchiveStats{}, fmt.Errorf("%w: form has no image fields", internal.ErrExportNoContent)
	}

	var (
		buf   bytes.Buffer
		stats ArchiveStats
	)
	writer := zip.NewWriter(&buf)

	for _, record := range records {
		for _, f := range imageFields {
			uri := record.Answers[f.ID]
			if uri == "" {
				continue
			}

			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}

			data, err := fetcher.Fetch(ctx, uri)
			if err != nil {
				stats.Failed++
				logger.Warn("Skipping image that could not be fetched",
					zap.String("response_id", record.ID.String()),
					zap.String("field_id", f.ID.String()),
					zap.String("uri", uri),
					zap.Error(err))
				continue
			}

			entry, err := writer.Create(EntryName(record, f.Label, stats.Collected))
			if err != nil {
				return nil, stats, err
			}
			if _, err := entry.Write(data); err != nil {
				return nil, stats, err
			}
			stats.Collected++
		}
	}

	if err := writer.Close(); err != nil {
		return nil, stats, err
	}

	if stats.Collected == 0 {
		return nil, stats, fmt.Errorf("%w: no images found", internal.ErrExportNoContent)
	}

	return buf.Bytes(), stats, nil
}
