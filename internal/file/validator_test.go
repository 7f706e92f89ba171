package file

import (
	"NYCU-SDC/form-collector-backend/internal"
	"bytes"
	"errors"
	"testing"
)

var (
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	webpBytes = []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")
)

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name         string
		data         []byte
		contentType  string
		opts         []ValidatorOption
		expectedType string
		expectedErr  error
	}{
		{
			name:         "Should accept PNG image",
			data:         pngBytes,
			contentType:  "image/png",
			opts:         []ValidatorOption{WithImageFormats()},
			expectedType: "image/png",
		},
		{
			name:         "Should trust magic bytes over declared type",
			data:         jpegBytes,
			contentType:  "image/png",
			opts:         []ValidatorOption{WithImageFormats()},
			expectedType: "image/jpeg",
		},
		{
			name:         "Should accept WebP without declared type",
			data:         webpBytes,
			opts:         []ValidatorOption{WithImageFormats()},
			expectedType: "image/webp",
		},
		{
			name:        "Should reject non-image content",
			data:        []byte("hello world"),
			contentType: "image/png",
			opts:        []ValidatorOption{WithImageFormats()},
			expectedErr: internal.ErrInvalidImageFormat,
		},
		{
			name:        "Should reject oversized content",
			data:        bytes.Repeat([]byte{0xFF}, 11),
			opts:        []ValidatorOption{WithMaxSize(10)},
			expectedErr: internal.ErrFileTooLarge,
		},
		{
			name:         "Should accept content at the size limit",
			data:         bytes.Repeat([]byte("a"), 10),
			opts:         []ValidatorOption{WithMaxSize(10)},
			expectedType: "text/plain",
		},
		{
			name:         "Should strip content type parameters",
			data:         []byte("a,b"),
			contentType:  "text/csv; charset=utf-8",
			opts:         []ValidatorOption{WithContentType("text/csv")},
			expectedType: "text/csv",
		},
		{
			name:        "Should reject type outside allow list",
			data:        []byte("a,b"),
			contentType: "text/plain",
			opts:        []ValidatorOption{WithContentType("text/csv")},
			expectedErr: internal.ErrInvalidFileType,
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, contentType, err := v.Validate(bytes.NewReader(tt.data), tt.contentType, tt.opts...)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("Expected error %v, got %v", tt.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !bytes.Equal(data, tt.data) {
				t.Errorf("Expected content to be returned unchanged")
			}
			if contentType != tt.expectedType {
				t.Errorf("Expected content type %q, got %q", tt.expectedType, contentType)
			}
		})
	}
}
