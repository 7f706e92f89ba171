package file

import (
	"NYCU-SDC/form-collector-backend/internal"
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
)

// ValidatorOption configures the rules an upload is checked against
type ValidatorOption func(*validatorConfig)

type validatorConfig struct {
	maxSize      int64
	allowedTypes []string
	sniff        func([]byte) (string, error)
}

// Validator reads uploads and checks them against a set of options
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate reads the stream up to the configured size limit and returns the
// content with the content type that should be stored for it.
func (v *Validator) Validate(stream io.Reader, contentType string, opts ...ValidatorOption) ([]byte, string, error) {
	config := &validatorConfig{}
	for _, opt := range opts {
		opt(config)
	}

	reader := stream
	if config.maxSize > 0 {
		reader = io.LimitReader(stream, config.maxSize+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file stream: %w", err)
	}

	if config.maxSize > 0 && int64(len(data)) > config.maxSize {
		return nil, "", internal.ErrFileTooLarge
	}

	contentType = normalizeContentType(contentType, data)

	// Magic bytes win over the declared type.
	if config.sniff != nil {
		detected, err := config.sniff(data)
		if err != nil {
			return nil, "", err
		}
		contentType = detected
	}

	if len(config.allowedTypes) > 0 && !slices.Contains(config.allowedTypes, contentType) {
		return nil, "", internal.ErrInvalidFileType
	}

	return data, contentType, nil
}

func normalizeContentType(declared string, data []byte) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return mediaType
}

// WithMaxSize sets the maximum allowed file size in bytes
func WithMaxSize(size int64) ValidatorOption {
	return func(c *validatorConfig) {
		c.maxSize = size
	}
}

// WithContentType sets allowed MIME types without format validation
func WithContentType(contentTypes ...string) ValidatorOption {
	return func(c *validatorConfig) {
		c.allowedTypes = contentTypes
	}
}

// WithImageFormats accepts JPEG, PNG, GIF and WebP images identified by their
// magic bytes.
func WithImageFormats() ValidatorOption {
	return func(c *validatorConfig) {
		c.allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
		c.sniff = sniffImage
	}
}

var imageSignatures = []struct {
	contentType string
	match       func([]byte) bool
}{
	{"image/jpeg", func(d []byte) bool { return bytes.HasPrefix(d, []byte{0xFF, 0xD8, 0xFF}) }},
	{"image/png", func(d []byte) bool { return bytes.HasPrefix(d, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) }},
	{"image/gif", func(d []byte) bool { return bytes.HasPrefix(d, []byte("GIF87a")) || bytes.HasPrefix(d, []byte("GIF89a")) }},
	{"image/webp", func(d []byte) bool { return len(d) >= 12 && string(d[0:4]) == "RIFF" && string(d[8:12]) == "WEBP" }},
}

func sniffImage(data []byte) (string, error) {
	for _, sig := range imageSignatures {
		if sig.match(data) {
			return sig.contentType, nil
		}
	}
	return "", internal.ErrInvalidImageFormat
}
