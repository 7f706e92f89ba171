package internal

import (
	"errors"

	"github.com/NYCU-SDC/summer/pkg/problem"
)

var (
	// Auth Errors
	ErrUnauthorizedError = errors.New("unauthorized error")
	ErrForbiddenError    = errors.New("forbidden error")
	ErrNotFound          = errors.New("not found")

	// JWT Authentication Errors
	ErrMissingAuthHeader       = errors.New("missing access token")
	ErrInvalidAuthHeaderFormat = errors.New("invalid access token")
	ErrInvalidJWTToken         = errors.New("invalid JWT token")
	ErrNoOperatorInContext     = errors.New("no operator found in request context")

	ErrInvalidRequestBody = errors.New("invalid request body")
	ErrDatabaseError      = errors.New("database error")

	// Form Errors
	ErrFormNotFound  = errors.New("form not found")
	ErrInvalidSchema = errors.New("invalid form schema")

	// Submission Errors
	ErrValidationFailed = errors.New("validation failed")
	ErrUploadFailed     = errors.New("failed to upload submitted files")
	ErrPersistFailed    = errors.New("failed to persist submission")

	// Response Errors
	ErrResponseNotFound = errors.New("response not found")

	// Export Errors
	ErrExportNoContent = errors.New("nothing to export")
	ErrFetchAsset      = errors.New("failed to fetch asset")
	ErrBlockedAddress  = errors.New("address is not publicly routable")

	// File Errors
	ErrFileNotFound       = errors.New("file not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum size")
	ErrInvalidFileID      = errors.New("invalid file ID")
	ErrInvalidMultipart   = errors.New("failed to parse multipart form")
	ErrFailedToSaveFile   = errors.New("failed to save file")
	ErrFailedToDeleteFile = errors.New("failed to delete file")
	ErrInvalidFileType    = errors.New("file type is not allowed")
	ErrInvalidImageFormat = errors.New("image format is invalid")
)

func NewProblemWriter() *problem.HttpWriter {
	return problem.NewWithMapping(ErrorHandler)
}

// ErrorHandler maps domain errors to problem responses. Validation causes are
// matched before the submission failure wrappers so an oversized upload is
// reported as a client error.
func ErrorHandler(err error) problem.Problem {
	switch {
	case errors.Is(err, ErrUnauthorizedError):
		return problem.NewUnauthorizedProblem("unauthorized error")
	case errors.Is(err, ErrForbiddenError):
		return problem.NewForbiddenProblem("forbidden error")
	case errors.Is(err, ErrNotFound):
		return problem.NewNotFoundProblem("not found")

	// JWT Authentication Errors
	case errors.Is(err, ErrMissingAuthHeader):
		return problem.NewUnauthorizedProblem("missing access token")
	case errors.Is(err, ErrInvalidAuthHeaderFormat):
		return problem.NewUnauthorizedProblem("invalid access token")
	case errors.Is(err, ErrInvalidJWTToken):
		return problem.NewUnauthorizedProblem("invalid JWT token")
	case errors.Is(err, ErrNoOperatorInContext):
		return problem.NewUnauthorizedProblem("no operator found in request context")

	case errors.Is(err, ErrInvalidRequestBody):
		return problem.NewBadRequestProblem("invalid request body")
	case errors.Is(err, ErrDatabaseError):
		return problem.NewInternalServerProblem("database error")

	// Form Errors
	case errors.Is(err, ErrFormNotFound):
		return problem.NewNotFoundProblem("form not found")
	case errors.Is(err, ErrInvalidSchema):
		return problem.NewValidateProblem(err.Error())

	// File Errors
	case errors.Is(err, ErrFileNotFound):
		return problem.NewNotFoundProblem("file not found")
	case errors.Is(err, ErrFileTooLarge):
		return problem.NewValidateProblem("file exceeds maximum size")
	case errors.Is(err, ErrInvalidFileID):
		return problem.NewBadRequestProblem("invalid file ID")
	case errors.Is(err, ErrInvalidMultipart):
		return problem.NewBadRequestProblem("failed to parse multipart form")
	case errors.Is(err, ErrInvalidFileType):
		return problem.NewValidateProblem("file type is not allowed")
	case errors.Is(err, ErrInvalidImageFormat):
		return problem.NewValidateProblem("image format is invalid")
	case errors.Is(err, ErrFailedToSaveFile):
		return problem.NewInternalServerProblem("failed to save file")
	case errors.Is(err, ErrFailedToDeleteFile):
		return problem.NewInternalServerProblem("failed to delete file")

	// Submission Errors
	case errors.Is(err, ErrValidationFailed):
		return problem.NewValidateProblem(err.Error())
	case errors.Is(err, ErrUploadFailed):
		return problem.NewInternalServerProblem("failed to upload submitted files")
	case errors.Is(err, ErrPersistFailed):
		return problem.NewInternalServerProblem("failed to persist submission")

	// Response Errors
	case errors.Is(err, ErrResponseNotFound):
		return problem.NewNotFoundProblem("response not found")

	// Export Errors
	case errors.Is(err, ErrExportNoContent):
		return problem.NewNotFoundProblem(err.Error())
	case errors.Is(err, ErrFetchAsset):
		return problem.NewInternalServerProblem("failed to fetch asset")
	}
	return problem.Problem{}
}
