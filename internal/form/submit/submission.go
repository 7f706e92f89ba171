package submit

import (
	"NYCU-SDC/form-collector-backend/internal/file"
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"NYCU-SDC/form-collector-backend/internal/form/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State string

const (
	StateCollecting      State = "COLLECTING"
	StateValidating      State = "VALIDATING"
	StateUploadingAssets State = "UPLOADING_ASSETS"
	StatePersisting      State = "PERSISTING"
	StateCompleted       State = "COMPLETED"
	StateRejected        State = "REJECTED"
	StateFailed          State = "FAILED"
)

// Submission carries one submission through the pipeline. It is owned by a
// single Submit call and never shared.
type Submission struct {
	FormID  uuid.UUID
	Answers map[string]field.Value

	state   State
	schema  form.Schema
	values  map[uuid.UUID]string
	uploads []file.Object
	logger  *zap.Logger
}

func newSubmission(formID uuid.UUID, answers map[string]field.Value, logger *zap.Logger) *Submission {
	if answers == nil {
		answers = map[string]field.Value{}
	}
	return &Submission{
		FormID:  formID,
		Answers: answers,
		state:   StateCollecting,
		values:  make(map[uuid.UUID]string),
		logger:  logger.With(zap.String("form_id", formID.String())),
	}
}

func (s *Submission) State() State {
	return s.state
}

func (s *Submission) transition(to State) {
	s.logger.Debug("Submission state changed", zap.String("from", string(s.state)), zap.String("to", string(to)))
	s.state = to
}

type uploadJob struct {
	field  form.Field
	upload *field.Upload
}

// pendingUploads lists the attached files in field order.
func (s *Submission) pendingUploads() []uploadJob {
	var jobs []uploadJob
	for _, f := range s.schema.Fields {
		if !field.IsAsset(f.Kind) {
			continue
		}
		value, ok := s.Answers[f.ID.String()]
		if ok && value.File != nil {
			jobs = append(jobs, uploadJob{field: f, upload: value.File})
		}
	}
	return jobs
}

// answers returns one answer per field with a non-empty canonical value, in field order.
func (s *Submission) answers() []response.Answer {
	answers := make([]response.Answer, 0, len(s.values))
	for _, f := range s.schema.Fields {
		if value := s.values[f.ID]; value != "" {
			answers = append(answers, response.Answer{FieldID: f.ID, Value: value})
		}
	}
	return answers
}
