package form

import (
	"NYCU-SDC/form-collector-backend/internal"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

type Field struct {
	ID       uuid.UUID
	Label    string
	Kind     field.Kind
	Required bool
	Order    int32
	Options  []string
}

// Schema is a form header together with its ordered fields.
type Schema struct {
	ID          uuid.UUID
	Title       string
	Description string
	Active      bool
	OwnerID     uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Fields      []Field
}

// FieldByID returns the field of the schema with the given id.
func (s Schema) FieldByID(id uuid.UUID) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// Summary is a form header as shown in an operator's form list.
type Summary struct {
	ID            uuid.UUID
	Title         string
	Description   string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResponseCount int64
}

// FieldInput is one field of a create or replace request. ID is set when the
// editor keeps an existing field.
type FieldInput struct {
	ID       uuid.UUID
	Label    string
	Kind     field.Kind
	Required bool
	Options  []string
}

type Input struct {
	Title       string
	Description string
	Fields      []FieldInput
}

// SchemaError lists every structural problem of a schema input.
type SchemaError struct {
	Problems []string
}

func (e SchemaError) Error() string {
	return "invalid form schema: " + strings.Join(e.Problems, "; ")
}

func (e SchemaError) Unwrap() error {
	return internal.ErrInvalidSchema
}

var (
	policyOnce   sync.Once
	strictPolicy *bluemonday.Policy
)

// sanitizePasses bounds how many entity layers sanitize will peel off.
const sanitizePasses = 8

// sanitize strips markup from operator text and trims surrounding whitespace.
// Decoded entities are sanitized again until the text stops changing, so
// sanitize(sanitize(s)) == sanitize(s).
func sanitize(s string) string {
	policyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})

	for i := 0; i < sanitizePasses; i++ {
		next := html.UnescapeString(strictPolicy.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(s)
}

// normalize sanitizes the input and checks it is a structurally valid schema.
func normalize(in Input) (Input, error) {
	var problems []string

	out := Input{
		Title:       sanitize(in.Title),
		Description: sanitize(in.Description),
		Fields:      make([]FieldInput, 0, len(in.Fields)),
	}

	if out.Title == "" {
		problems = append(problems, "title is required")
	}
	if len(in.Fields) == 0 {
		problems = append(problems, "at least one field is required")
	}

	for i, f := range in.Fields {
		label := sanitize(f.Label)
		if label == "" {
			problems = append(problems, fmt.Sprintf("field %d: label is required", i+1))
		}

		if !f.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("field %d: unknown kind %q", i+1, f.Kind))
		}

		var options []string
		if field.HasOptions(f.Kind) {
			for _, option := range f.Options {
				option = sanitize(option)
				if option != "" {
					options = append(options, option)
				}
			}
			if len(options) == 0 {
				problems = append(problems, fmt.Sprintf("field %d: at least one option is required", i+1))
			}
		}

		out.Fields = append(out.Fields, FieldInput{
			ID:       f.ID,
			Label:    label,
			Kind:     f.Kind,
			Required: f.Required,
			Options:  options,
		})
	}

	if len(problems) > 0 {
		return Input{}, SchemaError{Problems: problems}
	}
	return out, nil
}

// buildFieldsParams assigns order by position. An id the form already owns is
// kept, every other field gets a fresh id.
func buildFieldsParams(formID uuid.UUID, fields []FieldInput, owned map[uuid.UUID]bool) (CreateFieldsParams, error) {
	params := CreateFieldsParams{
		FormID:    formID,
		Ids:       make([]uuid.UUID, 0, len(fields)),
		Labels:    make([]string, 0, len(fields)),
		Kinds:     make([]string, 0, len(fields)),
		Requireds: make([]bool, 0, len(fields)),
		Orders:    make([]int32, 0, len(fields)),
		Options:   make([]string, 0, len(fields)),
	}

	seen := make(map[uuid.UUID]bool, len(fields))
	for i, f := range fields {
		id := f.ID
		if id == uuid.Nil || !owned[id] || seen[id] {
			id = uuid.New()
		}
		seen[id] = true

		options := f.Options
		if options == nil {
			options = []string{}
		}
		encoded, err := json.Marshal(options)
		if err != nil {
			return CreateFieldsParams{}, fmt.Errorf("encode options of field %d: %w", i+1, err)
		}

		params.Ids = append(params.Ids, id)
		params.Labels = append(params.Labels, f.Label)
		params.Kinds = append(params.Kinds, f.Kind.String())
		params.Requireds = append(params.Requireds, f.Required)
		params.Orders = append(params.Orders, int32(i))
		params.Options = append(params.Options, string(encoded))
	}

	return params, nil
}

func toField(row FormField) Field {
	var options []string
	if len(row.Options) > 0 {
		_ = json.Unmarshal(row.Options, &options)
	}

	return Field{
		ID:       row.ID,
		Label:    row.Label,
		Kind:     field.Kind(row.Kind),
		Required: row.Required,
		Order:    row.Order,
		Options:  options,
	}
}

func toSchema(form Form, rows []FormField) Schema {
	fields := make([]Field, 0, len(rows))
	for _, row := range rows {
		fields = append(fields, toField(row))
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Order < fields[j].Order
	})

	return Schema{
		ID:          form.ID,
		Title:       form.Title,
		Description: form.Description.String,
		Active:      form.Active,
		OwnerID:     form.OwnerID,
		CreatedAt:   form.CreatedAt.Time,
		UpdatedAt:   form.UpdatedAt.Time,
		Fields:      fields,
	}
}
