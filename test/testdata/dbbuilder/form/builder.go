package formbuilder

import (
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"NYCU-SDC/form-collector-backend/test/testdata"
	"NYCU-SDC/form-collector-backend/test/testdata/dbbuilder"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

type Builder struct {
	t  *testing.T
	db dbbuilder.DBTX
}

func New(t *testing.T, db dbbuilder.DBTX) *Builder {
	return &Builder{t: t, db: db}
}

func (b Builder) Queries() *form.Queries {
	return form.New(b.db)
}

// Created is a form row with the fields inserted for it.
type Created struct {
	Form   form.Form
	Fields []form.FormField
}

func (b Builder) Create(opts ...Option) Created {
	queries := b.Queries()
	ctx := context.Background()

	p := &FactoryParams{
		Title:       testdata.RandomName(),
		Description: testdata.RandomDescription(),
		OwnerID:     uuid.New(),
		Active:      true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.Fields) == 0 {
		p.Fields = []FieldParams{{Label: testdata.RandomLabel(), Kind: field.KindText, Required: true}}
	}

	formRow, err := queries.Create(ctx, form.CreateParams{
		Title:       p.Title,
		Description: pgtype.Text{String: p.Description, Valid: p.Description != ""},
		OwnerID:     p.OwnerID,
	})
	require.NoError(b.t, err)

	params := form.CreateFieldsParams{FormID: formRow.ID}
	for i, f := range p.Fields {
		options := f.Options
		if options == nil {
			options = []string{}
		}
		encoded, err := json.Marshal(options)
		require.NoError(b.t, err)

		params.Ids = append(params.Ids, uuid.New())
		params.Labels = append(params.Labels, f.Label)
		params.Kinds = append(params.Kinds, f.Kind.String())
		params.Requireds = append(params.Requireds, f.Required)
		params.Orders = append(params.Orders, int32(i))
		params.Options = append(params.Options, string(encoded))
	}

	fields, err := queries.CreateFields(ctx, params)
	require.NoError(b.t, err)

	if !p.Active {
		formRow, err = queries.SetActive(ctx, form.SetActiveParams{ID: formRow.ID, Active: false})
		require.NoError(b.t, err)
	}

	return Created{Form: formRow, Fields: fields}
}
