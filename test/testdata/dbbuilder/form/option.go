package formbuilder

import (
	"NYCU-SDC/form-collector-backend/internal/form/field"

	"github.com/google/uuid"
)

type Option func(*FactoryParams)

type FieldParams struct {
	Label    string
	Kind     field.Kind
	Required bool
	Options  []string
}

type FactoryParams struct {
	Title       string
	Description string
	OwnerID     uuid.UUID
	Active      bool
	Fields      []FieldParams
}

func WithTitle(title string) Option {
	return func(p *FactoryParams) { p.Title = title }
}

func WithDescription(description string) Option {
	return func(p *FactoryParams) { p.Description = description }
}

func WithOwner(ownerID uuid.UUID) Option {
	return func(p *FactoryParams) { p.OwnerID = ownerID }
}

func WithInactive() Option {
	return func(p *FactoryParams) { p.Active = false }
}

func WithField(label string, kind field.Kind, required bool, options ...string) Option {
	return func(p *FactoryParams) {
		p.Fields = append(p.Fields, FieldParams{Label: label, Kind: kind, Required: required, Options: options})
	}
}
