package field

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

type Kind string

const (
	KindText     Kind = "TEXT"
	KindEmail    Kind = "EMAIL"
	KindNumber   Kind = "NUMBER"
	KindDate     Kind = "DATE"
	KindTextArea Kind = "TEXTAREA"
	KindSelect   Kind = "SELECT"
	KindImage    Kind = "IMAGE"
)

// Kinds lists every supported kind in the order an editor presents them.
var Kinds = []Kind{KindText, KindEmail, KindNumber, KindDate, KindTextArea, KindSelect, KindImage}

// ExportHint tells the export engine how a kind's canonical value is rendered.
type ExportHint int

const (
	HintPlainText ExportHint = iota
	HintLink
)

func (h ExportHint) String() string {
	switch h {
	case HintLink:
		return "link"
	default:
		return "plain_text"
	}
}

// Upload is a file attached to an asset field by a submitter.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Value is a raw submitted value before validation. Asset kinds carry File,
// everything else carries Text. An asset answer edited after submission
// carries its stored URI in Text.
type Value struct {
	Text string
	File *Upload
}

type behavior struct {
	inputType string
	hint      ExportHint
	asset     bool
	options   bool
	check     func(text string) error
}

var registry = map[Kind]behavior{
	KindText:     {inputType: "text", hint: HintPlainText},
	KindEmail:    {inputType: "email", hint: HintPlainText},
	KindNumber:   {inputType: "number", hint: HintPlainText, check: checkNumber},
	KindDate:     {inputType: "date", hint: HintPlainText},
	KindTextArea: {inputType: "textarea", hint: HintPlainText},
	KindSelect:   {inputType: "select", hint: HintPlainText, options: true},
	KindImage:    {inputType: "file", hint: HintLink, asset: true},
}

// Parse accepts a kind name in any letter case.
func Parse(name string) (Kind, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := registry[kind]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return kind, nil
}

func (k Kind) Valid() bool {
	_, ok := registry[k]
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// Describe returns how values of kind are rendered in exports.
func Describe(kind Kind) ExportHint {
	return registry[kind].hint
}

// IsAsset reports whether values of kind are binary uploads stored in the blob store.
func IsAsset(kind Kind) bool {
	return registry[kind].asset
}

// HasOptions reports whether kind carries a list of choices.
func HasOptions(kind Kind) bool {
	return registry[kind].options
}

// InputType is the HTML input type a client renders for kind.
func InputType(kind Kind) string {
	return registry[kind].inputType
}

// Validate checks value against kind and the required flag and returns the
// canonical text to persist. Asset kinds return the existing URI in Text, the
// upload itself is stored by the caller.
func Validate(kind Kind, value Value, required bool) (string, error) {
	b, ok := registry[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	text := strings.TrimSpace(value.Text)

	if b.asset {
		if value.File == nil && text == "" {
			if required {
				return "", Violation{Reason: ReasonMissingRequired}
			}
			return "", nil
		}
		return text, nil
	}

	if text == "" {
		if required {
			return "", Violation{Reason: ReasonMissingRequired}
		}
		return "", nil
	}

	if b.check != nil {
		if err := b.check(text); err != nil {
			return "", err
		}
	}

	return text, nil
}

func checkNumber(text string) error {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Violation{Reason: ReasonNotNumeric}
	}
	return nil
}
