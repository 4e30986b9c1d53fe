// Package fields holds the placeable form-field model used by the editor and
// the submission shape consumed by the stamping pipeline.
package fields

import (
	"encoding/json"
	"strings"
)

// Type identifies what a field stamps onto the page.
type Type int

const (
	// TypeUnknown is any type string outside the palette. It is accepted and
	// stamps nothing.
	TypeUnknown Type = iota
	// TypeSignature draws the shared signature image.
	TypeSignature
	// TypeText draws the field label.
	TypeText
	// TypeDate draws the current date.
	TypeDate
	// TypeCheckbox is offered by the palette but stamps nothing.
	TypeCheckbox
	// TypeRadio is offered by the palette but stamps nothing.
	TypeRadio
	// TypeImage is offered by the palette but stamps nothing.
	TypeImage
)

var typeNames = map[Type]string{
	TypeSignature: "signature",
	TypeText:      "text",
	TypeDate:      "date",
	TypeCheckbox:  "checkbox",
	TypeRadio:     "radio",
	TypeImage:     "image",
}

// Palette lists the types offered to the editor, in display order.
var Palette = []Type{TypeSignature, TypeText, TypeDate, TypeCheckbox, TypeRadio, TypeImage}

// ParseType maps a wire name to a Type. Unrecognised names yield TypeUnknown.
func ParseType(s string) Type {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t
		}
	}
	return TypeUnknown
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Stampable reports whether the pipeline draws anything for this type.
func (t Type) Stampable() bool {
	switch t {
	case TypeSignature, TypeText, TypeDate:
		return true
	default:
		return false
	}
}

// DefaultLabel is the capitalized type name, e.g. "Signature".
func (t Type) DefaultLabel() string {
	name := t.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseType(s)
	return nil
}
