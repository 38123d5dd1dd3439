// Package roster holds the gradebook core: the Student record, draft
// validation, the persisted Store, the form Controller and the derived
// statistics. Presentation layers (HTTP page, JSON API, terminal UI, CLI)
// only talk to this package.
package roster

import (
	"strconv"
	"strings"
)

// Grade bounds, inclusive.
const (
	MinGrade = 1.0
	MaxGrade = 7.0
)

// Student is a value record. Edits replace it wholesale.
type Student struct {
	Name     string  `json:"name" yaml:"name"`
	LastName string  `json:"lastName" yaml:"lastName"`
	Subject  string  `json:"subject" yaml:"subject"`
	Grade    float64 `json:"grade" yaml:"grade"`
}

// Roster is the ordered student list. A student's position is its identity.
type Roster []Student

// Clone returns an independent copy; never nil.
func (r Roster) Clone() Roster {
	out := make(Roster, len(r))
	copy(out, r)
	return out
}

// Field names a FormDraft field. Values match the JSON keys.
type Field string

const (
	FieldName     Field = "name"
	FieldLastName Field = "lastName"
	FieldSubject  Field = "subject"
	FieldGrade    Field = "grade"
)

// Fields lists the draft fields in form order.
var Fields = []Field{FieldName, FieldLastName, FieldSubject, FieldGrade}

// ParseField maps a wire name to a Field.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// IsText reports whether the field is one of the digit-free text fields.
func (f Field) IsText() bool {
	return f == FieldName || f == FieldLastName || f == FieldSubject
}

// FormDraft is the in-progress record as raw text; Grade is parsed on submit.
type FormDraft struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Subject  string `json:"subject"`
	Grade    string `json:"grade"`
}

// DraftFromStudent copies a stored student into a draft verbatim.
func DraftFromStudent(s Student) FormDraft {
	return FormDraft{
		Name:     s.Name,
		LastName: s.LastName,
		Subject:  s.Subject,
		Grade:    strconv.FormatFloat(s.Grade, 'f', -1, 64),
	}
}

// Value returns the raw text of field f.
func (d FormDraft) Value(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldLastName:
		return d.LastName
	case FieldSubject:
		return d.Subject
	case FieldGrade:
		return d.Grade
	}
	return ""
}

// With returns a copy of d with field f set to v.
func (d FormDraft) With(f Field, v string) FormDraft {
	switch f {
	case FieldName:
		d.Name = v
	case FieldLastName:
		d.LastName = v
	case FieldSubject:
		d.Subject = v
	case FieldGrade:
		d.Grade = v
	}
	return d
}

// IsEmpty reports whether every field is blank.
func (d FormDraft) IsEmpty() bool {
	return d == FormDraft{}
}

// cleanString trims all leading and trailing whitespace in s.
func cleanString(s string) string {
	return strings.TrimSpace(s)
}
