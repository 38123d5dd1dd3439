package roster

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

// InvalidDraftMessage is the single user-facing validation message.
const InvalidDraftMessage = "Please complete all fields with valid data"

var (
	// ErrInvalidDraft is wrapped by every *ValidationError.
	ErrInvalidDraft = errors.New(InvalidDraftMessage)

	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags & texts
	noDigitsTag  = "nodigits"
	noDigitsText = "{0} must not contain digits"
	digitRegex   = regexp.MustCompile(`\d`)

	gradeRequiredText  = "grade is a required field"
	gradeNotNumberText = "grade must be a number"
)

// studentInput is what a draft turns into before it becomes a Student.
type studentInput struct {
	Name     string  `json:"name" validate:"required,nodigits"`
	LastName string  `json:"lastName" validate:"required,nodigits"`
	Subject  string  `json:"subject" validate:"required,nodigits"`
	Grade    float64 `json:"grade" validate:"gte=1,lte=7"`
}

func init() {
	validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(noDigitsTag, noDigitsValidation)
	_ = validate.RegisterTranslation(
		noDigitsTag, translator,
		func(t ut.Translator) error { return t.Add(noDigitsTag, noDigitsText, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(noDigitsTag, fe.Field())
			return s
		},
	)
}

// noDigitsValidation rejects any ASCII digit.
func noDigitsValidation(fl validator.FieldLevel) bool {
	return !ContainsDigit(fl.Field().String())
}

// ContainsDigit reports whether s has a 0-9 character.
func ContainsDigit(s string) bool {
	return digitRegex.MatchString(s)
}

// FieldError is used to indicate an error with a specific draft field.
type FieldError struct {
	Field Field  `json:"field"`
	Error string `json:"error"`
}

// ValidationError is returned when a draft cannot become a Student.
// Err is always ErrInvalidDraft.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(flds ...FieldError) error {
	return &ValidationError{Err: ErrInvalidDraft, Fields: flds}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FieldMap returns the per-field messages keyed by wire name.
func (e *ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[string(f.Field)] = f.Error
	}
	return m
}

// parseGrade parses the raw grade text. Range checks happen in the validator.
func parseGrade(raw string) (float64, error) {
	raw = cleanString(raw)
	if raw == "" {
		return 0, errors.New(gradeRequiredText)
	}
	g, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(g) || math.IsInf(g, 0) {
		return 0, errors.New(gradeNotNumberText)
	}
	return g, nil
}

// ParseDraft validates a draft and builds the Student it describes. Text
// fields are trimmed; they must be non-empty and digit-free. The grade must
// parse as a finite number within [MinGrade, MaxGrade].
func ParseDraft(d FormDraft) (Student, error) {
	in := studentInput{
		Name:     cleanString(d.Name),
		LastName: cleanString(d.LastName),
		Subject:  cleanString(d.Subject),
	}
	var fields []FieldError

	grade, gradeErr := parseGrade(d.Grade)
	if gradeErr == nil {
		in.Grade = grade
	}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Student{}, errors.Wrap(err, "validating draft")
		}
		for _, fe := range verrs {
			if gradeErr != nil && fe.Field() == string(FieldGrade) {
				continue
			}
			fields = append(fields, FieldError{Field: Field(fe.Field()), Error: fe.Translate(translator)})
		}
	}
	if gradeErr != nil {
		fields = append(fields, FieldError{Field: FieldGrade, Error: gradeErr.Error()})
	}
	if len(fields) > 0 {
		return Student{}, NewValidationError(fields...)
	}

	return Student{
		Name:     in.Name,
		LastName: in.LastName,
		Subject:  in.Subject,
		Grade:    in.Grade,
	}, nil
}
