// Package form validates raw form input against an explicit schema.
//
// A Schema maps field names to rules; Validate returns a Result that is
// either valid (cleaned values) or carries per-field messages. Nothing is
// lazily populated and nothing mutates the schema, so a Schema can be a
// package-level value shared by every request.
//
//	var postSchema = form.Schema{
//	    "text":  {Required: true, Label: "Text"},
//	    "group": {Rules: "max=64", Label: "Group"},
//	}
//
//	res := form.Validate(r.PostForm, postSchema)
//	if !res.Valid() {
//	    // re-render with res.Values (input preserved) and res.Errors
//	}
//
// Rule strings use go-playground/validator tag syntax ("max=200",
// "email", "oneof=a b"), plus the custom "handle" rule for usernames.
package form

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Field describes one form field.
type Field struct {
	Required bool
	Rules    string // validator tags applied to non-empty values
	SameAs   string // name of a field this one must equal (confirmations)
	Label    string // used in messages; defaults to the field name
	Raw      bool   // keep surrounding whitespace (passwords)
}

// Schema maps field names to their rules.
type Schema map[string]Field

// Result is the outcome of Validate.
type Result struct {
	Values map[string]string   // submitted values, trimmed unless Field.Raw
	Errors map[string][]string // field name → messages; empty when valid
}

// Valid reports whether no field failed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Get returns a cleaned value ("" when absent).
func (r Result) Get(name string) string {
	return r.Values[name]
}

var (
	validate     *validator.Validate
	validateOnce sync.Once

	handlePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// Validator returns the shared validator instance with the custom rules
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// handle: letters, digits and @/./+/-/_ only.
		_ = validate.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			return handlePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks raw input against schema. Fields not named in the schema
// are ignored.
func Validate(raw url.Values, schema Schema) Result {
	res := Result{
		Values: make(map[string]string, len(schema)),
		Errors: map[string][]string{},
	}

	// Clean every value first so SameAs can compare cleaned values.
	for name, f := range schema {
		v := raw.Get(name)
		if !f.Raw {
			v = strings.TrimSpace(v)
		}
		res.Values[name] = v
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if msgs := checkField(name, schema[name], res.Values); len(msgs) > 0 {
			res.Errors[name] = msgs
		}
	}

	return res
}

func checkField(name string, f Field, values map[string]string) []string {
	v := values[name]
	label := f.Label
	if label == "" {
		label = name
	}

	if v == "" {
		if f.Required {
			return []string{"This field is required."}
		}
		return nil
	}

	var msgs []string

	if f.Rules != "" {
		if err := Validator().Var(v, f.Rules); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) {
				for _, fe := range fieldErrs {
					msgs = append(msgs, translate(label, fe))
				}
			} else {
				msgs = append(msgs, fmt.Sprintf("%s is invalid", label))
			}
		}
	}

	if f.SameAs != "" && v != values[f.SameAs] {
		msgs = append(msgs, "The two fields didn't match.")
	}

	return msgs
}

// translate turns a validator error into a message for a human.
func translate(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "Enter a valid email address."
	case "handle":
		return "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation.", label, fe.Tag())
	}
}
