// Package validation validates submitted forms and renders field messages for the client.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field to its first message.
type Errors map[string]string

// Error implements error.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, field+": "+e[field])
	}

	return strings.Join(msgs, "; ")
}

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Has reports whether field failed.
func (e Errors) Has(field string) bool {
	_, ok := e[field]

	return ok
}

// Validator wraps validator.Validate with form field names and readable messages.
type Validator struct {
	validate *validator.Validate
	mu       sync.Mutex
	labels   map[reflect.Type]map[string]string
}

// New creates a Validator. Field names come from the `form` tag and attribute names
// shown in messages from the `label` tag, falling back to the field name.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(formName)

	return &Validator{validate: v, labels: map[reflect.Type]map[string]string{}}
}

func formName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
	if name == "-" {
		return ""
	}

	if name == "" {
		return f.Name
	}

	return name
}

// Struct validates s and returns Errors, or nil when s is valid.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	labels := v.labelsOf(reflect.TypeOf(s))
	out := Errors{}

	for _, fe := range verrs {
		field := fe.Field()

		label, ok := labels[field]
		if !ok {
			label = strings.ReplaceAll(field, "_", " ")
		}

		out.Add(field, Message(fe.Tag(), label, fe.Param(), fe.Kind()))
	}

	return out
}

func (v *Validator) labelsOf(t reflect.Type) map[string]string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if labels, ok := v.labels[t]; ok {
		return labels
	}

	labels := map[string]string{}

	if t.Kind() == reflect.Struct {
		for i := range t.NumField() {
			f := t.Field(i)
			if label := f.Tag.Get("label"); label != "" {
				labels[formName(f)] = label
			}
		}
	}

	v.labels[t] = labels

	return labels
}

// Message renders the message for a failed rule.
func Message(tag, label, param string, kind reflect.Kind) string {
	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "url", "http_url":
		return fmt.Sprintf("The %s field must be a valid URL.", label)
	case "max":
		if kind == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", label, param)
		}

		return fmt.Sprintf("The %s field must not be greater than %s.", label, param)
	case "min":
		if kind == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", label, param)
		}

		return fmt.Sprintf("The %s field must be at least %s.", label, param)
	case "len":
		return fmt.Sprintf("The %s field must be %s characters.", label, param)
	case "numeric":
		return fmt.Sprintf("The %s field must be a number.", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	case "boolean":
		return fmt.Sprintf("The %s field must be true or false.", label)
	case "eqfield":
		return fmt.Sprintf("The %s does not match.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}

// As returns the Errors carried by err.
func As(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}

	return nil, false
}
