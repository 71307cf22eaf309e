// Package validate checks user-supplied forms before they are submitted.
//
// Rules are declared with go-playground/validator struct tags. The user-facing
// message for a field comes from its `msg_<rule>` tag for the failing rule,
// else its `msg` tag; fields are reported under their JSON names.
package validate

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Error is a client-side form violation. It blocks submission and carries
// one message per offending field.
type Error struct {
	Fields map[string]string
	order  []string
}

// Field builds an Error for a single field.
func Field(name, msg string) *Error {
	e := &Error{Fields: make(map[string]string, 1)}
	e.add(name, msg)
	return e
}

func (e *Error) add(name, msg string) {
	if _, ok := e.Fields[name]; ok {
		return
	}
	e.Fields[name] = msg
	e.order = append(e.order, name)
}

// Error implements error.
func (e *Error) Error() string {
	names := e.names()
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+": "+e.Fields[n])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// First returns the message of the first offending field.
func (e *Error) First() string {
	names := e.names()
	if len(names) == 0 {
		return ""
	}
	return e.Fields[names[0]]
}

func (e *Error) names() []string {
	if len(e.order) == len(e.Fields) {
		return e.order
	}
	names := make([]string, 0, len(e.Fields))
	for n := range e.Fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		return d.InexactFloat64()
	}, decimal.Decimal{})
	return v
}

// Struct validates s and returns *Error when any rule fails.
func Struct(s any) error {
	err := std.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate")
	}

	t := reflect.Indirect(reflect.ValueOf(s)).Type()
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		msg := fe.Error()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg_" + fe.Tag()); m != "" {
				msg = m
			} else if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
		}
		out.add(fe.Field(), msg)
	}
	return out
}
