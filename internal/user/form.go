package user

import "strings"

// FormErrors collects validation errors for a submitted form, keyed by
// field. Errors that belong to no single field go into NonField.
type FormErrors struct {
	Fields   map[string][]string
	NonField []string
}

func (e *FormErrors) Error() string {
	var parts []string
	for field, msgs := range e.Fields {
		parts = append(parts, field+": "+strings.Join(msgs, ", "))
	}
	parts = append(parts, e.NonField...)
	return "invalid form: " + strings.Join(parts, "; ")
}

func (e *FormErrors) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *FormErrors) addNonField(msg string) {
	e.NonField = append(e.NonField, msg)
}

func (e *FormErrors) empty() bool {
	return len(e.Fields) == 0 && len(e.NonField) == 0
}

// Field returns the messages for one field.
func (e *FormErrors) Field(name string) []string {
	if e == nil {
		return nil
	}
	return e.Fields[name]
}
