// Package core holds the template helpers shared by every page and fragment.
package core

import (
	"bytes"
	"errors"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Deps holds the late-bound template set and page lookup.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
	CSRFHeaderName     string
}

// InputField is the view model of the input-field partial.
type InputField struct {
	Type        string
	ID          string
	Label       string
	Placeholder string
	Value       string
	Error       string
}

// Funcs returns the func map installed on the template set.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl": deps.ContentTemplateFor,
		"field":       Field,
		"initials":    Initials,
		"csrfHeaders": func(token string) (string, error) {
			return toJSON(map[string]string{deps.CSRFHeaderName: token})
		},
		"toJSON": toJSON,
	}
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - output of our own html/template set, already escaped.
		return template.HTML(buf.String()), nil
	}
	return funcs
}

// Field builds an InputField; argument order follows the partial's markup.
func Field(typ, id, label, placeholder, value, errMsg string) InputField {
	return InputField{Type: typ, ID: id, Label: label, Placeholder: placeholder, Value: value, Error: errMsg}
}

// Initials returns up to two upper-cased leading letters of name.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		if r == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if n++; n == 2 {
			break
		}
	}
	if n == 0 {
		return "?"
	}
	return b.String()
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
