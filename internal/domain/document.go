package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// SignatureKey is the logical field stamped on every save.
const SignatureKey = "firma"

// FieldMapping translates logical form keys (nombre, cedula, ...) to the
// field names of one template revision.
type FieldMapping struct {
	Revision string            `yaml:"-"`
	Fields   map[string]string `yaml:"fields"`
}

// Lookup returns the PDF field name for a logical key.
func (m FieldMapping) Lookup(key string) (string, bool) {
	name, ok := m.Fields[key]
	return name, ok && name != ""
}

// SignatureField returns the PDF field holding the electronic signature.
func (m FieldMapping) SignatureField() (string, bool) {
	return m.Lookup(SignatureKey)
}

// SignatureValue is the text stamped into the signature field.
func SignatureValue(displayName string) string {
	return fmt.Sprintf("%s (Firma Electrónica)", displayName)
}

// DocumentFileName builds the per-identity file name for a RUT copy.
func DocumentFileName(displayName, externalID string) string {
	return fmt.Sprintf("RUT_%s_%s.pdf", sanitize(displayName), sanitize(externalID))
}

// FormField is a named widget and its current value.
type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Page  int    `json:"page,omitempty"`
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
