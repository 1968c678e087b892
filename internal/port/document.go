package port

import "github.com/DanielCifuentes1997/AiVi-bot/internal/domain"

// FormEngine reads and writes named fields of a fillable PDF form.
type FormEngine interface {
	// Fields lists every widget of the form at path with its current value.
	Fields(path string) ([]domain.FormField, error)

	// Fill reads the form at src, sets each named field to its value on
	// every page and writes the result to dst. src and dst may not be equal.
	Fill(src, dst string, values map[string]string) error
}
