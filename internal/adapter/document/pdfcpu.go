package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFCPUEngine implements port.FormEngine with pdfcpu's form API.
type PDFCPUEngine struct{}

// NewPDFCPUEngine creates a new form engine.
func NewPDFCPUEngine() *PDFCPUEngine {
	return &PDFCPUEngine{}
}

// Fields lists the form fields of the PDF at path.
func (e *PDFCPUEngine) Fields(path string) ([]domain.FormField, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open form: %w", err)
	}
	defer f.Close()

	fields, err := api.FormFields(f, nil)
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}

	out := make([]domain.FormField, 0, len(fields))
	for _, fl := range fields {
		page := 0
		if len(fl.Pages) > 0 {
			page = fl.Pages[0]
		}
		out = append(out, domain.FormField{Name: fl.Name, Value: fl.V, Page: page})
	}
	return out, nil
}

// Fill writes values into the named text fields of src and saves to dst.
// When every field already holds its value dst is a plain copy of src.
func (e *PDFCPUEngine) Fill(src, dst string, values map[string]string) error {
	if src == dst {
		return fmt.Errorf("fill form: source and destination are the same file")
	}

	data, err := fillPayload(values)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open form: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	err = api.FillForm(in, bytes.NewReader(data), out, nil)
	if errors.Is(err, api.ErrNoFormFieldsAffected) {
		err = copyUnchanged(in, out)
	}
	if err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("fill form: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("sync output: %w", err)
	}
	return out.Close()
}

// copyUnchanged rewrites out with the bytes of in.
func copyUnchanged(in, out *os.File) error {
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := out.Truncate(0); err != nil {
		return err
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := io.Copy(out, in)
	return err
}

type textField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type formPayload struct {
	Forms []struct {
		TextFields []textField `json:"textfield"`
	} `json:"forms"`
}

// fillPayload renders values in pdfcpu's form JSON layout. Fields are matched
// by name, so every widget of a field receives the value.
func fillPayload(values map[string]string) ([]byte, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var p formPayload
	p.Forms = make([]struct {
		TextFields []textField `json:"textfield"`
	}, 1)
	for _, name := range names {
		p.Forms[0].TextFields = append(p.Forms[0].TextFields, textField{Name: name, Value: values[name]})
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal form data: %w", err)
	}
	return data, nil
}
