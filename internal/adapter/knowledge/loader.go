package knowledge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Load reads the knowledge document at path. PDFs are reduced to their plain
// text; anything else is read as UTF-8. A missing file yields empty knowledge
// and a warning so the assistant can still run.
func Load(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("knowledge document not found, continuing without it", "path", path)
			return "", nil
		}
		return "", fmt.Errorf("stat knowledge: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return loadPDF(path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read knowledge: %w", err)
	}
	return string(b), nil
}

func loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open knowledge pdf: %w", err)
	}
	defer f.Close()

	text, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract knowledge text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, text); err != nil {
		return "", fmt.Errorf("read knowledge text: %w", err)
	}
	return buf.String(), nil
}
