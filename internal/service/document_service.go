package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// DocumentService fills per-identity copies of the RUT template.
type DocumentService struct {
	repo      port.IdentityRepository
	engine    port.FormEngine
	mapping   domain.FieldMapping
	template  string
	outputDir string
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDocumentService creates a new document service.
func NewDocumentService(repo port.IdentityRepository, engine port.FormEngine, mapping domain.FieldMapping, template, outputDir string) *DocumentService {
	return &DocumentService{
		repo:      repo,
		engine:    engine,
		mapping:   mapping,
		template:  template,
		outputDir: outputDir,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Create copies the template for the session's identity, writes every mapped
// value plus the signature and records the resulting path. Unmapped keys are
// ignored. Calling Create again regenerates the document from the template.
func (s *DocumentService) Create(ctx context.Context, sess *domain.Session, values map[string]any) (string, error) {
	unlock := s.lock(sess.IdentityID)
	defer unlock()

	fill := make(map[string]string, len(values)+1)
	for key, v := range values {
		if name, ok := s.mapping.Lookup(key); ok {
			fill[name] = stringify(v)
		}
	}
	s.stampSignature(fill, sess.DisplayName)

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %w", port.ErrStorage, err)
	}
	path := filepath.Join(s.outputDir, domain.DocumentFileName(sess.DisplayName, sess.IdentityID))

	if err := s.save(s.template, path, fill); err != nil {
		return "", err
	}
	if err := s.repo.SetDocument(ctx, sess.IdentityID, path, s.now()); err != nil {
		return "", fmt.Errorf("record document: %w", err)
	}

	slog.Info("RUT created", "cedula", sess.IdentityID, "path", path, "fields", len(fill))
	return path, nil
}

// Update rewrites a single mapped field of an existing document and
// re-stamps the signature.
func (s *DocumentService) Update(ctx context.Context, sess *domain.Session, key, value string) error {
	unlock := s.lock(sess.IdentityID)
	defer unlock()

	identity, err := s.repo.GetIdentity(ctx, sess.IdentityID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if !identity.HasDocument() {
		return port.ErrNoDocument
	}
	path := *identity.DocumentPath

	name, ok := s.mapping.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", port.ErrInvalidField, key)
	}

	fields, err := s.engine.Fields(path)
	if err != nil {
		return fmt.Errorf("%w: read document: %w", port.ErrStorage, err)
	}
	if !hasField(fields, name) {
		return fmt.Errorf("%w: %q", port.ErrFieldNotFound, name)
	}

	fill := map[string]string{name: value}
	s.stampSignature(fill, sess.DisplayName)

	if err := s.save(path, path, fill); err != nil {
		return err
	}
	if err := s.repo.TouchDocument(ctx, sess.IdentityID, s.now()); err != nil {
		return fmt.Errorf("record document: %w", err)
	}

	slog.Info("RUT updated", "cedula", sess.IdentityID, "field", key)
	return nil
}

// Status reports whether the identity has a recorded document.
func (s *DocumentService) Status(ctx context.Context, externalID string) (bool, error) {
	identity, err := s.repo.GetIdentity(ctx, externalID)
	if err != nil {
		return false, fmt.Errorf("document status: %w", err)
	}
	return identity.HasDocument(), nil
}

// Inspect lists the form fields of the document at path.
func (s *DocumentService) Inspect(path string) ([]domain.FormField, error) {
	return s.engine.Fields(path)
}

func (s *DocumentService) stampSignature(fill map[string]string, displayName string) {
	if name, ok := s.mapping.SignatureField(); ok {
		fill[name] = domain.SignatureValue(displayName)
	}
}

// save fills src into a temp file next to dst and renames it over dst, so
// dst is either the old or the new document.
func (s *DocumentService) save(src, dst string, fill map[string]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".rut-*.pdf")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", port.ErrStorage, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := s.engine.Fill(src, tmpPath, fill); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: fill form: %w", port.ErrStorage, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: replace document: %w", port.ErrStorage, err)
	}
	return nil
}

func (s *DocumentService) lock(externalID string) func() {
	s.mu.Lock()
	l, ok := s.locks[externalID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[externalID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func hasField(fields []domain.FormField, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// stringify renders a JSON-decoded value the way a user typed it.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
