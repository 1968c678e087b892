package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMapping = domain.FieldMapping{
	Revision: "test",
	Fields: map[string]string{
		"nombre":    "Primer nombre",
		"cedula":    "Número de Identificación",
		"direccion": "41. Dirección principal",
		"nit":       "5. NIT",
		"firma":     "Firma del solicitante",
	},
}

type documentFixture struct {
	svc  *DocumentService
	repo *fakeRepo
	dir  string
	sess *domain.Session
}

func newDocumentFixture(t *testing.T, engine port.FormEngine) *documentFixture {
	t.Helper()
	dir := t.TempDir()
	template := filepath.Join(dir, "RUT_editable.pdf")
	require.NoError(t, writeForm(template, map[string]string{
		"Primer nombre":            "",
		"Número de Identificación": "",
		"41. Dirección principal":  "",
		"Firma del solicitante":    "",
	}))

	repo := newFakeRepo()
	_, err := repo.CreateIdentity(context.Background(), &domain.Identity{ExternalID: "123", DisplayName: "Ana María", Email: "ana@example.com"})
	require.NoError(t, err)

	svc := NewDocumentService(repo, engine, testMapping, template, filepath.Join(dir, "out"))
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return &documentFixture{
		svc:  svc,
		repo: repo,
		dir:  dir,
		sess: &domain.Session{IdentityID: "123", DisplayName: "Ana María"},
	}
}

func fieldValue(t *testing.T, svc *DocumentService, path, name string) string {
	t.Helper()
	fields, err := svc.Inspect(path)
	require.NoError(t, err)
	for _, f := range fields {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("field %q not found", name)
	return ""
}

func TestCreateDocument(t *testing.T) {
	f := newDocumentFixture(t, fakeEngine{})
	ctx := context.Background()

	path, err := f.svc.Create(ctx, f.sess, map[string]any{
		"nombre":      "Ana",
		"cedula":      float64(123456789),
		"desconocido": "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "out", "RUT_Ana_María_123.pdf"), path)

	assert.Equal(t, "Ana", fieldValue(t, f.svc, path, "Primer nombre"))
	assert.Equal(t, "123456789", fieldValue(t, f.svc, path, "Número de Identificación"))
	assert.Equal(t, "Ana María (Firma Electrónica)", fieldValue(t, f.svc, path, "Firma del solicitante"))

	has, err := f.svc.Status(ctx, "123")
	require.NoError(t, err)
	assert.True(t, has)

	identity, _ := f.repo.GetIdentity(ctx, "123")
	require.NotNil(t, identity.LastModified)
	assert.Equal(t, 2024, identity.LastModified.Year())

	entries, err := os.ReadDir(filepath.Join(f.dir, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCreateThenUpdateRoundTrips(t *testing.T) {
	f := newDocumentFixture(t, fakeEngine{})
	ctx := context.Background()

	path, err := f.svc.Create(ctx, f.sess, map[string]any{"direccion": "Calle 1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Update(ctx, f.sess, "direccion", "Carrera 7 # 12-34"))

	assert.Equal(t, "Carrera 7 # 12-34", fieldValue(t, f.svc, path, "41. Dirección principal"))
	assert.Equal(t, "Ana María (Firma Electrónica)", fieldValue(t, f.svc, path, "Firma del solicitante"))
}

func TestUpdateWithoutDocument(t *testing.T) {
	f := newDocumentFixture(t, fakeEngine{})

	err := f.svc.Update(context.Background(), f.sess, "direccion", "Calle 1")
	assert.ErrorIs(t, err, port.ErrNoDocument)

	_, statErr := os.Stat(filepath.Join(f.dir, "out"))
	assert.True(t, os.IsNotExist(statErr), "no file touched")

	has, err := f.svc.Status(context.Background(), "123")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUpdateErrors(t *testing.T) {
	f := newDocumentFixture(t, fakeEngine{})
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.sess, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"unmapped key", "telefono", port.ErrInvalidField},
		{"widget missing from template", "nit", port.ErrFieldNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, f.svc.Update(ctx, f.sess, tt.key, "x"), tt.want)
		})
	}
}

func TestFailedSaveKeepsCanonicalDocument(t *testing.T) {
	f := newDocumentFixture(t, fakeEngine{})
	ctx := context.Background()
	path, err := f.svc.Create(ctx, f.sess, map[string]any{"nombre": "Ana"})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	f.svc.engine = failingEngine{}
	err = f.svc.Update(ctx, f.sess, "nombre", "Otra")
	assert.ErrorIs(t, err, port.ErrStorage)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	f := newDocumentFixture(t, fakeEngine{})
	ctx := context.Background()
	path, err := f.svc.Create(ctx, f.sess, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, v := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			assert.NoError(t, f.svc.Update(ctx, f.sess, "direccion", v))
		}(v)
	}
	wg.Wait()

	assert.Contains(t, []string{"a", "b", "c", "d", "e", "f"}, fieldValue(t, f.svc, path, "41. Dirección principal"))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "abc", stringify("abc"))
	assert.Equal(t, "1234567890", stringify(float64(1234567890)))
	assert.Equal(t, "1.5", stringify(1.5))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "7", stringify(7))
}
