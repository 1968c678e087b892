package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// fakeRepo is an in-memory identity and rating store.
type fakeRepo struct {
	mu         sync.Mutex
	identities map[string]*domain.Identity
	ratings    []domain.Rating
	nextID     int64
	listErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{identities: make(map[string]*domain.Identity)}
}

func (r *fakeRepo) CreateIdentity(_ context.Context, id *domain.Identity) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.identities {
		if existing.ExternalID == id.ExternalID || existing.Email == id.Email {
			return nil, port.ErrDuplicateIdentity
		}
	}
	r.nextID++
	c := *id
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	r.identities[c.ExternalID] = &c
	out := c
	return &out, nil
}

func (r *fakeRepo) GetIdentity(_ context.Context, externalID string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.identities[externalID]
	if !ok {
		return nil, port.ErrIdentityNotFound
	}
	c := *id
	return &c, nil
}

func (r *fakeRepo) ListFaceEntries(context.Context) ([]domain.FaceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	keys := make([]string, 0, len(r.identities))
	for k := range r.identities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]domain.FaceEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.FaceEntry{IdentityID: k, Embedding: r.identities[k].Embedding})
	}
	return out, nil
}

func (r *fakeRepo) SetDocument(_ context.Context, externalID, path string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.identities[externalID]
	if !ok {
		return port.ErrIdentityNotFound
	}
	id.DocumentPath = &path
	id.LastModified = &at
	return nil
}

func (r *fakeRepo) TouchDocument(_ context.Context, externalID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.identities[externalID]
	if !ok {
		return port.ErrIdentityNotFound
	}
	id.LastModified = &at
	return nil
}

func (r *fakeRepo) InsertRating(_ context.Context, rt *domain.Rating) (*domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *rt
	c.ID = int64(len(r.ratings) + 1)
	c.CreatedAt = time.Now()
	r.ratings = append(r.ratings, c)
	return &c, nil
}

func (r *fakeRepo) ratingList() []domain.Rating {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Rating(nil), r.ratings...)
}

// fakeEncoder returns canned embeddings keyed by image content.
type fakeEncoder struct {
	faces map[string][][]float64
	err   error
}

func (e *fakeEncoder) Encode(_ context.Context, image []byte) ([][]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.faces[string(image)], nil
}

// fakeEngine stores form fields as a JSON object on disk.
type fakeEngine struct{}

func writeForm(path string, fields map[string]string) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readForm(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (fakeEngine) Fields(path string) ([]domain.FormField, error) {
	fields, err := readForm(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]domain.FormField, 0, len(names))
	for _, n := range names {
		out = append(out, domain.FormField{Name: n, Value: fields[n], Page: 1})
	}
	return out, nil
}

func (fakeEngine) Fill(src, dst string, values map[string]string) error {
	if src == dst {
		return errors.New("same file")
	}
	fields, err := readForm(src)
	if err != nil {
		return err
	}
	for name, v := range values {
		if _, ok := fields[name]; ok {
			fields[name] = v
		}
	}
	return writeForm(dst, fields)
}

// failingEngine fails every fill.
type failingEngine struct{ fakeEngine }

func (failingEngine) Fill(string, string, map[string]string) error {
	return errors.New("disk full")
}

// fakeMailer records sent messages.
type fakeMailer struct {
	mu   sync.Mutex
	sent []port.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg port.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) messages() []port.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]port.Message(nil), m.sent...)
}

// scriptedGenerator answers the sentiment prompt and the chat prompt separately.
type scriptedGenerator struct {
	sentiment    string
	sentimentErr error
	reply        string
	replyErr     error

	mu      sync.Mutex
	prompts []string
}

func (g *scriptedGenerator) ModelName() string { return "scripted" }

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	n := len(g.prompts)
	g.mu.Unlock()
	if n%2 == 1 {
		return g.sentiment, g.sentimentErr
	}
	return g.reply, g.replyErr
}
