package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// IdentityService handles face enrollment, face login and session status.
type IdentityService struct {
	repo     port.IdentityRepository
	encoder  port.FaceEncoder
	index    *FaceIndex
	sessions port.SessionStore
	timeout  time.Duration
}

// NewIdentityService creates a new identity service. timeout bounds each
// call to the face encoder (0 = no bound beyond the caller's context).
func NewIdentityService(repo port.IdentityRepository, encoder port.FaceEncoder, index *FaceIndex, sessions port.SessionStore, timeout time.Duration) *IdentityService {
	return &IdentityService{repo: repo, encoder: encoder, index: index, sessions: sessions, timeout: timeout}
}

// Enrollment is the input of Register.
type Enrollment struct {
	Name       string
	ExternalID string
	Email      string
	Images     [][]byte
}

// LoginResult describes the outcome of a face login.
type LoginResult struct {
	Outcome     MatchOutcome
	IdentityID  string
	DisplayName string
	Distance    float64
	Session     *domain.Session
}

// Register enrolls a new identity with the mean embedding of the usable
// images and rebuilds the face index before returning.
func (s *IdentityService) Register(ctx context.Context, e Enrollment) (*domain.Identity, error) {
	var usable [][]float64
	for i, img := range e.Images {
		encodings, err := s.encode(ctx, img)
		if err != nil {
			return nil, err
		}
		if len(encodings) == 0 {
			slog.Debug("enrollment image without a face dropped", "cedula", e.ExternalID, "image", i)
			continue
		}
		usable = append(usable, encodings[0])
	}
	if len(usable) == 0 {
		return nil, port.ErrNoUsableFace
	}

	identity, err := s.repo.CreateIdentity(ctx, &domain.Identity{
		ExternalID:  e.ExternalID,
		DisplayName: e.Name,
		Email:       e.Email,
		Embedding:   meanEmbedding(usable),
	})
	if err != nil {
		return nil, fmt.Errorf("register identity: %w", err)
	}

	if err := s.index.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("register identity: %w", err)
	}

	slog.Info("identity registered", "cedula", identity.ExternalID, "images", len(e.Images), "usable", len(usable))
	return identity, nil
}

// Login matches the face in image against the index. A match destroys the
// session under previous, if any, and starts one under a freshly issued
// token. Unknown faces are not an error: the result carries
// domain.UnknownIdentity and no session.
func (s *IdentityService) Login(ctx context.Context, previous string, image []byte) (*LoginResult, error) {
	encodings, err := s.encode(ctx, image)
	if err != nil {
		return nil, err
	}
	if len(encodings) == 0 {
		return nil, port.ErrNoFaceDetected
	}

	unknown := &LoginResult{
		Outcome:     Unmatched,
		IdentityID:  domain.UnknownIdentity,
		DisplayName: domain.UnknownIdentity,
	}

	match := s.index.Match(encodings[0])
	unknown.Distance = match.Distance
	if match.Outcome != Matched {
		return unknown, nil
	}

	identity, err := s.repo.GetIdentity(ctx, match.IdentityID)
	if errors.Is(err, port.ErrIdentityNotFound) {
		slog.Warn("face index references a missing identity", "cedula", match.IdentityID)
		return unknown, nil
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if previous != "" {
		s.sessions.Destroy(previous)
	}
	sess, err := s.sessions.Create("", identity.ExternalID, identity.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	slog.Info("session started", "cedula", identity.ExternalID, "distance", match.Distance)
	return &LoginResult{
		Outcome:     Matched,
		IdentityID:  identity.ExternalID,
		DisplayName: identity.DisplayName,
		Distance:    match.Distance,
		Session:     sess,
	}, nil
}

// Session returns the live session for token.
func (s *IdentityService) Session(token string) (*domain.Session, error) {
	if token == "" {
		return nil, port.ErrNoActiveSession
	}
	return s.sessions.Get(token)
}

// Logout destroys the session under token.
func (s *IdentityService) Logout(token string) {
	if token != "" {
		s.sessions.Destroy(token)
	}
}

func (s *IdentityService) encode(ctx context.Context, image []byte) ([][]float64, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	encodings, err := s.encoder.Encode(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrUpstream, err)
	}
	return encodings, nil
}
