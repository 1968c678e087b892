package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/mail"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// Rating bounds.
const (
	MinScore = 1
	MaxScore = 5
)

// RatingService records chat ratings and flushes the transcript.
type RatingService struct {
	ratings    port.RatingRepository
	identities port.IdentityRepository
	sessions   port.SessionStore
	mailer     port.Mailer
	timeout    time.Duration

	wg sync.WaitGroup
}

// NewRatingService creates a new rating service. mailer may be nil to
// disable transcript e-mail.
func NewRatingService(ratings port.RatingRepository, identities port.IdentityRepository, sessions port.SessionStore, mailer port.Mailer, timeout time.Duration) *RatingService {
	return &RatingService{ratings: ratings, identities: identities, sessions: sessions, mailer: mailer, timeout: timeout}
}

// Rate stores score for the session's identity, clears the transcript and
// mails the cleared turns in the background.
func (s *RatingService) Rate(ctx context.Context, token string, score int) (*domain.Rating, error) {
	if score < MinScore || score > MaxScore {
		return nil, port.ErrInvalidRating
	}
	sess, err := s.sessions.Get(token)
	if err != nil {
		return nil, err
	}

	rating, err := s.ratings.InsertRating(ctx, &domain.Rating{ExternalID: sess.IdentityID, Score: score})
	if err != nil {
		return nil, fmt.Errorf("rate chat: %w", err)
	}

	turns, err := s.sessions.ClearTranscript(token)
	if err != nil {
		return nil, err
	}

	slog.Info("chat rated", "cedula", sess.IdentityID, "score", score, "turns", len(turns))

	if s.mailer != nil && len(turns) > 0 {
		s.sendTranscript(ctx, sess, turns)
	}
	return rating, nil
}

// Wait blocks until pending transcript e-mails have finished.
func (s *RatingService) Wait() {
	s.wg.Wait()
}

func (s *RatingService) sendTranscript(ctx context.Context, sess *domain.Session, turns []domain.Turn) {
	identity, err := s.identities.GetIdentity(ctx, sess.IdentityID)
	if err != nil {
		slog.Warn("transcript mail skipped", "cedula", sess.IdentityID, "error", err)
		return
	}
	if identity.Email == "" {
		return
	}

	msg := port.Message{
		To:      identity.Email,
		Subject: mail.TranscriptSubject,
		HTML:    mail.RenderTranscript(sess.DisplayName, turns),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sendCtx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(sendCtx, s.timeout)
			defer cancel()
		}
		if err := s.mailer.Send(sendCtx, msg); err != nil {
			slog.Error("transcript mail failed", "cedula", sess.IdentityID, "error", err)
			return
		}
		slog.Info("transcript mailed", "cedula", sess.IdentityID)
	}()
}
