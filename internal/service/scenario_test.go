package service

import (
	"context"
	"testing"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/ai"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/session"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"
)

func TestEnrollLoginChatRate(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	idx := NewFaceIndex(repo, 0)
	sessions := session.NewMemoryStore(time.Hour)
	encoder := &fakeEncoder{faces: map[string][][]float64{
		"ana-1": {{0.10, 0.20, 0.30}},
		"ana-2": {{0.12, 0.18, 0.32}},
		"ana-3": {{0.11, 0.21, 0.29}},
	}}
	mailer := &fakeMailer{}

	identities := NewIdentityService(repo, encoder, idx, sessions, time.Second)
	gen := ai.NewLangChainProvider(fake.NewFakeLLM([]string{"positivo", "¡Con mucho gusto, Ana!"}), "fake")
	chat := NewChatService(gen, sessions, "Preguntas frecuentes", time.Second)
	ratings := NewRatingService(repo, repo, sessions, mailer, time.Second)

	_, err := identities.Register(ctx, Enrollment{
		Name: "Ana", ExternalID: "123", Email: "ana@example.com",
		Images: [][]byte{[]byte("ana-1"), []byte("ana-2")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())

	login, err := identities.Login(ctx, "", []byte("ana-3"))
	require.NoError(t, err)
	require.Equal(t, Matched, login.Outcome)
	assert.Equal(t, "123", login.Session.IdentityID)
	token := login.Session.Token

	turn, err := chat.Turn(ctx, token, "gracias!")
	require.NoError(t, err)
	assert.Contains(t, []domain.Sentiment{domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral}, turn.Sentiment)

	sess, err := sessions.Get(token)
	require.NoError(t, err)
	assert.Len(t, sess.Transcript, 1)

	_, err = ratings.Rate(ctx, token, 5)
	require.NoError(t, err)
	ratings.Wait()

	sess, err = sessions.Get(token)
	require.NoError(t, err)
	assert.Empty(t, sess.Transcript)

	recorded := repo.ratingList()
	require.Len(t, recorded, 1)
	assert.Equal(t, "123", recorded[0].ExternalID)
	assert.Len(t, mailer.messages(), 1)
}
