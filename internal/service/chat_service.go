package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// HistoryWindow is the number of past turns given to the model.
const HistoryWindow = 3

// ChatService runs conversation turns against the generative model.
type ChatService struct {
	gen       port.Generator
	sessions  port.SessionStore
	knowledge string
	timeout   time.Duration
	now       func() time.Time
}

// NewChatService creates a new chat service. gen may be nil when no model
// could be configured; turns then fail with ErrAssistantUnavailable.
func NewChatService(gen port.Generator, sessions port.SessionStore, knowledge string, timeout time.Duration) *ChatService {
	return &ChatService{gen: gen, sessions: sessions, knowledge: knowledge, timeout: timeout, now: time.Now}
}

// Available reports whether a model is configured.
func (s *ChatService) Available() bool {
	return s.gen != nil
}

// Classify tags the tone of text. It never fails: any upstream problem or
// unexpected answer yields neutro.
func (s *ChatService) Classify(ctx context.Context, text string) domain.Sentiment {
	if s.gen == nil {
		return domain.SentimentNeutral
	}
	raw, err := s.generate(ctx, sentimentPrompt(text))
	if err != nil {
		slog.Warn("sentiment classification failed", "error", err)
		return domain.SentimentNeutral
	}
	return domain.ParseSentiment(raw)
}

// Respond sends prompt to the model and returns its raw text.
func (s *ChatService) Respond(ctx context.Context, prompt string) (string, error) {
	if s.gen == nil {
		return "", port.ErrAssistantUnavailable
	}
	out, err := s.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", port.ErrUpstream, err)
	}
	return out, nil
}

// Turn runs one exchange: classify, build the prompt from the last turns,
// respond and append to the transcript. A failed response appends nothing,
// and neither does a reply that arrives after token stopped belonging to the
// identity that asked.
func (s *ChatService) Turn(ctx context.Context, token, text string) (*domain.Turn, error) {
	sess, err := s.sessions.Get(token)
	if err != nil {
		return nil, err
	}
	if s.gen == nil {
		return nil, port.ErrAssistantUnavailable
	}

	sentiment := s.Classify(ctx, text)
	prompt := BuildPrompt(text, sentiment, sess.Window(HistoryWindow), s.knowledge)

	reply, err := s.Respond(ctx, prompt)
	if err != nil {
		slog.Error("assistant response failed", "cedula", sess.IdentityID, "error", err)
		return nil, err
	}

	turn := domain.Turn{Prompt: text, Response: reply, Sentiment: sentiment, At: s.now()}
	if err := s.sessions.AppendTurn(token, sess.IdentityID, turn); err != nil {
		return nil, err
	}

	slog.Info("chat turn", "cedula", sess.IdentityID, "sentiment", sentiment, "model", s.gen.ModelName())
	return &turn, nil
}

func (s *ChatService) generate(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.gen.Generate(ctx, prompt)
}

func sentimentPrompt(text string) string {
	return fmt.Sprintf("Analiza el sentimiento del siguiente texto. Responde únicamente con una de estas tres palabras: %s, %s, %s. Texto: %q",
		domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral, text)
}

// BuildPrompt assembles the assistant prompt. The output depends only on its
// arguments.
func BuildPrompt(text string, sentiment domain.Sentiment, history []domain.Turn, knowledge string) string {
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, fmt.Sprintf("Usuario: %s\nAsistente: %s", t.Prompt, t.Response))
	}

	var b strings.Builder
	b.WriteString("Eres AiVi, un asistente experto de la DIAN. Eres amable, cortés y muy empático.\n\n")
	b.WriteString("**Análisis de la Conversación:**\n")
	fmt.Fprintf(&b, "- Sentimiento del último mensaje del usuario: **%s**\n", sentiment)
	fmt.Fprintf(&b, "- Historial de la conversación: %s\n\n", strings.Join(lines, "\n"))

	b.WriteString("**TUS INSTRUCCIONES DE COMPORTAMIENTO:**\n")
	b.WriteString("1. **ADAPTA TU TONO:** Ajusta tu estilo de respuesta al sentimiento del usuario.\n")
	b.WriteString("   - Si el sentimiento es **negativo**, tu tono debe ser especialmente empático y comprensivo. Ofrece ayuda de forma proactiva.\n")
	b.WriteString("   - Si el sentimiento es **positivo**, responde de manera amigable y entusiasta.\n")
	b.WriteString("   - Si el sentimiento es **neutro**, mantén un tono profesional, claro y directo.\n")
	b.WriteString("2. **USA TU BASE DE CONOCIMIENTO:** Tu única fuente de verdad es el siguiente documento. Responde basándote exclusivamente en él.\n")
	b.WriteString("3. **SÉ PROACTIVO:** Si la respuesta no está en el documento, no digas \"no sé\". En su lugar, responde cortésmente: ")
	b.WriteString("\"No tengo información sobre ese tema en mi base de conocimiento, pero puedo ayudarte con otros trámites del RUT.\"\n\n")

	b.WriteString("--- DOCUMENTO DE CONOCIMIENTO ---\n")
	b.WriteString(knowledge)
	b.WriteString("\n--- FIN DEL DOCUMENTO ---\n\n")

	b.WriteString("Ahora, responde a la siguiente pregunta del usuario aplicando estrictamente tus instrucciones:\n")
	fmt.Fprintf(&b, "Usuario: %s\n", text)
	return b.String()
}
