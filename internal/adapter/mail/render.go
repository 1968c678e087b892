package mail

import (
	"fmt"
	"html"
	"strings"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/markdown"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
)

// TranscriptSubject is the subject line of the transcript e-mail.
const TranscriptSubject = "Tu conversación con AiVi - DIAN"

// RenderTranscript builds the HTML body: a greeting followed by one block
// per turn. User text is escaped; assistant text is rendered as Markdown.
func RenderTranscript(displayName string, turns []domain.Turn) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>Hola %s,</p>", html.EscapeString(displayName))
	b.WriteString("<p>Esta es la transcripción de tu conversación con AiVi:</p>")

	for _, t := range turns {
		reply, err := markdown.ToHTML(t.Response)
		if err != nil {
			reply = "<p>" + html.EscapeString(t.Response) + "</p>"
		}
		b.WriteString(`<div style="margin-bottom:16px">`)
		fmt.Fprintf(&b, "<p><strong>Tú:</strong> %s</p>", html.EscapeString(t.Prompt))
		fmt.Fprintf(&b, "<div><strong>AiVi:</strong> %s</div>", reply)
		b.WriteString("</div>")
	}

	b.WriteString("<p>Gracias por usar AiVi.</p>")
	b.WriteString("</body></html>")
	return b.String()
}
