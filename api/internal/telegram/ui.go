package telegram

import (
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jasmere27/verifact/api/internal/verify"
)

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("send to %d: %v", chatID, err)
	}
}

func (r *Router) sendError(chatID int64, err error) {
	r.send(chatID, "Something went wrong: "+err.Error())
}

func (r *Router) typing(chatID int64) {
	_, _ = r.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

var classEmoji = map[verify.Classification]string{
	verify.ClassReal:       "✅",
	verify.ClassFake:       "❌",
	verify.ClassMixed:      "⚖️",
	verify.ClassUnverified: "❓",
}

// RenderVerdict formats a verdict as a chat message.
func RenderVerdict(v verify.Verdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s Classification: %s\nConfidence Score: %d%%\n",
		classEmoji[v.Classification], strings.ToUpper(string(v.Classification)), v.ConfidencePercent)

	if v.UserInstructionResult != "" {
		b.WriteString("\nRequested task:\n" + v.UserInstructionResult + "\n")
	}
	if v.Summary != "" {
		b.WriteString("\n" + v.Summary + "\n")
	}

	if len(v.Claims) > 0 {
		b.WriteString("\nClaims:\n")
		for _, c := range v.Claims {
			fmt.Fprintf(&b, "• [%s] %s", c.Label, c.ClaimText)
			if c.Rationale != "" {
				b.WriteString(" — " + c.Rationale)
			}
			b.WriteString("\n")
		}
	}

	if len(v.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for _, s := range v.Sources {
			fmt.Fprintf(&b, "• %s: %s", s.Name, s.URL)
			if s.PublicationDate != "" {
				fmt.Fprintf(&b, " (%s)", s.PublicationDate)
			}
			b.WriteString("\n")
		}
	}

	for _, tip := range v.CybersecurityTips {
		b.WriteString("\n" + tip)
	}
	for _, note := range v.DegradedNotes {
		b.WriteString("\n⚠️ " + note)
	}
	return strings.TrimSpace(b.String())
}

// analysisFailureText maps the error taxonomy to chat-friendly wording.
// Every failure path is distinguishable; no fabricated verdicts.
func analysisFailureText(err error) string {
	var sv *verify.SchemaViolationError
	switch {
	case errors.Is(err, verify.ErrEmptyInput):
		return "There is nothing to analyze in that message."
	case errors.Is(err, verify.ErrURLUnreachable):
		return "❗ Unable to fetch content from the URL provided. Please make sure it is accessible and contains readable text."
	case errors.Is(err, verify.ErrUpstreamUnavailable):
		return "The analysis service is unavailable right now. Please try again in a moment."
	case errors.As(err, &sv):
		return "The analysis could not be completed reliably. Please try again."
	default:
		return "Something went wrong: " + err.Error()
	}
}
