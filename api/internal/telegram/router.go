// Package telegram is the bot front end: text messages, photos (OCR) and
// voice clips (speech-to-text) are funneled into the fact-checking core.
// The chat id is the consistency session, so repeating a claim in one chat
// returns the same verdict.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jasmere27/verifact/api/internal/handle"
	"github.com/jasmere27/verifact/api/internal/verify"
)

type Router struct {
	Bot    *tgbotapi.BotAPI
	Svc    handle.Analyzer
	OCR    handle.Recognizer
	Speech handle.Transcriber

	// Analysis deadline per message
	Timeout time.Duration

	// chatID -> engine name chosen via /engine
	engines sync.Map
}

func (r *Router) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 180 * time.Second
}

func (r *Router) session(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

func (r *Router) engineFor(chatID int64) string {
	if v, ok := r.engines.Load(chatID); ok {
		return v.(string)
	}
	return ""
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		r.handleCommand(*msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(*msg)
	case msg.Voice != nil || msg.Audio != nil:
		r.acceptVoice(*msg)
	case strings.TrimSpace(msg.Text) != "":
		r.acceptText(*msg)
	default:
		r.send(cid, "Send me a claim, a link, a photo of a headline, or a voice message and I will fact-check it.")
	}
}

func (r *Router) handleCommand(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start":
		r.send(cid, "I verify claims and news. Send text, a link, a photo of an article, or a voice message.\nCommands: /engine, /health")
	case "health":
		r.send(cid, "OK")
	case "engine":
		args := strings.Fields(strings.TrimSpace(msg.CommandArguments()))
		if len(args) == 0 {
			cur := r.engineFor(cid)
			if cur == "" {
				cur = "default"
			}
			r.send(cid, "Current engine: "+cur+"\nUsage: /engine gemini | /engine gpt")
			return
		}
		name := strings.ToLower(args[0])
		switch name {
		case "gemini", "gpt":
			r.engines.Store(cid, name)
			r.send(cid, "Switched to "+name)
		default:
			r.send(cid, "Unknown engine. Available: gemini | gpt")
		}
	default:
		r.send(cid, "Unknown command")
	}
}

func (r *Router) acceptText(msg tgbotapi.Message) {
	r.analyze(msg.Chat.ID, msg.Text, verify.ModalityText)
}

// analyze runs the core on already-extracted text and reports the verdict
// or a readable failure back into the chat.
func (r *Router) analyze(chatID int64, payload string, modality verify.Modality) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	r.typing(chatID)
	verdict, err := r.Svc.Analyze(ctx, r.session(chatID), verify.AnalysisRequest{
		Payload:    payload,
		Modality:   modality,
		EngineName: r.engineFor(chatID),
	})
	if err != nil {
		log.Printf("chat %d: analysis failed: %v", chatID, err)
		r.send(chatID, analysisFailureText(err))
		return
	}
	r.send(chatID, RenderVerdict(verdict))
}
