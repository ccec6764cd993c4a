package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jasmere27/verifact/api/internal/verify"
)

func (r *Router) acceptPhoto(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	if r.OCR == nil {
		r.send(cid, "Photo analysis is not configured on this bot.")
		return
	}

	// Telegram sorts photo sizes ascending; take the largest.
	ph := msg.Photo[len(msg.Photo)-1]
	img, err := r.downloadFile(ph.FileID)
	if err != nil {
		r.sendError(cid, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	r.typing(cid)
	text, err := r.OCR.Recognize(ctx, img)
	if err != nil {
		r.sendError(cid, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		r.send(cid, "I could not find readable text in that image.")
		return
	}
	r.analyze(cid, text, verify.ModalityImageText)
}

func (r *Router) acceptVoice(msg tgbotapi.Message) {
	cid := msg.Chat.ID
	if r.Speech == nil {
		r.send(cid, "Voice analysis is not configured on this bot.")
		return
	}

	fileID := ""
	if msg.Voice != nil {
		fileID = msg.Voice.FileID
	} else if msg.Audio != nil {
		fileID = msg.Audio.FileID
	}
	audio, err := r.downloadFile(fileID)
	if err != nil {
		r.sendError(cid, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout())
	defer cancel()

	r.typing(cid)
	transcript, err := r.Speech.Transcribe(ctx, audio)
	if err != nil {
		r.sendError(cid, err)
		return
	}
	if strings.TrimSpace(transcript) == "" {
		r.send(cid, "No speech detected in that audio.")
		return
	}
	r.analyze(cid, transcript, verify.ModalityAudioText)
}

func (r *Router) downloadFile(fileID string) ([]byte, error) {
	file, err := r.Bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", r.Bot.Token, file.FilePath)
	return download(url)
}

func download(url string) ([]byte, error) {
	cli := &http.Client{Timeout: 60 * time.Second}
	resp, err := cli.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
