package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/jasmere27/verifact/api/internal/config"
	"github.com/jasmere27/verifact/api/internal/handle"
	"github.com/jasmere27/verifact/api/internal/ocr/yandex"
	"github.com/jasmere27/verifact/api/internal/speech"
	"github.com/jasmere27/verifact/api/internal/store"
	"github.com/jasmere27/verifact/api/internal/telegram"
	"github.com/jasmere27/verifact/api/internal/tools"
	"github.com/jasmere27/verifact/api/internal/verify"
	"github.com/jasmere27/verifact/api/internal/verify/gemini"
	"github.com/jasmere27/verifact/api/internal/verify/gpt"
)

func main() {
	cfg := config.Load()
	if cfg.TelegramBotToken == "" {
		log.Fatal("missing required env TELEGRAM_BOT_TOKEN")
	}

	engines := &verify.Engines{
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
	}
	if cfg.OpenAIAPIKey != "" {
		engines.OpenAI = gpt.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	search := tools.NewGoogleSearch(cfg.GoogleAPIKey, cfg.GoogleSearchEngineID)
	fetch := tools.NewHTTPFetcher(10 * time.Second)

	svc := verify.New(engines, search, fetch, cfg.TrustedDomains,
		cfg.MaxConcurrent, time.Duration(cfg.RequestTimeoutSec)*time.Second)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatalf("db.Ping: %v", err)
		}
		cancel()
		svc.Audit = store.NewVerdictRepo(db)
	}

	var ocrRec handle.Recognizer
	var stt handle.Transcriber
	if cfg.YCOAuthToken != "" && cfg.YCFolderID != "" {
		iamc := yandex.NewIamClient(cfg.YCOAuthToken)
		ocrRec = yandex.NewRecognizer(iamc, cfg.YCFolderID)
		stt = speech.NewTranscriber(iamc, cfg.YCFolderID)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:     bot,
		Svc:     svc,
		OCR:     ocrRec,
		Speech:  stt,
		Timeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
	}

	http.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(addr, bot, r, webhookURL)
	} else {
		startPollingMode(addr, bot, r)
	}
}

func startWebhookMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) {
	// secret webhook path
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal(err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal(err)
	}

	// ListenForWebhook registers its handler on the DefaultServeMux
	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			go r.HandleUpdate(upd)
		}
		log.Printf("webhook updates channel closed")
	}()

	log.Printf("webhook listening on %s%s", addr, path)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func startPollingMode(addr string, bot *tgbotapi.BotAPI, r *telegram.Router) {
	// healthz server still runs, though polling does not need it
	go func() {
		log.Printf("health server listening on %s/healthz", addr)
		log.Fatal(http.ListenAndServe(addr, nil))
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	log.Printf("polling for updates as @%s", bot.Self.UserName)
	for upd := range bot.GetUpdatesChan(u) {
		go r.HandleUpdate(upd)
	}
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
