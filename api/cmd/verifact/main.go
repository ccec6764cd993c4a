package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver

	"github.com/jasmere27/verifact/api/internal/config"
	"github.com/jasmere27/verifact/api/internal/handle"
	"github.com/jasmere27/verifact/api/internal/ocr/yandex"
	"github.com/jasmere27/verifact/api/internal/speech"
	"github.com/jasmere27/verifact/api/internal/store"
	"github.com/jasmere27/verifact/api/internal/tools"
	"github.com/jasmere27/verifact/api/internal/verify"
	"github.com/jasmere27/verifact/api/internal/verify/gemini"
	"github.com/jasmere27/verifact/api/internal/verify/gpt"
)

func main() {
	cfg := config.Load()

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

	var auditRepo *store.VerdictRepo
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("sql.Open: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				log.Fatalf("db.Ping: %v", err)
			}
		}
		auditRepo = store.NewVerdictRepo(db)
		svc.Audit = auditRepo
		log.Printf("verdict audit log enabled")
	}

	// OCR and speech front ends are optional; the core works on text
	// without them.
	var ocrRec handle.Recognizer
	var stt handle.Transcriber
	if cfg.YCOAuthToken != "" && cfg.YCFolderID != "" {
		iamc := yandex.NewIamClient(cfg.YCOAuthToken)
		ocrRec = yandex.NewRecognizer(iamc, cfg.YCFolderID)
		stt = speech.NewTranscriber(iamc, cfg.YCFolderID)
	}

	h := handle.New(svc, ocrRec, stt)
	if auditRepo != nil {
		h = h.WithAudit(auditRepo)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/check", h.Check)
	mux.HandleFunc("/v1/check/image", h.CheckImage)
	mux.HandleFunc("/v1/check/audio", h.CheckAudio)
	mux.HandleFunc("/v1/audit/recent", h.AuditRecent)

	addr := ":" + cfg.Port
	log.Printf("verifact listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
