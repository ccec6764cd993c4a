// Package verify is the fact-checking orchestration core: it normalizes
// heterogeneous inputs into one analyzable text, drives an external
// reasoning engine with controlled tool access, validates the engine's
// output against the verdict schema, and guarantees that the same input
// yields the same verdict within a session.
package verify

import "time"

// Modality tags where the analyzable text came from. Image and audio
// payloads are converted to text upstream (OCR, speech-to-text); the core
// only ever sees text plus the tag.
type Modality string

const (
	ModalityText      Modality = "text"
	ModalityURL       Modality = "url"
	ModalityImageText Modality = "image_text"
	ModalityAudioText Modality = "audio_text"
)

// AnalysisRequest is one incoming claim to check.
type AnalysisRequest struct {
	Payload  string   `json:"payload"`
	Modality Modality `json:"modality"`
	// EngineName selects the reasoning engine ("gemini", "gpt"); empty
	// means the default.
	EngineName string `json:"llm_name,omitempty"`
}

// NormalizedInput is the single text blob handed to the reasoning engine.
// No modality-specific structure leaks past this boundary.
type NormalizedInput struct {
	CanonicalText   string
	Modality        Modality
	ResolvedFromURL bool
	// SourceURL is set when the text was fetched from a URL; used for the
	// trusted-source bias.
	SourceURL string
}

// Classification is the fixed verdict vocabulary.
type Classification string

const (
	ClassReal       Classification = "real"
	ClassFake       Classification = "fake"
	ClassMixed      Classification = "mixed"
	ClassUnverified Classification = "unverified"
)

// ClaimLabel is the per-claim evaluation vocabulary.
type ClaimLabel string

const (
	LabelTrue       ClaimLabel = "TRUE"
	LabelFalse      ClaimLabel = "FALSE"
	LabelUnverified ClaimLabel = "UNVERIFIED"
)

type ClaimEvaluation struct {
	ClaimText string     `json:"claim"`
	Label     ClaimLabel `json:"label"`
	Rationale string     `json:"rationale,omitempty"`
}

type SourceCitation struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	PublicationDate string `json:"publication_date,omitempty"`
}

// Verdict is the validated analysis result.
//
// Invariants enforced by ValidateVerdict:
//   - mixed => ConfidencePercent == 50
//   - unverified => ConfidencePercent == 0
//   - real/fake => 70 <= ConfidencePercent <= 100
//   - classification != unverified => len(Sources) >= 2 and len(Claims) >= 1
type Verdict struct {
	Classification        Classification    `json:"classification"`
	ConfidencePercent     int               `json:"confidence_percent"`
	Summary               string            `json:"summary,omitempty"`
	Claims                []ClaimEvaluation `json:"claims"`
	Sources               []SourceCitation  `json:"sources"`
	CybersecurityTips     []string          `json:"cybersecurity_tips,omitempty"`
	UserInstructionResult string            `json:"user_instruction_result,omitempty"`
	// DegradedNotes discloses capability failures during the analysis, so
	// "search service broken" never masquerades as "no evidence found".
	DegradedNotes []string `json:"degraded_notes,omitempty"`
}

// CacheEntry is one stored verdict, owned by a SessionCache.
type CacheEntry struct {
	Fingerprint Fingerprint
	Verdict     Verdict
	CreatedAt   time.Time
}
