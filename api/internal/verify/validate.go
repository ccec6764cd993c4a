package verify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jasmere27/verifact/api/internal/util"
)

// rawVerdict mirrors the JSON the engine is instructed to emit, with loose
// typing where models drift (float confidence, mixed-case enums).
type rawVerdict struct {
	Classification    string  `json:"classification"`
	ConfidencePercent float64 `json:"confidence_percent"`
	Summary           string  `json:"summary"`
	Claims            []struct {
		Claim     string `json:"claim"`
		Label     string `json:"label"`
		Rationale string `json:"rationale"`
	} `json:"claims"`
	Sources               []SourceCitation `json:"sources"`
	CybersecurityTips     []string         `json:"cybersecurity_tips"`
	UserInstructionResult string           `json:"user_instruction_result"`
}

// ParseVerdict parses raw engine output into a typed Verdict and enforces
// the confidence policy and source-count invariants. Any failure is a
// *SchemaViolationError; callers get a typed failure, never a best-effort
// string scan.
func ParseVerdict(raw string) (Verdict, error) {
	s := extractJSONObject(util.StripCodeFences(raw))
	if s == "" {
		return Verdict{}, &SchemaViolationError{Reason: "no JSON object in output"}
	}

	var rv rawVerdict
	if err := json.Unmarshal([]byte(s), &rv); err != nil {
		return Verdict{}, &SchemaViolationError{Reason: "bad JSON: " + err.Error()}
	}

	cls, err := parseClassification(rv.Classification)
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{
		Classification:        cls,
		ConfidencePercent:     int(rv.ConfidencePercent + 0.5),
		Summary:               strings.TrimSpace(rv.Summary),
		Sources:               rv.Sources,
		CybersecurityTips:     rv.CybersecurityTips,
		UserInstructionResult: strings.TrimSpace(rv.UserInstructionResult),
	}
	for _, c := range rv.Claims {
		label, err := parseClaimLabel(c.Label)
		if err != nil {
			return Verdict{}, err
		}
		v.Claims = append(v.Claims, ClaimEvaluation{
			ClaimText: strings.TrimSpace(c.Claim),
			Label:     label,
			Rationale: strings.TrimSpace(c.Rationale),
		})
	}

	if err := ValidateVerdict(v); err != nil {
		return Verdict{}, err
	}
	return v, nil
}

// ValidateVerdict checks the invariants a well-formed verdict must hold.
// Out-of-policy confidence is a violation, not a silent coercion, so the
// corrective retry sees exactly what was wrong.
func ValidateVerdict(v Verdict) error {
	switch v.Classification {
	case ClassReal, ClassFake, ClassMixed, ClassUnverified:
	default:
		return &SchemaViolationError{Reason: fmt.Sprintf("unknown classification %q", v.Classification)}
	}

	c := v.ConfidencePercent
	switch v.Classification {
	case ClassMixed:
		if c != 50 {
			return &SchemaViolationError{Reason: fmt.Sprintf("mixed requires confidence 50, got %d", c)}
		}
	case ClassUnverified:
		if c != 0 {
			return &SchemaViolationError{Reason: fmt.Sprintf("unverified requires confidence 0, got %d", c)}
		}
	default:
		if c < 70 || c > 100 {
			return &SchemaViolationError{Reason: fmt.Sprintf("%s requires confidence in [70,100], got %d", v.Classification, c)}
		}
	}

	if v.Classification != ClassUnverified {
		if len(v.Sources) < 2 {
			return &SchemaViolationError{Reason: fmt.Sprintf("%s requires at least two sources, got %d", v.Classification, len(v.Sources))}
		}
		if len(v.Claims) == 0 {
			return &SchemaViolationError{Reason: "no claim evaluations"}
		}
	}
	return nil
}

func parseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "real":
		return ClassReal, nil
	case "fake":
		return ClassFake, nil
	case "mixed":
		return ClassMixed, nil
	case "unverified":
		return ClassUnverified, nil
	default:
		return "", &SchemaViolationError{Reason: fmt.Sprintf("unknown classification %q", s)}
	}
}

func parseClaimLabel(s string) (ClaimLabel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE":
		return LabelTrue, nil
	case "FALSE":
		return LabelFalse, nil
	case "UNVERIFIED":
		return LabelUnverified, nil
	default:
		return "", &SchemaViolationError{Reason: fmt.Sprintf("unknown claim label %q", s)}
	}
}

// extractJSONObject returns the outermost {...} span, tolerating prose the
// model wrapped around it.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
