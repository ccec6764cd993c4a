package verify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verdictJSON(class string, confidence int) string {
	return fmt.Sprintf(`{
		"classification": %q,
		"confidence_percent": %d,
		"summary": "summary",
		"claims": [{"claim": "c1", "label": "FALSE", "rationale": "because"}],
		"sources": [
			{"name": "Reuters", "url": "https://reuters.com/a"},
			{"name": "BBC", "url": "https://bbc.com/b", "publication_date": "2026-01-02"}
		],
		"cybersecurity_tips": ["Cybersecurity Tip: verify before sharing."]
	}`, class, confidence)
}

func TestParseVerdictValid(t *testing.T) {
	v, err := ParseVerdict(verdictJSON("fake", 90))
	require.NoError(t, err)
	assert.Equal(t, ClassFake, v.Classification)
	assert.Equal(t, 90, v.ConfidencePercent)
	require.Len(t, v.Claims, 1)
	assert.Equal(t, LabelFalse, v.Claims[0].Label)
	assert.Len(t, v.Sources, 2)
	assert.Equal(t, "2026-01-02", v.Sources[1].PublicationDate)
}

func TestParseVerdictStripsFences(t *testing.T) {
	raw := "```json\n" + verdictJSON("real", 85) + "\n```"
	v, err := ParseVerdict(raw)
	require.NoError(t, err)
	assert.Equal(t, ClassReal, v.Classification)
}

func TestParseVerdictToleratesSurroundingProse(t *testing.T) {
	raw := "Here is my analysis:\n" + verdictJSON("real", 80) + "\nHope this helps!"
	v, err := ParseVerdict(raw)
	require.NoError(t, err)
	assert.Equal(t, ClassReal, v.Classification)
}

func TestParseVerdictCaseInsensitiveEnums(t *testing.T) {
	raw := `{
		"classification": "Fake",
		"confidence_percent": 75,
		"claims": [{"claim": "c", "label": "false"}],
		"sources": [{"name": "a", "url": "u1"}, {"name": "b", "url": "u2"}]
	}`
	v, err := ParseVerdict(raw)
	require.NoError(t, err)
	assert.Equal(t, ClassFake, v.Classification)
	assert.Equal(t, LabelFalse, v.Claims[0].Label)
}

func TestParseVerdictFloatConfidence(t *testing.T) {
	raw := `{
		"classification": "real",
		"confidence_percent": 88.0,
		"claims": [{"claim": "c", "label": "TRUE"}],
		"sources": [{"name": "a", "url": "u1"}, {"name": "b", "url": "u2"}]
	}`
	v, err := ParseVerdict(raw)
	require.NoError(t, err)
	assert.Equal(t, 88, v.ConfidencePercent)
}

func TestParseVerdictRejectsGarbage(t *testing.T) {
	var sv *SchemaViolationError

	_, err := ParseVerdict("I think this is probably fake news.")
	require.ErrorAs(t, err, &sv)

	_, err = ParseVerdict(`{"classification": "bogus", "confidence_percent": 70}`)
	require.ErrorAs(t, err, &sv)

	_, err = ParseVerdict(`{"classification": "real", "confidence_percent": 80,
		"claims": [{"claim": "c", "label": "maybe"}],
		"sources": [{"name":"a","url":"u"},{"name":"b","url":"u"}]}`)
	require.ErrorAs(t, err, &sv)
}

func TestConfidencePolicy(t *testing.T) {
	cases := []struct {
		class      Classification
		confidence int
		ok         bool
	}{
		{ClassMixed, 50, true},
		{ClassMixed, 49, false},
		{ClassMixed, 0, false},
		{ClassUnverified, 0, true},
		{ClassUnverified, 10, false},
		{ClassReal, 70, true},
		{ClassReal, 100, true},
		{ClassReal, 69, false},
		{ClassFake, 101, false},
		{ClassFake, 85, true},
	}
	for _, tc := range cases {
		v := Verdict{
			Classification:    tc.class,
			ConfidencePercent: tc.confidence,
			Claims:            []ClaimEvaluation{{ClaimText: "c", Label: LabelUnverified}},
			Sources:           []SourceCitation{{Name: "a", URL: "u"}, {Name: "b", URL: "u"}},
		}
		err := ValidateVerdict(v)
		if tc.ok {
			assert.NoError(t, err, "%s/%d", tc.class, tc.confidence)
		} else {
			assert.Error(t, err, "%s/%d", tc.class, tc.confidence)
		}
	}
}

func TestSourceCountInvariant(t *testing.T) {
	v := Verdict{
		Classification:    ClassReal,
		ConfidencePercent: 80,
		Claims:            []ClaimEvaluation{{ClaimText: "c", Label: LabelTrue}},
		Sources:           []SourceCitation{{Name: "only one", URL: "u"}},
	}
	assert.Error(t, ValidateVerdict(v))

	// unverified is exempt from the two-source rule
	v = Verdict{Classification: ClassUnverified, ConfidencePercent: 0}
	assert.NoError(t, ValidateVerdict(v))
}

func TestClaimsRequired(t *testing.T) {
	v := Verdict{
		Classification:    ClassFake,
		ConfidencePercent: 80,
		Sources:           []SourceCitation{{Name: "a", URL: "u"}, {Name: "b", URL: "u"}},
	}
	assert.Error(t, ValidateVerdict(v))
}
