package verify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasmere27/verifact/api/internal/tools"
)

type fakeEngine struct {
	mu      sync.Mutex
	outputs []string
	err     error
	calls   int
	tasks   []Task
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) GetModel() string { return "fake-1" }

func (f *fakeEngine) Analyze(ctx context.Context, task Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	if f.err != nil {
		return "", f.err
	}
	i := f.calls
	f.calls++
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	return f.outputs[i], nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEngine) lastTask() Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[len(f.tasks)-1]
}

type fakeSearcher struct {
	snippets []tools.Snippet
	err      error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]tools.Snippet, error) {
	return f.snippets, f.err
}

func newTestService(eng Engine, search tools.Searcher, fetch tools.Fetcher) *Service {
	trusted := []string{"bbc.com", "reuters.com"}
	return New(&Engines{Gemini: eng}, search, fetch, trusted, 4, time.Minute)
}

func TestAnalyzeFakeClaim(t *testing.T) {
	eng := &fakeEngine{outputs: []string{verdictJSON("fake", 90)}}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	v, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{
		Payload: "The sky is green and grass is purple.",
	})
	require.NoError(t, err)
	assert.Equal(t, ClassFake, v.Classification)
	assert.GreaterOrEqual(t, v.ConfidencePercent, 70)
	assert.LessOrEqual(t, v.ConfidencePercent, 100)

	falseClaims := 0
	for _, c := range v.Claims {
		if c.Label == LabelFalse {
			falseClaims++
		}
	}
	assert.GreaterOrEqual(t, falseClaims, 1)
}

func TestAnalyzeTwiceHitsCache(t *testing.T) {
	eng := &fakeEngine{outputs: []string{verdictJSON("fake", 90)}}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	first, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{
		Payload: "The moon is made of cheese.",
	})
	require.NoError(t, err)

	// same text reformatted: same fingerprint, no second engine run
	second, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{
		Payload: "  The   moon is\nmade of cheese. ",
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, eng.callCount())
}

func TestAnalyzeSessionsDoNotShareVerdicts(t *testing.T) {
	eng := &fakeEngine{outputs: []string{verdictJSON("fake", 90)}}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	_, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{Payload: "claim"})
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), "s2", AnalysisRequest{Payload: "claim"})
	require.NoError(t, err)

	assert.Equal(t, 2, eng.callCount())
}

func TestAnalyzeEmptyInputNoCacheEntry(t *testing.T) {
	eng := &fakeEngine{outputs: []string{verdictJSON("real", 80)}}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	_, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{Payload: "   "})
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, 0, eng.callCount())
	assert.Equal(t, 0, svc.Sessions.Get("s1").Len())
}

func TestAnalyzeURLUnreachableNoCacheEntry(t *testing.T) {
	eng := &fakeEngine{outputs: []string{verdictJSON("real", 80)}}
	fetch := &fakeFetcher{err: errors.New("timeout")}
	svc := newTestService(eng, &fakeSearcher{}, fetch)

	_, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{
		Payload:  "https://example.com/slow",
		Modality: ModalityURL,
	})
	assert.ErrorIs(t, err, ErrURLUnreachable)
	assert.Equal(t, 0, eng.callCount(), "no analysis attempted")
	assert.Equal(t, 0, svc.Sessions.Get("s1").Len())
}

func TestAnalyzeUpstreamUnavailable(t *testing.T) {
	eng := &fakeEngine{err: errors.New("connection refused")}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	_, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{Payload: "claim"})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, 0, svc.Sessions.Get("s1").Len(), "failures are never cached")
}

func TestAnalyzeSchemaViolationRetriesOnce(t *testing.T) {
	eng := &fakeEngine{outputs: []string{
		"sorry, I cannot produce JSON",
		verdictJSON("real", 85),
	}}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	v, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{Payload: "claim"})
	require.NoError(t, err)
	assert.Equal(t, ClassReal, v.Classification)
	assert.Equal(t, 2, eng.callCount())
	assert.Contains(t, eng.lastTask().Instructions, "did not match the required JSON output format")
}

func TestAnalyzeSchemaViolationGivesUpAfterRetry(t *testing.T) {
	eng := &fakeEngine{outputs: []string{"nonsense", "still nonsense"}}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	_, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{Payload: "claim"})
	var sv *SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, 2, eng.callCount(), "exactly one corrective retry")
	assert.Equal(t, 0, svc.Sessions.Get("s1").Len())
}

func TestAnalyzeUnknownEngine(t *testing.T) {
	eng := &fakeEngine{outputs: []string{verdictJSON("real", 80)}}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	_, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{
		Payload:    "claim",
		EngineName: "llama",
	})
	assert.ErrorIs(t, err, ErrUnknownEngine)
}

func TestAnalyzeDisclosesSearchOutage(t *testing.T) {
	// The engine consults web search, which fails with an auth error. The
	// verdict must disclose the outage instead of passing it off as "no
	// evidence found".
	search := &fakeSearcher{err: &tools.SearchUnavailableError{Reason: "403 Forbidden"}}
	eng := &searchingEngine{output: verdictJSON("unverified", 0)}
	svc := newTestService(eng, search, nil)

	v, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{Payload: "obscure claim"})
	require.NoError(t, err)
	require.NotEmpty(t, v.DegradedNotes)
	assert.Contains(t, v.DegradedNotes[0], "web search unavailable")
	assert.Contains(t, v.DegradedNotes[0], "403")
}

// searchingEngine invokes the web_search capability once before answering,
// the way a real reasoning engine would.
type searchingEngine struct {
	output string
}

func (e *searchingEngine) Name() string     { return "searching" }
func (e *searchingEngine) GetModel() string { return "searching-1" }

func (e *searchingEngine) Analyze(ctx context.Context, task Task) (string, error) {
	task.Tools.Invoke(ctx, tools.ToolWebSearch, map[string]any{"query": "obscure claim"})
	return e.output, nil
}

func TestAnalyzeTrustedSourceBias(t *testing.T) {
	eng := &fakeEngine{outputs: []string{verdictJSON("real", 95)}}
	fetch := &fakeFetcher{page: tools.Page{Title: "Report", Body: "Verified event coverage."}}
	svc := newTestService(eng, &fakeSearcher{}, fetch)

	v, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{
		Payload:  "https://www.bbc.com/news/article",
		Modality: ModalityURL,
	})
	require.NoError(t, err)
	assert.Equal(t, ClassReal, v.Classification)
	assert.GreaterOrEqual(t, v.ConfidencePercent, 90)

	// the bias rides in the instructions, it is not a hard override
	assert.Contains(t, eng.lastTask().Instructions, "trusted outlets")
	assert.Contains(t, eng.lastTask().Instructions, "between 90 and 100")
}

func TestAnalyzeUntrustedURLGetsNoBias(t *testing.T) {
	eng := &fakeEngine{outputs: []string{verdictJSON("real", 80)}}
	fetch := &fakeFetcher{page: tools.Page{Title: "Blog", Body: "Some claims."}}
	svc := newTestService(eng, &fakeSearcher{}, fetch)

	_, err := svc.Analyze(context.Background(), "s1", AnalysisRequest{
		Payload:  "https://random-blog.example.com/post",
		Modality: ModalityURL,
	})
	require.NoError(t, err)
	assert.NotContains(t, eng.lastTask().Instructions, "The input was fetched from one of these trusted outlets")
}

func TestAnalyzeCancellationPropagates(t *testing.T) {
	eng := &blockingEngine{started: make(chan struct{})}
	svc := newTestService(eng, &fakeSearcher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(ctx, "s1", AnalysisRequest{Payload: "claim"})
		done <- err
	}()

	<-eng.started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not propagate")
	}
	assert.Equal(t, 0, svc.Sessions.Get("s1").Len(), "partial results are never cached")
}

type blockingEngine struct {
	started chan struct{}
	once    sync.Once
}

func (e *blockingEngine) Name() string     { return "blocking" }
func (e *blockingEngine) GetModel() string { return "blocking-1" }

func (e *blockingEngine) Analyze(ctx context.Context, task Task) (string, error) {
	e.once.Do(func() { close(e.started) })
	<-ctx.Done()
	return "", ctx.Err()
}
