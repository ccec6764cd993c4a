package verify

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jasmere27/verifact/api/internal/tools"
)

// AuditRecord is one completed analysis for the audit log.
type AuditRecord struct {
	SessionID   string
	Fingerprint Fingerprint
	Modality    Modality
	Engine      string
	Verdict     Verdict
}

// AuditLog persists completed analyses. Failures are logged, never fatal.
type AuditLog interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// Service runs the analysis pipeline: normalize, fingerprint, cache
// lookup, orchestrate, validate, cache write.
type Service struct {
	Engines    *Engines
	Normalizer *Normalizer
	Sessions   *Sessions

	// Shared capability adapters; each request gets its own tools.Set so
	// failure disclosure stays per-request.
	Search tools.Searcher
	Fetch  tools.Fetcher
	Clock  tools.Clock

	TrustedDomains []string
	Audit          AuditLog

	sem     *semaphore.Weighted
	timeout time.Duration
}

// New wires a Service. maxConcurrent caps in-flight orchestrations;
// timeout is the default deadline applied when the caller brings none.
func New(engines *Engines, search tools.Searcher, fetch tools.Fetcher, trusted []string, maxConcurrent int64, timeout time.Duration) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Service{
		Engines:        engines,
		Normalizer:     &Normalizer{Fetch: fetch},
		Sessions:       NewSessions(),
		Search:         search,
		Fetch:          fetch,
		Clock:          tools.SystemClock{},
		TrustedDomains: trusted,
		sem:            semaphore.NewWeighted(maxConcurrent),
		timeout:        timeout,
	}
}

// Analyze checks one claim within the given session. Identical canonical
// text within a session returns the previously computed verdict without
// touching the reasoning engine again.
func (s *Service) Analyze(ctx context.Context, sessionID string, req AnalysisRequest) (Verdict, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Verdict{}, err
	}
	defer s.sem.Release(1)

	input, err := s.Normalizer.Normalize(ctx, req.Payload, req.Modality)
	if err != nil {
		return Verdict{}, err
	}

	fp := MakeFingerprint(input.CanonicalText)
	cache := s.Sessions.Get(sessionID)

	verdict, cached, err := cache.GetOrCompute(fp, func() (Verdict, error) {
		return s.orchestrate(ctx, req.EngineName, input)
	})
	if err != nil {
		return Verdict{}, err
	}
	if cached {
		log.Printf("session %s: cache hit for %s", sessionID, fp[:12])
		return verdict, nil
	}

	if s.Audit != nil {
		rec := AuditRecord{
			SessionID:   sessionID,
			Fingerprint: fp,
			Modality:    input.Modality,
			Engine:      req.EngineName,
			Verdict:     verdict,
		}
		if err := s.Audit.Record(ctx, rec); err != nil {
			log.Printf("audit record failed: %v", err)
		}
	}
	return verdict, nil
}

// orchestrate drives one reasoning-engine run with bounded tool access
// and schema enforcement, retrying once with a corrective instruction on a
// schema violation.
func (s *Service) orchestrate(ctx context.Context, engineName string, input NormalizedInput) (Verdict, error) {
	engine, err := s.Engines.Get(engineName)
	if err != nil {
		return Verdict{}, err
	}

	trusted := input.ResolvedFromURL && HostTrusted(input.SourceURL, s.TrustedDomains)
	set := tools.NewSet(s.Search, s.Fetch, s.Clock)
	task := Task{
		Instructions: Instructions(input.Modality, s.TrustedDomains, trusted),
		Input:        input,
		Tools:        set,
	}

	raw, err := engine.Analyze(ctx, task)
	if err != nil {
		return Verdict{}, joinUpstream(err)
	}

	verdict, err := ParseVerdict(raw)
	var sv *SchemaViolationError
	if errors.As(err, &sv) {
		log.Printf("engine %s: schema violation (%s), retrying once", engine.Name(), sv.Reason)
		task.Instructions += RepairInstruction(sv.Reason)
		raw, err = engine.Analyze(ctx, task)
		if err != nil {
			return Verdict{}, joinUpstream(err)
		}
		verdict, err = ParseVerdict(raw)
	}
	if err != nil {
		return Verdict{}, err
	}

	verdict.DegradedNotes = append(verdict.DegradedNotes, set.Failures()...)
	return verdict, nil
}

func joinUpstream(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(ErrUpstreamUnavailable, err)
}
