package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jasmere27/verifact/api/internal/verify"
)

// VerdictRepo is the Postgres audit log of completed analyses. It is
// write-mostly: the session cache, not this table, is the consistency
// mechanism, so nothing here ever feeds a verdict back into a session.
type VerdictRepo struct{ DB *sql.DB }

func NewVerdictRepo(db *sql.DB) *VerdictRepo { return &VerdictRepo{DB: db} }

// Schema:
//
//	create table if not exists verdict_audit (
//	    id           bigserial primary key,
//	    session_id   text not null,
//	    fingerprint  text not null,
//	    modality     text not null,
//	    engine       text not null default '',
//	    classification text not null,
//	    confidence   int  not null,
//	    degraded     boolean not null default false,
//	    verdict_json jsonb not null,
//	    created_at   timestamptz not null default now()
//	);
//	create index if not exists verdict_audit_fp_idx on verdict_audit (fingerprint, created_at desc);

// Record inserts one completed analysis.
func (r *VerdictRepo) Record(ctx context.Context, rec verify.AuditRecord) error {
	js, _ := json.Marshal(rec.Verdict)
	const q = `
insert into verdict_audit(session_id, fingerprint, modality, engine, classification, confidence, degraded, verdict_json)
values ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.DB.ExecContext(ctx, q,
		rec.SessionID,
		string(rec.Fingerprint),
		string(rec.Modality),
		rec.Engine,
		string(rec.Verdict.Classification),
		rec.Verdict.ConfidencePercent,
		len(rec.Verdict.DegradedNotes) > 0,
		js,
	)
	return err
}

// FindRecent returns the newest audited verdict for a fingerprint. If
// maxAge > 0 and the row is older, it reports sql.ErrNoRows.
func (r *VerdictRepo) FindRecent(ctx context.Context, fp verify.Fingerprint, maxAge time.Duration) (verify.Verdict, error) {
	const q = `select verdict_json, created_at
	           from verdict_audit
	           where fingerprint=$1
	           order by created_at desc
	           limit 1`
	var (
		js []byte
		ts time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, string(fp)).Scan(&js, &ts); err != nil {
		return verify.Verdict{}, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return verify.Verdict{}, sql.ErrNoRows
	}
	var v verify.Verdict
	if err := json.Unmarshal(js, &v); err != nil {
		// treat a corrupt row as absent
		return verify.Verdict{}, sql.ErrNoRows
	}
	return v, nil
}
