package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.trai.ch/hoard/internal/core/domain"
	"go.trai.ch/zerr"
)

const insertSample = `INSERT INTO query_samples(
    collection, tenant_id, latency_ns, documents_read, documents_returned,
    cache_hit, index_used, description, suggestions, ts
) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SampleStore is the append-only query_samples table. It implements ports.SampleSink,
// ports.SampleReader and telemetry.BatchSink.
type SampleStore struct {
	db *sql.DB
}

// NewSampleStore returns a SampleStore on db. The schema must already be migrated by Open.
func NewSampleStore(db *sql.DB) *SampleStore {
	return &SampleStore{db: db}
}

// OpenSampleStore opens the database at path and returns a SampleStore owning it.
func OpenSampleStore(path string) (*SampleStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewSampleStore(db), nil
}

// Close closes the underlying database.
func (s *SampleStore) Close() error {
	return s.db.Close()
}

// Append persists one sample.
func (s *SampleStore) Append(ctx context.Context, sample domain.QueryPerformanceSample) error {
	args, err := sampleArgs(sample)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertSample, args...); err != nil {
		return zerr.Wrap(err, domain.ErrSampleWriteFailed.Error())
	}
	return nil
}

// AppendBatch persists samples in one transaction. Either all are written or none.
func (s *SampleStore) AppendBatch(ctx context.Context, samples []domain.QueryPerformanceSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(err, domain.ErrSampleWriteFailed.Error())
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSample)
	if err != nil {
		return zerr.Wrap(err, domain.ErrSampleWriteFailed.Error())
	}
	defer func() { _ = stmt.Close() }()

	for _, sample := range samples {
		args, err := sampleArgs(sample)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return zerr.Wrap(err, domain.ErrSampleWriteFailed.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return zerr.Wrap(err, domain.ErrSampleWriteFailed.Error())
	}
	return nil
}

// Since returns samples with a timestamp at or after from, oldest first.
func (s *SampleStore) Since(ctx context.Context, from time.Time) ([]domain.QueryPerformanceSample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
    collection, tenant_id, latency_ns, documents_read, documents_returned,
    cache_hit, index_used, description, suggestions, ts
FROM query_samples WHERE ts >= ? ORDER BY ts ASC, id ASC`, from.UnixNano())
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrSampleReadFailed.Error())
	}
	defer func() { _ = rows.Close() }()

	var out []domain.QueryPerformanceSample
	for rows.Next() {
		var (
			sample      domain.QueryPerformanceSample
			latency     int64
			suggestions string
			ts          int64
		)
		err := rows.Scan(
			&sample.Collection, &sample.TenantID, &latency, &sample.DocumentsRead, &sample.DocumentsReturned,
			&sample.CacheHit, &sample.IndexUsed, &sample.Description, &suggestions, &ts,
		)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrSampleReadFailed.Error())
		}
		if err := json.Unmarshal([]byte(suggestions), &sample.Suggestions); err != nil {
			return nil, zerr.Wrap(err, domain.ErrSampleReadFailed.Error())
		}
		sample.Latency = time.Duration(latency)
		sample.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrSampleReadFailed.Error())
	}
	return out, nil
}

func sampleArgs(sample domain.QueryPerformanceSample) ([]any, error) {
	suggestions := sample.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	encoded, err := json.Marshal(suggestions)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrSampleWriteFailed.Error())
	}
	return []any{
		sample.Collection, sample.TenantID, int64(sample.Latency), sample.DocumentsRead, sample.DocumentsReturned,
		sample.CacheHit, sample.IndexUsed, sample.Description, string(encoded), sample.Timestamp.UnixNano(),
	}, nil
}
