package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
)

// ReportRecord is one stored SecurityReport, addressable by the hash of
// the file it was computed from.
type ReportRecord struct {
	FileHash     string    `db:"file_hash" json:"fileHash"`
	OriginalName string    `db:"original_name" json:"originalName"`
	IsSafe       bool      `db:"is_safe" json:"isSafe"`
	ThreatLevel  string    `db:"threat_level" json:"threatLevel"`
	Confidence   float64   `db:"confidence" json:"confidence"`
	ReportJSON   string    `db:"report_json" json:"-"`
	IsStale      bool      `db:"is_stale" json:"isStale"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// ReportHistory is the sqlite-backed store of past validation reports.
type ReportHistory struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
}

// OpenReportHistory opens (creating and migrating if necessary) the
// sqlite database at path.
func OpenReportHistory(path string) (*ReportHistory, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &ReportHistory{db: db, builder: goqu.Dialect("sqlite3")}, nil
}

// Close releases the underlying database handle.
func (h *ReportHistory) Close() error {
	return h.db.Close()
}

// Save upserts a report, keyed by fileHash. report is any value that
// marshals to the JSON fields a SecurityReport exposes (pkg/stego's
// SecurityReport satisfies this via encoding/json; kept as interface{}
// here to avoid pkg/sqlite importing pkg/stego).
func (h *ReportHistory) Save(ctx context.Context, fileHash, originalName string, report interface{}) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("sqlite: marshaling report for %s: %w", fileHash, err)
	}

	var fields struct {
		IsSafe      bool    `json:"isSafe"`
		ThreatLevel int     `json:"threatLevel"`
		Confidence  float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("sqlite: decoding report fields for %s: %w", fileHash, err)
	}

	record := goqu.Record{
		"file_hash":     fileHash,
		"original_name": originalName,
		"is_safe":       fields.IsSafe,
		"threat_level":  threatLevelName(fields.ThreatLevel),
		"confidence":    fields.Confidence,
		"report_json":   string(raw),
		"is_stale":      false,
	}

	insert := h.builder.Insert("report_history").Rows(record).
		OnConflict(goqu.DoUpdate("file_hash", record))

	query, args, err := insert.ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building insert for %s: %w", fileHash, err)
	}

	if _, err := h.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: saving report for %s: %w", fileHash, err)
	}
	return nil
}

// threatLevelName maps the small ThreatLevel enum to its string name
// without importing pkg/stego; kept in lockstep with stego.ThreatLevel's
// iota ordering (SAFE, LOW, MEDIUM, HIGH, CRITICAL).
func threatLevelName(level int) string {
	names := []string{"SAFE", "LOW", "MEDIUM", "HIGH", "CRITICAL"}
	if level < 0 || level >= len(names) {
		return "UNKNOWN"
	}
	return names[level]
}

// Get returns the stored record for fileHash.
func (h *ReportHistory) Get(ctx context.Context, fileHash string) (*ReportRecord, error) {
	query, args, err := h.builder.From("report_history").
		Where(goqu.C("file_hash").Eq(fileHash)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building select for %s: %w", fileHash, err)
	}

	var record ReportRecord
	if err := h.db.GetContext(ctx, &record, query, args...); err != nil {
		return nil, fmt.Errorf("sqlite: fetching report for %s: %w", fileHash, err)
	}
	return &record, nil
}

// MarkAllStale flags every stored record as stale (e.g. after a
// detector rule change), returning the number of rows affected.
func (h *ReportHistory) MarkAllStale(ctx context.Context) (int64, error) {
	query, args, err := h.builder.Update("report_history").
		Set(goqu.Record{"is_stale": true}).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("sqlite: building mark-stale update: %w", err)
	}

	res, err := h.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: marking reports stale: %w", err)
	}
	return res.RowsAffected()
}
