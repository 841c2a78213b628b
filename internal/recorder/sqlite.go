package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"TradeResearcher/internal/model"
)

// SQLiteRecorder persists results to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so reads don't block the periodic writers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS market_data (
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    REAL,
			PRIMARY KEY (symbol, timeframe, timestamp)
		)`,

		`CREATE TABLE IF NOT EXISTS analysis_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			analysis_type TEXT NOT NULL,
			result        TEXT,
			confidence    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_type_ts ON analysis_results(analysis_type, timestamp)`,

		`CREATE TABLE IF NOT EXISTS research_data (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			source          TEXT,
			title           TEXT,
			content         TEXT,
			url             TEXT,
			sentiment       TEXT,
			relevance_score REAL,
			created_at      INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS model_performance (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			model_name TEXT,
			accuracy   REAL,
			test_date  INTEGER NOT NULL,
			parameters TEXT
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// RecordCandles upserts candles by (symbol, timeframe, timestamp).
func (r *SQLiteRecorder) RecordCandles(symbol, interval string, candles []model.Candle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO market_data
		(timestamp, symbol, timeframe, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(c.Time.Unix(), symbol, interval, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert candle: %w", err)
		}
	}
	return tx.Commit()
}

// RecordAnalysis stores one analysis or prediction result.
func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO analysis_results (timestamp, analysis_type, result, confidence)
		VALUES (?, ?, ?, ?)`,
		rec.Timestamp.Unix(), rec.Type, rec.ResultJSON, rec.Confidence)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// LatestAnalyses returns up to limit most recent results of the given type.
func (r *SQLiteRecorder) LatestAnalyses(analysisType string, limit int) ([]AnalysisRecord, error) {
	rows, err := r.db.Query(`SELECT timestamp, analysis_type, result, confidence
		FROM analysis_results WHERE analysis_type = ?
		ORDER BY timestamp DESC LIMIT ?`, analysisType, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		var ts int64
		if err := rows.Scan(&ts, &rec.Type, &rec.ResultJSON, &rec.Confidence); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordResearch stores one research finding.
func (r *SQLiteRecorder) RecordResearch(item *ResearchItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO research_data
		(source, title, content, url, sentiment, relevance_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, strftime('%s','now'))`,
		item.Source, item.Title, item.Content, item.URL, item.Sentiment, item.Relevance)
	if err != nil {
		return fmt.Errorf("insert research: %w", err)
	}
	return nil
}

// RecordModelPerformance stores one retraining outcome.
func (r *SQLiteRecorder) RecordModelPerformance(rec *PerformanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.Exec(`INSERT INTO model_performance (model_name, accuracy, test_date, parameters)
		VALUES (?, ?, ?, ?)`,
		rec.ModelName, rec.Accuracy, rec.TestDate.Unix(), rec.ParamsJSON)
	if err != nil {
		return fmt.Errorf("insert performance: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error { return r.db.Close() }
