package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"ValueSentinel/internal/model"
)

// SQLiteRecorder persists valuation history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the service writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS valuations (
			id                   TEXT PRIMARY KEY,
			timestamp            INTEGER NOT NULL,
			ticker               TEXT NOT NULL,
			fcf_ttm              REAL,
			current_price        REAL,
			shares_outstanding   REAL,
			market_cap           REAL,
			discount_rate        REAL,
			terminal_growth_rate REAL,
			growth               TEXT,
			pv_fcf               REAL,
			terminal_fcf         REAL,
			terminal_value       REAL,
			pv_terminal          REAL,
			total_pv             REAL,
			intrinsic_value      REAL,
			pct_difference       REAL,
			verdict              TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_valuations_ticker_ts ON valuations(ticker, timestamp)`,

		`CREATE TABLE IF NOT EXISTS valuation_years (
			valuation_id     TEXT NOT NULL REFERENCES valuations(id),
			year             INTEGER NOT NULL,
			fcf              REAL,
			growth_rate      REAL,
			discount_factor  REAL,
			discounted_value REAL,
			PRIMARY KEY (valuation_id, year)
		)`,

		`CREATE TABLE IF NOT EXISTS verdict_changes (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			valuation_id    TEXT,
			ticker          TEXT NOT NULL,
			from_verdict    TEXT,
			to_verdict      TEXT,
			intrinsic_value REAL,
			price           REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_changes_ticker ON verdict_changes(ticker, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordValuation(v *model.Valuation) error {
	if v == nil || v.Result == nil {
		return fmt.Errorf("record valuation: missing result")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	growth, err := json.Marshal(v.Assumptions.Growth)
	if err != nil {
		return fmt.Errorf("encode growth: %w", err)
	}
	ts := v.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	res := v.Result
	d := res.Details

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO valuations
		(id, timestamp, ticker, fcf_ttm, current_price, shares_outstanding, market_cap,
		 discount_rate, terminal_growth_rate, growth,
		 pv_fcf, terminal_fcf, terminal_value, pv_terminal, total_pv,
		 intrinsic_value, pct_difference, verdict)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		v.ID, ts.UnixMilli(), strings.ToUpper(v.Ticker),
		v.Stock.FreeCashFlowTTM, res.CurrentPrice, d.SharesOutstanding, v.Stock.MarketCap,
		v.Assumptions.DiscountRate, v.Assumptions.TerminalGrowthRate, string(growth),
		d.PresentValueOfFCF, d.TerminalYear.FCF, d.TerminalYear.TerminalValue,
		d.TerminalYear.DiscountedTerminalValue, d.TotalPresentValue,
		res.IntrinsicValue, res.PercentageDifference, string(res.Verdict),
	); err != nil {
		return fmt.Errorf("insert valuation: %w", err)
	}

	for _, y := range d.YearlyData {
		if _, err := tx.Exec(`INSERT INTO valuation_years
			(valuation_id, year, fcf, growth_rate, discount_factor, discounted_value)
			VALUES (?,?,?,?,?,?)`,
			v.ID, y.Year, y.FCF, y.GrowthRate, y.DiscountFactor, y.DiscountedValue,
		); err != nil {
			return fmt.Errorf("insert year %d: %w", y.Year, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordVerdictChange(evt *VerdictChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO verdict_changes
		(timestamp, valuation_id, ticker, from_verdict, to_verdict, intrinsic_value, price)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().UnixMilli(), evt.ValuationID, strings.ToUpper(evt.Ticker),
		string(evt.From), string(evt.To), evt.IntrinsicValue, evt.Price,
	)
	return err
}

// History returns the most recent valuations of ticker, newest first.
func (r *SQLiteRecorder) History(ticker string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, ticker, fcf_ttm, current_price, shares_outstanding,
			discount_rate, terminal_growth_rate, intrinsic_value, pct_difference, verdict
		FROM valuations WHERE ticker = ? ORDER BY timestamp DESC LIMIT ?`,
		strings.ToUpper(ticker), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts int64
		var verdict string
		if err := rows.Scan(&e.ID, &ts, &e.Ticker, &e.FreeCashFlowTTM, &e.CurrentPrice, &e.SharesOutstanding,
			&e.DiscountRate, &e.TerminalGrowthRate, &e.IntrinsicValue, &e.PercentageDifference, &verdict); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.RecordedAt = time.UnixMilli(ts)
		e.Verdict = model.Verdict(verdict)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
