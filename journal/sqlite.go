package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/tradeguard/discipline"
	"github.com/rustyeddy/tradeguard/pkg/id"
	"github.com/rustyeddy/tradeguard/risk"
	"github.com/rustyeddy/tradeguard/validation"
)

// SQLite is the durable journal. It records every validation decision and
// serves the history the discipline calculator scores.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordValidation stores a decision and its findings in one transaction.
func (j *SQLite) RecordValidation(ctx context.Context, in validation.Input, res validation.Result) error {
	vid := res.ID
	if vid == "" {
		vid = id.New()
	}
	created := res.Timestamp
	if created.IsZero() {
		created = time.Now()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	t := in.Trade
	_, err = tx.ExecContext(ctx, `
		INSERT INTO validations
		(id, account_id, symbol, direction, entry_price, stop_loss, risk_percent,
		 lot_size, risk_amount, pip_distance, severity, can_execute, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		vid, in.Account.ID, t.Symbol, string(t.Direction), t.EntryPrice, t.StopLoss, t.RiskPercent,
		res.LotSize, res.RiskAmount, res.PipDistance, res.Severity.String(), res.CanExecute, created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert validation %s: %w", vid, err)
	}

	insert := func(kind string, vs []risk.Violation) error {
		for _, v := range vs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO violations (validation_id, kind, code, message)
				VALUES (?, ?, ?, ?)`, vid, kind, v.Code, v.Msg); err != nil {
				return fmt.Errorf("insert %s %s: %w", kind, v.Code, err)
			}
		}
		return nil
	}
	if err := insert(kindViolation, res.Violations); err != nil {
		return err
	}
	if err := insert(kindWarning, res.Warnings); err != nil {
		return err
	}
	return tx.Commit()
}

func (j *SQLite) RecordTrade(ctx context.Context, t TradeRecord) error {
	if t.TradeID == "" {
		t.TradeID = id.At(t.CloseTime)
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, account_id, symbol, direction, risk_percent, within_risk, open_time, close_time, realized_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.AccountID, t.Symbol, string(t.Direction), t.RiskPercent,
		t.WithinRisk, t.OpenTime.UTC(), t.CloseTime.UTC(), t.RealizedPL,
	)
	return err
}

func (j *SQLite) RecordDrawdown(ctx context.Context, d DrawdownSnapshot) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO drawdown
		(account_id, time, daily_drawdown, max_daily_drawdown, breached)
		VALUES (?, ?, ?, ?, ?)`,
		d.AccountID, d.Time.UTC(), d.DailyDrawdown, d.MaxDailyDrawdown, d.Breached,
	)
	return err
}

// SaveScore upserts the score for (account, day).
func (j *SQLite) SaveScore(ctx context.Context, accountID string, day time.Time, r discipline.Result) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO discipline_scores
		(account_id, day, total, grade, violations, risk_management, drawdown, trading_quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		accountID, day.UTC().Format(time.DateOnly), r.Total, r.Grade,
		r.Violations.Score, r.RiskManagement.Score, r.Drawdown.Score, r.TradingQuality.Score,
		time.Now().UTC(),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

var (
	_ Journal                    = (*SQLite)(nil)
	_ discipline.HistoryProvider = (*SQLite)(nil)
	_ discipline.ScoreStore      = (*SQLite)(nil)
)

const (
	kindViolation = "violation"
	kindWarning   = "warning"
)
