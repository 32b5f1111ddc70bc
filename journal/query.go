package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/tradeguard/discipline"
	"github.com/rustyeddy/tradeguard/risk"
)

// ValidationRecord is a stored decision with its findings.
type ValidationRecord struct {
	ID          string           `json:"id"`
	AccountID   string           `json:"account_id"`
	Symbol      string           `json:"symbol"`
	Direction   risk.Direction   `json:"direction"`
	EntryPrice  float64          `json:"entry_price"`
	StopLoss    float64          `json:"stop_loss"`
	RiskPercent float64          `json:"risk_percent"`
	LotSize     float64          `json:"lot_size"`
	RiskAmount  float64          `json:"risk_amount"`
	PipDistance float64          `json:"pip_distance"`
	Severity    risk.Severity    `json:"severity"`
	CanExecute  bool             `json:"can_execute"`
	CreatedAt   time.Time        `json:"created_at"`
	Violations  []risk.Violation `json:"violations"`
	Warnings    []risk.Violation `json:"warnings"`
}

type ScoreRecord struct {
	AccountID      string    `json:"account_id"`
	Day            string    `json:"day"`
	Total          int       `json:"total"`
	Grade          string    `json:"grade"`
	Violations     int       `json:"violations"`
	RiskManagement int       `json:"risk_management"`
	Drawdown       int       `json:"drawdown"`
	TradingQuality int       `json:"trading_quality"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetValidation returns a single decision by ID.
func (j *SQLite) GetValidation(ctx context.Context, validationID string) (ValidationRecord, error) {
	var (
		rec ValidationRecord
		dir string
		sev string
	)

	row := j.db.QueryRowContext(ctx, `
		SELECT id, account_id, symbol, direction, entry_price, stop_loss, risk_percent,
		       lot_size, risk_amount, pip_distance, severity, can_execute, created_at
		FROM validations
		WHERE id = ?`, validationID)

	err := row.Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.Symbol,
		&dir,
		&rec.EntryPrice,
		&rec.StopLoss,
		&rec.RiskPercent,
		&rec.LotSize,
		&rec.RiskAmount,
		&rec.PipDistance,
		&sev,
		&rec.CanExecute,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ValidationRecord{}, fmt.Errorf("validation %q: %w", validationID, ErrNotFound)
		}
		return ValidationRecord{}, err
	}
	rec.Direction = risk.Direction(dir)
	if rec.Severity, err = risk.ParseSeverity(sev); err != nil {
		return ValidationRecord{}, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, code, message FROM violations
		WHERE validation_id = ?
		ORDER BY rowid ASC`, validationID)
	if err != nil {
		return ValidationRecord{}, err
	}
	defer rows.Close()

	rec.Violations = []risk.Violation{}
	rec.Warnings = []risk.Violation{}
	for rows.Next() {
		var (
			kind string
			v    risk.Violation
		)
		if err := rows.Scan(&kind, &v.Code, &v.Msg); err != nil {
			return ValidationRecord{}, err
		}
		if kind == kindWarning {
			rec.Warnings = append(rec.Warnings, v)
		} else {
			rec.Violations = append(rec.Violations, v)
		}
	}
	if err := rows.Err(); err != nil {
		return ValidationRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns an account's trades whose close_time is
// within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, accountID string, start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT trade_id, account_id, symbol, direction, risk_percent, within_risk, open_time, close_time, realized_pl
		FROM trades
		WHERE account_id = ? AND close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, accountID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var (
			rec TradeRecord
			dir string
		)
		if err := rows.Scan(
			&rec.TradeID,
			&rec.AccountID,
			&rec.Symbol,
			&dir,
			&rec.RiskPercent,
			&rec.WithinRisk,
			&rec.OpenTime,
			&rec.CloseTime,
			&rec.RealizedPL,
		); err != nil {
			return nil, err
		}
		rec.Direction = risk.Direction(dir)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DayHistory builds the discipline counters for [day, day+24h). Violations
// and warnings count decisions, not findings: a blocked decision with three
// violations is one critical violation.
func (j *SQLite) DayHistory(ctx context.Context, accountID string, day time.Time) (discipline.Input, error) {
	start := discipline.Day(day)
	end := start.Add(24 * time.Hour)
	var in discipline.Input

	err := j.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT CASE WHEN v.kind = ? THEN v.validation_id END),
			COUNT(DISTINCT CASE WHEN v.kind = ? THEN v.validation_id END)
		FROM violations v
		JOIN validations x ON x.id = v.validation_id
		WHERE x.account_id = ? AND x.created_at >= ? AND x.created_at < ?`,
		kindViolation, kindWarning, accountID, start, end,
	).Scan(&in.CriticalViolations, &in.WarningViolations)
	if err != nil {
		return in, fmt.Errorf("count violations: %w", err)
	}

	trades, err := j.ListTradesClosedBetween(ctx, accountID, start, end)
	if err != nil {
		return in, fmt.Errorf("list trades: %w", err)
	}
	for _, t := range trades {
		in.TotalTrades++
		switch {
		case t.RealizedPL > 0:
			in.WinningTrades++
		case t.RealizedPL < 0:
			in.LosingTrades++
		}
		if t.WithinRisk {
			in.TradesWithinRisk++
		} else {
			in.TradesOverRisk++
		}
	}

	var breached int
	err = j.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(MAX(ABS(daily_drawdown)), 0),
			COALESCE(MAX(max_daily_drawdown), 0),
			COALESCE(MAX(breached), 0)
		FROM drawdown
		WHERE account_id = ? AND time >= ? AND time < ?`,
		accountID, start, end,
	).Scan(&in.DailyDrawdown, &in.MaxDailyDrawdown, &breached)
	if err != nil {
		return in, fmt.Errorf("read drawdown: %w", err)
	}
	in.ChallengeBreached = breached != 0

	return in, nil
}

// GetScore returns the stored score for an account and UTC day.
func (j *SQLite) GetScore(ctx context.Context, accountID string, day time.Time) (ScoreRecord, error) {
	var rec ScoreRecord
	d := discipline.Day(day).Format(time.DateOnly)

	err := j.db.QueryRowContext(ctx, `
		SELECT account_id, day, total, grade, violations, risk_management, drawdown, trading_quality, created_at
		FROM discipline_scores
		WHERE account_id = ? AND day = ?`, accountID, d).Scan(
		&rec.AccountID,
		&rec.Day,
		&rec.Total,
		&rec.Grade,
		&rec.Violations,
		&rec.RiskManagement,
		&rec.Drawdown,
		&rec.TradingQuality,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ScoreRecord{}, fmt.Errorf("score %s/%s: %w", accountID, d, ErrNotFound)
		}
		return ScoreRecord{}, err
	}
	return rec, nil
}
