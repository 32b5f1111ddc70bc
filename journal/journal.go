package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/tradeguard/risk"
	"github.com/rustyeddy/tradeguard/validation"
)

var ErrNotFound = errors.New("journal: not found")

// TradeRecord is a closed trade as seen by the discipline calculator.
type TradeRecord struct {
	TradeID     string         `json:"trade_id"`
	AccountID   string         `json:"account_id"`
	Symbol      string         `json:"symbol"`
	Direction   risk.Direction `json:"direction"`
	RiskPercent float64        `json:"risk_percent"`
	WithinRisk  bool           `json:"within_risk"`
	OpenTime    time.Time      `json:"open_time"`
	CloseTime   time.Time      `json:"close_time"`
	RealizedPL  float64        `json:"realized_pl"`
}

// DrawdownSnapshot is a point-in-time daily drawdown reading, in percent.
type DrawdownSnapshot struct {
	AccountID        string    `json:"account_id"`
	Time             time.Time `json:"time"`
	DailyDrawdown    float64   `json:"daily_drawdown"`
	MaxDailyDrawdown float64   `json:"max_daily_drawdown"`
	Breached         bool      `json:"breached"`
}

type Journal interface {
	validation.Recorder
	RecordTrade(ctx context.Context, t TradeRecord) error
	RecordDrawdown(ctx context.Context, d DrawdownSnapshot) error
	Close() error
}

// Tee fans a decision out to several recorders. Every recorder is tried;
// the first error is returned.
type Tee []validation.Recorder

func (t Tee) RecordValidation(ctx context.Context, in validation.Input, res validation.Result) error {
	var first error
	for _, r := range t {
		if r == nil {
			continue
		}
		if err := r.RecordValidation(ctx, in, res); err != nil {
			log.Warn().Err(err).Str("id", res.ID).Msg("journal tee")
			if first == nil {
				first = err
			}
		}
	}
	return first
}
