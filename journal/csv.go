package journal

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/tradeguard/validation"
)

var (
	validationHeader = []string{"id", "time", "account_id", "symbol", "direction", "entry_price", "stop_loss", "risk_percent", "lot_size", "risk_amount", "severity", "can_execute", "violations"}
	tradeHeader      = []string{"trade_id", "account_id", "symbol", "direction", "risk_percent", "within_risk", "open_time", "close_time", "realized_pl"}
)

// CSVJournal is an append-only audit trail. Files are truncated on open.
type CSVJournal struct {
	mu          sync.Mutex
	validations *csv.Writer
	trades      *csv.Writer
	vf, tf      *os.File
}

func NewCSV(validationsPath, tradesPath string) (*CSVJournal, error) {
	vf, err := os.Create(validationsPath)
	if err != nil {
		return nil, err
	}
	tf, err := os.Create(tradesPath)
	if err != nil {
		_ = vf.Close()
		return nil, err
	}

	vw := csv.NewWriter(vf)
	tw := csv.NewWriter(tf)

	if err := vw.Write(validationHeader); err != nil {
		return nil, err
	}
	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}

	vw.Flush()
	if err := vw.Error(); err != nil {
		return nil, err
	}
	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{validations: vw, trades: tw, vf: vf, tf: tf}, nil
}

func (j *CSVJournal) RecordValidation(_ context.Context, in validation.Input, res validation.Result) error {
	codes := make([]string, 0, len(res.Violations))
	for _, v := range res.Violations {
		codes = append(codes, v.Code)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.validations.Write([]string{
		res.ID,
		res.Timestamp.UTC().Format(time.RFC3339),
		in.Account.ID,
		in.Trade.Symbol,
		string(in.Trade.Direction),
		f(in.Trade.EntryPrice),
		f(in.Trade.StopLoss),
		f(in.Trade.RiskPercent),
		f(res.LotSize),
		f(res.RiskAmount),
		res.Severity.String(),
		strconv.FormatBool(res.CanExecute),
		strings.Join(codes, ";"),
	})
	if err != nil {
		return err
	}
	j.validations.Flush()
	return j.validations.Error()
}

func (j *CSVJournal) RecordTrade(_ context.Context, t TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.trades.Write([]string{
		t.TradeID,
		t.AccountID,
		t.Symbol,
		string(t.Direction),
		f(t.RiskPercent),
		strconv.FormatBool(t.WithinRisk),
		t.OpenTime.UTC().Format(time.RFC3339),
		t.CloseTime.UTC().Format(time.RFC3339),
		f(t.RealizedPL),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.validations.Flush()
	if err := j.validations.Error(); err != nil {
		return err
	}
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}

	if err := j.vf.Close(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

var _ validation.Recorder = (*CSVJournal)(nil)
