package discipline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// HistoryProvider assembles a day's counters for an account.
type HistoryProvider interface {
	DayHistory(ctx context.Context, accountID string, day time.Time) (Input, error)
}

// ScoreStore persists daily scores.
type ScoreStore interface {
	SaveScore(ctx context.Context, accountID string, day time.Time, r Result) error
}

type Service struct {
	History HistoryProvider
	Store   ScoreStore
}

func NewService(h HistoryProvider, s ScoreStore) *Service {
	return &Service{History: h, Store: s}
}

// Day truncates t to the start of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ScoreDay loads the account's history for day, scores it and stores the
// result when a store is configured.
func (s *Service) ScoreDay(ctx context.Context, accountID string, day time.Time) (Result, error) {
	if s.History == nil {
		return Result{}, fmt.Errorf("discipline: no history provider")
	}
	day = Day(day)

	in, err := s.History.DayHistory(ctx, accountID, day)
	if err != nil {
		return Result{}, fmt.Errorf("load history for %s on %s: %w", accountID, day.Format(time.DateOnly), err)
	}
	r := Calculate(in)

	log.Info().
		Str("account", accountID).
		Str("day", day.Format(time.DateOnly)).
		Int("total", r.Total).
		Str("grade", r.Grade).
		Msg("discipline scored")

	if s.Store != nil {
		if err := s.Store.SaveScore(ctx, accountID, day, r); err != nil {
			return r, fmt.Errorf("save score: %w", err)
		}
	}
	return r, nil
}
