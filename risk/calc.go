package risk

import (
	"fmt"
	"math"
	"strings"
)

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "LONG":
		return Buy, nil
	case "SELL", "SHORT":
		return Sell, nil
	}
	return "", fmt.Errorf("unknown direction %q (want BUY|SELL)", s)
}

// UnmarshalText accepts BUY/SELL aliases in any case. Unknown values are
// kept upper-cased so the side checks can report them.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		*d = Direction(strings.ToUpper(strings.TrimSpace(string(b))))
		return nil
	}
	*d = v
	return nil
}

func (d Direction) Valid() bool {
	return d == Buy || d == Sell
}

// Sign is +1 for BUY and -1 for SELL.
func (d Direction) Sign() float64 {
	if d == Sell {
		return -1
	}
	return 1
}

// RR returns reward divided by risk for a single target.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// CheckSides verifies the stop and every take-profit sit on the correct side
// of entry for the trade direction.
func CheckSides(dir Direction, entry, stop float64, takeProfits []float64) []Violation {
	var out []Violation
	switch dir {
	case Buy:
		if stop >= entry {
			out = append(out, Violation{"STOP_WRONG_SIDE", "Stop Loss must be below Entry for BUY orders"})
		}
		for _, tp := range takeProfits {
			if tp <= entry {
				out = append(out, Violation{"TARGET_WRONG_SIDE", fmt.Sprintf("Take Profit %g must be above Entry for BUY orders", tp)})
			}
		}
	case Sell:
		if stop <= entry {
			out = append(out, Violation{"STOP_WRONG_SIDE", "Stop Loss must be above Entry for SELL orders"})
		}
		for _, tp := range takeProfits {
			if tp >= entry {
				out = append(out, Violation{"TARGET_WRONG_SIDE", fmt.Sprintf("Take Profit %g must be below Entry for SELL orders", tp)})
			}
		}
	default:
		out = append(out, Violation{"BAD_DIRECTION", fmt.Sprintf("Direction must be BUY or SELL, got %q", string(dir))})
	}
	return out
}

// CheckRR warns when the first take-profit pays less than the risk.
func CheckRR(entry, stop float64, takeProfits []float64) (float64, *Violation) {
	if len(takeProfits) == 0 {
		return 0, nil
	}
	rr := RR(entry, stop, takeProfits[0])
	if rr < 1 {
		return rr, &Violation{"RR_BELOW_ONE", fmt.Sprintf("Risk:Reward ratio 1:%.2f is below 1:1", rr)}
	}
	return rr, nil
}
