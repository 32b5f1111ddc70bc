package risk

import (
	"fmt"
	"strings"
)

// Severity orders how strongly a check objects to a trade.
type Severity int

const (
	OK Severity = iota
	Warning
	Error
	Blocked
)

var severityNames = [...]string{"OK", "WARNING", "ERROR", "BLOCKED"}

func (s Severity) String() string {
	if s < OK || s > Blocked {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// Max returns the more severe of a and b.
func Max(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// Raise lifts *s to at least o. It never lowers it.
func (s *Severity) Raise(o Severity) {
	*s = Max(*s, o)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseSeverity(str string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(n, strings.TrimSpace(str)) {
			return Severity(i), nil
		}
	}
	return OK, fmt.Errorf("unknown severity %q", str)
}

// Violation is a single finding raised by a check. Code is stable for
// callers that localize; Msg is the English text.
type Violation struct {
	Code string `json:"code" yaml:"code"`
	Msg  string `json:"message" yaml:"message"`
}

func (v Violation) String() string {
	return v.Msg
}

// Messages flattens a list of findings into their text.
func Messages(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Msg)
	}
	return out
}
