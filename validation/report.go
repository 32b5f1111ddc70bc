package validation

import (
	"fmt"
	"strings"
	"time"
)

// FormatReportOrg renders a decision as an Org-mode block: the structured
// facts go in a PROPERTIES drawer, findings in their own sections.
func FormatReportOrg(in Input, r Result) string {
	var b strings.Builder

	verdict := "EXECUTABLE"
	if !r.CanExecute {
		verdict = "REJECTED"
	}
	fmt.Fprintf(&b, "** Validation: %s %s %s (%s)\n", in.Trade.Direction, in.Trade.Symbol, verdict, shortID(r.ID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", r.ID)
	fmt.Fprintf(&b, ":TIME: %s\n", r.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":SEVERITY: %s\n", r.Severity)
	fmt.Fprintf(&b, ":CAN_EXECUTE: %t\n", r.CanExecute)
	fmt.Fprintf(&b, ":ENTRY: %.5f\n", in.Trade.EntryPrice)
	fmt.Fprintf(&b, ":STOP: %.5f\n", in.Trade.StopLoss)
	fmt.Fprintf(&b, ":RISK_PERCENT: %.2f\n", in.Trade.RiskPercent)
	fmt.Fprintf(&b, ":RISK_AMOUNT: %.2f\n", r.RiskAmount)
	fmt.Fprintf(&b, ":PIP_DISTANCE: %.1f\n", r.PipDistance)
	fmt.Fprintf(&b, ":LOT_SIZE: %.2f\n", r.LotSize)
	if r.RiskReward > 0 {
		fmt.Fprintf(&b, ":RISK_REWARD: 1:%.2f\n", r.RiskReward)
	}
	if r.Exposure != nil {
		fmt.Fprintf(&b, ":PORTFOLIO_RISK: %.2f\n", r.Exposure.TotalRisk)
		fmt.Fprintf(&b, ":EFFECTIVE_RISK: %.2f\n", r.Exposure.EffectiveRisk)
	}
	if r.PropFirm != nil {
		fmt.Fprintf(&b, ":DAILY_LOSS_USED: %.2f\n", r.PropFirm.Usage.DailyLossUsed)
		fmt.Fprintf(&b, ":TOTAL_DD_USED: %.2f\n", r.PropFirm.Usage.TotalDrawdownUsed)
	}
	b.WriteString(":END:\n")

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n*** %s\n", title)
		for _, l := range lines {
			fmt.Fprintf(&b, "- %s\n", l)
		}
	}

	var vs, ws []string
	for _, v := range r.Violations {
		vs = append(vs, v.Msg)
	}
	for _, w := range r.Warnings {
		ws = append(ws, w.Msg)
	}
	section("Violations", vs)
	section("Warnings", ws)
	section("Recommendations", r.Recommendations)

	if r.Exposure != nil && len(r.Exposure.Exposures) > 0 {
		b.WriteString("\n*** Exposure\n")
		b.WriteString("| Currency | Long | Short | Net | Positions |\n")
		b.WriteString("|-\n")
		for _, e := range r.Exposure.Exposures {
			fmt.Fprintf(&b, "| %s | %.2f | %.2f | %+.2f | %d |\n",
				e.Currency, e.LongExposure, e.ShortExposure, e.NetExposure, e.OpenPositions)
		}
	}

	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
