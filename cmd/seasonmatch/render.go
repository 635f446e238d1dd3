package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/types"
)

const notAvailable = "N/A"

func formatValue(v model.Value) string {
	if f, ok := v.Float(); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return notAvailable
}

// formatRate prints a percentage to one decimal.
func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// metricRows lays the two vectors side by side, one row per statistic.
func metricRows(a, b model.MetricVector) [][]string {
	if a.Role() == model.Pitcher {
		pa, _ := a.Pitcher()
		pb, _ := b.Pitcher()
		return [][]string{
			{"ERA", formatValue(pa.EarnedRunAverage), formatValue(pb.EarnedRunAverage)},
			{"WAR", formatValue(pa.AggregateValue), formatValue(pb.AggregateValue)},
			{"BB%", formatRate(pa.WalkRate), formatRate(pb.WalkRate)},
			{"SO%", formatRate(pa.StrikeoutRate), formatRate(pb.StrikeoutRate)},
		}
	}
	ha, _ := a.Hitter()
	hb, _ := b.Hitter()
	return [][]string{
		{"AVG", formatValue(ha.BattingAverage), formatValue(hb.BattingAverage)},
		{"WAR", formatValue(ha.AggregateValue), formatValue(hb.AggregateValue)},
		{"OBP", formatValue(ha.OnBasePct), formatValue(hb.OnBasePct)},
		{"OPS", formatValue(ha.OnBasePlusSlugging), formatValue(hb.OnBasePlusSlugging)},
		{"BB%", formatRate(ha.WalkRate), formatRate(hb.WalkRate)},
		{"K%", formatRate(ha.StrikeoutRate), formatRate(hb.StrikeoutRate)},
	}
}

func playerName(p types.Player) string {
	if p.Name != "" {
		return p.Name
	}
	return "player " + p.ID
}

// renderResult formats one search for the terminal.
func renderResult(res types.SimilarityResult) string {
	switch {
	case res.Error != "":
		return fmt.Sprintf("Error loading player data for %s (%d).", playerName(res.Player), res.Player.Season)
	case res.Match == nil:
		return fmt.Sprintf("No comparable season found for %s (%d).", playerName(res.Player), res.Player.Season)
	}

	m := res.Match
	var b strings.Builder
	b.WriteString(renderTable(
		fmt.Sprintf("Similarity results (%d)", res.Player.Season),
		[]string{"Stat", playerName(res.Player), fmt.Sprintf("%s (%d)", m.Name, m.Season)},
		metricRows(res.Player.Metrics, m.Metrics),
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	fmt.Fprintf(&b, "\ndistance %s, %d seasons compared", strconv.FormatFloat(m.Distance, 'f', 3, 64), res.Scanned)
	if n := len(res.SkippedSeasons); n > 0 {
		fmt.Fprintf(&b, ", %d skipped", n)
	}
	return b.String()
}

func renderPlayers(players []types.PlayerSummary) string {
	if len(players) == 0 {
		return "No players found."
	}
	rows := make([][]string, 0, len(players))
	for _, p := range players {
		rows = append(rows, []string{p.ID, p.Name, p.Role.String()})
	}
	return renderTable("", []string{"ID", "Name", "Role"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft})
}
