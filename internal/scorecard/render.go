package scorecard

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/okian/wicket/internal/domain/performance"
)

// WriteText renders a report as a plain scorecard.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	m := r.Match

	fmt.Fprintf(tw, "%s: %s v %s (%d overs)\n", m.ID(), m.TeamA(), m.TeamB(), m.MaxOvers())
	for _, in := range m.Innings() {
		fmt.Fprintf(tw, "\n%s %d/%d (%s ov, extras %d)\n",
			in.BattingTeam(), in.Runs(), in.Wickets(), in.OversText(), in.Extras())

		fmt.Fprintln(tw, "BATTER\tDISMISSAL\tR\tB\t4s\t6s\tSR")
		for _, p := range byTeam(r.Players, in.BattingTeam(), true) {
			b := p.Batting
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.2f\n",
				p.PlayerID, b.Dismissal, b.Runs, b.Balls, b.Fours, b.Sixes, b.StrikeRate())
		}

		fmt.Fprintln(tw, "BOWLER\tO\tM\tR\tW\tECON")
		for _, p := range byTeam(r.Players, in.BowlingTeam(), false) {
			b := p.Bowling
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
				p.PlayerID, b.OversText(), b.Maidens, b.RunsConceded, b.Wickets, economy(b))
		}
	}

	if r.Result != nil {
		fmt.Fprintf(tw, "\nResult: %s\n", r.Result.Summary)
	}
	if r.Rating != nil {
		fmt.Fprintln(tw, "\nPLAYER\tBEFORE\tAFTER\tCHANGE")
		for _, d := range r.Rating.Deltas {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				d.PlayerID, d.Before.StringFixed(2), d.After.StringFixed(2), d.Change.StringFixed(2))
		}
		for _, a := range r.Rating.Achievements {
			fmt.Fprintf(tw, "* %s: %s\n", a.PlayerID, a.Title)
		}
	}
	return tw.Flush()
}

// byTeam keeps the players of team who batted, in batting order, or who
// bowled.
func byTeam(players []performance.Player, team string, batting bool) []performance.Player {
	var out []performance.Player
	for _, p := range players {
		if p.TeamID != team {
			continue
		}
		if (batting && p.Batted()) || (!batting && p.Bowled()) {
			out = append(out, p)
		}
	}
	if batting {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Batting.Position < out[j].Batting.Position })
	}
	return out
}

func economy(b performance.Bowling) string {
	if b.LegalBalls == 0 {
		return "-"
	}
	return strconv.FormatFloat(b.Economy(), 'f', 2, 64)
}
