package outcome_test

import (
	"errors"
	"testing"

	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/domain/outcome"
	. "github.com/smartystreets/goconvey/convey"
)

// play bowls a scripted innings of fours and singles. Wickets fall before
// the runs except a tenth, which ends the innings after them.
func play(m *ledger.Match, inningsID, team string, total, wickets, overs int) {
	_, err := m.StartInnings(inningsID, team)
	So(err, ShouldBeNil)

	ball := 0
	next := func() (int, int, string) {
		ball++
		over := (ball-1)/ledger.BallsPerOver + 1
		return over, (ball-1)%ledger.BallsPerOver + 1, bowlerFor(team, over)
	}
	batsman := func(n int) string { return team + "-bat" + string(rune('a'+n)) }
	wicket := func(n int) {
		o, i, bw := next()
		_, err := m.Record(inningsID, ledger.Ball{
			Over: o, Index: i, Bowler: bw, Batsman: batsman(n),
			Outcome: ledger.OutcomeWicket, Wicket: true, Dismissal: ledger.DismissalBowled,
		})
		So(err, ShouldBeNil)
	}

	early := wickets
	if early == ledger.AllOut {
		early--
	}
	for w := 0; w < early; w++ {
		wicket(w)
	}
	for total > 0 && ball < overs*ledger.BallsPerOver {
		n := 1
		if total >= 4 {
			n = 4
		}
		o, i, bw := next()
		_, err := m.Record(inningsID, ledger.Ball{Over: o, Index: i, Bowler: bw, Batsman: batsman(early), Outcome: ledger.OutcomeRuns, Runs: n})
		So(err, ShouldBeNil)
		total -= n
	}
	if early < wickets {
		wicket(early)
	}
	_, err = m.FinalizeInnings(inningsID)
	So(err, ShouldBeNil)
}

func bowlerFor(team string, over int) string {
	if over%2 == 0 {
		return "not-" + team + "-1"
	}
	return "not-" + team + "-2"
}

func TestResolve(t *testing.T) {
	Convey("Given a match between A and B", t, func() {
		m, err := ledger.NewMatch("m1", "A", "B")
		So(err, ShouldBeNil)

		Convey("An incomplete match is rejected", func() {
			_, err := outcome.Resolve(m)
			So(errors.Is(err, outcome.ErrIncompleteMatch), ShouldBeTrue)

			play(m, "i1", "A", 10, 0, 20)
			_, err = outcome.Resolve(m)
			So(errors.Is(err, outcome.ErrIncompleteMatch), ShouldBeTrue)
		})

		Convey("When A makes 150 all out and B chases 151 for 4", func() {
			play(m, "i1", "A", 150, 10, 20)
			play(m, "i2", "B", 151, 4, 20)

			res, err := outcome.Resolve(m)
			So(err, ShouldBeNil)

			Convey("Then B wins by 6 wickets", func() {
				So(m.First().Runs(), ShouldEqual, 150)
				So(m.First().Wickets(), ShouldEqual, 10)
				So(m.Second().Runs(), ShouldBeGreaterThanOrEqualTo, 151)
				So(res.Winner, ShouldEqual, "B")
				So(res.Loser, ShouldEqual, "A")
				So(res.Tie, ShouldBeFalse)
				So(*res.Margin, ShouldResemble, outcome.Margin{Kind: outcome.MarginWickets, Value: 6})
				So(res.Summary, ShouldEqual, "B won by 6 wickets")
				So(res.TeamScore("B"), ShouldEqual, 1.0)
				So(res.TeamScore("A"), ShouldEqual, 0.0)
			})
		})

		Convey("When the defending side holds on", func() {
			play(m, "i1", "A", 120, 3, 20)
			play(m, "i2", "B", 101, 10, 20)

			res, err := outcome.Resolve(m)
			So(err, ShouldBeNil)
			So(res.Winner, ShouldEqual, "A")
			So(*res.Margin, ShouldResemble, outcome.Margin{Kind: outcome.MarginRuns, Value: 19})
		})

		Convey("When the totals are level", func() {
			play(m, "i1", "A", 40, 0, 20)
			play(m, "i2", "B", 40, 2, 20)

			res, err := outcome.Resolve(m)
			So(err, ShouldBeNil)
			So(res.Tie, ShouldBeTrue)
			So(res.Winner, ShouldBeEmpty)
			So(res.Margin, ShouldBeNil)
			So(res.TeamScore("A"), ShouldEqual, 0.5)
			So(res.TeamScore("B"), ShouldEqual, 0.5)
		})
	})

	Convey("A single-unit margin is singular", t, func() {
		So(outcome.Margin{Kind: outcome.MarginRuns, Value: 1}.String(), ShouldEqual, "1 run")
	})
}
