package rating_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/wicket/internal/domain/rating"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedEngine() *rating.Engine {
	n := 0
	return rating.NewEngine(
		rating.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
		rating.WithIDGenerator(func() string { n++; return fmt.Sprintf("d%d", n) }),
	)
}

func index(recs []rating.Record) map[string]rating.Record {
	out := make(map[string]rating.Record, len(recs))
	for _, r := range recs {
		out[r.PlayerID] = r
	}
	return out
}

func TestMatchDelta(t *testing.T) {
	Convey("The delta blends team result and individual score", t, func() {
		So(rating.MatchDelta(32, 1, 100).Equal(decimal.NewFromInt(32)), ShouldBeTrue)
		So(rating.MatchDelta(32, 0, 0).IsZero(), ShouldBeTrue)
		So(rating.MatchDelta(32, 0.5, 65).String(), ShouldEqual, "17.44")
		So(rating.MatchDelta(10, 1, 250).String(), ShouldEqual, "10")
	})
}

func TestApplyMatch(t *testing.T) {
	Convey("Given an engine and an empty rating set", t, func() {
		e := fixedEngine()
		records := map[string]rating.Record{}
		ps := []rating.Participant{
			{PlayerID: "p1", TeamResult: 1, Overall: 50},
			{PlayerID: "p2", TeamResult: 0, Overall: 80},
		}

		Convey("When a match is applied", func() {
			app, err := e.ApplyMatch(records, rating.MatchCause("m1"), 32, ps)
			So(err, ShouldBeNil)
			got := index(app.Records)

			Convey("Then each player moves from the initial rating", func() {
				So(app.Deltas, ShouldHaveLength, 2)
				So(got["p1"].Current.String(), ShouldEqual, "1027.2")
				So(got["p2"].Current.String(), ShouldEqual, "1007.68")
				So(app.Deltas[0].Before.String(), ShouldEqual, "1000")
				So(app.Deltas[0].ID, ShouldEqual, "d1")
				So(app.Deltas[0].Cause, ShouldResemble, rating.MatchCause("m1"))
			})

			Convey("Then the input map is untouched", func() {
				So(records, ShouldBeEmpty)
			})

			Convey("Then applying it again is rejected as a whole", func() {
				for _, r := range app.Records {
					records[r.PlayerID] = r
				}
				again := append(ps, rating.Participant{PlayerID: "p3", TeamResult: 1, Overall: 10})
				_, err := e.ApplyMatch(records, rating.MatchCause("m1"), 32, again)
				So(errors.Is(err, rating.ErrDuplicateApplication), ShouldBeTrue)
				So(records["p1"].History, ShouldHaveLength, 1)
			})

			Convey("Then counters are derived from history", func() {
				So(got["p1"].Stats(), ShouldResemble, rating.Stats{Matches: 1, Wins: 1})
				So(got["p2"].Stats(), ShouldResemble, rating.Stats{Matches: 1, Losses: 1})
			})
		})

		Convey("Malformed applications are rejected", func() {
			_, err := e.ApplyMatch(records, rating.MatchCause(""), 32, ps)
			So(errors.Is(err, rating.ErrInvalidApplication), ShouldBeTrue)
			_, err = e.ApplyMatch(records, rating.MatchCause("m1"), 0, ps)
			So(errors.Is(err, rating.ErrInvalidApplication), ShouldBeTrue)
			_, err = e.ApplyMatch(records, rating.MatchCause("m1"), 32, append(ps, ps[0]))
			So(errors.Is(err, rating.ErrInvalidApplication), ShouldBeTrue)
		})

		Convey("Applications without players are rejected", func() {
			_, err := e.ApplyMatch(records, rating.MatchCause("m1"), 32, nil)
			So(errors.Is(err, rating.ErrInvalidApplication), ShouldBeTrue)
			_, err = e.ApplyTournament(records, rating.TournamentCause("t1"), 1, []rating.Award{})
			So(errors.Is(err, rating.ErrInvalidApplication), ShouldBeTrue)
		})
	})
}

func TestPeakIsMonotonic(t *testing.T) {
	Convey("Peak never decreases across a run of matches", t, func() {
		e := fixedEngine()
		rec := rating.NewRecord("p", e.Initial())
		results := []float64{1, 0, 0, 1, 0.5, 0, 1}
		prevPeak := rec.Peak
		for i, res := range results {
			records := map[string]rating.Record{"p": rec}
			app, err := e.ApplyMatch(records, rating.MatchCause(fmt.Sprintf("m%d", i)), 16, []rating.Participant{
				{PlayerID: "p", TeamResult: res, Overall: 40},
			})
			So(err, ShouldBeNil)
			rec = app.Records[0]
			So(rec.Peak.GreaterThanOrEqual(prevPeak), ShouldBeTrue)
			So(rec.Peak.GreaterThanOrEqual(rec.Current), ShouldBeTrue)
			prevPeak = rec.Peak
		}
		So(rec.History, ShouldHaveLength, len(results))
		So(rec.Stats(), ShouldResemble, rating.Stats{Matches: 7, Wins: 3, Losses: 3, Ties: 1})
		So(rec.Last(2), ShouldHaveLength, 2)
		So(rec.Last(2)[1].Cause.ID, ShouldEqual, "m6")
		So(rec.Last(0), ShouldBeEmpty)
	})
}

func TestApplyTournament(t *testing.T) {
	Convey("Given a player with one match", t, func() {
		e := rating.NewEngine(rating.WithInitialRating(1200))
		app, err := e.ApplyMatch(nil, rating.MatchCause("m1"), 10, []rating.Participant{{PlayerID: "p", TeamResult: 1}})
		So(err, ShouldBeNil)
		records := index(app.Records)
		So(records["p"].Current.String(), ShouldEqual, "1207")

		Convey("A tournament award scales by the factor once", func() {
			tapp, err := e.ApplyTournament(records, rating.TournamentCause("t1"), 1.5, []rating.Award{{PlayerID: "p", Points: 20}})
			So(err, ShouldBeNil)
			rec := tapp.Records[0]
			So(rec.Current.String(), ShouldEqual, "1237")
			So(rec.Stats().Tournaments, ShouldEqual, 1)
			So(rec.Stats().Matches, ShouldEqual, 1)

			records["p"] = rec
			_, err = e.ApplyTournament(records, rating.TournamentCause("t1"), 1.5, []rating.Award{{PlayerID: "p", Points: 20}})
			So(errors.Is(err, rating.ErrDuplicateApplication), ShouldBeTrue)
		})

		Convey("The same id as a match cause is a different cause", func() {
			_, err := e.ApplyTournament(records, rating.TournamentCause("m1"), 1, []rating.Award{{PlayerID: "p", Points: 1}})
			So(err, ShouldBeNil)
		})
	})
}

func TestCareer(t *testing.T) {
	Convey("Given a player with two matches and a tournament", t, func() {
		e := fixedEngine()
		rec := rating.NewRecord("p", e.Initial())
		lines := []struct {
			result float64
			line   rating.Line
		}{
			{1, rating.Line{Runs: 45, BallsFaced: 30, Out: true, Wickets: 2, RunsConceded: 30, BallsBowled: 24}},
			{0, rating.Line{Runs: 30, BallsFaced: 20, Wickets: 1, RunsConceded: 28, BallsBowled: 24}},
		}
		for i, l := range lines {
			app, err := e.ApplyMatch(map[string]rating.Record{"p": rec}, rating.MatchCause(fmt.Sprintf("m%d", i)), 32,
				[]rating.Participant{{PlayerID: "p", TeamResult: l.result, Overall: 50, Line: l.line}})
			So(err, ShouldBeNil)
			rec = app.Records[0]
		}
		app, err := e.ApplyTournament(map[string]rating.Record{"p": rec}, rating.TournamentCause("t1"), 1,
			[]rating.Award{{PlayerID: "p", Points: 10}})
		So(err, ShouldBeNil)
		rec = app.Records[0]

		Convey("Then figures sum over matches only", func() {
			c := rec.Career()
			So(rec.History[0].Line, ShouldResemble, lines[0].line)
			So(c.WinPercentage, ShouldEqual, 50)
			So(c.Runs, ShouldEqual, 75)
			So(c.Dismissals, ShouldEqual, 1)
			So(c.BattingAverage, ShouldEqual, 75)
			So(c.StrikeRate, ShouldEqual, 150)
			So(c.Wickets, ShouldEqual, 3)
			So(c.BowlingAverage, ShouldEqual, 19.33)
			So(c.BallsBowled, ShouldEqual, 48)
		})
	})

	Convey("A record without matches has zero figures", t, func() {
		So(rating.NewRecord("p", rating.DefaultInitial).Career(), ShouldResemble, rating.Career{})
	})
}
