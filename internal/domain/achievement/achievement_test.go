package achievement_test

import (
	"testing"

	"github.com/okian/wicket/internal/domain/achievement"
	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/domain/performance"
	"github.com/okian/wicket/internal/domain/rating"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestForDelta(t *testing.T) {
	Convey("Crossing milestones awards each one once", t, func() {
		d := rating.Delta{PlayerID: "p", Before: decimal.NewFromInt(1190), After: decimal.NewFromInt(1410)}
		got := achievement.ForDelta(d)
		So(got, ShouldHaveLength, 2)
		So(got[0].Value, ShouldEqual, 1200)
		So(got[1].Value, ShouldEqual, 1400)
		So(got[1].Title, ShouldEqual, "Rating Milestone: 1400")
	})

	Convey("Landing exactly on a milestone counts, starting on one does not", t, func() {
		So(achievement.ForDelta(rating.Delta{Before: decimal.NewFromInt(1199), After: decimal.NewFromInt(1200)}), ShouldHaveLength, 1)
		So(achievement.ForDelta(rating.Delta{Before: decimal.NewFromInt(1200), After: decimal.NewFromInt(1300)}), ShouldBeEmpty)
	})
}

func TestForMatch(t *testing.T) {
	Convey("Given a first innings with a hat-trick broken by a wide", t, func() {
		m, err := ledger.NewMatch("m1", "A", "B")
		So(err, ShouldBeNil)
		_, err = m.StartInnings("i1", "A")
		So(err, ShouldBeNil)

		w := func(idx int, batsman string) ledger.Ball {
			return ledger.Ball{Over: 1, Index: idx, Bowler: "x", Batsman: batsman,
				Outcome: ledger.OutcomeWicket, Wicket: true, Dismissal: ledger.DismissalBowled}
		}
		for _, b := range []ledger.Ball{
			w(1, "a"),
			w(2, "b"),
			{Over: 1, Index: 3, Bowler: "x", Batsman: "c", Outcome: ledger.OutcomeWide},
			w(3, "c"),
		} {
			_, err := m.Record("i1", b)
			So(err, ShouldBeNil)
		}
		_, err = m.FinalizeInnings("i1")
		So(err, ShouldBeNil)

		players := []performance.Player{
			{PlayerID: "bat", Batting: performance.Batting{Runs: 104}},
			{PlayerID: "x", Bowling: performance.Bowling{Wickets: 3}},
		}
		got := achievement.ForMatch(m, players)

		Convey("Then the century and the hat-trick are awarded", func() {
			So(got, ShouldHaveLength, 2)
			So(got[0].Kind, ShouldEqual, achievement.Century)
			So(got[0].MatchID, ShouldEqual, "m1")
			So(got[1].Kind, ShouldEqual, achievement.HatTrick)
			So(got[1].PlayerID, ShouldEqual, "x")
		})
	})
}
