package leaderboard_test

import (
	"errors"
	"testing"

	"github.com/okian/wicket/internal/domain/leaderboard"
	"github.com/okian/wicket/internal/domain/rating"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

// record builds a player whose history is the given changes, each tagged as
// a match with the given result.
func record(id string, result float64, changes ...int64) rating.Record {
	r := rating.NewRecord(id, rating.DefaultInitial)
	for i, c := range changes {
		after := r.Current.Add(decimal.NewFromInt(c))
		r = r.Apply(rating.Delta{
			PlayerID:   id,
			Cause:      rating.MatchCause(id + "-" + string(rune('a'+i))),
			Before:     r.Current,
			After:      after,
			Change:     decimal.NewFromInt(c),
			TeamResult: result,
		})
	}
	return r
}

func ids(es []leaderboard.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.PlayerID
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given players with ties on rating", t, func() {
		records := []rating.Record{
			record("dave", 0, 10),
			record("carol", 1, 10),
			record("bob", 1, 10),
			record("alice", 1, 30),
			record("erin", 0),
		}

		Convey("Then the order is rating, wins, then id", func() {
			ranked := leaderboard.Rank(records)
			So(ids(ranked), ShouldResemble, []string{"alice", "bob", "carol", "dave", "erin"})
			So(ranked[0].Rank, ShouldEqual, 1)
			So(ranked[4].Rank, ShouldEqual, 5)
			So(ranked[3].Losses, ShouldEqual, 1)
		})

		Convey("Then ranking is deterministic regardless of input order", func() {
			a := leaderboard.Rank(records)
			reversed := make([]rating.Record, len(records))
			for i, r := range records {
				reversed[len(records)-1-i] = r
			}
			b := leaderboard.Rank(reversed)
			So(ids(b), ShouldResemble, ids(a))
		})

		Convey("Then the podium is the top three", func() {
			So(ids(leaderboard.Podium(leaderboard.Rank(records))), ShouldResemble, []string{"alice", "bob", "carol"})
			So(leaderboard.Podium(nil), ShouldBeEmpty)
		})
	})

	Convey("An empty set ranks to an empty slice", t, func() {
		So(leaderboard.Rank(nil), ShouldNotBeNil)
		So(leaderboard.Rank(nil), ShouldBeEmpty)
	})
}

func TestPage(t *testing.T) {
	Convey("Given five ranked entries", t, func() {
		ranked := leaderboard.Rank([]rating.Record{
			record("a", 1, 5), record("b", 1, 4), record("c", 1, 3), record("d", 1, 2), record("e", 1, 1),
		})

		Convey("Pages are 1-based", func() {
			p, err := leaderboard.Page(ranked, 2, 2)
			So(err, ShouldBeNil)
			So(ids(p), ShouldResemble, []string{"c", "d"})

			p, err = leaderboard.Page(ranked, 3, 2)
			So(err, ShouldBeNil)
			So(ids(p), ShouldResemble, []string{"e"})
		})

		Convey("A page past the end is empty", func() {
			p, err := leaderboard.Page(ranked, 9, 2)
			So(err, ShouldBeNil)
			So(p, ShouldNotBeNil)
			So(p, ShouldBeEmpty)
		})

		Convey("Bad input is rejected", func() {
			_, err := leaderboard.Page(ranked, 0, 2)
			So(errors.Is(err, leaderboard.ErrInvalidPage), ShouldBeTrue)
			_, err = leaderboard.Page(ranked, 1, 0)
			So(errors.Is(err, leaderboard.ErrInvalidPage), ShouldBeTrue)
		})
	})
}

func TestRisingStars(t *testing.T) {
	Convey("Given a podium and a field of climbers", t, func() {
		records := []rating.Record{
			record("p1", 1, 100),
			record("p2", 1, 90),
			record("p3", 1, 80),
			record("slow", 1, 1, 1, 1),
			record("steady", 1, 5, 5, 5),
			record("fast", 1, 20, 20),
			record("early", 1, 40, -1, -1, -1, -1, -1),
		}

		Convey("Then podium players are excluded and gains are ordered", func() {
			rs := leaderboard.RisingStars(records, leaderboard.DefaultRisingOptions())
			So(rs, ShouldHaveLength, 2)
			So(rs[0].PlayerID, ShouldEqual, "fast")
			So(rs[0].Gain.String(), ShouldEqual, "40")
			So(rs[1].PlayerID, ShouldEqual, "steady")
		})

		Convey("Then the window only looks at recent deltas", func() {
			opts := leaderboard.DefaultRisingOptions()
			opts.Window = 6
			rs := leaderboard.RisingStars(records, opts)
			So(rs, ShouldHaveLength, 3)
			So(rs[1].PlayerID, ShouldEqual, "early")
		})

		Convey("Then the limit caps the list", func() {
			opts := leaderboard.DefaultRisingOptions()
			opts.Limit = 1
			So(leaderboard.RisingStars(records, opts), ShouldHaveLength, 1)
		})
	})
}
