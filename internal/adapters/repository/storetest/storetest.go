// Package storetest is a behaviour suite every repository.Store must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/domain/budget"
	"github.com/okian/wicket/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

var appliedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func engine() *rating.Engine {
	n := 0
	return rating.NewEngine(
		rating.WithClock(func() time.Time { return appliedAt }),
		rating.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
		}),
	)
}

func recordMap(ctx context.Context, s repository.Store) map[string]rating.Record {
	recs, err := s.Records(ctx)
	So(err, ShouldBeNil)
	m := make(map[string]rating.Record, len(recs))
	for _, r := range recs {
		m[r.PlayerID] = r
	}
	return m
}

// Run exercises a fresh store from newStore in every leaf.
func Run(t *testing.T, newStore func() repository.Store) {
	t.Helper()

	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := newStore()
		Reset(func() { _ = s.Close() })
		e := engine()

		Convey("An unknown player is not found", func() {
			_, err := s.Record(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			recs, err := s.Records(ctx)
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)
		})

		Convey("When a match application is saved", func() {
			app, err := e.ApplyMatch(map[string]rating.Record{}, rating.MatchCause("m1"), 32, []rating.Participant{
				{PlayerID: "p2", TeamResult: 0, Overall: 20},
				{PlayerID: "p1", TeamResult: 1, Overall: 80, Line: rating.Line{Runs: 52, BallsFaced: 40, Out: true, Wickets: 1, RunsConceded: 24, BallsBowled: 18}},
			})
			So(err, ShouldBeNil)
			So(s.SaveApplication(ctx, app), ShouldBeNil)

			Convey("Then records and history read back", func() {
				r, err := s.Record(ctx, "p1")
				So(err, ShouldBeNil)
				So(r.Current.String(), ShouldEqual, "1030.08")
				So(r.Peak.String(), ShouldEqual, "1030.08")
				So(r.History, ShouldHaveLength, 1)
				d := r.History[0]
				So(d.Cause, ShouldResemble, rating.MatchCause("m1"))
				So(d.Before.String(), ShouldEqual, "1000")
				So(d.Change.String(), ShouldEqual, "30.08")
				So(d.TeamResult, ShouldEqual, 1)
				So(d.Factor, ShouldEqual, 32)
				So(d.AppliedAt.Equal(appliedAt), ShouldBeTrue)
				So(d.Line, ShouldResemble, rating.Line{Runs: 52, BallsFaced: 40, Out: true, Wickets: 1, RunsConceded: 24, BallsBowled: 18})
				So(r.Career().BattingAverage, ShouldEqual, 52)

				recs, err := s.Records(ctx)
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				So(recs[0].PlayerID, ShouldEqual, "p1")
				So(recs[1].Current.String(), ShouldEqual, "1001.92")
			})

			Convey("Then the same cause cannot be stored again", func() {
				stale, err := e.ApplyMatch(map[string]rating.Record{}, rating.MatchCause("m1"), 32, []rating.Participant{
					{PlayerID: "p3", TeamResult: 1, Overall: 50},
					{PlayerID: "p1", TeamResult: 1, Overall: 80},
				})
				So(err, ShouldBeNil)
				err = s.SaveApplication(ctx, stale)
				So(errors.Is(err, rating.ErrDuplicateApplication), ShouldBeTrue)

				_, err = s.Record(ctx, "p3")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				r, _ := s.Record(ctx, "p1")
				So(r.History, ShouldHaveLength, 1)
			})

			Convey("Then a later application extends the history in order", func() {
				next, err := e.ApplyTournament(recordMap(ctx, s), rating.TournamentCause("t1"), 1, []rating.Award{
					{PlayerID: "p1", Points: 50},
				})
				So(err, ShouldBeNil)
				So(s.SaveApplication(ctx, next), ShouldBeNil)

				r, err := s.Record(ctx, "p1")
				So(err, ShouldBeNil)
				So(r.History, ShouldHaveLength, 2)
				So(r.History[0].Cause.Kind, ShouldEqual, rating.CauseMatch)
				So(r.History[1].Cause.Kind, ShouldEqual, rating.CauseTournament)
				So(r.Current.String(), ShouldEqual, "1080.08")
				So(r.Stats().Tournaments, ShouldEqual, 1)
			})
		})

		Convey("When a team is registered", func() {
			team, err := budget.NewTeam("csk", 1_000_000)
			So(err, ShouldBeNil)
			So(s.CreateTeam(ctx, team), ShouldBeNil)

			Convey("Then it reads back and cannot be registered twice", func() {
				got, err := s.Team(ctx, "csk")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, team)
				So(errors.Is(s.CreateTeam(ctx, team), repository.ErrAlreadyExists), ShouldBeTrue)
			})

			Convey("Then a settled bid is stored once", func() {
				bid := budget.Settlement{BidID: "bid-1", TeamID: "csk", PlayerID: "p1", Amount: 300_000}
				after, err := team.Deduct(bid.Amount)
				So(err, ShouldBeNil)
				So(s.SaveSettlement(ctx, after, bid), ShouldBeNil)

				settled, err := s.BidSettled(ctx, "bid-1")
				So(err, ShouldBeNil)
				So(settled, ShouldBeTrue)
				got, _ := s.Team(ctx, "csk")
				So(got.MoneyLeft, ShouldEqual, 700_000)

				again, _ := after.Deduct(bid.Amount)
				err = s.SaveSettlement(ctx, again, bid)
				So(errors.Is(err, budget.ErrDuplicateSettlement), ShouldBeTrue)
				got, _ = s.Team(ctx, "csk")
				So(got.MoneyLeft, ShouldEqual, 700_000)
			})

			Convey("Then a deduction without a bid id only moves the purse", func() {
				after, _ := team.Deduct(1)
				So(s.SaveSettlement(ctx, after, budget.Settlement{TeamID: "csk", Amount: 1}), ShouldBeNil)
				got, _ := s.Team(ctx, "csk")
				So(got.MoneyLeft, ShouldEqual, 999_999)
				settled, err := s.BidSettled(ctx, "")
				So(err, ShouldBeNil)
				So(settled, ShouldBeFalse)
			})
		})

		Convey("Unknown teams are not found", func() {
			_, err := s.Team(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			ghost := budget.Team{ID: "ghost", Budget: 10, MoneyLeft: 5}
			err = s.SaveSettlement(ctx, ghost, budget.Settlement{BidID: "b", TeamID: "ghost", Amount: 5})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			settled, _ := s.BidSettled(ctx, "b")
			So(settled, ShouldBeFalse)
		})
	})
}
