package scorecard_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/domain/ledger"
	"github.com/okian/wicket/internal/scorecard"
	"github.com/okian/wicket/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given fixture files", t, func() {
		Convey("A full match loads with its tournament", func() {
			f, err := scorecard.Load("testdata/one_over.yaml")
			So(err, ShouldBeNil)
			So(f.Match.ID, ShouldEqual, "final")
			So(f.Innings, ShouldHaveLength, 2)
			So(f.Innings[0].Balls, ShouldHaveLength, 6)
			So(f.Innings[1].Balls[0].Outcome, ShouldEqual, ledger.OutcomeRuns)

			spec := f.Match.Spec()
			So(spec.Tournament, ShouldNotBeNil)
			So(spec.Tournament.Name, ShouldEqual, "Village Cup")
		})

		Convey("Unknown keys and missing teams are rejected", func() {
			_, err := scorecard.Decode(strings.NewReader("match: {team_a: A, team_b: B, colour: red}\ninnings: [{batting: A}]\n"))
			So(errors.Is(err, scorecard.ErrInvalidFixture), ShouldBeTrue)

			_, err = scorecard.Decode(strings.NewReader("match: {team_a: A}\ninnings: [{batting: A}]\n"))
			So(errors.Is(err, scorecard.ErrInvalidFixture), ShouldBeTrue)

			_, err = scorecard.Decode(strings.NewReader("match: {team_a: A, team_b: B}\n"))
			So(errors.Is(err, scorecard.ErrInvalidFixture), ShouldBeTrue)
		})

		Convey("A missing file is an error", func() {
			_, err := scorecard.Load("testdata/missing.yaml")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestReplay(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()))
		defer svc.Stop()

		Convey("When a full match is replayed with ratings", func() {
			f, err := scorecard.Load("testdata/one_over.yaml")
			So(err, ShouldBeNil)
			report, err := scorecard.Replay(ctx, svc, f, scorecard.Options{ApplyRatings: true})
			So(err, ShouldBeNil)

			Convey("Then the result and ratings are reported", func() {
				So(report.Match.Complete(), ShouldBeTrue)
				So(report.Result, ShouldNotBeNil)
				So(report.Result.Summary, ShouldEqual, "B won by 10 wickets")
				So(report.Players, ShouldHaveLength, 4)
				So(report.Rating, ShouldNotBeNil)
				So(report.Rating.Deltas, ShouldHaveLength, 4)

				pr, err := svc.PlayerRating(ctx, "b2")
				So(err, ShouldBeNil)
				So(pr.Current.StringFixed(2), ShouldEqual, "1026.99")
			})

			Convey("Then the text scorecard shows both innings and the result", func() {
				var buf bytes.Buffer
				So(scorecard.WriteText(&buf, report), ShouldBeNil)
				out := buf.String()
				So(out, ShouldContainSubstring, "A 12/0 (1.0 ov")
				So(out, ShouldContainSubstring, "B 13/0 (0.3 ov")
				So(out, ShouldContainSubstring, "Result: B won by 10 wickets")
				So(out, ShouldContainSubstring, "1026.99")
			})

			Convey("Then replaying it again clashes with the existing match", func() {
				_, err := scorecard.Replay(ctx, svc, f, scorecard.Options{})
				So(errors.Is(err, service.ErrMatchExists), ShouldBeTrue)
			})
		})

		Convey("When only a first innings is replayed", func() {
			f, err := scorecard.Load("testdata/first_innings.yaml")
			So(err, ShouldBeNil)
			report, err := scorecard.Replay(ctx, svc, f, scorecard.Options{ApplyRatings: true})
			So(err, ShouldBeNil)

			Convey("Then there is no result and no rating", func() {
				So(report.Result, ShouldBeNil)
				So(report.Rating, ShouldBeNil)
				in := report.Match.Innings()[0]
				So(in.Runs(), ShouldEqual, 1)
				So(in.Wickets(), ShouldEqual, 1)
				So(in.Finalized(), ShouldBeTrue)

				var buf bytes.Buffer
				So(scorecard.WriteText(&buf, report), ShouldBeNil)
				So(buf.String(), ShouldNotContainSubstring, "Result:")
			})
		})

		Convey("When a fixture is out of sequence", func() {
			f, err := scorecard.Load("testdata/bad_sequence.yaml")
			So(err, ShouldBeNil)
			_, err = scorecard.Replay(ctx, svc, f, scorecard.Options{})

			Convey("Then the replay stops at that ball", func() {
				So(errors.Is(err, ledger.ErrMalformedSequence), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "ball 1 (1.2)")
			})
		})
	})
}
