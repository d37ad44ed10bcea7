package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/wicket/internal/adapters/http/api"
	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type stubStats struct{}

func (stubStats) GetStats(context.Context) map[string]any {
	return map[string]any{"matches": 0}
}

func newHandler() (http.Handler, *service.Service) {
	svc := service.New(service.WithLogger(logger.Nop()))
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	return mux, svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(rec.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func ballBody(over, idx int, bowler, batsman string, runs int, delivery string) string {
	return fmt.Sprintf(`{"delivery_id":%q,"over":%d,"index":%d,"bowler":%q,"batsman":%q,"outcome":"runs","runs":%d}`,
		delivery, over, idx, bowler, batsman, runs)
}

// playMatch scores a one-over match through the API that B wins by 10 wickets.
func playMatch(h http.Handler, id string) {
	rec := do(h, http.MethodPost, "/matches", fmt.Sprintf(`{"id":%q,"team_a":"A","team_b":"B","max_overs":1}`, id))
	So(rec.Code, ShouldEqual, http.StatusCreated)

	rec = do(h, http.MethodPost, "/matches/"+id+"/innings", fmt.Sprintf(`{"id":"%s-1","batting_team":"A"}`, id))
	So(rec.Code, ShouldEqual, http.StatusCreated)
	for i, r := range []int{4, 4, 4, 0, 0, 0} {
		rec = do(h, http.MethodPost, "/matches/"+id+"/innings/"+id+"-1/balls", ballBody(1, i+1, "b1", "a1", r, ""))
		So(rec.Code, ShouldEqual, http.StatusCreated)
	}
	So(do(h, http.MethodPost, "/innings/"+id+"-1/finalize", "").Code, ShouldEqual, http.StatusOK)

	rec = do(h, http.MethodPost, "/matches/"+id+"/innings", fmt.Sprintf(`{"id":"%s-2","batting_team":"B"}`, id))
	So(rec.Code, ShouldEqual, http.StatusCreated)
	for i, r := range []int{6, 6, 1} {
		rec = do(h, http.MethodPost, "/matches/"+id+"/innings/"+id+"-2/balls", ballBody(1, i+1, "a3", "b2", r, ""))
		So(rec.Code, ShouldEqual, http.StatusCreated)
	}
	So(do(h, http.MethodPost, "/innings/"+id+"-2/finalize", "").Code, ShouldEqual, http.StatusOK)
}

func TestMatchRoutes(t *testing.T) {
	Convey("Given the API over a fresh service", t, func() {
		h, svc := newHandler()
		defer svc.Stop()

		Convey("When a match is created", func() {
			rec := do(h, http.MethodPost, "/matches", `{"id":"m1","team_a":"A","team_b":"B","max_overs":2}`)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			body := decodeBody(rec)
			So(body["id"], ShouldEqual, "m1")
			So(body["max_overs"], ShouldEqual, float64(2))
			So(body["complete"], ShouldEqual, false)

			Convey("Then it can be fetched and is not created twice", func() {
				So(do(h, http.MethodGet, "/matches/m1", "").Code, ShouldEqual, http.StatusOK)
				rec := do(h, http.MethodPost, "/matches", `{"id":"m1","team_a":"A","team_b":"B"}`)
				So(rec.Code, ShouldEqual, http.StatusConflict)
				So(decodeBody(rec)["code"], ShouldEqual, "match_exists")
			})

			Convey("And an innings is open", func() {
				So(do(h, http.MethodPost, "/matches/m1/innings", `{"id":"i1","batting_team":"A"}`).Code, ShouldEqual, http.StatusCreated)

				Convey("Then a ball is recorded once per delivery id", func() {
					rec := do(h, http.MethodPost, "/matches/m1/innings/i1/balls", ballBody(1, 1, "b1", "a1", 4, "d1"))
					So(rec.Code, ShouldEqual, http.StatusCreated)
					innings := decodeBody(rec)["innings"].(map[string]any)
					So(innings["runs"], ShouldEqual, float64(4))

					rec = do(h, http.MethodPost, "/matches/m1/innings/i1/balls", ballBody(1, 1, "b1", "a1", 4, "d1"))
					So(rec.Code, ShouldEqual, http.StatusOK)
					body := decodeBody(rec)
					So(body["duplicate"], ShouldEqual, true)
					So(body["innings"].(map[string]any)["runs"], ShouldEqual, float64(4))
				})

				Convey("Then an out of sequence ball is unprocessable", func() {
					rec := do(h, http.MethodPost, "/matches/m1/innings/i1/balls", ballBody(1, 3, "b1", "a1", 1, ""))
					So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				})

				Convey("Then an invalid ball is unprocessable", func() {
					rec := do(h, http.MethodPost, "/matches/m1/innings/i1/balls", ballBody(1, 1, "b1", "a1", 5, ""))
					So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
					So(decodeBody(rec)["code"], ShouldEqual, "invalid_ball")
				})

				Convey("Then a result is not available yet", func() {
					So(do(h, http.MethodGet, "/matches/m1/result", "").Code, ShouldEqual, http.StatusConflict)
				})

				Convey("Then finalizing twice conflicts", func() {
					So(do(h, http.MethodPost, "/innings/i1/finalize", "").Code, ShouldEqual, http.StatusOK)
					So(do(h, http.MethodPost, "/innings/i1/finalize", "").Code, ShouldEqual, http.StatusConflict)
				})
			})
		})

		Convey("Bad requests are rejected", func() {
			So(do(h, http.MethodPost, "/matches", `{"id":`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/matches", `{"team_a":"A","team_b":"A"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/matches", `{"unknown":1}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown resources are 404", func() {
			rec := do(h, http.MethodGet, "/matches/nope", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decodeBody(rec)["code"], ShouldEqual, "not_found")
			So(do(h, http.MethodPost, "/innings/nope/finalize", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodGet, "/players/nope/rating", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRatingRoutes(t *testing.T) {
	Convey("Given a completed match", t, func() {
		h, svc := newHandler()
		defer svc.Stop()
		playMatch(h, "m1")

		Convey("Then the result and performances are served", func() {
			rec := do(h, http.MethodGet, "/matches/m1/result", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := decodeBody(rec)
			So(body["winner"], ShouldEqual, "B")
			So(body["summary"], ShouldEqual, "B won by 10 wickets")

			rec = do(h, http.MethodGet, "/matches/m1/performances", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(rec)["players"], ShouldHaveLength, 4)
		})

		Convey("When ratings are applied", func() {
			rec := do(h, http.MethodPost, "/matches/m1/ratings", "")
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(decodeBody(rec)["deltas"], ShouldHaveLength, 4)

			Convey("Then a second application conflicts", func() {
				rec := do(h, http.MethodPost, "/matches/m1/ratings", "")
				So(rec.Code, ShouldEqual, http.StatusConflict)
				So(decodeBody(rec)["code"], ShouldEqual, "duplicate_application")
			})

			Convey("Then the leaderboard ranks the winners first", func() {
				rec := do(h, http.MethodGet, "/leaderboard?page=1&page_size=2", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(rec)
				So(body["total"], ShouldEqual, float64(4))
				entries := body["entries"].([]any)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].(map[string]any)["player_id"], ShouldEqual, "b2")
				So(entries[0].(map[string]any)["current"], ShouldEqual, "1026.99")

				So(do(h, http.MethodGet, "/leaderboard/podium", "").Code, ShouldEqual, http.StatusOK)
				So(do(h, http.MethodGet, "/leaderboard/rising", "").Code, ShouldEqual, http.StatusOK)
			})

			Convey("Then a player's rating carries the rank", func() {
				rec := do(h, http.MethodGet, "/players/a1/rating", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(rec)
				So(body["current"], ShouldEqual, "1004.53")
				So(body["rank"], ShouldEqual, float64(3))
				career := body["career"].(map[string]any)
				So(career["runs"], ShouldEqual, float64(12))
				So(career["strike_rate"], ShouldEqual, float64(200))
			})

			Convey("Then tournament awards apply once", func() {
				body := `{"factor":1,"awards":[{"player_id":"a1","points":50}]}`
				So(do(h, http.MethodPost, "/tournaments/t1/awards", body).Code, ShouldEqual, http.StatusCreated)
				So(do(h, http.MethodPost, "/tournaments/t1/awards", body).Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("Then bad leaderboard pages are rejected", func() {
			So(do(h, http.MethodGet, "/leaderboard?page=x", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/leaderboard?page=0", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestTeamRoutes(t *testing.T) {
	Convey("Given a registered team", t, func() {
		h, svc := newHandler()
		defer svc.Stop()
		rec := do(h, http.MethodPost, "/teams", `{"team_id":"csk","budget":1000}`)
		So(rec.Code, ShouldEqual, http.StatusCreated)
		So(decodeBody(rec)["money_left"], ShouldEqual, float64(1000))

		Convey("When a bid is settled", func() {
			rec := do(h, http.MethodPost, "/teams/csk/deductions", `{"bid_id":"bid1","player_id":"p1","amount":400}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := decodeBody(rec)
			So(body["money_left"], ShouldEqual, float64(600))
			So(body["usage_percent"], ShouldEqual, float64(40))

			Convey("Then the same bid conflicts and overspending is refused", func() {
				So(do(h, http.MethodPost, "/teams/csk/deductions", `{"bid_id":"bid1","amount":10}`).Code, ShouldEqual, http.StatusConflict)
				So(do(h, http.MethodPost, "/teams/csk/deductions", `{"bid_id":"bid2","amount":601}`).Code, ShouldEqual, http.StatusPaymentRequired)
				So(do(h, http.MethodPost, "/teams/csk/deductions", `{"bid_id":"bid3","amount":0}`).Code, ShouldEqual, http.StatusBadRequest)

				rec := do(h, http.MethodGet, "/teams/csk/budget", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(rec)["money_left"], ShouldEqual, float64(600))
			})
		})

		Convey("Then duplicates and unknown teams are reported", func() {
			So(do(h, http.MethodPost, "/teams", `{"team_id":"csk"}`).Code, ShouldEqual, http.StatusConflict)
			So(do(h, http.MethodGet, "/teams/rcb/budget", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestOpsRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		defer svc.Stop()
		mux := http.NewServeMux()
		api.NewServer(svc, stubStats{}).Register(mux)

		Convey("Then stats are served as JSON", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decodeBody(rec)["matches"], ShouldEqual, float64(0))
		})

		Convey("Then healthz exposes the metrics registry", func() {
			do(mux, http.MethodGet, "/stats", "")
			rec := do(mux, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(bytes.Contains(rec.Body.Bytes(), []byte("wicket_engine_http_requests_total")), ShouldBeTrue)
		})

		Convey("Then unknown methods are refused", func() {
			So(do(mux, http.MethodDelete, "/stats", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
