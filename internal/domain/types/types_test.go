package types_test

import (
	"errors"
	"testing"

	"github.com/okian/miya/internal/domain/model"
	types "github.com/okian/miya/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResultRow(t *testing.T) {
	Convey("Given a matchup and its prediction", t, func() {
		m := model.Matchup{Team1: "Houston", Team2: "Duke", Seed1: 1, Seed2: 2}
		p := model.Prediction{
			Team1: model.TeamSnapshot{
				Team: "Houston", Rank: 1, Record: "30-4", WinPct: 30.0 / 34,
				AdjOE: 125, AdjDE: 87.1, Barthag: 0.97, Score: 72,
			},
			Team2: model.TeamSnapshot{
				Team: "Duke", Rank: 2, Record: "31-3", WinPct: 31.0 / 34,
				AdjOE: 128.1, AdjDE: 89.5, Barthag: 0.98, Score: 68,
			},
			Team1Probability:  0.61,
			Winner:            "Houston",
			WinnerProbability: 0.61,
		}

		Convey("When only one side has metrics", func() {
			p.Team1.Metrics = model.Some(model.CompositeMetrics{Worth: 0.5})
			row := types.NewResultRow(3, m, p)

			Convey("Then the advantage columns stay empty", func() {
				So(row.OK(), ShouldBeTrue)
				So(row.Index, ShouldEqual, 3)
				So(row.Score, ShouldEqual, "72-68")
				So(row.Seed2, ShouldEqual, 2)
				So(row.WorthAdv, ShouldBeNil)
				So(row.NerveAdv, ShouldBeNil)
			})

			Convey("Then each team's own stats are kept", func() {
				So(row.Team1AdjOE, ShouldEqual, 125)
				So(row.Team1Barthag, ShouldEqual, 0.97)
				So(row.Team2AdjDE, ShouldEqual, 89.5)
				So(row.Team1WinPct, ShouldAlmostEqual, 30.0/34)
				So(row.Team2WinPct, ShouldAlmostEqual, 31.0/34)
				So(row.Team1Metrics, ShouldNotBeNil)
				So(row.Team1Metrics.Worth, ShouldEqual, 0.5)
				So(row.Team2Metrics, ShouldBeNil)
			})
		})

		Convey("When both sides have metrics", func() {
			p.Team1.Metrics = model.Some(model.CompositeMetrics{Worth: 0.5, Prime: 0.6, Road: 0.1, Nerve: 0.75})
			p.Team2.Metrics = model.Some(model.CompositeMetrics{Worth: 0.25, Prime: 0.6, Road: 0.3, Nerve: 0.5})
			row := types.NewResultRow(0, m, p)

			Convey("Then team1 minus team2 is recorded", func() {
				So(*row.WorthAdv, ShouldAlmostEqual, 0.25)
				So(*row.PrimeAdv, ShouldAlmostEqual, 0)
				So(*row.RoadAdv, ShouldAlmostEqual, -0.2)
				So(*row.NerveAdv, ShouldAlmostEqual, 0.25)
			})
		})
	})
}

func TestBatch(t *testing.T) {
	Convey("Given an empty batch", t, func() {
		var b types.Batch
		m := model.Matchup{Team1: "Zzyzx State", Team2: "Duke"}

		Convey("When an ok row and an error row are appended", func() {
			b.Append(types.ResultRow{Index: 0, Status: types.StatusOK})
			b.Append(types.NewErrorRow(1, m, errors.New("team not found")))

			Convey("Then the failed matchup keeps its row", func() {
				So(b.Rows, ShouldHaveLength, 2)
				So(b.OK, ShouldEqual, 1)
				So(b.Failed, ShouldEqual, 1)
				So(b.Rows[1].Status, ShouldEqual, types.StatusError)
				So(b.Rows[1].Error, ShouldEqual, "team not found")
				So(b.Rows[1].Team1, ShouldEqual, "Zzyzx State")
			})
		})
	})
}
