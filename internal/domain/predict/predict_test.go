package predict_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/miya/internal/domain/model"
	"github.com/okian/miya/internal/domain/predict"
	. "github.com/smartystreets/goconvey/convey"
)

type seasonMap map[string]model.SeasonSummary

func (s seasonMap) Lookup(team string) (model.SeasonSummary, error) {
	row, ok := s[strings.ToLower(team)]
	if !ok {
		return model.SeasonSummary{}, &model.TeamNotFoundError{Team: team}
	}
	return row, nil
}

type metricsMap map[string]model.CompositeMetrics

func (m metricsMap) Metrics(team string) model.OptionalMetrics {
	if v, ok := m[team]; ok {
		return model.Some(v)
	}
	return model.Absent()
}

func exampleSeason() seasonMap {
	return seasonMap{
		"a": {Team: "A", Rank: 4, Wins: 25, Losses: 5, AdjOE: 110, AdjDE: 95, Barthag: 0.85},
		"b": {Team: "B", Rank: 30, Wins: 20, Losses: 10, AdjOE: 105, AdjDE: 100, Barthag: 0.70},
		"x": {Team: "X", Rank: 10, Wins: 22, Losses: 8, AdjOE: 108, AdjDE: 98, Barthag: 0.8},
		"y": {Team: "Y", Rank: 11, Wins: 22, Losses: 8, AdjOE: 108, AdjDE: 98, Barthag: 0.8},
		"z": {Team: "Z", Rank: 300, Wins: 0, Losses: 0, AdjOE: 90, AdjDE: 110, Barthag: 0.1},
	}
}

func TestPredictExample(t *testing.T) {
	Convey("Given team A and team B with zero metrics", t, func() {
		p, err := predict.Predict("A", "B", exampleSeason(), metricsMap{})

		Convey("Then A is favoured by the formula", func() {
			So(err, ShouldBeNil)
			So(p.BaseProbability, ShouldAlmostEqual, 0.5+0.05*(25.0/30-20.0/30)+0.25*0.15, 1e-9)
			So(p.Team1Probability, ShouldBeGreaterThan, 0.5)
			So(p.Winner, ShouldEqual, "A")
			So(p.WinnerProbability, ShouldEqual, p.Team1Probability)
			So(p.CloseGame, ShouldBeTrue)
		})

		Convey("Then the tied 77-77 score is broken toward A", func() {
			So(p.Team1.Score, ShouldEqual, 78)
			So(p.Team2.Score, ShouldEqual, 77)
			So(p.ScoreLine(), ShouldEqual, "78-77")
		})

		Convey("Then the snapshots carry season stats and absent metrics", func() {
			So(p.Team1.Record, ShouldEqual, "25-5")
			So(p.Team2.Rank, ShouldEqual, 30)
			So(p.Team1.Metrics.Available(), ShouldBeFalse)
		})
	})

	Convey("Given the same matchup in reverse order", t, func() {
		p, err := predict.Predict("b", "a", exampleSeason(), metricsMap{})

		Convey("Then A still wins with the same probability", func() {
			So(err, ShouldBeNil)
			So(p.Winner, ShouldEqual, "A")
			So(p.Team1Probability, ShouldBeLessThan, 0.5)
			So(p.ScoreLine(), ShouldEqual, "78-77")
		})
	})
}

func TestPredictSymmetry(t *testing.T) {
	Convey("Given identical season rows and no metrics", t, func() {
		p, err := predict.Predict("X", "Y", exampleSeason(), metricsMap{})

		Convey("Then the probability is exactly 0.5 and team2 takes the tie", func() {
			So(err, ShouldBeNil)
			So(p.BaseProbability, ShouldEqual, 0.5)
			So(p.Team1Probability, ShouldEqual, 0.5)
			So(p.Winner, ShouldEqual, "Y")
			So(p.WinnerProbability, ShouldEqual, 0.5)
			So(p.Team2.Score, ShouldEqual, p.Team1.Score+1)
		})
	})
}

func TestPredictMetrics(t *testing.T) {
	Convey("Given metrics for only one side", t, func() {
		lookup := metricsMap{"X": {Worth: 0.6, Prime: 0.4, Road: 0.2, Nerve: 0.5}}
		p, err := predict.Predict("X", "Y", exampleSeason(), lookup)

		Convey("Then the absent side counts as zero but stays absent", func() {
			So(err, ShouldBeNil)
			So(p.Team1.Metrics.Available(), ShouldBeTrue)
			So(p.Team2.Metrics.Available(), ShouldBeFalse)
			So(p.BaseProbability, ShouldAlmostEqual, 0.5+0.05*0.6+0.15*0.4+0.05*0.2+0.05*0.5, 1e-9)
			_, ok := p.Advantages()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestPredictErrors(t *testing.T) {
	Convey("Given a season table", t, func() {
		season := exampleSeason()

		Convey("When a team is unknown", func() {
			_, err := predict.Predict("Zzyzx State", "A", season, metricsMap{})

			Convey("Then a team not found error names it", func() {
				So(errors.Is(err, model.ErrTeamNotFound), ShouldBeTrue)
				var nf *model.TeamNotFoundError
				So(errors.As(err, &nf), ShouldBeTrue)
				So(nf.Team, ShouldEqual, "Zzyzx State")
			})
		})

		Convey("When the second team is unknown", func() {
			_, err := predict.Predict("A", "Nowhere", season, metricsMap{})
			So(err.Error(), ShouldContainSubstring, "Nowhere")
		})

		Convey("When a team has played no games", func() {
			_, err := predict.Predict("A", "Z", season, metricsMap{})

			Convey("Then a data-quality error is returned", func() {
				So(errors.Is(err, model.ErrNoGamesPlayed), ShouldBeTrue)
			})
		})

		Convey("When a row has a zero defensive rating", func() {
			season["b"] = model.SeasonSummary{Team: "B", Rank: 30, Wins: 20, Losses: 10, AdjOE: 105, AdjDE: 0, Barthag: 0.7}
			_, err := predict.Predict("A", "B", season, metricsMap{})

			So(errors.Is(err, model.ErrInvalidSeasonRow), ShouldBeTrue)
		})
	})
}

func TestCloseGameAdjust(t *testing.T) {
	Convey("Given the close-game band", t, func() {
		Convey("When WORTH advantage is 0.4 at exactly 0.5", func() {
			p, applied := predict.CloseGameAdjust(0.5, model.CompositeMetrics{Worth: 0.4})
			So(applied, ShouldBeTrue)
			So(p, ShouldAlmostEqual, 0.532, 1e-12)
		})

		Convey("When PRIME advantage is large and negative", func() {
			p, _ := predict.CloseGameAdjust(0.5, model.CompositeMetrics{Prime: -0.8})
			So(p, ShouldAlmostEqual, 0.46, 1e-12)
		})

		Convey("When NERVE advantage applies at the centre", func() {
			p, _ := predict.CloseGameAdjust(0.5, model.CompositeMetrics{Nerve: 0.2})
			So(p, ShouldAlmostEqual, 0.5+0.07*0.7, 1e-12)
		})

		Convey("When NERVE advantage applies halfway to the edge", func() {
			p, _ := predict.CloseGameAdjust(0.45, model.CompositeMetrics{Nerve: -1})
			So(p, ShouldAlmostEqual, 0.40, 1e-12)
		})

		Convey("When ROAD is the only advantage", func() {
			p, applied := predict.CloseGameAdjust(0.55, model.CompositeMetrics{Road: 1})
			So(applied, ShouldBeTrue)
			So(p, ShouldEqual, 0.55)
		})

		Convey("When adjustments push past the band they are not clamped again", func() {
			p, _ := predict.CloseGameAdjust(0.59, model.CompositeMetrics{Worth: 0.5, Prime: 0.5, Nerve: 0.5})
			So(p, ShouldAlmostEqual, 0.59+0.04+0.04+0.034, 1e-9)
		})

		Convey("When the probability is on or outside the band edges", func() {
			for _, base := range []float64{0.4, 0.6, 0.2, 0.99} {
				p, applied := predict.CloseGameAdjust(base, model.CompositeMetrics{Worth: 0.5})
				So(applied, ShouldBeFalse)
				So(p, ShouldEqual, base)
			}
		})
	})
}

func TestClampAndScores(t *testing.T) {
	Convey("Given extreme inputs", t, func() {
		So(predict.Clamp(1.7), ShouldEqual, 0.99)
		So(predict.Clamp(-3), ShouldEqual, 0.01)
		So(predict.Clamp(0.42), ShouldEqual, 0.42)

		Convey("Then predicted scores are never equal", func() {
			for oe := 90.0; oe <= 125; oe += 0.5 {
				for de := 88.0; de <= 112; de += 1.5 {
					a := predict.Side{AdjOE: oe, AdjDE: de}
					b := predict.Side{AdjOE: 214 - oe, AdjDE: 200 - de}
					for _, p := range []float64{0.3, 0.5, 0.7} {
						s1, s2 := predict.PredictScores(a, b, p)
						So(s1, ShouldNotEqual, s2)
					}
				}
			}
		})
	})
}

func TestPredictor(t *testing.T) {
	Convey("Given a predictor", t, func() {
		pr := predict.New(exampleSeason(), metricsMap{})

		Convey("When predicting", func() {
			p, err := pr.Predict(context.Background(), "A", "B")
			So(err, ShouldBeNil)
			So(p.Winner, ShouldEqual, "A")
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := pr.Predict(ctx, "A", "B")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("When a team is unknown", func() {
			_, err := pr.Predict(context.Background(), "A", "Zzyzx State")
			So(errors.Is(err, model.ErrTeamNotFound), ShouldBeTrue)
		})
	})
}
