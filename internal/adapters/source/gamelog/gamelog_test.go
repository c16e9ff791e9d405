package gamelog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/miya/internal/domain/model"
)

const dukeCSV = `opponent,opp_rank,venue,result,t_score_t,t_score_o
Houston,2,neutral,W,70,67
Army,,home,W,100,58
Kentucky,12.0,away,L,72,77
`

const houstonHTML = `<html><body>
<table><tr><th>nav</th></tr><tr><td>menu</td></tr></table>
<table>
  <tr><th>Opponent</th><th>Opp_Rank</th><th>Venue</th><th>Result</th><th>T_Score_T</th><th>T_Score_O</th></tr>
  <tr><td>Duke</td><td>1</td><td>neutral</td><td>L</td><td>67</td><td>70</td></tr>
  <tr><td>Rice</td><td></td><td>home</td><td>W</td><td>80</td><td>51</td></tr>
</table>
</body></html>`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestParse(t *testing.T) {
	Convey("Given game log bodies", t, func() {
		Convey("When parsing CSV", func() {
			games, err := ParseCSV(strings.NewReader(dukeCSV))

			Convey("Then blank ranks are unranked and float ranks are accepted", func() {
				So(err, ShouldBeNil)
				So(games, ShouldHaveLength, 3)
				So(games[0], ShouldResemble, model.Game{
					Opponent: "Houston", OpponentRank: 2, Venue: model.VenueNeutral,
					Result: model.Win, TeamScore: 70, OpponentScore: 67,
				})
				So(games[1].Ranked(), ShouldBeFalse)
				So(games[2].OpponentRank, ShouldEqual, 12)
				So(games[2].Venue, ShouldEqual, model.VenueAway)
			})
		})

		Convey("When parsing HTML", func() {
			games, err := ParseHTML(strings.NewReader(houstonHTML))

			Convey("Then the results table is found past unrelated tables", func() {
				So(err, ShouldBeNil)
				So(games, ShouldHaveLength, 2)
				So(games[0].Opponent, ShouldEqual, "Duke")
				So(games[0].Won(), ShouldBeFalse)
			})
		})

		Convey("When the HTML has no results table", func() {
			_, err := ParseHTML(strings.NewReader("<table><tr><th>a</th></tr></table>"))
			So(errors.Is(err, ErrNoTable), ShouldBeTrue)
		})

		Convey("When a column is missing or a row is bad", func() {
			_, err := ParseCSV(strings.NewReader("opponent,venue\nDuke,home\n"))
			So(errors.Is(err, ErrMissingColumn), ShouldBeTrue)

			_, err = ParseCSV(strings.NewReader("opponent,opp_rank,venue,result,t_score_t,t_score_o\nDuke,1,moon,W,1,0\n"))
			So(errors.Is(err, ErrBadRow), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidGame), ShouldBeTrue)
		})
	})
}

func TestDirSource(t *testing.T) {
	Convey("Given a team data directory", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "Duke.csv", dukeCSV)
		writeFile(t, dir, "Houston.html", houstonHTML)
		writeFile(t, dir, "Saint_Mary's.csv", dukeCSV)
		writeFile(t, dir, ".DS_Store", "junk")
		writeFile(t, dir, "notes.txt", "junk")
		src := NewDirSource(dir)
		ctx := context.Background()

		Convey("When listing teams", func() {
			teams, err := src.Teams()

			Convey("Then hidden and foreign files are skipped", func() {
				So(err, ShouldBeNil)
				So(teams, ShouldResemble, []string{"Duke", "Houston", "Saint Mary's"})
			})
		})

		Convey("When loading by exact and by looser names", func() {
			duke, err := src.GameLog(ctx, "Duke")
			So(err, ShouldBeNil)
			So(duke.Games, ShouldHaveLength, 3)

			mary, err := src.GameLog(ctx, "St. Mary's")
			So(err, ShouldBeNil)
			So(mary.Games, ShouldHaveLength, 3)

			houston, err := src.GameLog(ctx, "houston")
			So(err, ShouldBeNil)
			So(houston.Games, ShouldHaveLength, 2)
		})

		Convey("When the team has no file", func() {
			_, err := src.GameLog(ctx, "Gonzaga")
			So(errors.Is(err, model.ErrGameLogNotFound), ShouldBeTrue)
		})

		Convey("When a file is removed after loading", func() {
			_, err := src.GameLog(ctx, "Duke")
			So(err, ShouldBeNil)
			So(os.Remove(filepath.Join(dir, "Duke.csv")), ShouldBeNil)

			Convey("Then the cached log is still served", func() {
				log, err := src.GameLog(ctx, "Duke")
				So(err, ShouldBeNil)
				So(log.Games, ShouldHaveLength, 3)
			})
		})

		Convey("When many goroutines load the same team", func() {
			var wg sync.WaitGroup
			errs := make([]error, 16)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = src.GameLog(ctx, "Houston")
				}(i)
			}
			wg.Wait()

			Convey("Then every load succeeds", func() {
				for _, err := range errs {
					So(err, ShouldBeNil)
				}
			})
		})

		Convey("When the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := src.GameLog(cctx, "Duke")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestNormalizeFileNames(t *testing.T) {
	Convey("Given files with spaces in their names", t, func() {
		dir := t.TempDir()
		writeFile(t, dir, "North Carolina.csv", dukeCSV)
		writeFile(t, dir, "Duke.csv", dukeCSV)
		writeFile(t, dir, "read me.txt", "x")

		renamed, err := NormalizeFileNames(dir)

		Convey("Then only game log files are renamed", func() {
			So(err, ShouldBeNil)
			So(renamed, ShouldResemble, map[string]string{"North Carolina.csv": "North_Carolina.csv"})
			_, statErr := os.Stat(filepath.Join(dir, "North_Carolina.csv"))
			So(statErr, ShouldBeNil)
			_, statErr = os.Stat(filepath.Join(dir, "read me.txt"))
			So(statErr, ShouldBeNil)
		})
	})

	Convey("Given a missing directory", t, func() {
		_, err := NormalizeFileNames(filepath.Join(t.TempDir(), "missing"))
		So(err, ShouldNotBeNil)
	})
}
