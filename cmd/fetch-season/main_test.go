package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/miya/internal/config"
	"github.com/okian/miya/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestFetch(t *testing.T) {
	Convey("Given a ratings server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("rank,team,conf,record,adjoe,adjde,barthag\n1,Duke,ACC,1-0,100,90,.5\n"))
		}))
		defer srv.Close()

		cfg := config.New()
		cfg.SeasonURL = srv.URL + "/%d_team_results.csv"
		out := filepath.Join(t.TempDir(), "season.csv")

		Convey("When fetching a year", func() {
			err := fetch(context.Background(), cfg, 2025, out)

			Convey("Then the CSV is saved", func() {
				So(err, ShouldBeNil)
				_, statErr := os.Stat(out)
				So(statErr, ShouldBeNil)
			})
		})
	})
}
