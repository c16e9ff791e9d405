package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/miya/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.SeasonURL, convey.ShouldContainSubstring, "%d")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.FetchTimeoutMS, convey.ShouldEqual, 30_000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When team_data_dir is blank", func() {
			cfg.TeamDataDir = "  "
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When worker_count is zero", func() {
			cfg.WorkerCount = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When queue_size is negative", func() {
			cfg.QueueSize = -1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When output_format is upper case csv", func() {
			cfg.OutputFormat = "CSV"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
