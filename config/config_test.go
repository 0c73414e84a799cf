package config

import (
	"testing"

	"github.com/crunchy-cli/crunchy/filesystem"
	"github.com/crunchy-cli/crunchy/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Should default to the canonical adaptive stream type", func() {
			_ = Setup()
			So(viper.GetStringSlice(key.Format), ShouldResemble, []string{"adaptive_hls"})
			So(viper.GetStringSlice(key.Hardsub), ShouldResemble, []string{"none"})
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("logs.write")
			So(result, ShouldEqual, "logs_write")
		})
	})
}
