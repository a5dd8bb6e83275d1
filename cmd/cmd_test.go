package cmd

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamctl/streamctl/config"
	"github.com/streamctl/streamctl/key"
	"github.com/streamctl/streamctl/where"
)

func TestValidateRef(t *testing.T) {
	Convey("Stream references", t, func() {
		Convey("Manifests over http, https and file are accepted", func() {
			for _, ref := range []string{
				"https://cdn.example/live/master.m3u8",
				"http://cdn.example/a.M3U8?token=abc",
				"file:///srv/media/a.m3u8",
				"./media/a.m3u8",
			} {
				So(validateRef(ref), ShouldBeNil)
			}
		})

		Convey("Other extensions are rejected", func() {
			So(validateRef("https://cdn.example/a.mp4"), ShouldNotBeNil)
			So(validateRef("https://cdn.example/a.m3u8/segment.ts"), ShouldNotBeNil)
		})

		Convey("Other schemes are rejected", func() {
			So(validateRef("rtmp://cdn.example/a.m3u8"), ShouldNotBeNil)
		})

		Convey("An empty reference is rejected", func() {
			So(validateRef(""), ShouldNotBeNil)
		})
	})
}

func TestResolveRef(t *testing.T) {
	Convey("An argument wins over the history and the prompt", t, func() {
		ref, err := resolveRef(true, []string{"  https://cdn.example/a.m3u8 "})
		So(err, ShouldBeNil)
		So(ref, ShouldEqual, "https://cdn.example/a.m3u8")
	})
}

func TestMPVVersion(t *testing.T) {
	Convey("mpv version lines", t, func() {
		So(mpvVersion("mpv v0.37.0-dirty Copyright © 2000-2023 mpv/MPlayer/mplayer2 projects"), ShouldEqual, "0.37.0-dirty")
		So(mpvVersion("mpv 0.34.1 Copyright"), ShouldEqual, "0.34.1")
		So(mpvVersion("something else"), ShouldBeEmpty)
	})
}

func TestParseValue(t *testing.T) {
	Convey("Config values are parsed to the type of their default", t, func() {
		v, err := parseValue(key.PlayerVolume, []string{"40"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 40)

		v, err = parseValue(key.PlayerAutoplay, []string{"false"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, false)

		v, err = parseValue(key.MPVExtraArgs, []string{"--hwdec=auto", "--mute"})
		So(err, ShouldBeNil)
		So(v, ShouldResemble, []string{"--hwdec=auto", "--mute"})

		_, err = parseValue(key.PlayerVolume, []string{"loud"})
		So(err, ShouldNotBeNil)

		_, err = parseValue("player.volum", []string{"40"})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, key.PlayerVolume)
	})
}

func TestEnvNames(t *testing.T) {
	Convey("Every config key has an environment variable", t, func() {
		names := envNames()
		So(names, ShouldHaveLength, len(config.Default)+1)
		So(names, ShouldContain, where.EnvConfigPath)
		So(names, ShouldContain, "STREAMCTL_PLAYER_STRATEGY")
	})
}
