package player

import (
	"testing"

	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFold(t *testing.T) {
	Convey("Given a fresh snapshot", t, func() {
		ctx := FoldContext{Container: "c1"}
		prev := InitialSnapshot(0.8)

		Convey("Progress updates time and duration and derives playing from the device flags", func() {
			next := Fold(prev, TimeUpdate(12, mo.Some(60.0), false, false), ctx)
			So(next.CurrentTime, ShouldEqual, 12)
			So(next.Duration.MustGet(), ShouldEqual, 60)
			So(next.Playing, ShouldBeTrue)

			Convey("and a buffering pause from the device stops playing", func() {
				next = Fold(next, TimeUpdate(12.5, mo.None[float64](), true, false), ctx)
				So(next.Playing, ShouldBeFalse)
				So(next.Duration.MustGet(), ShouldEqual, 60)
			})
		})

		Convey("currentTime never exceeds a known duration", func() {
			next := Fold(prev, TimeUpdate(75, mo.Some(60.0), false, false), ctx)
			So(next.CurrentTime, ShouldEqual, 60)
		})

		Convey("Negative progress is treated as zero", func() {
			So(Fold(prev, TimeUpdate(-3, mo.None[float64](), false, false), ctx).CurrentTime, ShouldEqual, 0)
		})

		Convey("End of stream stops playback at the duration", func() {
			playing := Fold(prev, TimeUpdate(58, mo.Some(60.0), false, false), ctx)
			ended := Fold(playing, Event{Kind: EventEnded}, ctx)
			So(ended.Playing, ShouldBeFalse)
			So(ended.CurrentTime, ShouldEqual, 60)
		})

		Convey("Fullscreen follows the host's target, not any guess", func() {
			So(Fold(prev, FullscreenChange("c1"), ctx).Fullscreen, ShouldBeTrue)
			So(Fold(prev, FullscreenChange("other"), ctx).Fullscreen, ShouldBeFalse)
			So(Fold(prev, FullscreenChange(""), ctx).Fullscreen, ShouldBeFalse)
		})

		Convey("Volume zero implies muted and keeps the last audible volume", func() {
			next := Fold(prev, VolumeChange(0, false), ctx)
			So(next.Muted, ShouldBeTrue)
			So(next.Volume, ShouldEqual, 0)
			So(next.LastVolume, ShouldEqual, 0.8)
		})

		Convey("Non-positive rates are ignored", func() {
			So(Fold(prev, Event{Kind: EventRateChange, Rate: 1.5}, ctx).PlaybackRate, ShouldEqual, 1.5)
			So(Fold(prev, Event{Kind: EventRateChange, Rate: 0}, ctx).PlaybackRate, ShouldEqual, 1)
		})

		Convey("While scrubbing, progress leaves currentTime alone", func() {
			ctx.Scrubbing = true
			next := Fold(prev, TimeUpdate(30, mo.Some(60.0), false, false), ctx)
			So(next.CurrentTime, ShouldEqual, 0)
			So(next.Playing, ShouldBeTrue)
		})

		Convey("Lifecycle events do not touch the snapshot", func() {
			So(Fold(prev, Event{Kind: EventManifestParsed, Levels: 3}, ctx), ShouldResemble, prev)
			So(Fold(prev, Failure(ErrorNetwork, false, nil), ctx), ShouldResemble, prev)
		})
	})
}

func TestSynchronizer(t *testing.T) {
	Convey("Given a synchronizer with a 0.1s epsilon", t, func() {
		s := NewSynchronizer(InitialSnapshot(1), "c1", 0.1)
		_, changed := s.Apply(TimeUpdate(1, mo.Some(10.0), false, false))
		So(changed, ShouldBeTrue)

		Convey("A duplicate progress event within epsilon is debounced", func() {
			_, changed := s.Apply(TimeUpdate(1.05, mo.Some(10.0), false, false))
			So(changed, ShouldBeFalse)
			So(s.Snapshot().CurrentTime, ShouldEqual, 1)
		})

		Convey("Small steps accumulate until they pass epsilon", func() {
			s.Apply(TimeUpdate(1.06, mo.Some(10.0), false, false))
			snap, changed := s.Apply(TimeUpdate(1.12, mo.Some(10.0), false, false))
			So(changed, ShouldBeTrue)
			So(snap.CurrentTime, ShouldEqual, 1.12)
		})

		Convey("A sub-epsilon progress event that flips the paused flag is not dropped", func() {
			snap, changed := s.Apply(TimeUpdate(1.01, mo.Some(10.0), true, false))
			So(changed, ShouldBeTrue)
			So(snap.Playing, ShouldBeFalse)
		})

		Convey("Progress after a short seek is published even inside epsilon", func() {
			s.Seeked(1.05)
			snap, changed := s.Apply(TimeUpdate(1.05, mo.Some(10.0), false, false))
			So(changed, ShouldBeTrue)
			So(snap.CurrentTime, ShouldEqual, 1.05)

			_, changed = s.Apply(TimeUpdate(1.08, mo.Some(10.0), false, false))
			So(changed, ShouldBeFalse)
		})

		Convey("A late pre-seek progress event does not end the pending seek", func() {
			s.Seeked(1.07)
			snap, _ := s.Apply(TimeUpdate(1.02, mo.Some(10.0), false, false))
			So(snap.CurrentTime, ShouldEqual, 1.02)

			snap, changed := s.Apply(TimeUpdate(1.07, mo.Some(10.0), false, false))
			So(changed, ShouldBeTrue)
			So(snap.CurrentTime, ShouldEqual, 1.07)
		})

		Convey("Rewind forgets a pending seek", func() {
			s.Seeked(1.05)
			s.Rewind()
			s.Apply(TimeUpdate(1, mo.Some(10.0), false, false))
			_, changed := s.Apply(TimeUpdate(1.05, mo.Some(10.0), false, false))
			So(changed, ShouldBeFalse)
		})

		Convey("Scrubbing suspends and resumes time updates", func() {
			s.BeginScrub()
			So(s.Scrubbing(), ShouldBeTrue)
			s.Apply(TimeUpdate(5, mo.Some(10.0), false, false))
			So(s.Snapshot().CurrentTime, ShouldEqual, 1)

			s.EndScrub()
			s.Apply(TimeUpdate(6, mo.Some(10.0), false, false))
			So(s.Snapshot().CurrentTime, ShouldEqual, 6)
		})

		Convey("Rewind forgets the stream but keeps the audio settings", func() {
			s.Apply(VolumeChange(0.3, false))
			snap := s.Rewind()
			So(snap.CurrentTime, ShouldEqual, 0)
			So(snap.Duration.IsPresent(), ShouldBeFalse)
			So(snap.Playing, ShouldBeFalse)
			So(snap.Volume, ShouldEqual, 0.3)
		})
	})
}
