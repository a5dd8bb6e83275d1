package player

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// managerRig drives a Manager synchronously: listener events are queued and pumped by hand.
type managerRig struct {
	surface  *fakeSurface
	decoders *fakeDecoders
	manager  *Manager
	queue    []taggedEvent
	reported []PlaybackError
}

type taggedEvent struct {
	gen uint64
	ev  Event
}

func newManagerRig(native bool, cfg ManagerConfig) *managerRig {
	r := &managerRig{surface: newFakeSurface(native)}
	r.decoders = &fakeDecoders{binds: r.surface.binds, supported: true}
	r.manager = NewManager(r.surface, r.decoders, cfg,
		func(gen uint64, ev Event) { r.queue = append(r.queue, taggedEvent{gen, ev}) },
		func(perr PlaybackError) { r.reported = append(r.reported, perr) },
	)
	return r
}

// pump handles every queued event and returns how many were admitted.
func (r *managerRig) pump() int {
	admitted := 0
	for len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		if r.manager.Handle(next.gen, next.ev) {
			admitted++
		}
	}
	return admitted
}

func TestManagerLifecycle(t *testing.T) {
	Convey("Given a managed-only runtime", t, func() {
		r := newManagerRig(false, ManagerConfig{Autoplay: true, NetworkRetries: 1})
		So(r.manager.State(), ShouldEqual, StateIdle)

		Convey("Assign attaches a decoder and waits for the manifest", func() {
			So(r.manager.Assign("a.m3u8"), ShouldBeNil)
			dec := r.decoders.last()
			So(r.manager.State(), ShouldEqual, StateAttaching)
			So(r.manager.Strategy(), ShouldEqual, ManagedAdaptive)
			So(dec.loads, ShouldResemble, []string{"a.m3u8"})
			So(r.manager.Active(), ShouldBeFalse)

			Convey("manifestParsed activates the session and autoplays", func() {
				dec.emit(Event{Kind: EventManifestParsed, Levels: 2})
				r.pump()
				So(r.manager.State(), ShouldEqual, StateActive)
				So(r.manager.Active(), ShouldBeTrue)
				So(r.surface.paused, ShouldBeFalse)
			})

			Convey("A surface ready event does not activate a managed session", func() {
				r.surface.emit(Event{Kind: EventReady})
				r.pump()
				So(r.manager.State(), ShouldEqual, StateAttaching)
			})
		})

		Convey("Reassigning tears the old session down before attaching the new one", func() {
			So(r.manager.Assign("a.m3u8"), ShouldBeNil)
			first := r.decoders.last()
			So(r.manager.Assign("b.m3u8"), ShouldBeNil)
			second := r.decoders.last()

			So(first.isDestroyed(), ShouldBeTrue)
			So(first.subscribers(), ShouldEqual, 0)
			So(second.isDestroyed(), ShouldBeFalse)
			So(r.manager.Ref(), ShouldEqual, "b.m3u8")

			live, peak := r.surface.binds.counts()
			So(live, ShouldEqual, 1)
			So(peak, ShouldEqual, 1)
		})

		Convey("Close releases everything", func() {
			So(r.manager.Assign("a.m3u8"), ShouldBeNil)
			dec := r.decoders.last()
			r.manager.Close()

			So(r.manager.State(), ShouldEqual, StateTornDown)
			So(r.manager.Bound(), ShouldBeFalse)
			So(dec.isDestroyed(), ShouldBeTrue)
			So(dec.subscribers(), ShouldEqual, 0)
			So(r.surface.subscribers(), ShouldEqual, 0)
		})
	})

	Convey("Given a native runtime", t, func() {
		r := newManagerRig(true, ManagerConfig{Autoplay: false})

		Convey("The reference becomes the surface's source and ready activates it", func() {
			So(r.manager.Assign("a.m3u8"), ShouldBeNil)
			So(r.manager.Strategy(), ShouldEqual, NativeDirect)
			So(r.surface.currentSource(), ShouldEqual, "a.m3u8")

			r.surface.emit(Event{Kind: EventReady})
			r.pump()
			So(r.manager.State(), ShouldEqual, StateActive)

			Convey("without autoplay the surface stays paused", func() {
				So(r.surface.paused, ShouldBeTrue)
			})

			Convey("teardown detaches the source", func() {
				r.manager.Close()
				So(r.surface.currentSource(), ShouldEqual, "")
			})
		})

		Convey("A source the surface refuses fails the session after releasing it", func() {
			r.surface.sourceErr = fmt.Errorf("%w: no such file", ErrDecode)
			err := r.manager.Assign("a.m3u8")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrDecode), ShouldBeTrue)
			So(r.manager.State(), ShouldEqual, StateTornDown)
			So(r.surface.subscribers(), ShouldEqual, 0)
			So(r.reported, ShouldHaveLength, 1)
		})

		Convey("A reference the surface cannot take is unsupported media", func() {
			r.surface.sourceErr = fmt.Errorf("%w: invalid media target", ErrUnsupportedMedia)
			err := r.manager.Assign("-a.m3u8")
			So(errors.Is(err, ErrUnsupportedMedia), ShouldBeTrue)
			So(r.reported, ShouldHaveLength, 1)
			So(r.reported[0].Kind, ShouldEqual, KindUnsupportedMedia)
		})
	})

	Convey("Given a native runtime with one network retry", t, func() {
		r := newManagerRig(true, ManagerConfig{NetworkRetries: 1})

		Convey("A transport failure while attaching is retried", func() {
			r.surface.sourceDrops = 1
			So(r.manager.Assign("a.m3u8"), ShouldBeNil)
			So(r.reported, ShouldBeEmpty)
			So(r.manager.State(), ShouldEqual, StateAttaching)
			So(r.surface.currentSource(), ShouldEqual, "a.m3u8")

			r.surface.emit(Event{Kind: EventReady})
			r.pump()
			So(r.manager.State(), ShouldEqual, StateActive)
		})

		Convey("A transport failure that outlasts the retry is a fatal network error", func() {
			r.surface.sourceDrops = 2
			err := r.manager.Assign("a.m3u8")
			So(errors.Is(err, ErrNetwork), ShouldBeTrue)
			So(errors.Is(err, errTransport), ShouldBeTrue)
			So(r.reported, ShouldHaveLength, 1)
			So(r.reported[0].Kind, ShouldEqual, KindNetwork)
			So(r.manager.State(), ShouldEqual, StateTornDown)
			So(r.surface.subscribers(), ShouldEqual, 0)
		})
	})

	Convey("Given no decoding capability at all", t, func() {
		r := newManagerRig(false, ManagerConfig{})
		r.decoders.supported = false

		Convey("Assign reports an unsupported media error and binds nothing", func() {
			err := r.manager.Assign("a.m3u8")
			So(errors.Is(err, ErrUnsupportedMedia), ShouldBeTrue)
			So(r.reported, ShouldHaveLength, 1)
			So(r.reported[0].Fatal, ShouldBeTrue)
			So(r.reported[0].Kind, ShouldEqual, KindUnsupportedMedia)
			So(r.manager.Bound(), ShouldBeFalse)
			So(r.decoders.last(), ShouldBeNil)
		})
	})
}

func TestManagerStaleEvents(t *testing.T) {
	Convey("Given a reference that changes before the first one finished attaching", t, func() {
		r := newManagerRig(false, ManagerConfig{Autoplay: true, NetworkRetries: 1})
		So(r.manager.Assign("a.m3u8"), ShouldBeNil)
		first := r.decoders.last()
		So(r.manager.Assign("b.m3u8"), ShouldBeNil)
		second := r.decoders.last()

		Convey("A late manifestParsed for a.m3u8 is discarded", func() {
			first.replayStale(Event{Kind: EventManifestParsed})
			So(r.pump(), ShouldEqual, 0)
			So(r.manager.State(), ShouldEqual, StateAttaching)
			So(r.manager.Ref(), ShouldEqual, "b.m3u8")
		})

		Convey("A late error for a.m3u8 is discarded", func() {
			first.replayStale(Failure(ErrorMedia, true, errors.New("bad segment")))
			So(r.pump(), ShouldEqual, 0)
			So(r.reported, ShouldBeEmpty)
			So(r.manager.Bound(), ShouldBeTrue)
		})

		Convey("Events for b.m3u8 are admitted", func() {
			second.emit(Event{Kind: EventManifestParsed})
			So(r.pump(), ShouldEqual, 1)
			So(r.manager.State(), ShouldEqual, StateActive)
		})
	})
}

func TestManagerErrors(t *testing.T) {
	Convey("Given an attaching managed session with one network retry", t, func() {
		r := newManagerRig(false, ManagerConfig{NetworkRetries: 1})
		So(r.manager.Assign("a.m3u8"), ShouldBeNil)
		dec := r.decoders.last()

		Convey("A non-fatal network error reloads the source once", func() {
			dec.emit(Failure(ErrorNetwork, false, errors.New("timeout")))
			r.pump()
			So(dec.loadCount(), ShouldEqual, 2)
			So(r.manager.State(), ShouldEqual, StateAttaching)
			So(r.reported, ShouldBeEmpty)

			Convey("and a second one escalates to a fatal network error", func() {
				dec.emit(Failure(ErrorNetwork, false, errors.New("timeout")))
				r.pump()
				So(dec.loadCount(), ShouldEqual, 2)
				So(r.reported, ShouldHaveLength, 1)
				So(r.reported[0].Fatal, ShouldBeTrue)
				So(errors.Is(r.reported[0], ErrNetwork), ShouldBeTrue)
				So(r.manager.State(), ShouldEqual, StateTornDown)
				So(dec.isDestroyed(), ShouldBeTrue)
			})

			Convey("and the session can still become active", func() {
				dec.emit(Event{Kind: EventManifestParsed})
				r.pump()
				So(r.manager.State(), ShouldEqual, StateActive)
			})
		})

		Convey("A media error is terminal", func() {
			dec.emit(Failure(ErrorMedia, false, errors.New("bufferAppendError")))
			r.pump()
			So(r.reported, ShouldHaveLength, 1)
			So(errors.Is(r.reported[0], ErrDecode), ShouldBeTrue)
			So(dec.isDestroyed(), ShouldBeTrue)
			So(dec.subscribers(), ShouldEqual, 0)
			So(r.surface.subscribers(), ShouldEqual, 0)
		})

		Convey("A non-fatal error of another type is ignored", func() {
			dec.emit(Failure(ErrorOther, false, errors.New("level switch")))
			r.pump()
			So(r.reported, ShouldBeEmpty)
			So(r.manager.State(), ShouldEqual, StateAttaching)
		})

		Convey("The fatal error is reported after teardown", func() {
			var destroyedWhenReported bool
			r.manager.report = func(PlaybackError) { destroyedWhenReported = dec.isDestroyed() }
			dec.emit(Failure(ErrorOther, true, errors.New("internal")))
			r.pump()
			So(destroyedWhenReported, ShouldBeTrue)
		})
	})

	Convey("Given a session whose autoplay is refused by the host", t, func() {
		r := newManagerRig(true, ManagerConfig{Autoplay: true})
		r.surface.playErr = errors.New("autoplay blocked")
		So(r.manager.Assign("a.m3u8"), ShouldBeNil)
		r.surface.emit(Event{Kind: EventReady})
		r.pump()

		Convey("The session stays active and paused with a non-fatal report", func() {
			So(r.manager.State(), ShouldEqual, StateActive)
			So(r.surface.paused, ShouldBeTrue)
			So(r.reported, ShouldHaveLength, 1)
			So(r.reported[0].Fatal, ShouldBeFalse)
			So(errors.Is(r.reported[0], ErrHostRestriction), ShouldBeTrue)
		})
	})
}

func TestManagerExclusiveBinding(t *testing.T) {
	Convey("For any sequence of reassignments", t, func() {
		refs := []string{"a.m3u8", "b.m3u8", "", "c.m3u8", "c.m3u8", "d.m3u8", ""}

		for _, native := range []bool{true, false} {
			r := newManagerRig(native, ManagerConfig{Autoplay: true})
			for i, ref := range refs {
				_ = r.manager.Assign(ref)
				if i%2 == 0 {
					r.surface.emit(Event{Kind: EventReady})
					if dec := r.decoders.last(); dec != nil {
						dec.emit(Event{Kind: EventManifestParsed})
					}
					r.pump()
				}
			}

			_, peak := r.surface.binds.counts()
			So(peak, ShouldBeLessThanOrEqualTo, 1)
		}
	})
}
