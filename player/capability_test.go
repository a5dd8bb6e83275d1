package player

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given the capability matrix", t, func() {
		both := Capabilities{NativeManifest: true, ManagedDecoding: true}
		nativeOnly := Capabilities{NativeManifest: true}
		managedOnly := Capabilities{ManagedDecoding: true}
		none := Capabilities{}

		Convey("Auto prefers native playback", func() {
			So(Resolve(both, PreferAuto), ShouldEqual, NativeDirect)
			So(Resolve(nativeOnly, PreferAuto), ShouldEqual, NativeDirect)
		})

		Convey("Auto falls back to managed decoding", func() {
			So(Resolve(managedOnly, PreferAuto), ShouldEqual, ManagedAdaptive)
		})

		Convey("Nothing available is unsupported", func() {
			So(Resolve(none, PreferAuto), ShouldEqual, Unsupported)
		})

		Convey("A forced preference is honoured or unsupported", func() {
			So(Resolve(both, PreferManaged), ShouldEqual, ManagedAdaptive)
			So(Resolve(nativeOnly, PreferManaged), ShouldEqual, Unsupported)
			So(Resolve(managedOnly, PreferNative), ShouldEqual, Unsupported)
		})
	})
}

func TestProbe(t *testing.T) {
	Convey("Probe", t, func() {
		Convey("reads native support from the surface", func() {
			caps := Probe(newFakeSurface(true), nil)
			So(caps.NativeManifest, ShouldBeTrue)
			So(caps.ManagedDecoding, ShouldBeFalse)
		})

		Convey("reads managed support from the factory", func() {
			caps := Probe(newFakeSurface(false), &fakeDecoders{supported: true})
			So(caps.NativeManifest, ShouldBeFalse)
			So(caps.ManagedDecoding, ShouldBeTrue)
		})

		Convey("tolerates missing collaborators", func() {
			So(Probe(nil, nil), ShouldResemble, Capabilities{})
		})
	})
}

func TestParsePreference(t *testing.T) {
	Convey("ParsePreference", t, func() {
		for in, want := range map[string]Preference{"": PreferAuto, "auto": PreferAuto, "Native": PreferNative, " managed ": PreferManaged} {
			got, err := ParsePreference(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := ParsePreference("gpu")
		So(err, ShouldNotBeNil)
	})
}
