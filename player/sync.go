package player

import (
	"math"

	"github.com/samber/mo"
)

// DefaultProgressEpsilon is the smallest time change that produces a new snapshot from a progress event.
const DefaultProgressEpsilon = 0.1

// seekTolerance is how close a progress event must come to a seek target to count as landing on it.
const seekTolerance = 1e-3

// FoldContext carries the synchronizer state that shapes how an event is folded.
type FoldContext struct {
	// Container is the fullscreen target that identifies this surface.
	Container string

	// Scrubbing suspends currentTime updates from progress events while a seek control is dragged.
	Scrubbing bool
}

// Fold applies one device event to the previous snapshot and returns the next one.
// Lifecycle events (ready, manifest parsed, error) leave the snapshot untouched.
func Fold(prev Snapshot, ev Event, ctx FoldContext) Snapshot {
	next := prev

	switch ev.Kind {
	case EventTimeUpdate:
		if d, ok := ev.Duration.Get(); ok && validDuration(d) {
			next.Duration = mo.Some(d)
		}
		if !ctx.Scrubbing {
			next.CurrentTime = nonNegative(ev.CurrentTime)
		}
		next.Playing = !ev.Paused && !ev.Ended

	case EventLoadedMetadata:
		if d, ok := ev.Duration.Get(); ok && validDuration(d) {
			next.Duration = mo.Some(d)
		}

	case EventPlaybackState:
		next.Playing = !ev.Paused && !ev.Ended

	case EventVolumeChange:
		if !math.IsNaN(ev.Volume) {
			next.Volume = math.Min(1, math.Max(0, ev.Volume))
		}
		next.Muted = ev.Muted || next.Volume == 0
		if next.Volume > 0 {
			next.LastVolume = next.Volume
		}

	case EventRateChange:
		if ev.Rate > 0 && !math.IsInf(ev.Rate, 0) {
			next.PlaybackRate = ev.Rate
		}

	case EventEnded:
		next.Playing = false
		if d, ok := next.Duration.Get(); ok {
			next.CurrentTime = d
		}

	case EventFullscreenChange:
		next.Fullscreen = ev.Target != "" && ev.Target == ctx.Container
	}

	if d, ok := next.Duration.Get(); ok && next.CurrentTime > d {
		next.CurrentTime = d
	}

	return next
}

func validDuration(d float64) bool {
	return d >= 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// Synchronizer is the single writer of the current snapshot.
// It is not safe for concurrent use; the Controller calls it from its event loop.
type Synchronizer struct {
	current Snapshot
	ctx     FoldContext
	epsilon float64

	// seekTarget, while set, lets progress events through the epsilon debounce until one lands on it.
	seekTarget mo.Option[float64]
}

// NewSynchronizer starts from initial. Progress events that move the time by less than epsilon,
// and change nothing else, do not produce a new snapshot.
func NewSynchronizer(initial Snapshot, container string, epsilon float64) *Synchronizer {
	if epsilon < 0 {
		epsilon = 0
	}
	return &Synchronizer{
		current:    initial,
		ctx:        FoldContext{Container: container},
		epsilon:    epsilon,
		seekTarget: mo.None[float64](),
	}
}

// Snapshot returns the current state.
func (s *Synchronizer) Snapshot() Snapshot {
	return s.current
}

// Apply folds ev into the current snapshot and reports whether observers need the result.
func (s *Synchronizer) Apply(ev Event) (Snapshot, bool) {
	next := Fold(s.current, ev, s.ctx)

	if ev.Kind == EventTimeUpdate {
		seeking := s.seekTarget.IsPresent() && !s.ctx.Scrubbing
		negligible := s.negligible(next)
		if seeking && s.landed(next.CurrentTime, negligible) {
			s.seekTarget = mo.None[float64]()
		}
		if negligible && !seeking {
			return s.current, false
		}
	}

	if next == s.current {
		return s.current, false
	}

	s.current = next
	return next, true
}

// negligible reports whether next differs from the current snapshot only by a sub-epsilon time step.
func (s *Synchronizer) negligible(next Snapshot) bool {
	same := next
	same.CurrentTime = s.current.CurrentTime
	return same == s.current && math.Abs(next.CurrentTime-s.current.CurrentTime) < s.epsilon
}

// Seeked records a seek the device accepted. Progress towards target is published
// however small the step, so a short seek still reaches the snapshot.
func (s *Synchronizer) Seeked(target float64) {
	s.seekTarget = mo.Some(target)
}

// landed reports whether a progress event at t ends the pending seek: it reached the target,
// or the device settled somewhere else and time moved by more than epsilon.
func (s *Synchronizer) landed(t float64, negligible bool) bool {
	target, _ := s.seekTarget.Get()
	return math.Abs(t-target) < seekTolerance || !negligible
}

// BeginScrub suspends currentTime updates from progress events.
func (s *Synchronizer) BeginScrub() {
	s.ctx.Scrubbing = true
}

// EndScrub resumes currentTime updates.
func (s *Synchronizer) EndScrub() {
	s.ctx.Scrubbing = false
}

// Scrubbing reports whether a seek drag is in progress.
func (s *Synchronizer) Scrubbing() bool {
	return s.ctx.Scrubbing
}

// Rewind drops the per-stream state ahead of a new session and returns the result.
func (s *Synchronizer) Rewind() Snapshot {
	s.current = s.current.rewound()
	s.ctx.Scrubbing = false
	s.seekTarget = mo.None[float64]()
	return s.current
}
