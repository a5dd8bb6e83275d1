package player

import "github.com/samber/mo"

// Snapshot is an immutable view of the observable player state.
// It is passed by value; holding one never races with the controller.
type Snapshot struct {
	Playing bool
	Volume  float64
	Muted   bool

	// LastVolume is the last non-zero volume, restored when unmuting.
	LastVolume float64

	CurrentTime float64
	// Duration is absent until the device reports it, and stays absent for live streams.
	Duration     mo.Option[float64]
	PlaybackRate float64
	Fullscreen   bool
}

// InitialSnapshot is the state before any session has reported anything.
func InitialSnapshot(volume float64) Snapshot {
	last := volume
	if last <= 0 {
		last = 1
	}
	return Snapshot{
		Volume:       volume,
		Muted:        volume == 0,
		LastVolume:   last,
		Duration:     mo.None[float64](),
		PlaybackRate: 1,
	}
}

// Progress is the played fraction in [0, 1], or 0 while the duration is unknown.
func (s Snapshot) Progress() float64 {
	d, ok := s.Duration.Get()
	if !ok || d <= 0 {
		return 0
	}
	return s.CurrentTime / d
}

// rewound keeps the audio and display settings but forgets everything tied to the previous stream.
func (s Snapshot) rewound() Snapshot {
	s.Playing = false
	s.CurrentTime = 0
	s.Duration = mo.None[float64]()
	return s
}
