package history

import (
	"fmt"
	"time"

	"github.com/streamctl/streamctl/util"
)

// Entry is the resume point of one stream reference.
type Entry struct {
	Ref       string    `json:"ref"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Progress is the watched fraction in [0, 1], zero when the duration is unknown.
func (e *Entry) Progress() float64 {
	if e.Duration <= 0 {
		return 0
	}
	return util.Clamp(e.Position/e.Duration, 0, 1)
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s @ %s / %s", e.Ref, util.FormatClock(e.Position), util.FormatClock(e.Duration))
}
