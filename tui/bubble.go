package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"
	"github.com/streamctl/streamctl/internal/ui"
	"github.com/streamctl/streamctl/player"
	"github.com/streamctl/streamctl/style"
	"github.com/streamctl/streamctl/util"
)

const (
	defaultSeekStep = 5.0
	volumeStep      = 0.05
	rateStep        = 0.25
	minRate         = 0.25
	maxRate         = 4.0
)

// statefulBubble is the player view model.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	controller Controller
	ref        string
	seekStep   float64
	gone       <-chan struct{}

	// resume is consumed by the first snapshot that knows the duration.
	resume mo.Option[float64]

	snapshot    player.Snapshot
	status      player.Status
	scrubTarget float64
	lastError   error

	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	width, height int
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.setState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// resize propagates terminal dimension changes to child components.
func (b *statefulBubble) resize(width, height int) {
	x, _ := paddingStyle.GetFrameSize()

	b.width = width - x
	b.height = height
	b.helpC.Width = b.width
	b.progressC.Width = util.Clamp(b.width-20, 10, 80)
}

func newBubble(controller Controller, opts Options) *statefulBubble {
	seekStep := opts.SeekStep
	if seekStep <= 0 {
		seekStep = defaultSeekStep
	}

	bubble := &statefulBubble{
		keymap:     newStatefulKeymap(),
		controller: controller,
		ref:        opts.Ref,
		seekStep:   seekStep,
		gone:       opts.Gone,
		resume:     opts.Resume,
		snapshot:   controller.Snapshot(),
		notifier:   &ui.Model{},
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(style.AccentColor)

	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	bubble.setState(loadingState)

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	} else {
		bubble.resize(80, 24)
	}

	return bubble
}
