package player

import "sync"

// loop runs reactions one at a time, in posting order, on a dedicated goroutine.
// Collaborator callbacks only post, so a device that emits events synchronously
// from inside a command never re-enters the controller.
type loop struct {
	// idle runs on the loop goroutine whenever the queue drains.
	idle func()

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newLoop(idle func()) *loop {
	l := &loop{
		idle: idle,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// post schedules fn and reports whether the loop accepted it.
func (l *loop) post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// call schedules fn and waits for it. It must not be used from inside a reaction.
func (l *loop) call(fn func()) bool {
	ran := make(chan struct{})
	if !l.post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}

	select {
	case <-ran:
		return true
	case <-l.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

func (l *loop) run() {
	defer close(l.done)

	for {
		select {
		case <-l.quit:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()

			if len(batch) == 0 {
				if l.idle != nil {
					l.idle()
				}
				break
			}
			for _, fn := range batch {
				fn()
			}
		}
	}
}

// stop rejects further posts and waits for the goroutine to exit.
func (l *loop) stop() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.quit)
	}
	l.mu.Unlock()
	<-l.done
}
