package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/streamctl/streamctl/log"
)

// Message is one asynchronous notification from mpv.
type Message struct {
	Event string `json:"event"`

	// property-change
	ID   int         `json:"id"`
	Name string      `json:"name"`
	Data interface{} `json:"data"`

	// start-file, file-loaded and end-file
	PlaylistEntryID int64 `json:"playlist_entry_id"`

	// end-file
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

// EventCallback receives every message read from the socket. It runs on the listener goroutine.
type EventCallback func(Message)

// EventListener holds a persistent connection on which properties are observed and events are read.
type EventListener struct {
	socketPath string
	properties []string
	callback   EventCallback

	mu        sync.Mutex
	conn      net.Conn
	done      chan struct{}
	listening bool
}

// NewEventListener creates a listener that observes properties on the socket at socketPath.
func NewEventListener(socketPath string, properties []string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		properties: properties,
		callback:   callback,
	}
}

// Start connects, registers the property observers on that same connection and starts the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.DialTimeout("unix", el.socketPath, dialTimeout)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	// observe_property <id> <name>: mpv replies with the current value, then every change
	enc := json.NewEncoder(conn)
	for i, name := range el.properties {
		cmd := ipcCommand{Command: []interface{}{"observe_property", i + 1, name}}
		if err := enc.Encode(cmd); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.done = make(chan struct{})
	el.listening = true

	go el.readLoop(conn, el.done)

	log.Infof("mpv event listener started on %s (observing %v)", el.socketPath, el.properties)
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (el *EventListener) Stop() {
	el.mu.Lock()
	if !el.listening {
		el.mu.Unlock()
		return
	}
	el.listening = false
	conn, done := el.conn, el.done
	el.mu.Unlock()

	_ = conn.Close()
	<-done
}

// Done is closed when the read loop exits, either through Stop or because mpv went away.
func (el *EventListener) Done() <-chan struct{} {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.done
}

func (el *EventListener) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		// command replies carry no event name
		if msg.Event == "" {
			continue
		}
		if el.callback != nil {
			el.callback(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Debugf("event listener read loop ended: %v", err)
	}
}
