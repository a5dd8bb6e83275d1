package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fakeMPV speaks enough of mpv's JSON-IPC protocol for the client, the event listener and the surface.
type fakeMPV struct {
	dir  string
	path string
	ln   net.Listener

	mu        sync.Mutex
	writeMu   sync.Mutex
	props     map[string]interface{}
	commands  [][]interface{}
	conns     []net.Conn
	observers []net.Conn
	observed  int
	entries   int64

	wg sync.WaitGroup
}

func startFakeMPV() (*fakeMPV, error) {
	// unix socket paths are short, t.TempDir can exceed the limit
	dir, err := os.MkdirTemp("", "mpv")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "ipc.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	f := &fakeMPV{
		dir:  dir,
		path: path,
		ln:   ln,
		props: map[string]interface{}{
			"pause":  true,
			"volume": 100.0,
			"mute":   false,
			"speed":  1.0,
		},
	}

	f.wg.Add(1)
	go f.accept()
	return f, nil
}

func (f *fakeMPV) accept() {
	defer f.wg.Done()
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()

		f.wg.Add(1)
		go f.serve(conn)
	}
}

func (f *fakeMPV) serve(conn net.Conn) {
	defer f.wg.Done()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req struct {
			Command   []interface{} `json:"command"`
			RequestID int64         `json:"request_id"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil || len(req.Command) == 0 {
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, req.Command)
		f.mu.Unlock()

		f.execute(conn, req.RequestID, req.Command)
	}
}

func (f *fakeMPV) execute(conn net.Conn, id int64, cmd []interface{}) {
	name, _ := cmd[0].(string)

	switch name {
	case "get_property":
		prop, _ := cmd[1].(string)
		f.mu.Lock()
		val, ok := f.props[prop]
		f.mu.Unlock()

		// mpv may interleave events with replies
		f.send(conn, map[string]interface{}{"event": "idle"})
		if !ok {
			f.reply(conn, id, "property unavailable", nil)
			return
		}
		f.reply(conn, id, "success", val)

	case "set_property":
		prop, _ := cmd[1].(string)
		f.mu.Lock()
		f.props[prop] = cmd[2]
		f.mu.Unlock()
		f.reply(conn, id, "success", nil)
		f.push(map[string]interface{}{"event": "property-change", "name": prop, "data": cmd[2]})

	case "observe_property":
		prop, _ := cmd[2].(string)
		f.mu.Lock()
		if f.observed == 0 {
			f.observers = append(f.observers, conn)
		}
		f.observed++
		val, ok := f.props[prop]
		f.mu.Unlock()
		f.reply(conn, id, "success", nil)
		if ok {
			f.send(conn, map[string]interface{}{"event": "property-change", "name": prop, "data": val})
		}

	case "loadfile":
		f.mu.Lock()
		f.entries++
		entry := f.entries
		f.mu.Unlock()

		f.reply(conn, id, "success", map[string]interface{}{"playlist_entry_id": entry})
		f.push(map[string]interface{}{"event": "start-file", "playlist_entry_id": entry})
		target, _ := cmd[1].(string)
		if strings.Contains(target, "broken") {
			f.push(map[string]interface{}{"event": "end-file", "reason": "error", "file_error": "unrecognized file format", "playlist_entry_id": entry})
			return
		}
		f.push(map[string]interface{}{"event": "file-loaded", "playlist_entry_id": entry})

	case "quit":
		f.reply(conn, id, "success", nil)

	default:
		f.reply(conn, id, "success", nil)
	}
}

func (f *fakeMPV) reply(conn net.Conn, id int64, status string, data interface{}) {
	f.send(conn, map[string]interface{}{"request_id": id, "error": status, "data": data})
}

func (f *fakeMPV) send(conn net.Conn, msg map[string]interface{}) {
	payload, _ := json.Marshal(msg)
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, _ = conn.Write(append(payload, '\n'))
}

// push writes an asynchronous event to every observing connection.
func (f *fakeMPV) push(msg map[string]interface{}) {
	f.mu.Lock()
	observers := append([]net.Conn{}, f.observers...)
	f.mu.Unlock()
	for _, conn := range observers {
		f.send(conn, msg)
	}
}

// waitObserving blocks until n properties are observed.
func (f *fakeMPV) waitObserving(n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		done := f.observed >= n
		f.mu.Unlock()
		if done {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

// sent returns every command received with the given name.
func (f *fakeMPV) sent(name string) [][]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]interface{}
	for _, cmd := range f.commands {
		if cmd[0] == name {
			out = append(out, cmd)
		}
	}
	return out
}

func (f *fakeMPV) close() {
	f.ln.Close()
	f.mu.Lock()
	for _, conn := range f.conns {
		conn.Close()
	}
	f.mu.Unlock()
	f.wg.Wait()
	os.RemoveAll(f.dir)
}
