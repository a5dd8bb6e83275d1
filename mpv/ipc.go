package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPropertyUnavailable is returned for properties mpv has no value for, such as time-pos with nothing loaded.
var ErrPropertyUnavailable = errors.New("property unavailable")

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command   []interface{} `json:"command"`
	RequestID int64         `json:"request_id"`
}

// ipcResponse is a reply or an asynchronous event read from the socket.
type ipcResponse struct {
	RequestID *int64      `json:"request_id"`
	Data      interface{} `json:"data"`
	Error     string      `json:"error"`
	Event     string      `json:"event"`
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	dialTimeout  = time.Second
	readDeadline = 1 * time.Second
)

// Client sends JSON-IPC commands to an mpv instance, one connection per command.
type Client struct {
	socketPath string
	mu         sync.Mutex
	requestID  atomic.Int64
}

// NewClient returns a client for the IPC socket at socketPath. Nothing is dialed yet.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Socket returns the IPC socket path.
func (c *Client) Socket() string {
	return c.socketPath
}

// Command sends a command and returns its data. Transient connection errors are retried,
// mpv's own error replies are not.
func (c *Client) Command(args ...interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		result, err := c.doSendCommand(args)
		if err == nil {
			return result, nil
		}

		var replyErr *ReplyError
		if errors.As(err, &replyErr) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

// Set assigns a property.
func (c *Client) Set(property string, value interface{}) error {
	_, err := c.Command("set_property", property, value)
	return err
}

// Float reads a numeric property.
func (c *Client) Float(property string) (float64, error) {
	data, err := c.Command("get_property", property)
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", property, data)
	}
	return val, nil
}

// ReplyError is an error reported by mpv itself.
type ReplyError struct {
	Command string
	Reason  string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("mpv %s: %s", e.Command, e.Reason)
}

func (e *ReplyError) Is(target error) bool {
	return target == ErrPropertyUnavailable && e.Reason == "property unavailable"
}

// doSendCommand performs a single IPC command attempt. Events mpv pushes on the
// fresh connection before the reply are skipped.
func (c *Client) doSendCommand(args []interface{}) (interface{}, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	id := c.requestID.Add(1)
	payload, err := json.Marshal(ipcCommand{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// mpv requires newline-delimited JSON
	if _, err = conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}
		if resp.Event != "" || resp.RequestID == nil || *resp.RequestID != id {
			continue
		}

		if resp.Error != "" && resp.Error != "success" {
			return nil, &ReplyError{Command: fmt.Sprint(args[0]), Reason: resp.Error}
		}
		return resp.Data, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, errors.New("read: connection closed before reply")
}
