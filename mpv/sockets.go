package mpv

import (
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/streamctl/streamctl/constant"
	"github.com/streamctl/streamctl/log"
)

// StaleSocketAge is how old an unreachable socket must be before PruneSockets removes it.
const StaleSocketAge = 24 * time.Hour

// PruneSockets removes sockets left in dir by mpv instances that died without cleaning up.
// A socket that still accepts connections is kept regardless of its age.
func PruneSockets(dir string, maxAge time.Duration) {
	matches, err := filepath.Glob(filepath.Join(dir, constant.App+"-*.sock"))
	if err != nil {
		return
	}

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || time.Since(info.ModTime()) < maxAge {
			continue
		}

		if conn, err := net.DialTimeout("unix", path, 200*time.Millisecond); err == nil {
			_ = conn.Close()
			continue
		}

		if err := os.Remove(path); err == nil {
			log.Debugf("removed stale socket %s", path)
		}
	}
}
