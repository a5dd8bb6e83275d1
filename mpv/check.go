package mpv

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Installation describes the mpv binary found on this machine.
type Installation struct {
	Path    string
	Version string
}

// Locate finds binary on PATH and reads its version line.
func Locate(ctx context.Context, binary string) (Installation, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return Installation{}, fmt.Errorf("%s not found: %w", binary, err)
	}

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return Installation{Path: path}, fmt.Errorf("%s --version: %w", path, err)
	}

	first, _, _ := strings.Cut(string(out), "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return Installation{Path: path}, errors.New("empty version output")
	}

	return Installation{Path: path, Version: first}, nil
}
