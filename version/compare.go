// Package version compares dotted release versions.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type release [3]int

// parse reads major.minor.patch. A leading "v" and any "-" or "+" suffix are dropped.
func parse(s string) (release, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return release{}, fmt.Errorf("version %q: want major.minor.patch", s)
	}

	var r release
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return release{}, fmt.Errorf("version %q: bad component %q", s, p)
		}
		r[i] = n
	}
	return r, nil
}

// Compare orders two versions: 1 if a > b, -1 if a < b, 0 if equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for _, pair := range lo.Zip2(av[:], bv[:]) {
		switch {
		case pair.A > pair.B:
			return 1, nil
		case pair.A < pair.B:
			return -1, nil
		}
	}
	return 0, nil
}
