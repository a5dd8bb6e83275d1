// Package hls loads HLS manifests in Go and feeds the chosen rendition to a playback surface.
package hls

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"

	"github.com/grafov/m3u8"
	"github.com/samber/lo"
	"github.com/streamctl/streamctl/network"
)

// maxManifestSize bounds how much of a response is read as a playlist.
const maxManifestSize = 8 << 20

// ErrNotManifest is returned for bodies that are not M3U playlists.
var ErrNotManifest = errors.New("not an HLS manifest")

// ParseError wraps every failure to understand a fetched body.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Variant is one rendition advertised by a master playlist.
type Variant struct {
	URI        string `json:"uri"`
	Bandwidth  int    `json:"bandwidth"`
	Resolution string `json:"resolution,omitempty"`
	Codecs     string `json:"codecs,omitempty"`
}

// Manifest is the part of a playlist the loader cares about.
type Manifest struct {
	URL    string `json:"url"`
	Master bool   `json:"master"`

	// Variants is sorted by ascending bandwidth. Empty for media playlists.
	Variants []Variant `json:"variants,omitempty"`

	// Media playlist fields.
	Segments       int     `json:"segments,omitempty"`
	TargetDuration float64 `json:"target_duration,omitempty"`
	Duration       float64 `json:"duration,omitempty"`
	Live           bool    `json:"live,omitempty"`
}

// Fetch downloads and parses the playlist at rawURL.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (Manifest, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return Manifest{}, &ParseError{URL: rawURL, Err: err}
	}

	resp, err := network.Get(ctx, client, rawURL)
	if err != nil {
		return Manifest{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize))
	if err != nil {
		return Manifest{}, fmt.Errorf("read %s: %w", rawURL, err)
	}

	return Parse(body, base)
}

// Parse decodes body, resolving variant URIs against base.
func Parse(body []byte, base *url.URL) (Manifest, error) {
	m := Manifest{URL: base.String()}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")), " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("#EXTM3U")) {
		return m, &ParseError{URL: m.URL, Err: ErrNotManifest}
	}

	playlist, listType, err := m3u8.DecodeFrom(bytes.NewReader(trimmed), false)
	if err != nil {
		return m, &ParseError{URL: m.URL, Err: err}
	}

	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		m.Master = true
		for _, v := range master.Variants {
			if v == nil || v.URI == "" {
				continue
			}
			ref, err := base.Parse(v.URI)
			if err != nil {
				return m, &ParseError{URL: m.URL, Err: fmt.Errorf("variant %q: %w", v.URI, err)}
			}
			m.Variants = append(m.Variants, Variant{
				URI:        ref.String(),
				Bandwidth:  int(v.Bandwidth),
				Resolution: v.Resolution,
				Codecs:     v.Codecs,
			})
		}
		if len(m.Variants) == 0 {
			return m, &ParseError{URL: m.URL, Err: errors.New("master playlist has no variants")}
		}
		slices.SortStableFunc(m.Variants, func(a, b Variant) int {
			return a.Bandwidth - b.Bandwidth
		})

	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		m.TargetDuration = media.TargetDuration
		m.Live = !media.Closed
		for _, seg := range media.Segments {
			if seg == nil {
				continue
			}
			m.Segments++
			m.Duration += seg.Duration
		}

	default:
		return m, &ParseError{URL: m.URL, Err: errors.New("unknown playlist type")}
	}

	return m, nil
}

// SelectVariant picks the highest bandwidth at or below maxBandwidth, or the lowest
// one when every variant exceeds it. A zero maxBandwidth means no cap.
func SelectVariant(variants []Variant, maxBandwidth int) (Variant, bool) {
	if len(variants) == 0 {
		return Variant{}, false
	}

	within := lo.Filter(variants, func(v Variant, _ int) bool {
		return maxBandwidth <= 0 || v.Bandwidth <= maxBandwidth
	})
	if len(within) > 0 {
		return lo.MaxBy(within, func(a, b Variant) bool { return a.Bandwidth > b.Bandwidth }), true
	}
	return lo.MinBy(variants, func(a, b Variant) bool { return a.Bandwidth < b.Bandwidth }), true
}
