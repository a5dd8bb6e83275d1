package hls

import (
	"context"
	"net/http"
)

// Report describes a stream reference without playing it.
type Report struct {
	Manifest Manifest `json:"manifest"`

	// Selected and Rendition are only set for master playlists.
	Selected  *Variant  `json:"selected,omitempty"`
	Rendition *Manifest `json:"rendition,omitempty"`
}

// Inspect fetches ref and, for a master playlist, the rendition the loader would play.
func Inspect(ctx context.Context, client *http.Client, ref string, maxBandwidth int) (Report, error) {
	manifest, err := Fetch(ctx, client, ref)
	if err != nil {
		return Report{}, err
	}

	report := Report{Manifest: manifest}
	if !manifest.Master {
		return report, nil
	}

	variant, _ := SelectVariant(manifest.Variants, maxBandwidth)
	report.Selected = &variant

	rendition, err := Fetch(ctx, client, variant.URI)
	if err != nil {
		return report, err
	}
	report.Rendition = &rendition
	return report, nil
}
