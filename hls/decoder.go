package hls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/streamctl/streamctl/log"
	"github.com/streamctl/streamctl/network"
	"github.com/streamctl/streamctl/player"
)

var (
	_ player.Decoder        = (*Decoder)(nil)
	_ player.DecoderFactory = (*Factory)(nil)
)

// ErrNotAttached is returned by LoadSource before AttachMedia.
var ErrNotAttached = fmt.Errorf("%w: decoder is not attached to a surface", player.ErrDecode)

// ErrDestroyed is returned by every call after Destroy.
var ErrDestroyed = fmt.Errorf("%w: decoder destroyed", player.ErrDecode)

// Factory creates Go-side manifest loaders.
type Factory struct {
	Client *http.Client

	// MaxBandwidth caps the rendition picked from a master playlist, zero means no cap.
	MaxBandwidth int
}

// Supported is always true: the loader only needs the network.
func (f *Factory) Supported() bool {
	return true
}

func (f *Factory) NewDecoder() player.Decoder {
	client := f.Client
	if client == nil {
		client = network.Client
	}
	return NewDecoder(client, f.MaxBandwidth)
}

// Decoder resolves a manifest to one rendition and hands that rendition to the surface.
// Loads run in the background and report through the decoder's listeners.
type Decoder struct {
	client       *http.Client
	maxBandwidth int

	listeners player.Listeners

	mu        sync.Mutex
	surface   player.Surface
	cancel    context.CancelFunc
	destroyed bool
	wg        sync.WaitGroup
}

// NewDecoder returns a detached decoder.
func NewDecoder(client *http.Client, maxBandwidth int) *Decoder {
	return &Decoder{client: client, maxBandwidth: maxBandwidth}
}

func (d *Decoder) Subscribe(fn func(player.Event)) func() {
	return d.listeners.Subscribe(fn)
}

func (d *Decoder) AttachMedia(surface player.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrDestroyed
	}
	d.surface = surface
	return nil
}

// LoadSource starts loading ref, abandoning any load still in flight.
func (d *Decoder) LoadSource(ref string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.destroyed {
		return ErrDestroyed
	}
	if d.surface == nil {
		return ErrNotAttached
	}
	if d.cancel != nil {
		d.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	surface := d.surface

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.load(ctx, surface, ref)
	}()
	return nil
}

func (d *Decoder) load(ctx context.Context, surface player.Surface, ref string) {
	manifest, err := Fetch(ctx, d.client, ref)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Warnf("hls: load %s: %v", ref, err)
		d.listeners.Emit(classify(err))
		return
	}

	rendition := ref
	if manifest.Master {
		variant, _ := SelectVariant(manifest.Variants, d.maxBandwidth)
		rendition = variant.URI
		log.Infof("hls: %s has %d renditions, playing %d bps %s", ref, len(manifest.Variants), variant.Bandwidth, variant.Resolution)
	}

	// Destroy may have started while the manifest was in flight.
	d.mu.Lock()
	if ctx.Err() != nil {
		d.mu.Unlock()
		return
	}
	err = surface.SetSource(rendition)
	d.mu.Unlock()

	if err != nil {
		d.listeners.Emit(player.Failure(player.ErrorMedia, true, err))
		return
	}

	levels := len(manifest.Variants)
	if levels == 0 {
		levels = 1
	}
	d.listeners.Emit(player.Event{Kind: player.EventManifestParsed, Levels: levels})
}

// classify maps a load failure onto the decoder error taxonomy.
func classify(err error) player.Event {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return player.Failure(player.ErrorMedia, true, err)
	}

	var statusErr *network.StatusError
	if errors.As(err, &statusErr) {
		return player.Failure(player.ErrorNetwork, statusErr.Permanent(), err)
	}

	return player.Failure(player.ErrorNetwork, false, err)
}

// Destroy cancels any load, waits for it and detaches the rendition from the surface.
func (d *Decoder) Destroy() error {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil
	}
	d.destroyed = true
	if d.cancel != nil {
		d.cancel()
	}
	surface := d.surface
	d.surface = nil
	d.mu.Unlock()

	d.wg.Wait()

	if surface == nil {
		return nil
	}
	return surface.SetSource("")
}
