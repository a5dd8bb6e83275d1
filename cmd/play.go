package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamctl/streamctl/config"
	"github.com/streamctl/streamctl/constant"
	"github.com/streamctl/streamctl/history"
	"github.com/streamctl/streamctl/hls"
	"github.com/streamctl/streamctl/key"
	"github.com/streamctl/streamctl/log"
	"github.com/streamctl/streamctl/mpv"
	"github.com/streamctl/streamctl/network"
	"github.com/streamctl/streamctl/player"
	"github.com/streamctl/streamctl/tui"
	"github.com/streamctl/streamctl/where"
)

const launchTimeout = 10 * time.Second

// playFlags maps the flags shared by the root and play commands to their config keys.
var playFlags = map[string]string{
	"autoplay": key.PlayerAutoplay,
	"volume":   key.PlayerVolume,
}

func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("continue", "c", false, "Replay the most recently watched stream")
	cmd.Flags().Bool("autoplay", true, "Start playback as soon as the stream is ready")
	cmd.Flags().Int("volume", 100, "Initial volume (0-100)")
}

// bindPlayFlags binds the running command's flags, since root and play define the same ones.
func bindPlayFlags(cmd *cobra.Command) {
	for flag, k := range playFlags {
		lo.Must0(viper.BindPFlag(k, cmd.Flags().Lookup(flag)))
	}
}

func init() {
	rootCmd.AddCommand(playCmd)
	addPlayFlags(playCmd)
}

var playCmd = &cobra.Command{
	Use:     "play [reference]",
	Short:   "Play an HLS stream in mpv",
	Args:    cobra.MaximumNArgs(1),
	Example: "  " + constant.App + " play https://example.com/live/master.m3u8",
	Run:     runPlay,
}

func runPlay(cmd *cobra.Command, args []string) {
	bindPlayFlags(cmd)
	handleErr(config.Validate())

	ref, err := resolveRef(lo.Must(cmd.Flags().GetBool("continue")), args)
	handleErr(err)
	handleErr(validateRef(ref))

	handleErr(play(cmd.Context(), ref))
}

// resolveRef picks the reference from the arguments, the history, or a prompt, in that order.
func resolveRef(resume bool, args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	if resume {
		last, err := history.Last()
		if err != nil {
			return "", err
		}
		entry, ok := last.Get()
		if !ok {
			return "", errors.New("history is empty, nothing to continue")
		}
		return entry.Ref, nil
	}

	var ref string
	err := survey.AskOne(&survey.Input{
		Message: "Stream reference:",
		Help:    "URL or path of an " + constant.ManifestExt + " manifest",
	}, &ref, survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		return validateRef(strings.TrimSpace(s))
	}))
	return strings.TrimSpace(ref), err
}

// validateRef accepts http(s) and file URLs or local paths that name a manifest.
func validateRef(ref string) error {
	if ref == "" {
		return errors.New("empty stream reference")
	}

	name := ref
	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return fmt.Errorf("invalid stream reference: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
		default:
			return fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
		name = u.Path
	}

	if !strings.EqualFold(path.Ext(name), constant.ManifestExt) {
		return fmt.Errorf("%s is not an %s manifest", ref, constant.ManifestExt)
	}
	return nil
}

func playerOptions() (player.Options, error) {
	pref, err := player.ParsePreference(viper.GetString(key.PlayerStrategy))
	if err != nil {
		return player.Options{}, err
	}

	return player.Options{
		Decoders: &hls.Factory{
			Client:       network.New(viper.GetBool(key.HLSTLSFingerprint)),
			MaxBandwidth: viper.GetInt(key.HLSMaxBandwidth),
		},
		Autoplay:       viper.GetBool(key.PlayerAutoplay),
		NetworkRetries: viper.GetInt(key.PlayerNetworkRetries),
		Preference:     pref,
		Volume:         float64(viper.GetInt(key.PlayerVolume)) / 100,
	}, nil
}

// resumePoint returns the saved position for ref when resuming is enabled.
func resumePoint(ref string) mo.Option[float64] {
	if !viper.GetBool(key.PlayerResume) {
		return mo.None[float64]()
	}

	entry, err := history.Lookup(ref)
	if err != nil {
		log.Warnf("read history: %v", err)
		return mo.None[float64]()
	}

	if e, ok := entry.Get(); ok && e.Position > 0 {
		return mo.Some(e.Position)
	}
	return mo.None[float64]()
}

func play(ctx context.Context, ref string) error {
	opts, err := playerOptions()
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	launchCtx, cancel := context.WithTimeout(ctx, launchTimeout)
	defer cancel()

	proc, err := mpv.Launch(launchCtx, mpv.Config{
		Binary:    viper.GetString(key.MPVBinary),
		ExtraArgs: viper.GetStringSlice(key.MPVExtraArgs),
		SocketDir: where.Sockets(),
		Volume:    opts.Volume,
		Title:     ref,
	})
	if err != nil {
		return err
	}
	defer func() { _ = proc.Close() }()

	surface := mpv.NewSurface(proc.Client)
	if err := surface.Start(); err != nil {
		return err
	}
	defer func() { _ = surface.Close() }()

	opts.Fullscreen = surface.Host()
	controller := player.New(surface, opts)
	defer func() { _ = controller.Close() }()

	return tui.Run(controller, tui.Options{
		Ref:      ref,
		Resume:   resumePoint(ref),
		SeekStep: float64(viper.GetInt(key.PlayerSeekStep)),
		Gone:     surface.Gone(),
	})
}
