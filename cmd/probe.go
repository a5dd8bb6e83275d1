package cmd

import (
	"context"
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/streamctl/streamctl/config"
	"github.com/streamctl/streamctl/hls"
	"github.com/streamctl/streamctl/key"
	"github.com/streamctl/streamctl/network"
	"github.com/streamctl/streamctl/player"
)

const probeTimeout = 30 * time.Second

// ProbeOutput is what the probe command prints.
type ProbeOutput struct {
	Ref string `json:"ref"`

	// Strategy is the decoding path a play session on mpv would take.
	Strategy string     `json:"strategy"`
	Report   hls.Report `json:"report"`
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().BoolP("pretty", "p", false, "Indent the JSON output")
	probeCmd.SetOut(os.Stdout)
}

var probeCmd = &cobra.Command{
	Use:   "probe [reference]",
	Short: "Describe the renditions of a stream as JSON",
	Long:  "Fetch and parse a manifest and print its renditions, the rendition the managed loader would pick, and the decoding strategy.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(config.Validate())

		ref := args[0]
		handleErr(validateRef(ref))

		out, err := probe(cmd.Context(), ref)
		handleErr(err)

		encoder := json.NewEncoder(cmd.OutOrStdout())
		if lo.Must(cmd.Flags().GetBool("pretty")) {
			encoder.SetIndent("", "  ")
		}
		handleErr(encoder.Encode(out))
	},
}

func probe(ctx context.Context, ref string) (ProbeOutput, error) {
	pref, err := player.ParsePreference(viper.GetString(key.PlayerStrategy))
	if err != nil {
		return ProbeOutput{}, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client := network.New(viper.GetBool(key.HLSTLSFingerprint))
	report, err := hls.Inspect(ctx, client, ref, viper.GetInt(key.HLSMaxBandwidth))
	if err != nil {
		return ProbeOutput{}, err
	}

	// mpv demuxes HLS itself and the managed loader only needs the network
	caps := player.Capabilities{NativeManifest: true, ManagedDecoding: true}

	return ProbeOutput{
		Ref:      ref,
		Strategy: player.Resolve(caps, pref).String(),
		Report:   report,
	}, nil
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the probe output",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			return t.Name()
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(reflector.Reflect(&ProbeOutput{})))
	},
}
