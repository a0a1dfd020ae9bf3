package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zachdedoo13/vidplayer/internal/logging"
	"github.com/zachdedoo13/vidplayer/internal/pipeline"
	"github.com/zachdedoo13/vidplayer/internal/probe"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <uri>",
		Short: "Discover media metadata",
		Long: `Runs stream discovery against the given media location and prints the ` +
			`result: duration plus every video, audio, and caption track found.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			uri, err := pipeline.NormalizeURI(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, "invalid media location:", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithTimeout(context.Background(), probe.DiscoverTimeout)
			defer cancel()

			result, err := probe.Discover(ctx, uri)
			if err != nil {
				fmt.Fprintln(os.Stderr, "discovery failed:", err)
				os.Exit(1)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					fmt.Fprintln(os.Stderr, "encode:", err)
					os.Exit(1)
				}
				return
			}

			fmt.Printf("%s\n  duration: %s\n", result.URI, result.Duration)
			for _, v := range result.Video {
				fmt.Printf("  video   %d: %s (%s, %dx%d, %.3f fps)\n",
					v.Index, v.Name, v.Codec, v.Width, v.Height, v.FPS)
			}
			for _, a := range result.Audio {
				fmt.Printf("  audio   %d: %s (%s)\n", a.Index, a.Name, a.Codec)
			}
			for _, c := range result.Captions {
				fmt.Printf("  caption %d: %s (%s)\n", c.Index, c.Name, c.Codec)
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw discovery result as JSON")
	return cmd
}
