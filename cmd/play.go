package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zachdedoo13/vidplayer/internal/logging"
	"github.com/zachdedoo13/vidplayer/internal/player"
)

// CreatePlayCmd creates the play command.
func CreatePlayCmd() *cobra.Command {
	var speed float64
	var start float64
	var paused bool
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "play <uri>",
		Short: "Play media headless",
		Long: `Opens the given media location and runs the playback loop in the ` +
			`foreground, printing position updates. Useful for smoke-testing a file ` +
			`or stream without the HTTP server. Ctrl-C stops playback.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("play")

			backend, err := player.New(args[0])
			if err != nil {
				logger.Error("Failed to open media", "error", err)
				os.Exit(1)
			}
			defer backend.Quit()

			if speed != 1.0 {
				if err := backend.SetSpeed(speed); err != nil {
					logger.Error("Failed to set speed", "error", err)
					os.Exit(1)
				}
			}
			if start > 0 {
				if err := backend.SeekKeyframe(time.Duration(start * float64(time.Second))); err != nil {
					logger.Error("Failed to seek", "error", err)
					os.Exit(1)
				}
			}
			if !paused {
				if err := backend.Start(); err != nil {
					logger.Error("Failed to start playback", "error", err)
					os.Exit(1)
				}
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			ticker := time.NewTicker(backend.Frametime())
			defer ticker.Stop()

			var frames uint64
			lastReport := time.Now()
			for {
				select {
				case <-sigCh:
					logger.Info("Stopping playback", "frames", frames)
					return
				case <-ticker.C:
					if _, err := backend.Update(); err != nil {
						if errors.Is(err, player.ErrNoFrame) {
							continue
						}
						logger.Error("Playback failed", "error", err)
						os.Exit(1)
					}
					frames++

					if time.Since(lastReport) >= time.Second {
						lastReport = time.Now()
						pos := backend.Timecode()
						if d, err := backend.Duration(); err == nil && d > 0 {
							fmt.Printf("\r%s / %s  (%d frames)", pos.Round(time.Millisecond), d, frames)
						} else {
							fmt.Printf("\r%s  (%d frames)", pos.Round(time.Millisecond), frames)
						}
					}
				}
			}
		},
	}

	cmd.Flags().Float64Var(&speed, "speed", 1.0, "Playback rate multiplier")
	cmd.Flags().Float64Var(&start, "start", 0, "Start position in seconds")
	cmd.Flags().BoolVar(&paused, "paused", false, "Open paused instead of starting playback")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")
	return cmd
}
