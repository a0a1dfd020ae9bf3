package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/zachdedoo13/vidplayer/cmd"
	"github.com/zachdedoo13/vidplayer/internal/api"
	"github.com/zachdedoo13/vidplayer/internal/config"
	"github.com/zachdedoo13/vidplayer/internal/events"
	"github.com/zachdedoo13/vidplayer/internal/logging"
	"github.com/zachdedoo13/vidplayer/internal/metrics/exporters"
	"github.com/zachdedoo13/vidplayer/internal/pipeline"
	"github.com/zachdedoo13/vidplayer/internal/player"
	"github.com/zachdedoo13/vidplayer/internal/systemd"
	"github.com/zachdedoo13/vidplayer/internal/updater"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Player settings
	Media        string `help:"Media to open at startup (path or URI)" short:"m" toml:"player.media" env:"PLAYER_MEDIA"`
	SettingsFile string `help:"Persisted player settings file" default:"player.toml" toml:"player.settings_file" env:"PLAYER_SETTINGS_FILE"`

	// Metrics settings
	MetricsSSEEnabled bool `help:"Publish periodic metrics snapshots on the event stream" default:"true" toml:"metrics.sse_enabled" env:"METRICS_SSE_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Update settings
	UpdateEnabled    bool   `help:"Enable the self-update service" default:"true" toml:"update.enabled" env:"UPDATE_ENABLED"`
	UpdateRepository string `help:"GitHub repository for updates" default:"zachdedoo13/vidplayer" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Include prereleases when checking for updates" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Systemd settings
	SystemdEnabled   bool   `help:"Expose systemd control of the companion audio service" default:"false" toml:"systemd.enabled" env:"SYSTEMD_ENABLED"`
	AudioServiceName string `help:"Companion audio service unit" default:"pipewire.service" toml:"systemd.audio_service" env:"SYSTEMD_AUDIO_SERVICE"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingPlayer   string `help:"Player logging level" default:"info" toml:"logging.player" env:"LOGGING_PLAYER"`
	LoggingPipeline string `help:"Pipeline logging level" default:"info" toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
	LoggingProbe    string `help:"Probe logging level" default:"info" toml:"logging.probe" env:"LOGGING_PROBE"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP     string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingUpdater  string `help:"Updater logging level" default:"info" toml:"logging.updater" env:"LOGGING_UPDATER"`
}

func main() {
	// Create Huma CLI
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"player":   opts.LoggingPlayer,
				"pipeline": opts.LoggingPipeline,
				"probe":    opts.LoggingProbe,
				"api":      opts.LoggingAPI,
				"http":     opts.LoggingHTTP,
				"updater":  opts.LoggingUpdater,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		if opts.Media == "" {
			logger.Error("No media given: pass --media or set player.media in the config file")
			os.Exit(1)
		}

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Forward every log entry onto the event bus for SSE consumers
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Load persisted player settings
		settingsStore := config.NewSettingsStore(opts.SettingsFile)
		if loadErr := settingsStore.Load(); loadErr != nil {
			logger.Warn("Failed to load player settings", "error", loadErr)
		}
		settings := settingsStore.Get()

		// Create the playback backend around the startup media
		backend, err := player.New(opts.Media, player.WithBus(eventBus))
		if err != nil {
			logger.Error("Failed to open media", "uri", opts.Media, "error", err)
			os.Exit(1)
		}
		applySettings(backend, settings, logger)

		service := player.NewService(backend)

		// Playback loop: ticks at the media frame interval, draining queued
		// API commands before each frame fetch.
		loopStop := make(chan struct{})
		loopDone := make(chan struct{})
		go func() {
			defer close(loopDone)
			interval := backend.Frametime()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-loopStop:
					if quitErr := service.Close(); quitErr != nil {
						logger.Error("Failed to stop playback", "error", quitErr)
					}
					return
				case <-ticker.C:
					if _, tickErr := service.Tick(); tickErr != nil && !errors.Is(tickErr, player.ErrNoFrame) {
						logger.Warn("Playback tick failed", "error", tickErr)
					}
					if ft := backend.Frametime(); ft != interval {
						interval = ft
						ticker.Reset(interval)
					}
				}
			}
		}()

		// Watch the settings file and hot-apply edits
		settingsWatcher := config.NewConfigWatcher(
			settingsStore.Path(),
			config.LoadPlayerSettings,
			logger,
			config.WithDebounce[config.PlayerSettings](500*time.Millisecond),
		)
		settingsWatcher.OnReload(func(loaded config.PlayerSettings) {
			callErr := service.Call(context.Background(), func(b *player.Backend) error {
				applySettings(b, loaded, logger)
				return nil
			})
			if callErr != nil {
				logger.Warn("Failed to apply reloaded settings", "error", callErr)
			}
		})

		// Self-update service
		var updateService updater.Service
		if opts.UpdateEnabled {
			updateService, err = updater.NewService(&updater.Options{
				Repository: opts.UpdateRepository,
				Prerelease: opts.UpdatePrerelease,
			})
			if err != nil {
				logger.Warn("Failed to initialize updater", "error", err)
			}
		}

		// Systemd control of the companion audio service
		var systemdManager *systemd.Manager
		if opts.SystemdEnabled {
			systemdManager, err = systemd.NewManager(context.Background())
			if err != nil {
				logger.Warn("Failed to connect to systemd", "error", err)
			}
		}

		apiOpts := &api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Player:            service,
			EventBus:          eventBus,
			UpdateService:     updateService,
			SystemdManager:    systemdManager,
			AudioServiceName:  opts.AudioServiceName,
			PrometheusHandler: exporters.HTTPHandler(),
		}

		server := api.NewServer(apiOpts)

		// Periodic metrics snapshots on the event stream
		var sseExporter *exporters.SSEExporter
		if opts.MetricsSSEEnabled {
			sseExporter = exporters.NewSSEExporter(eventBus)
		}

		hooks.OnStart(func() {
			if watchErr := settingsWatcher.Start(); watchErr != nil {
				logger.Warn("Failed to watch settings file", "error", watchErr)
			}

			if sseExporter != nil {
				sseExporter.Start(context.Background())
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if sseExporter != nil {
				sseExporter.Stop()
			}
			if stopErr := settingsWatcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping settings watcher", "error", stopErr)
			}

			// Persist player state, then stop the playback loop (which tears
			// down the backend)
			var snapshot config.PlayerSettings
			snapErr := service.Call(context.Background(), func(b *player.Backend) error {
				snapshot = snapshotSettings(b)
				return nil
			})
			close(loopStop)
			<-loopDone
			if snapErr != nil {
				logger.Warn("Failed to snapshot player settings", "error", snapErr)
			} else if saveErr := settingsStore.Save(snapshot); saveErr != nil {
				logger.Warn("Failed to persist player settings", "error", saveErr)
			}

			if systemdManager != nil {
				systemdManager.Close()
			}
		})
	})

	// Add probe command
	probeCmd := cmd.CreateProbeCmd()
	cli.Root().AddCommand(probeCmd)

	// Add play command
	playCmd := cmd.CreatePlayCmd()
	cli.Root().AddCommand(playCmd)

	// Add update command
	updateCmd := cmd.CreateUpdateCmd()
	cli.Root().AddCommand(updateCmd)

	// Run the CLI
	cli.Run()
}

// applySettings pushes persisted settings into the backend. Failures are
// logged and skipped: a stale settings file must not block startup.
func applySettings(b *player.Backend, s config.PlayerSettings, logger *slog.Logger) {
	if s.Volume != b.Volume() {
		if err := b.SetVolume(s.Volume); err != nil {
			logger.Warn("Failed to apply volume", "volume", s.Volume, "error", err)
		}
	}
	if s.Speed > 0 && s.Speed != b.Speed() {
		if err := b.SetSpeed(s.Speed); err != nil {
			logger.Warn("Failed to apply speed", "speed", s.Speed, "error", err)
		}
	}
	if len(s.Flags) > 0 {
		var mask pipeline.PlayFlags
		for _, name := range s.Flags {
			flag, ok := pipeline.FlagByName(name)
			if !ok {
				logger.Warn("Unknown flag in settings", "flag", name)
				continue
			}
			mask |= flag
		}
		current, err := b.Flags()
		if err != nil {
			logger.Warn("Failed to read flags", "error", err)
		} else if current != mask {
			for _, name := range mask.Names() {
				flag, _ := pipeline.FlagByName(name)
				if err := b.SetFlag(flag, true); err != nil {
					logger.Warn("Failed to set flag", "flag", name, "error", err)
				}
			}
			for _, name := range (current &^ mask).Names() {
				flag, _ := pipeline.FlagByName(name)
				if err := b.SetFlag(flag, false); err != nil {
					logger.Warn("Failed to clear flag", "flag", name, "error", err)
				}
			}
		}
	}
	if s.AudioDevice != "" && s.AudioDevice != b.CurrentAudioDevice() {
		if err := b.SelectAudioDevice(s.AudioDevice); err != nil {
			logger.Warn("Failed to select audio device", "device", s.AudioDevice, "error", err)
		}
	}
}

// snapshotSettings captures the current backend state for persistence.
func snapshotSettings(b *player.Backend) config.PlayerSettings {
	s := config.PlayerSettings{
		Volume:      b.Volume(),
		Speed:       b.Speed(),
		AudioDevice: b.CurrentAudioDevice(),
	}
	if flags, err := b.Flags(); err == nil {
		s.Flags = flags.Names()
	}
	return s
}
