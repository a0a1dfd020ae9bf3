package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zachdedoo13/vidplayer/internal/api/models"
	"github.com/zachdedoo13/vidplayer/internal/audio"
	"github.com/zachdedoo13/vidplayer/internal/pipeline"
	"github.com/zachdedoo13/vidplayer/internal/player"
	"github.com/zachdedoo13/vidplayer/internal/probe"
)

// registerPlayerRoutes registers all playback control endpoints.
func (s *Server) registerPlayerRoutes() {
	// Get playback status
	huma.Register(s.api, huma.Operation{
		OperationID: "get-player-status",
		Method:      http.MethodGet,
		Path:        "/api/player/status",
		Summary:     "Playback Status",
		Description: "Get the full playback state snapshot: state, position, speed, volume, and flags",
		Tags:        []string{"player"},
		Errors:      []int{401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.PlayerStatusResponse, error) {
		status, err := s.playerStatus(ctx)
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return &models.PlayerStatusResponse{Body: status}, nil
	})

	// Open media
	huma.Register(s.api, huma.Operation{
		OperationID: "open-media",
		Method:      http.MethodPost,
		Path:        "/api/player/open",
		Summary:     "Open Media",
		Description: "Open a new media location, replacing the current one. Playback starts paused on the first frame.",
		Tags:        []string{"player"},
		Errors:      []int{400, 401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.OpenRequest) (*models.PlayerStatusResponse, error) {
		err := s.player.Call(ctx, func(b *player.Backend) error {
			return b.Open(input.Body.URI)
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return s.statusResponse(ctx)
	})

	// Get probed media metadata
	huma.Register(s.api, huma.Operation{
		OperationID: "get-media-probe",
		Method:      http.MethodGet,
		Path:        "/api/player/probe",
		Summary:     "Media Metadata",
		Description: "Get the discovered stream metadata for the opened media. Returns 409 while discovery is still running.",
		Tags:        []string{"player"},
		Errors:      []int{401, 409, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*probeResponse, error) {
		var result probe.Probe
		err := s.player.Call(ctx, func(b *player.Backend) error {
			p, err := b.Probe()
			if err != nil {
				return err
			}
			result = *p
			return nil
		})
		if err != nil {
			if errors.Is(err, player.ErrProbePending) {
				return nil, huma.Error409Conflict("Media discovery still running")
			}
			return nil, mapPlayerError(err)
		}
		return &probeResponse{Body: result}, nil
	})

	// Start playback
	huma.Register(s.api, huma.Operation{
		OperationID: "play",
		Method:      http.MethodPost,
		Path:        "/api/player/play",
		Summary:     "Play",
		Description: "Start or resume playback",
		Tags:        []string{"player"},
		Errors:      []int{401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.PlayerStatusResponse, error) {
		err := s.player.Call(ctx, func(b *player.Backend) error { return b.Start() })
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return s.statusResponse(ctx)
	})

	// Pause playback
	huma.Register(s.api, huma.Operation{
		OperationID: "pause",
		Method:      http.MethodPost,
		Path:        "/api/player/pause",
		Summary:     "Pause",
		Description: "Pause playback, holding the current frame",
		Tags:        []string{"player"},
		Errors:      []int{401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.PlayerStatusResponse, error) {
		err := s.player.Call(ctx, func(b *player.Backend) error { return b.Stop() })
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return s.statusResponse(ctx)
	})

	// Seek
	huma.Register(s.api, huma.Operation{
		OperationID: "seek",
		Method:      http.MethodPost,
		Path:        "/api/player/seek",
		Summary:     "Seek",
		Description: "Reposition playback. Mode selects the accuracy/latency trade-off: trick for fast scrubbing, " +
			"exact for frame accuracy, keyframe for fast coarse jumps, flush to re-decode in place, and timeline " +
			"for progress-bar drags (keyframe-snapped unless accurate is set).",
		Tags:     []string{"player"},
		Errors:   []int{400, 401, 500, 503},
		Security: withAuth(),
	}, func(ctx context.Context, input *models.SeekRequest) (*models.PlayerStatusResponse, error) {
		to := time.Duration(input.Body.Position * float64(time.Second))
		err := s.player.Call(ctx, func(b *player.Backend) error {
			switch input.Body.Mode {
			case "trick":
				return b.SeekTrick(to)
			case "keyframe":
				return b.SeekKeyframe(to)
			case "flush":
				return b.SeekFlush(to)
			case "timeline":
				return b.SeekTimeline(to, input.Body.Accurate)
			default:
				return b.SeekExact(to)
			}
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return s.statusResponse(ctx)
	})

	// Frame stepping
	huma.Register(s.api, huma.Operation{
		OperationID: "step-frames",
		Method:      http.MethodPost,
		Path:        "/api/player/step",
		Summary:     "Step Frames",
		Description: "Advance or rewind playback by whole frames. Positive counts step natively, negative counts " +
			"seek back by the equivalent duration.",
		Tags:     []string{"player"},
		Errors:   []int{400, 401, 500, 503},
		Security: withAuth(),
	}, func(ctx context.Context, input *models.StepRequest) (*models.PlayerStatusResponse, error) {
		if input.Body.Frames == 0 {
			return nil, huma.Error400BadRequest("Frame count must be non-zero")
		}
		err := s.player.Call(ctx, func(b *player.Backend) error {
			return b.StepFrames(input.Body.Frames)
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return s.statusResponse(ctx)
	})

	// Playback speed
	huma.Register(s.api, huma.Operation{
		OperationID: "set-speed",
		Method:      http.MethodPost,
		Path:        "/api/player/speed",
		Summary:     "Set Speed",
		Description: "Change the playback rate multiplier, anchored at the current position. The rate persists across seeks.",
		Tags:        []string{"player"},
		Errors:      []int{400, 401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.SpeedRequest) (*models.PlayerStatusResponse, error) {
		err := s.player.Call(ctx, func(b *player.Backend) error {
			return b.SetSpeed(input.Body.Speed)
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return s.statusResponse(ctx)
	})

	// Volume
	huma.Register(s.api, huma.Operation{
		OperationID: "set-volume",
		Method:      http.MethodPut,
		Path:        "/api/player/volume",
		Summary:     "Set Volume",
		Description: "Set the linear volume level. Values outside the 0.0-5.0 range are clamped.",
		Tags:        []string{"player"},
		Errors:      []int{400, 401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.VolumeRequest) (*models.PlayerStatusResponse, error) {
		err := s.player.Call(ctx, func(b *player.Backend) error {
			return b.SetVolume(input.Body.Volume)
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return s.statusResponse(ctx)
	})

	// Current track per kind
	huma.Register(s.api, huma.Operation{
		OperationID: "get-track",
		Method:      http.MethodGet,
		Path:        "/api/player/tracks/{kind}",
		Summary:     "Get Selected Track",
		Description: "Get the currently selected track index for a kind (video, audio, subtitle)",
		Tags:        []string{"player"},
		Errors:      []int{400, 401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		Kind string `path:"kind" enum:"video,audio,subtitle" example:"audio" doc:"Track kind"`
	}) (*models.TrackResponse, error) {
		kind, ok := pipeline.ParseTrackKind(input.Kind)
		if !ok {
			return nil, huma.Error400BadRequest("Unknown track kind: " + input.Kind)
		}
		var index int
		err := s.player.Call(ctx, func(b *player.Backend) error {
			var err error
			index, err = b.CurrentTrack(kind)
			return err
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return &models.TrackResponse{
			Body: models.TrackData{Kind: kind.String(), Index: index},
		}, nil
	})

	// Track selection
	huma.Register(s.api, huma.Operation{
		OperationID: "select-track",
		Method:      http.MethodPut,
		Path:        "/api/player/tracks/{kind}",
		Summary:     "Select Track",
		Description: "Switch the active track of a kind to the given container index",
		Tags:        []string{"player"},
		Errors:      []int{400, 401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		Kind string `path:"kind" enum:"video,audio,subtitle" example:"audio" doc:"Track kind"`
		Body models.TrackSelectRequestData
	}) (*models.TrackResponse, error) {
		kind, ok := pipeline.ParseTrackKind(input.Kind)
		if !ok {
			return nil, huma.Error400BadRequest("Unknown track kind: " + input.Kind)
		}
		err := s.player.Call(ctx, func(b *player.Backend) error {
			return b.SelectTrack(kind, input.Body.Index)
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return &models.TrackResponse{
			Body: models.TrackData{Kind: kind.String(), Index: input.Body.Index},
		}, nil
	})

	// Engine feature flags
	huma.Register(s.api, huma.Operation{
		OperationID: "get-flags",
		Method:      http.MethodGet,
		Path:        "/api/player/flags",
		Summary:     "Get Flags",
		Description: "Get the engine feature bitmask",
		Tags:        []string{"player"},
		Errors:      []int{401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.FlagsResponse, error) {
		var flags pipeline.PlayFlags
		err := s.player.Call(ctx, func(b *player.Backend) error {
			var err error
			flags, err = b.Flags()
			return err
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return &models.FlagsResponse{
			Body: models.FlagsData{Flags: flags.Names(), Raw: uint32(flags)},
		}, nil
	})

	// Toggle one flag
	huma.Register(s.api, huma.Operation{
		OperationID: "set-flag",
		Method:      http.MethodPut,
		Path:        "/api/player/flags/{flag}",
		Summary:     "Set Flag",
		Description: "Enable or disable a single engine feature flag",
		Tags:        []string{"player"},
		Errors:      []int{400, 401, 500, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *struct {
		Flag string `path:"flag" example:"deinterlace" doc:"Flag name"`
		Body models.FlagSetRequestData
	}) (*models.FlagsResponse, error) {
		flag, ok := pipeline.FlagByName(input.Flag)
		if !ok {
			return nil, huma.Error400BadRequest("Unknown flag: " + input.Flag)
		}
		var flags pipeline.PlayFlags
		err := s.player.Call(ctx, func(b *player.Backend) error {
			if err := b.SetFlag(flag, input.Body.Enabled); err != nil {
				return err
			}
			var err error
			flags, err = b.Flags()
			return err
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return &models.FlagsResponse{
			Body: models.FlagsData{Flags: flags.Names(), Raw: uint32(flags)},
		}, nil
	})

	// Audio output device selection
	huma.Register(s.api, huma.Operation{
		OperationID: "select-audio-device",
		Method:      http.MethodPut,
		Path:        "/api/player/audio-device",
		Summary:     "Select Audio Device",
		Description: "Route audio output to a specific ALSA device. Returns 501 on platforms without ALSA support.",
		Tags:        []string{"player"},
		Errors:      []int{400, 401, 500, 501, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, input *models.AudioDeviceRequest) (*models.PlayerStatusResponse, error) {
		err := s.player.Call(ctx, func(b *player.Backend) error {
			return b.SelectAudioDevice(input.Body.Device)
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}
		return s.statusResponse(ctx)
	})
}

// probeResponse wraps the discovered media metadata for API responses.
type probeResponse struct {
	Body probe.Probe
}

// playerStatus assembles the status snapshot on the playback goroutine.
func (s *Server) playerStatus(ctx context.Context) (models.PlayerStatusData, error) {
	var status models.PlayerStatusData
	err := s.player.Call(ctx, func(b *player.Backend) error {
		flags, err := b.Flags()
		if err != nil {
			return err
		}

		status = models.PlayerStatusData{
			URI:         b.URI(),
			State:       b.PredictedState().String(),
			Timecode:    b.Timecode().Seconds(),
			Speed:       b.Speed(),
			Volume:      b.Volume(),
			Flags:       flags.Names(),
			AudioDevice: b.CurrentAudioDevice(),
		}
		if d, err := b.Duration(); err == nil {
			status.Duration = d.Seconds()
		}
		if info, ok := b.LatestInfo(); ok {
			status.Video = &models.VideoFrameInfo{
				Width:  info.Width,
				Height: info.Height,
				FPS:    info.FPS(),
				Format: info.Format,
			}
		}
		return nil
	})
	return status, err
}

func (s *Server) statusResponse(ctx context.Context) (*models.PlayerStatusResponse, error) {
	status, err := s.playerStatus(ctx)
	if err != nil {
		return nil, mapPlayerError(err)
	}
	return &models.PlayerStatusResponse{Body: status}, nil
}

// mapPlayerError maps backend errors to HTTP errors.
func mapPlayerError(err error) error {
	switch {
	case errors.Is(err, player.ErrStopped):
		return huma.Error503ServiceUnavailable("Player has shut down", err)
	case errors.Is(err, audio.ErrUnsupported):
		return huma.Error501NotImplemented("Audio device selection is not supported on this platform", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error400BadRequest("Request cancelled", err)
	default:
		return huma.Error500InternalServerError("Playback operation failed", err)
	}
}
