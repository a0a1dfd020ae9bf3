package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zachdedoo13/vidplayer/internal/api/models"
	"github.com/zachdedoo13/vidplayer/internal/audio"
	"github.com/zachdedoo13/vidplayer/internal/player"
)

// registerAudioRoutes registers all audio-related API endpoints under /api/audio.
func (s *Server) registerAudioRoutes() {
	// GET /api/audio/devices - List playback devices the engine can route to
	huma.Register(s.api, huma.Operation{
		OperationID: "list-audio-devices",
		Method:      http.MethodGet,
		Path:        "/api/audio/devices",
		Summary:     "List Audio Devices",
		Description: "List all available audio playback devices. Returns 501 on platforms without ALSA support.",
		Tags:        []string{"audio"},
		Errors:      []int{401, 500, 501, 503},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.AudioDevicesResponse, error) {
		var (
			devices []audio.Device
			current string
		)
		err := s.player.Call(ctx, func(b *player.Backend) error {
			var err error
			devices, err = b.AudioDevices()
			current = b.CurrentAudioDevice()
			return err
		})
		if err != nil {
			return nil, mapPlayerError(err)
		}

		// Convert internal audio.Device to API models.AudioDevice
		apiDevices := make([]models.AudioDevice, len(devices))
		for i, device := range devices {
			apiDevices[i] = models.AudioDevice{
				ID:       device.ID,
				Name:     device.Name,
				CardName: device.CardName,
			}
		}

		return &models.AudioDevicesResponse{
			Body: models.AudioDevicesData{
				Devices: apiDevices,
				Count:   len(apiDevices),
				Current: current,
			},
		}, nil
	})
}
