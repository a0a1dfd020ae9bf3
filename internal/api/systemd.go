package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/zachdedoo13/vidplayer/internal/api/models"
)

// registerSystemdRoutes exposes lifecycle control of the companion audio
// service (PipeWire or PulseAudio). Restarting it is the usual fix when
// the ALSA sink wedges after device hot-plug.
func (s *Server) registerSystemdRoutes() {
	if s.options.SystemdManager == nil {
		return
	}

	serviceName := s.options.AudioServiceName
	if serviceName == "" {
		serviceName = "pipewire.service"
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-audio-service-status",
		Method:      http.MethodGet,
		Path:        "/api/systemd/audio/status",
		Summary:     "Audio Service Status",
		Description: "Get the systemd status of the companion audio service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceStatusResponse, error) {
		status, err := s.options.SystemdManager.GetServiceStatus(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to get service status", err)
		}
		return &models.SystemdServiceStatusResponse{
			Body: models.SystemdServiceStatus{
				Service: serviceName,
				Status:  status,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-audio-service",
		Method:      http.MethodPost,
		Path:        "/api/systemd/audio/restart",
		Summary:     "Restart Audio Service",
		Description: "Restart the companion audio service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		err := s.options.SystemdManager.RestartService(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to restart service", err)
		}
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{
				Service: serviceName,
				Action:  "restart",
				Success: true,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-audio-service",
		Method:      http.MethodPost,
		Path:        "/api/systemd/audio/stop",
		Summary:     "Stop Audio Service",
		Description: "Stop the companion audio service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		err := s.options.SystemdManager.StopService(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to stop service", err)
		}
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{
				Service: serviceName,
				Action:  "stop",
				Success: true,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-audio-service",
		Method:      http.MethodPost,
		Path:        "/api/systemd/audio/start",
		Summary:     "Start Audio Service",
		Description: "Start the companion audio service",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
	}, func(ctx context.Context, _ *struct{}) (*models.SystemdServiceActionResponse, error) {
		err := s.options.SystemdManager.StartService(ctx, serviceName)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to start service", err)
		}
		return &models.SystemdServiceActionResponse{
			Body: models.SystemdServiceAction{
				Service: serviceName,
				Action:  "start",
				Success: true,
			},
		}, nil
	})
}
