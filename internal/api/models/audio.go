package models

// AudioDevice represents a playback device the engine can route audio to
type AudioDevice struct {
	ID       string `json:"id" example:"hw:0,0" doc:"ALSA device string for FFmpeg"`
	Name     string `json:"name" example:"ALC892 Analog" doc:"Device name"`
	CardName string `json:"card_name,omitempty" example:"HDA Intel PCH" doc:"Full card name"`
}

// AudioDevicesData represents the response data for audio device enumeration
type AudioDevicesData struct {
	Devices []AudioDevice `json:"devices" doc:"List of available audio devices"`
	Count   int           `json:"count" example:"2" doc:"Number of devices found"`
	Current string        `json:"current,omitempty" example:"hw:0,0" doc:"Currently selected device, empty for default"`
}

// AudioDevicesResponse represents the HTTP response for audio device enumeration
type AudioDevicesResponse struct {
	Body AudioDevicesData
}
