package models

// VideoFrameInfo describes the geometry of the most recently decoded frame.
type VideoFrameInfo struct {
	Width  int     `json:"width" example:"1920" doc:"Frame width in pixels"`
	Height int     `json:"height" example:"1080" doc:"Frame height in pixels"`
	FPS    float64 `json:"fps" example:"29.97" doc:"Decode frame rate"`
	Format string  `json:"format,omitempty" example:"yuv420p" doc:"Source pixel format"`
}

// PlayerStatusData is the full playback state snapshot.
type PlayerStatusData struct {
	URI         string          `json:"uri" example:"file:///media/show.mkv" doc:"Currently opened media location"`
	State       string          `json:"state" example:"playing" doc:"Predicted playback state"`
	Timecode    float64         `json:"timecode" example:"42.5" doc:"Current playback position in seconds"`
	Duration    float64         `json:"duration,omitempty" example:"1800.0" doc:"Media duration in seconds, 0 when unknown"`
	Speed       float64         `json:"speed" example:"1.0" doc:"Playback rate multiplier"`
	Volume      float64         `json:"volume" example:"1.0" doc:"Volume level (0.0 to 5.0)"`
	Flags       []string        `json:"flags" doc:"Enabled engine feature flags"`
	AudioDevice string          `json:"audio_device,omitempty" example:"hw:1,0" doc:"Selected ALSA output device, empty for default"`
	Video       *VideoFrameInfo `json:"video,omitempty" doc:"Geometry of the latest decoded frame, absent before first frame"`
}

type PlayerStatusResponse struct {
	Body PlayerStatusData
}

// OpenRequestData names the media to open.
type OpenRequestData struct {
	URI string `json:"uri" minLength:"1" example:"/media/show.mkv" doc:"Media location: absolute path or file/http/https/rtsp URI"`
}

type OpenRequest struct {
	Body OpenRequestData
}

// SeekRequestData repositions playback.
type SeekRequestData struct {
	Position float64 `json:"position" minimum:"0" example:"42.5" doc:"Seek target in seconds"`
	Mode     string  `json:"mode,omitempty" enum:"trick,exact,keyframe,flush,timeline" example:"exact" doc:"Seek mode, defaults to exact"`
	Accurate bool    `json:"accurate,omitempty" doc:"For timeline mode: decode-accurate positioning instead of keyframe snapping"`
}

type SeekRequest struct {
	Body SeekRequestData
}

// StepRequestData advances or rewinds by whole frames while paused.
type StepRequestData struct {
	Frames int `json:"frames" example:"1" doc:"Frame count: positive steps forward, negative steps back, zero is rejected"`
}

type StepRequest struct {
	Body StepRequestData
}

// SpeedRequestData changes the playback rate multiplier.
type SpeedRequestData struct {
	Speed float64 `json:"speed" exclusiveMinimum:"0" example:"2.0" doc:"Playback rate multiplier, must be positive"`
}

type SpeedRequest struct {
	Body SpeedRequestData
}

// VolumeRequestData sets the linear volume level.
type VolumeRequestData struct {
	Volume float64 `json:"volume" minimum:"0" maximum:"5" example:"1.0" doc:"Volume level, clamped to the 0.0-5.0 range"`
}

type VolumeRequest struct {
	Body VolumeRequestData
}

// TrackData reports the selected track for one kind.
type TrackData struct {
	Kind  string `json:"kind" example:"audio" doc:"Track kind: video, audio, subtitle"`
	Index int    `json:"index" example:"0" doc:"Per-kind track index in container order"`
}

type TrackResponse struct {
	Body TrackData
}

// TrackSelectRequestData switches the active track of one kind.
type TrackSelectRequestData struct {
	Index int `json:"index" minimum:"0" example:"1" doc:"Per-kind track index in container order"`
}

type TrackSelectRequest struct {
	Body TrackSelectRequestData
}

// AudioDeviceRequestData routes audio output to a specific device.
type AudioDeviceRequestData struct {
	Device string `json:"device" example:"hw:1,0" doc:"ALSA device identifier, empty string restores the default sink"`
}

type AudioDeviceRequest struct {
	Body AudioDeviceRequestData
}

// FlagsData reports the engine feature bitmask.
type FlagsData struct {
	Flags []string `json:"flags" doc:"Enabled engine feature flags"`
	Raw   uint32   `json:"raw" example:"23" doc:"Raw bitmask value"`
}

type FlagsResponse struct {
	Body FlagsData
}

// FlagSetRequestData toggles one engine feature flag.
type FlagSetRequestData struct {
	Enabled bool `json:"enabled" example:"true" doc:"Whether the flag should be set"`
}

type FlagSetRequest struct {
	Body FlagSetRequestData
}
