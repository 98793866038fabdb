package livepeer

// Stream is the provider-side stream resource. StreamKey is the ingest
// secret; treat it accordingly downstream.
type Stream struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PlaybackID string `json:"playbackId"`
	StreamKey  string `json:"streamKey"`
	IsActive   bool   `json:"isActive"`
	Record     bool   `json:"record"`
}

// HealthStatus is the provider's view of ingest health for a stream.
type HealthStatus struct {
	Healthy    bool   `json:"healthy"`
	IsActive   bool   `json:"isActive"`
	Issues     string `json:"issues,omitempty"`
	Bitrate    int    `json:"bitrate,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

// PlaybackSource is one renditions entry of a playback manifest.
type PlaybackSource struct {
	Hrn  string `json:"hrn"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// PlaybackInfo is the resolved playback manifest for a playback id.
type PlaybackInfo struct {
	PlaybackID string           `json:"playbackId"`
	Live       bool             `json:"live"`
	Sources    []PlaybackSource `json:"sources"`
}
