package api

import "github.com/autoglm/tui-go/internal/model"

// ModelSettings configures one model endpoint on the backend.
type ModelSettings struct {
	BaseURL   string `json:"base_url"`
	ModelName string `json:"model_name"`
	APIKey    string `json:"api_key"`
}

// Settings is the backend's agent configuration. The persistence format is
// owned by the backend; this is just its wire shape.
type Settings struct {
	Mode       string        `json:"mode"` // "cloud" or "local"
	Cloud      ModelSettings `json:"cloud"`
	Local      ModelSettings `json:"local"`
	DeviceID   string        `json:"device_id,omitempty"`
	DeviceType string        `json:"device_type,omitempty"`
}

// statusReply is the generic {"status": "...", "message": "..."} envelope the
// backend returns from mutating endpoints.
type statusReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type historyReply struct {
	History model.Transcript `json:"history"`
}

type devicesReply struct {
	Devices []string `json:"devices"`
	Error   string   `json:"error,omitempty"`
}
