package api

import stdcontext "context"

// StartResponse is the body returned by POST /api/start. Failures are part of
// the contract: the endpoint answers 200 with ok=false and a status string
// describing what went wrong, so a simple front end can render it directly.
type StartResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
	PID    *int   `json:"pid,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// OpResponse is the body returned by POST /api/stop and POST /api/kill.
type OpResponse struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
}

// StatusResponse is the body returned by GET /api/status. PID is null while
// no process is running.
type StatusResponse struct {
	Running         bool   `json:"running"`
	PID             *int   `json:"pid"`
	Mode            string `json:"mode,omitempty"`
	SubscriberCount int    `json:"subscriber_count"`
}

// Controller exposes the supervisor operations consumed by control servers.
// Operational failures are folded into the response bodies rather than
// returned as errors; no control operation can fail the bridge itself.
type Controller interface {
	Start(stdcontext.Context) *StartResponse
	Stop(stdcontext.Context) *OpResponse
	Kill(stdcontext.Context) *OpResponse
	Status(stdcontext.Context) *StatusResponse
}
