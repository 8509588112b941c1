package cli

import (
	stdcontext "context"
	"errors"
	"fmt"

	"github.com/motionview/mvbridge/internal/api"
	"github.com/motionview/mvbridge/internal/hub"
	"github.com/motionview/mvbridge/internal/supervisor"
)

// processSupervisor is the slice of the supervisor the control API needs.
type processSupervisor interface {
	Start(stdcontext.Context) (*supervisor.StartResult, error)
	Stop(stdcontext.Context) bool
	Kill(stdcontext.Context) bool
	Status() supervisor.Status
	Binary() string
}

// controlAPI adapts the supervisor and hub to the HTTP control surface. Start
// failures are folded into the response body: a missing binary yields a
// precise status string, anything else a generic start failure.
type controlAPI struct {
	sup processSupervisor
	hub *hub.Hub
}

func newControlAPI(sup processSupervisor, h *hub.Hub) api.Controller {
	return &controlAPI{sup: sup, hub: h}
}

func (c *controlAPI) Start(ctx stdcontext.Context) *api.StartResponse {
	res, err := c.sup.Start(ctx)
	if err != nil {
		if errors.Is(err, supervisor.ErrBinaryNotFound) {
			return &api.StartResponse{
				OK:     false,
				Status: fmt.Sprintf("%s not found on PATH", c.sup.Binary()),
			}
		}
		return &api.StartResponse{
			OK:     false,
			Status: fmt.Sprintf("start failed: %v", err),
		}
	}

	status := "started"
	if res.AlreadyRunning {
		status = "already running"
	}
	pid := res.PID
	return &api.StartResponse{
		OK:     true,
		Status: status,
		PID:    &pid,
		Mode:   string(res.Mode),
	}
}

func (c *controlAPI) Stop(ctx stdcontext.Context) *api.OpResponse {
	if !c.sup.Stop(ctx) {
		return &api.OpResponse{OK: true, Status: "not running"}
	}
	return &api.OpResponse{OK: true, Status: "stopped"}
}

func (c *controlAPI) Kill(ctx stdcontext.Context) *api.OpResponse {
	if !c.sup.Kill(ctx) {
		return &api.OpResponse{OK: true, Status: "not running"}
	}
	return &api.OpResponse{OK: true, Status: "killed"}
}

func (c *controlAPI) Status(stdcontext.Context) *api.StatusResponse {
	status := c.sup.Status()
	resp := &api.StatusResponse{
		Running:         status.Running,
		Mode:            string(status.Mode),
		SubscriberCount: c.hub.Count(),
	}
	if status.Running {
		pid := status.PID
		resp.PID = &pid
	}
	return resp
}
