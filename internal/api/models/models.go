package models

import (
	"time"

	"github.com/smazurov/multistream/internal/logging"
	"github.com/smazurov/multistream/internal/version"
)

// HealthData reports whether the supervisor is up and how many children run.
type HealthData struct {
	Status   string `json:"status" example:"ok" doc:"Service status"`
	Running  int    `json:"running" example:"3" doc:"Children currently running"`
	Children int    `json:"children" example:"3" doc:"Children in the current group"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// ProgressData is the latest ffmpeg stats line of a child.
type ProgressData struct {
	Frame       int64   `json:"frame" example:"1440" doc:"Frames written"`
	FPS         float64 `json:"fps" example:"24" doc:"Current encoding rate"`
	BitrateKbps float64 `json:"bitrate_kbps" example:"6123.4" doc:"Current output bitrate"`
	Speed       float64 `json:"speed" example:"1.01" doc:"Processing speed relative to real time"`
	Dropped     int64   `json:"dropped" example:"0" doc:"Dropped frames"`
}

// ChildData describes one launched child.
type ChildData struct {
	Index     int           `json:"index" example:"0" doc:"Position in the launch batch"`
	Name      string        `json:"name" example:"live.example.com/app/live****-3fa2c1" doc:"Display name with the stream key masked"`
	PID       int           `json:"pid" example:"4242" doc:"Process ID"`
	State     string        `json:"state" example:"running" enum:"running,exited,terminated" doc:"Lifecycle state"`
	ExitCode  *int          `json:"exit_code,omitempty" example:"0" doc:"Exit code once reaped"`
	StartedAt time.Time     `json:"started_at" doc:"When the child was started"`
	ExitedAt  *time.Time    `json:"exited_at,omitempty" doc:"When the exit was reaped"`
	Uptime    string        `json:"uptime" example:"1h2m3s" doc:"Time since start, or run time once exited"`
	Progress  *ProgressData `json:"progress,omitempty" doc:"Latest ffmpeg progress while running"`
}

type ChildListData struct {
	Children []ChildData `json:"children" doc:"Children in launch order"`
	Count    int         `json:"count" example:"3" doc:"Number of children"`
}

type ChildListResponse struct {
	Body ChildListData
}

type ChildResponse struct {
	Body ChildData
}

type ChildRequest struct {
	Index int `path:"index" minimum:"0" example:"0" doc:"Child position in the launch batch"`
}

type LogsRequest struct {
	Level  string `query:"level" enum:"debug,info,warn,error" doc:"Minimum level to return"`
	Module string `query:"module" example:"supervisor" doc:"Only entries from this module"`
}

type LogsData struct {
	Entries []logging.Entry `json:"entries" doc:"Recent log entries, oldest first"`
	Count   int             `json:"count" example:"20" doc:"Number of entries"`
}

type LogsResponse struct {
	Body LogsData
}
