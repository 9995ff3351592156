package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/multistream/internal/api/models"
	"github.com/smazurov/multistream/internal/metrics"
	"github.com/smazurov/multistream/internal/process"
)

func (s *Server) registerChildRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-children",
		Method:      http.MethodGet,
		Path:        "/api/children",
		Summary:     "List children",
		Description: "Every child of the current group in launch order",
		Tags:        []string{"children"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ChildListResponse, error) {
		statuses := s.snapshot()
		children := make([]models.ChildData, len(statuses))
		now := time.Now()
		for i, st := range statuses {
			children[i] = toChildData(st, now)
		}
		return &models.ChildListResponse{
			Body: models.ChildListData{Children: children, Count: len(children)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-child",
		Method:      http.MethodGet,
		Path:        "/api/children/{index}",
		Summary:     "Get child",
		Description: "One child by launch position",
		Tags:        []string{"children"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *models.ChildRequest) (*models.ChildResponse, error) {
		for _, st := range s.snapshot() {
			if st.Index == input.Index {
				return &models.ChildResponse{Body: toChildData(st, time.Now())}, nil
			}
		}
		return nil, huma.Error404NotFound("child not found")
	})
}

func toChildData(st process.Status, now time.Time) models.ChildData {
	data := models.ChildData{
		Index:     st.Index,
		Name:      st.Name,
		PID:       st.PID,
		State:     string(st.State),
		StartedAt: st.StartedAt,
	}

	if st.State.Terminal() {
		code := st.ExitCode
		exited := st.ExitedAt
		data.ExitCode = &code
		data.ExitedAt = &exited
		data.Uptime = exited.Sub(st.StartedAt).Truncate(time.Second).String()
		return data
	}

	data.Uptime = now.Sub(st.StartedAt).Truncate(time.Second).String()
	if p, ok := metrics.GetFFmpegProgress(st.Name); ok {
		data.Progress = &models.ProgressData{
			Frame:       p.Frame,
			FPS:         p.FPS,
			BitrateKbps: p.BitrateKbps,
			Speed:       p.Speed,
			Dropped:     p.Dropped,
		}
	}
	return data
}
