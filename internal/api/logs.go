package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/multistream/internal/api/models"
	"github.com/smazurov/multistream/internal/logging"
)

func (s *Server) registerLogRoutes() {
	if s.logs == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent logs",
		Description: "Recent supervisor and child log entries, oldest first",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		minLevel := logging.ParseLevel(input.Level, slog.LevelDebug)
		entries := []logging.Entry{}
		for _, e := range s.logs.Entries() {
			if logging.ParseLevel(e.Level, slog.LevelInfo) < minLevel {
				continue
			}
			if input.Module != "" && e.Module != input.Module {
				continue
			}
			entries = append(entries, e)
		}
		return &models.LogsResponse{
			Body: models.LogsData{Entries: entries, Count: len(entries)},
		}, nil
	})
}
