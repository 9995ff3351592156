package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/multistream/internal/events"
)

// connectedEvent is sent first on every event stream, once the
// subscriptions are in place.
type connectedEvent struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Lifecycle events",
		Description: "Server-Sent Events for child launches, exits and termination sweeps",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"connected":           connectedEvent{},
		"child-launched":      events.ChildLaunchedEvent{},
		"child-launch-failed": events.ChildLaunchFailedEvent{},
		"group-launched":      events.GroupLaunchedEvent{},
		"child-exited":        events.ChildExitedEvent{},
		"sweep-started":       events.SweepStartedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.ForwardTo[events.ChildLaunchedEvent](s.eventBus, eventCh),
			events.ForwardTo[events.ChildLaunchFailedEvent](s.eventBus, eventCh),
			events.ForwardTo[events.GroupLaunchedEvent](s.eventBus, eventCh),
			events.ForwardTo[events.ChildExitedEvent](s.eventBus, eventCh),
			events.ForwardTo[events.SweepStartedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(connectedEvent{Message: "connected", Timestamp: time.Now()}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
