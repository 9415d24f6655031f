package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/brandmill/brandmill-backend/internal/sse"
	"github.com/brandmill/brandmill-backend/internal/types"
)

// SSEBus mirrors the redis fanout client. Nil bus means single-instance
// deployment; events then go straight to the local hub.
type SSEBus interface {
	Publish(ctx context.Context, msg sse.SSEMessage) error
}

type JobNotifier interface {
	JobCreated(userID uuid.UUID, job *types.JobRun)
	JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string)
	JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uuid.UUID, job *types.JobRun)
}

type jobNotifier struct {
	hub *sse.SSEHub
	bus SSEBus
}

func NewJobNotifier(hub *sse.SSEHub, bus SSEBus) JobNotifier {
	return &jobNotifier{hub: hub, bus: bus}
}

// send publishes to the bus when configured (the forwarder replays it into
// every instance's hub, this one included) and otherwise broadcasts locally.
func (n *jobNotifier) send(msg sse.SSEMessage) {
	if n.bus != nil {
		if err := n.bus.Publish(context.Background(), msg); err == nil {
			return
		}
	}
	if n.hub != nil {
		n.hub.Broadcast(msg)
	}
}

func (n *jobNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) {
	n.send(sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventJobCreated,
		Data:    map[string]any{"job": job},
	})
}

func (n *jobNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
	n.send(sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventJobProgress,
		Data: map[string]any{
			"stage":    stage,
			"progress": progress,
			"message":  message,
			"job":      job,
		},
	})
}

func (n *jobNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	n.send(sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventJobFailed,
		Data: map[string]any{
			"stage": stage,
			"error": errorMessage,
			"job":   job,
		},
	})
}

func (n *jobNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {
	n.send(sse.SSEMessage{
		Channel: userID.String(),
		Event:   sse.SSEEventJobDone,
		Data:    map[string]any{"job": job},
	})
}
