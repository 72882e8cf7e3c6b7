package coordination

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the package-wide Tracer, grounded on the teacher's
// zero-configuration OTel wiring: a caller that never set up a
// TracerProvider gets the global no-op tracer, so spans are always safe
// to start.
var tracer = otel.Tracer("coordination-kernel")

// TraceTransition wraps a Transition call in a span tagged with the task
// id and event, so a deployment with a TracerProvider configured can see
// the full lifecycle of a task across the ledger it produces.
func (c *Coordinator) TraceTransition(ctx context.Context, taskID string, event Event, reason string) error {
	_, span := tracer.Start(ctx, "coordination.Transition",
		trace.WithAttributes(
			attribute.String("task_id", taskID),
			attribute.String("event", event.String()),
		),
	)
	defer span.End()

	err := c.Transition(taskID, event, reason)
	if err != nil {
		span.RecordError(err)
	}
	return err
}
