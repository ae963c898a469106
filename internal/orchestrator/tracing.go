package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonit-dev/vibe-planner-mcp-sub000/internal/types"
)

// Span attribute keys.
const (
	AttrPlanID    = "vibeplanner.plan.id"
	AttrPhaseID   = "vibeplanner.phase.id"
	AttrTaskID    = "vibeplanner.task.id"
	AttrStatus    = "vibeplanner.status"
	AttrFound     = "vibeplanner.found"
	AttrErrorCode = "error.code"
	AttrErrorType = "error.type"
)

func (o options) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		attrs := []attribute.KeyValue{attribute.String(AttrErrorType, fmt.Sprintf("%T", err))}
		if code, ok := types.Code(err); ok {
			attrs = append(attrs, attribute.String(AttrErrorCode, string(code)))
		}
		span.SetAttributes(attrs...)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func planAttr(id types.ID) attribute.KeyValue  { return attribute.String(AttrPlanID, id.String()) }
func phaseAttr(id types.ID) attribute.KeyValue { return attribute.String(AttrPhaseID, id.String()) }
func taskAttr(id types.ID) attribute.KeyValue  { return attribute.String(AttrTaskID, id.String()) }
