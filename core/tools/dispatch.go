package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-callbot/core/knowledge"
	"github.com/koscakluka/ema-callbot/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var ErrUnknownTool = errors.New("unknown tool")

// Result is always safe to hand back to the model: failures are encoded in
// Output as {"error": "..."} rather than returned as Go errors.
type Result struct {
	Kind    Kind
	Output  string
	Err     error
	EndCall bool
}

func (r Result) Failed() bool { return r.Err != nil }

type Dispatcher struct {
	kb *knowledge.Base
}

func NewDispatcher(kb *knowledge.Base) *Dispatcher {
	return &Dispatcher{kb: kb}
}

// Definitions returns the tools this dispatcher can execute.
func (d *Dispatcher) Definitions() []llms.Tool {
	return Definitions()
}

// Execute runs the named tool with JSON encoded arguments.
func (d *Dispatcher) Execute(ctx context.Context, name string, rawArgs string) Result {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	kind, err := ParseKind(name)
	if err != nil {
		logger.WarnContext(ctx, "Model requested unknown tool", "tool", name)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown tool")
		executions.Add(ctx, 1, metric.WithAttributes(attribute.String("tool.name", "unknown")))
		return errorResult(0, err, "Unknown tool: "+name)
	}
	executions.Add(ctx, 1, metric.WithAttributes(attribute.String("tool.name", kind.String())))

	result, err := d.run(kind, rawArgs)
	if err != nil {
		logger.WarnContext(ctx, "Tool execution failed", "tool", name, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool failed")
		return errorResult(kind, err, err.Error())
	}

	logger.InfoContext(ctx, "Executed tool", "tool", name, "args", rawArgs)
	span.SetAttributes(attribute.Bool("tool.end_call", result.EndCall))
	return result
}

func (d *Dispatcher) run(kind Kind, rawArgs string) (Result, error) {
	switch kind {
	case KindCompanyInfo:
		return encode(kind, companyInfo(d.kb), false)

	case KindMatchService:
		args, err := decodeArgs[MatchServiceArgs](rawArgs)
		if err != nil {
			return Result{}, err
		}
		return encode(kind, matchService(d.kb, args), false)

	case KindObjectionResponse:
		args, err := decodeArgs[ObjectionResponseArgs](rawArgs)
		if err != nil {
			return Result{}, err
		}
		return encode(kind, objectionResponse(d.kb, args), false)

	case KindScheduleNextStep:
		args, err := decodeArgs[ScheduleNextStepArgs](rawArgs)
		if err != nil {
			return Result{}, err
		}
		result, endCall, err := scheduleNextStep(args)
		if err != nil {
			return Result{}, err
		}
		return encode(kind, result, endCall)
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, kind)
}

// decodeArgs accepts empty and "null" arguments as the zero value, since
// models omit arguments for parameterless tools.
func decodeArgs[Args any](rawArgs string) (Args, error) {
	var args Args
	if rawArgs == "" || rawArgs == "null" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

func encode(kind Kind, payload any, endCall bool) (Result, error) {
	output, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode result: %w", err)
	}
	return Result{Kind: kind, Output: string(output), EndCall: endCall}, nil
}

func errorResult(kind Kind, err error, message string) Result {
	output, _ := json.Marshal(map[string]string{"error": message})
	return Result{Kind: kind, Output: string(output), Err: err}
}
