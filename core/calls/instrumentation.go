package calls

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-callbot/core/calls"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	activeCalls, _ = meter.Int64UpDownCounter("callbot.calls.active",
		metric.WithDescription("Calls with a running media stream session"))
)
