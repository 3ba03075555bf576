package server

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-callbot/internal/server"

var logger = otelslog.NewLogger(scopeName)
