package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", handler.Health)
	mux.HandleFunc("POST /voice", handler.Voice)
	mux.HandleFunc("GET "+handler.WebsocketPath, handler.MediaStream)
	mux.HandleFunc("GET "+handler.WebsocketPath+"/{callSid}", handler.MediaStream)
	mux.HandleFunc("GET /calls", handler.ActiveCalls)

	return otelhttp.NewHandler(mux, "callbot")
}
