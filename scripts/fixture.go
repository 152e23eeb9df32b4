// Fixture serves a local friend-link world for manual runs: a manifest at
// /api/links.json, sites with fixed behavior under /site/, and an imitation
// of the delegated status API at /api/status.
//
// Usage:
//
//	go run ./scripts --port 8081
//	LINKPULSE_DELEGATED_ENDPOINT=http://localhost:8081/api/status \
//		linkpulse --source http://localhost:8081/api/links.json
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/angeloszaimis/linkpulse/internal/fixture"
	"github.com/angeloszaimis/linkpulse/pkg/logger"
)

func main() {
	port := pflag.Int("port", 8081, "port to listen on")
	level := pflag.String("log-level", "debug", "log level")
	pflag.Parse()

	log := logger.New(*level, false, "dev")
	fx := fixture.New(nil, log)

	addr := fmt.Sprintf(":%d", *port)
	log.Info("Starting fixture", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, fx.Handler()); err != nil {
		log.Error("Fixture server failed", slog.Any("err", err))
		os.Exit(1)
	}
}
