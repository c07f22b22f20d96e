// Command videotube runs the VideoTube API server and its database tooling.
//
// Usage:
//
//	videotube serve
//	videotube migrate [up|down|status]
//	videotube seed <name>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/videotube/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("videotube exited", "error", err)
		os.Exit(1)
	}
}
