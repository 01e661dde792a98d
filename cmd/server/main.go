// Command server runs the json-auditor HTTP API.
//
// Configuration comes from CONFIG_PATH (default ./auditor.yaml) and
// environment variables. SIGINT and SIGTERM trigger a graceful shutdown.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/json-auditor/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
