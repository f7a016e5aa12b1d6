package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/sentivault/internal/logging"
	"github.com/dmitrijs2005/sentivault/internal/server"
	"github.com/dmitrijs2005/sentivault/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		logger.Error(ctx, "close", "error", err)
	}
	if runErr != nil {
		log.Fatalf("%v", runErr)
	}

}
