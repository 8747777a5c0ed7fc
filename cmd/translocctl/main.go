package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/translocations/internal/admin"
	"github.com/JonMunkholm/translocations/internal/cli"
	"github.com/JonMunkholm/translocations/internal/config"
	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/logging"
)

func main() {
	_ = godotenv.Load()

	open := func(ctx context.Context) (*core.Service, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

		svc, store, err := admin.Open(ctx, cfg, nil)
		if err != nil {
			return nil, nil, err
		}
		return svc, func() {
			if err := store.Close(context.Background()); err != nil {
				slog.Warn("store close error", "error", err)
			}
		}, nil
	}

	if err := cli.RootCommand(open).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}
