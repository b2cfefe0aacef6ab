package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/app"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/requestid"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(2)
	}

	logger := slog.New(requestid.NewHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: settings.LogLevel,
	}))).With("service", config.ServiceName)
	slog.SetDefault(logger)

	slog.Info("service_configured",
		"port", settings.Port,
		"ledger", settings.LedgerBackend,
		"gateways", len(settings.Gateways),
		"health_check_interval", settings.HealthCheckInterval.String(),
		"history_window", settings.HistoryWindow.String(),
	)

	app.New(settings).Run()
}
