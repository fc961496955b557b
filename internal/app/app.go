package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/riskibarqy/fpl-pulse/external/fplapi"
	"github.com/riskibarqy/fpl-pulse/internal/config"
	"github.com/riskibarqy/fpl-pulse/internal/interfaces/httpapi"
	"github.com/riskibarqy/fpl-pulse/internal/platform/filecache"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
	"github.com/riskibarqy/fpl-pulse/internal/usecase"
)

// Services bundles the wired use-case layer for the binaries.
type Services struct {
	Data    *usecase.DataService
	Rolling *usecase.RollingService
	Squad   *usecase.SquadService
}

func NewServices(cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	store, err := filecache.NewStore(cfg.FPLCacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("init cache store: %w", err)
	}

	client := fplapi.NewClient(fplapi.ClientConfig{
		BaseURL: cfg.FPLBaseURL,
		Logger:  logger,
	})

	ttls := usecase.CacheTTLs{
		Bootstrap:     cfg.BootstrapTTL,
		PlayerHistory: cfg.PlayerHistoryTTL,
		Fixtures:      cfg.FixturesTTL,
		TeamPicks:     cfg.TeamPicksTTL,
		Results:       cfg.ResultsTTL,
	}

	dataSvc := usecase.NewDataService(client, store, ttls, logger)
	rollingSvc := usecase.NewRollingService(dataSvc, cfg.RollingWorkers, logger)
	squadSvc := usecase.NewSquadService(dataSvc, rollingSvc, logger)

	return &Services{
		Data:    dataSvc,
		Rolling: rollingSvc,
		Squad:   squadSvc,
	}, nil
}

func NewHTTPServer(cfg config.Config, services *Services, logger *slog.Logger) (*http.Server, error) {
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}

	handler := httpapi.NewHandler(services.Data, services.Rolling, services.Squad, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
