package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"speechable/internal/adapter/repo"
	"speechable/internal/credits"
	"speechable/internal/extractor"
	"speechable/internal/http/handlers"
	"speechable/internal/http/httpapi"
	"speechable/internal/infra"
	"speechable/internal/infra/geoip"
	"speechable/internal/ocr"
	"speechable/internal/providers/completion"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	db := infra.NewSQLRunner(dbpool, logger)

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer func() { _ = geo.Close() }()

	extractOpts := extractor.Options{
		Fetcher: extractor.NewHTTPFetcher(extractor.WithTimeout(cfg.FetchTimeout)),
		Logger:  logger,
	}
	if cfg.ScreenshotEnabled {
		browser := extractor.BrowserConfig{NoSandbox: cfg.IsProduction()}
		if cfg.AppEnv != "development" {
			browser.ControlURL = cfg.BrowserControlURL
			browser.Bin = cfg.ChromeBin
		}
		shots := extractor.NewRodScreenshotter(browser, extractor.DefaultNavigationTimeout)
		defer func() { _ = shots.Close() }()
		extractOpts.Screenshotter = shots
	}

	app := &handlers.App{
		Logger:    logger,
		Extractor: extractor.New(extractOpts),
		Credits:   credits.NewGate(repo.NewCreditRepository(db), cfg.CreditsPerToken(), logger),
		Documents: repo.NewDocumentRepository(db),
		Usage:     repo.NewUsageRepository(db),
		Ping:      dbpool.Ping,
	}
	if cfg.DeepInfraAPIKey != "" {
		client, err := completion.NewClient(completion.Options{
			APIKey:  cfg.DeepInfraAPIKey,
			Model:   cfg.DeepInfraModel,
			BaseURL: cfg.DeepInfraBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure completion client")
		}
		app.Completion = client
	} else {
		logger.Warn().Msg("DEEPINFRA_API_KEY not set, text transforms disabled")
	}
	if cfg.OCRServiceURL != "" {
		recognizer, err := ocr.NewRemoteRecognizer(ocr.RemoteOptions{URL: cfg.OCRServiceURL, APIKey: cfg.OCRAPIKey})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure ocr")
		}
		app.Recognizer = ocr.NewService(recognizer, logger)
	} else {
		logger.Warn().Msg("OCR_SERVICE_URL not set, ocr disabled")
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   geo.Lookup(),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("env", cfg.AppEnv).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
