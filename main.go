package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jarvis/internal/api"
	"jarvis/internal/auth"
	"jarvis/internal/capability"
	"jarvis/internal/config"
	"jarvis/internal/dispatch"
	"jarvis/internal/intent"
	"jarvis/internal/logging"
	"jarvis/internal/provider"
	"jarvis/internal/search"
	"jarvis/internal/skills"
	"jarvis/internal/store"
	"jarvis/internal/watcher"
)

const version = "1.0.0"

const tokenCleanupInterval = time.Hour

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	envFile := flag.String("env", ".env", "path to dotenv file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := run(cfg); err != nil {
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup, including the final log
// file flush, happens on startup failures too. Errors are logged before
// they are returned.
func run(cfg *config.Config) (err error) {

	// Console always, plus a rotating file when configured
	out := logging.NewMultiWriter(os.Stdout, nil)
	if cfg.Logging.File != "" {
		fileWriter, err := logging.NewFileWriter(cfg.Logging.File, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
		if err != nil {
			log.Printf("Failed to open log file: %v", err)
			return err
		}
		defer fileWriter.Close()
		out = logging.NewMultiWriter(os.Stdout, fileWriter)
	}
	logger := logging.NewLogger("main", logging.ParseLevel(cfg.Logging.Level), out)
	defer func() {
		if err != nil {
			logger.Error("%v", err)
		}
	}()
	logger.Info("Starting Jarvis v%s...", version)
	for _, w := range cfg.Warnings() {
		logger.Warn("%s", w)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store with migrations
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()
	logger.Info("Database initialized (%s)", cfg.Database.Driver)
	go cleanupTokens(ctx, st, tokenCleanupInterval, logger.Named("store"))

	authenticator := auth.NewAuthenticator(st, notifierFor(cfg.Mail, logger), auth.Options{
		AdminUsername:     cfg.Admin.Username,
		AdminPassword:     cfg.Admin.Password,
		OTPTTL:            time.Duration(cfg.Auth.OTPTTLMinutes) * time.Minute,
		SessionTTL:        time.Duration(cfg.Auth.SessionExpiryDays) * 24 * time.Hour,
		ConsumeOTPOnReset: cfg.Auth.ConsumeOTPOnReset,
	}, logger.Named("auth"))

	providers, err := provider.NewManager(cfg, logger.Named("provider"))
	if err != nil {
		return fmt.Errorf("failed to initialize LLM providers: %w", err)
	}
	logger.Info("LLM providers: %s", providers.Describe())

	classifier := intent.NewClassifier(
		providers.Classifier(),
		loadPrompt(cfg.Intent.PromptFile, logger),
		cfg.Intent.MaxAttempts,
		time.Duration(cfg.Intent.TimeoutSeconds)*time.Second,
		logger.Named("intent"),
	)

	// Skills back the automation capability
	var registry *skills.Registry
	if cfg.Skills.Enabled {
		registry = skills.NewRegistry(skills.NewLoader(cfg.Skills.Dir, logger.Named("skills")), logger.Named("skills"))
		if err := registry.Reload(); err != nil {
			logger.Warn("Failed to load skills: %v", err)
		} else {
			logger.Info("Loaded %d skills", len(registry.List()))
		}
	}

	if cfg.Skills.WatchChanges {
		w, err := watcher.NewWatcher(watcher.DefaultDebounce, logger.Named("watcher"))
		if err != nil {
			return fmt.Errorf("failed to initialize watcher: %w", err)
		}
		defer w.Close()
		if registry != nil {
			if err := w.WatchDir("skills", cfg.Skills.Dir, reloadSkills(registry, logger)); err != nil {
				logger.Warn("Failed to watch skills directory %s: %v", cfg.Skills.Dir, err)
			}
		}
		if cfg.Intent.PromptFile != "" {
			if err := w.WatchFile("classifier prompt", cfg.Intent.PromptFile, reloadPrompt(classifier, cfg.Intent.PromptFile, logger)); err != nil {
				logger.Warn("Failed to watch prompt file %s: %v", cfg.Intent.PromptFile, err)
			}
		}
		w.Start(ctx)
	}

	persona := capability.Persona{AssistantName: cfg.Assistant.Name, DefaultUser: cfg.Assistant.UserName}
	searcher := search.NewClient(search.Config{
		Endpoint:   cfg.Search.Endpoint,
		MaxResults: cfg.Search.MaxResults,
		FetchPages: cfg.Search.FetchPages,
		Timeout:    time.Duration(cfg.Search.TimeoutSeconds) * time.Second,
	}, logger.Named("search"))

	dispatcher := dispatch.New(classifier, dispatch.Handlers{
		Chat:          capability.NewChat(providers.Chat(), persona, logger.Named("chat")),
		Writer:        capability.NewWriter(providers.Chat(), st, logger.Named("writer")),
		Realtime:      capability.NewRealtime(providers.Chat(), searcher, persona, logger.Named("realtime")),
		OpenSite:      capability.OpenSite,
		GoogleSearch:  capability.GoogleSearch,
		YouTubeSearch: capability.YouTubeSearch,
		Automation:    capability.NewAutomation(skillMatcherFor(cfg.Skills, registry), skills.NewExecutor(logger.Named("skills")), logger.Named("automation")),
	}, st, logger.Named("dispatch"))

	hub := api.NewHub(logger.Named("ws"))
	go hub.Run(ctx)
	dispatcher.SetActivitySink(hub)

	apiServer := api.NewServer(authenticator, dispatcher, speakerFor(cfg.Speech, logger), st, hub, api.ServerConfig{
		SecureCookies:      cfg.Server.SecureCookies,
		RateLimitPerMinute: cfg.Auth.RateLimitPerMinute,
		RateLimitBurst:     cfg.Auth.RateLimitBurst,
	}, logger.Named("api"))
	logger.Info("API server initialized")

	// Generation and realtime search stream a full completion before
	// responding, so the write timeout is longer than the read timeout
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      apiServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening on http://%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err = <-serveErr:
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server shutdown: %v", err)
	}
	cancel()
	logger.Info("Jarvis stopped")
	return err
}
