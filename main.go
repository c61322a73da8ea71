package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"staggermail/client"
	"staggermail/config"
	"staggermail/events"
	"staggermail/handlers/api"
	"staggermail/handlers/web"
	"staggermail/llm"
	"staggermail/locales"
	"staggermail/mailer"
	"staggermail/middleware"
	"staggermail/models"
	"staggermail/scheduler"
	"staggermail/storage"
	"staggermail/templates"
	"staggermail/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/sync/errgroup"
)

func newGenerator(cfg *config.Config) llm.Generator {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "ollama":
		return llm.NewOllamaClient(cfg.LLM.OllamaURL, cfg.LLM.Model)
	default:
		return llm.NewOpenAIClient(cfg.Secrets.OpenAIKey, cfg.Secrets.OpenAIBaseURL, cfg.LLM.Model, cfg.LLM.Temperature)
	}
}

func main() {
	utils.Log.Info("Initializing StaggerMail...")

	configPath := os.Getenv("STAGGERMAIL_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	utils.Log.SetLevel(utils.ParseLevel(cfg.Server.LogLevel))

	if err := utils.InitI18n(locales.FS); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	jobStore, err := storage.OpenJobStorage(cfg.Storage.DataDir)
	if err != nil {
		utils.Log.Error("Failed to open job storage: %v", err)
		os.Exit(1)
	}
	defer jobStore.Close()

	if cfg.Secrets.SMTPUser == "" || cfg.Secrets.SMTPPassword == "" {
		utils.Log.Warn("SMTP_USER/SMTP_PASSWORD not set; sends will fail until they are configured")
	}

	hub := events.NewHub(32)
	sender := mailer.NewSMTPClient(
		cfg.SMTP.Server,
		cfg.SMTP.GetPort(),
		cfg.Secrets.SMTPUser,
		cfg.Secrets.SMTPPassword,
		cfg.SMTP.UseSTARTTLS,
	)
	generator := newGenerator(cfg)

	sched := scheduler.New(jobStore, sender, hub)
	restored, err := sched.Restore()
	if err != nil {
		utils.Log.Error("Failed to restore jobs: %v", err)
	}
	utils.Log.Info("Restored %d job(s)", restored)
	sched.Start()

	app := fiber.New(fiber.Config{
		Views:        templates.NewEngine(),
		ViewsLayout:  "layouts/main",
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline';",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
	}))
	app.Use(middleware.LocaleMiddleware())

	app.Get("/assets/app.css", web.AppStyles.ServeCSS())

	// Form page
	backend := client.New(cfg.Backend.BaseURL, client.WithTimeout(cfg.Backend.Timeout()))
	controller := web.NewController(backend, func(d models.Draft) {
		utils.Log.Debug("Draft loading=%t status=%q", d.Loading, d.Status)
	})
	form := web.NewFormHandler(controller, cfg, func(c *fiber.Ctx) string {
		return middleware.GenerateCSRFToken(c)
	})

	app.Get("/", form.ShowForm)
	csrf := middleware.CSRFProtection()
	submitLimit := middleware.RateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window())
	app.Post("/recipients/add", csrf, form.HandleAddRecipient)
	app.Post("/recipients/remove", csrf, form.HandleRemoveRecipient)
	app.Post("/submit", submitLimit, csrf, form.HandleSubmit)

	// Backend API
	jobHandler := api.NewJobHandler(jobStore, sched, generator, sender)
	eventsHandler := api.NewEventsHandler(hub)
	i18nHandler := &api.I18nHandler{}
	// The form posts back through loopback; it is limited at /submit instead.
	limit := middleware.RateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window(), middleware.FromLoopback)

	app.Post("/schedule-staggered-email-job", limit, jobHandler.HandleSchedule)
	app.Post("/generate-and-send-email", limit, jobHandler.HandleSend)
	app.Get("/jobs", jobHandler.ListJobs)
	app.Get("/jobs/:id", jobHandler.GetJob)
	app.Delete("/jobs/:id", jobHandler.CancelJob)
	app.Get("/events", eventsHandler.HandleSSE)
	app.Get("/ws/events", api.UpgradeWebSocket, websocket.New(eventsHandler.HandleWebSocket))
	app.Get("/api/i18n/:lang", i18nHandler.GetTranslations)
	app.Get("/health", api.Health)

	app.Use(middleware.NotFound)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Log.Info("Starting server on port %d...", cfg.Server.Port)
		return app.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.Log.Info("Shutting down...")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.Log.Error("Server stopped: %v", err)
	}

	select {
	case <-sched.Stop().Done():
	case <-time.After(30 * time.Second):
		utils.Log.Warn("Timed out waiting for running sends to finish")
	}
}
