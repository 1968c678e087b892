package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/ai"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/document"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/face"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/knowledge"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/mail"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/session"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/store"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/handler"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/middleware"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/service"
	"github.com/DanielCifuentes1997/AiVi-bot/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/joho/godotenv"
)

const sessionSweepInterval = time.Minute

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("🚀 Starting AiVi DIAN",
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"face_encoder", cfg.FaceEncoderURL,
		"mail_enabled", cfg.MailEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Database ─────────────────────────────────────────────────────────
	db, err := store.NewSQLStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database ready", "dialect", db.Dialect())

	// ── Face Index ───────────────────────────────────────────────────────
	index := service.NewFaceIndex(db, cfg.FaceMatchTolerance)
	if err := index.Rebuild(ctx); err != nil {
		slog.Error("failed to load face index", "error", err)
		os.Exit(1)
	}
	slog.Info("face index loaded", "identities", index.Len())

	encoder := face.NewHTTPEncoder(face.EncoderConfig{
		BaseURL: cfg.FaceEncoderURL,
		Token:   cfg.FaceEncoderToken,
	})

	// ── Generative Model ─────────────────────────────────────────────────
	var gen port.Generator
	gen, err = ai.NewGenerator(ctx, ai.Settings{
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		OllamaURL:   cfg.OllamaURL,
		OllamaToken: cfg.OllamaToken,
	})
	if err != nil {
		slog.Error("assistant disabled, generative model unavailable", "error", err)
	}

	knowledgeText, err := knowledge.Load(cfg.KnowledgePath)
	if err != nil {
		slog.Error("failed to read knowledge document, continuing without it", "error", err)
		knowledgeText = ""
	}
	slog.Info("knowledge loaded", "path", cfg.KnowledgePath, "chars", len(knowledgeText))

	// ── RUT Documents ────────────────────────────────────────────────────
	mapping, err := config.LoadFieldMapping(cfg.FieldMapFile, cfg.FieldMapRevision)
	if err != nil {
		slog.Error("failed to load RUT field mapping", "error", err)
		os.Exit(1)
	}
	if _, err := os.Stat(cfg.RUTTemplatePath); err != nil {
		slog.Warn("RUT template not readable, document creation will fail", "path", cfg.RUTTemplatePath, "error", err)
	}
	engine := document.NewPDFCPUEngine()

	// ── Mail ─────────────────────────────────────────────────────────────
	var mailer port.Mailer
	if cfg.MailEnabled() {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.MailTimeout,
		})
	}

	// ── Sessions ─────────────────────────────────────────────────────────
	sessions := session.NewMemoryStore(cfg.SessionIdleTimeout)
	go sessions.Run(ctx, sessionSweepInterval)

	// ── Services ─────────────────────────────────────────────────────────
	identityService := service.NewIdentityService(db, encoder, index, sessions, cfg.FaceTimeout)
	documentService := service.NewDocumentService(db, engine, mapping, cfg.RUTTemplatePath, cfg.RUTOutputDir)
	chatService := service.NewChatService(gen, sessions, knowledgeText, cfg.LLMTimeout)
	ratingService := service.NewRatingService(db, db, sessions, mailer, cfg.MailTimeout)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    16 * 1024 * 1024, // several webcam frames per registration
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowCredentials: true,
	}))
	sessionCookie := middleware.CookieConfig{
		Name:   cfg.SessionCookie,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.SessionIdleTimeout,
	}
	app.Use(middleware.SessionMiddleware(middleware.SessionConfig{
		Store:  sessions,
		Cookie: sessionCookie,
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(db))

	// Health check
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"app":       cfg.AppName,
			"assistant": chatService.Available(),
			"faces":     index.Len(),
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	identityHandler := handler.NewIdentityHandler(identityService, documentService, sessionCookie)
	identityHandler.Register(app)

	documentHandler := handler.NewDocumentHandler(documentService)
	documentHandler.Register(app)

	chatHandler := handler.NewChatHandler(chatService, ratingService)
	chatHandler.Register(app)

	if cfg.AuditToken != "" {
		auditHandler := handler.NewAuditHandler(db, cfg.AuditToken)
		auditHandler.Register(app)
	}

	// Browser client
	app.Get("/*", static.New(cfg.StaticDir))

	// ── Start ────────────────────────────────────────────────────────────
	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	ratingService.Wait()
}
