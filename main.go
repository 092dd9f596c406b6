package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AnTengye/jurieasy/config"
	"github.com/AnTengye/jurieasy/handler"
	"github.com/AnTengye/jurieasy/middleware"
	"github.com/AnTengye/jurieasy/model"
	"github.com/AnTengye/jurieasy/pkg/logger"
	"github.com/AnTengye/jurieasy/render"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
)

// store is what the API needs from a persistence backend.
type store interface {
	service.TemplateSource
	service.TemplateWriter
	service.DocumentRepository
	service.LibraryRepository
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully", "driver", cfg.Database.Driver)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, closeDB, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	if cfg.Templates.Dir != "" {
		templates, err := service.LoadTemplateDir(cfg.Templates.Dir)
		if err != nil {
			slog.Error("failed to load templates", "error", err)
			os.Exit(1)
		}
		if err := service.SeedTemplates(ctx, db, templates); err != nil {
			slog.Error("failed to seed templates", "error", err)
			os.Exit(1)
		}
	}

	// Object storage is optional; without it exports are download-only.
	var artifacts service.ArtifactStore
	if cfg.Minio.Endpoint != "" {
		minioStore, err := service.NewMinioStore(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize MINIO store", "error", err)
			os.Exit(1)
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			slog.Error("failed to ensure MINIO bucket", "error", err)
			os.Exit(1)
		}
		artifacts = minioStore
	}

	esign := service.NewESignService(&cfg.ESign)
	if !esign.Enabled() {
		slog.Info("e-signature provider not configured")
	}

	signatures := service.NewSignatureStore(cfg.Store.MaxDocuments)
	exporter := render.NewExporter(render.OptionsFromConfig(cfg.Render))
	exports := service.NewExportService(exporter, artifacts, esign, signatures)

	autosaver := service.NewAutosaver(cfg.Wizard.AutosaveDebounce())
	manager := service.NewSessionManager(db, db, autosaver, cfg.Wizard.SessionTTL())
	hub := handler.NewLiveHub()
	manager.SetNotifier(hub.Publish)
	if exports.Storing() {
		// completed documents keep a PDF copy in object storage
		manager.SetOnComplete(func(doc *model.UserDocument, tmpl *model.DocumentTemplate) {
			go func() {
				if err := exports.Archive(ctx, doc, tmpl); err != nil {
					slog.Warn("failed to archive completed document", "document_id", doc.ID, "error", err)
				}
			}()
		})
	}
	go manager.Run(ctx)

	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(cfg),
		Templates: handler.NewTemplateHandler(db),
		Documents: handler.NewDocumentHandler(db, manager, exports),
		Wizard:    handler.NewWizardHandler(manager),
		Export:    handler.NewExportHandler(manager, exports),
		Library:   handler.NewLibraryHandler(db, service.NewSuggester(db, cfg.Wizard.SuggestionLimit)),
		Callback:  handler.NewCallbackHandler(exports),
		Live:      hub,
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger("/health"))
	router.Use(corsMiddleware())
	router.Use(cacheMiddleware())
	router.Use(middleware.RateLimit(300, time.Minute))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"sessions":  manager.Count(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Answer edits autosave as the user types, so the per-user budget is
	// larger than the per-IP one.
	userLimiter := middleware.NewRateLimiter(600, time.Minute)
	handlers.Register(router.Group("/api"),
		middleware.AuthMiddleware(&cfg.Auth),
		middleware.RateLimitBy(userLimiter, middleware.UserKey),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	hub.Close()
	stop()

	// pending answer edits are written before the store closes
	autosaver.Flush(shutdownCtx)
	autosaver.Stop()

	slog.Info("server exited gracefully")
}

// openStore opens the backend named by the database driver and returns a
// close function.
func openStore(cfg *config.Config) (store, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		return service.NewMemoryStore(&cfg.Store), func() {}, nil
	case "sqlite":
		db, err := service.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				slog.Error("failed to close database", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition, X-Page-Count")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheMiddleware keeps API responses out of caches. Exported files carry
// personal data.
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
