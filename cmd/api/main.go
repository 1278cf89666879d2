package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justsurfingit/career-atlas/internal/auth"
	"github.com/justsurfingit/career-atlas/internal/cache"
	"github.com/justsurfingit/career-atlas/internal/config"
	"github.com/justsurfingit/career-atlas/internal/database"
	"github.com/justsurfingit/career-atlas/internal/docstore"
	"github.com/justsurfingit/career-atlas/internal/events"
	"github.com/justsurfingit/career-atlas/internal/handlers"
	"github.com/justsurfingit/career-atlas/internal/imaging"
	"github.com/justsurfingit/career-atlas/internal/services"
	"github.com/justsurfingit/career-atlas/internal/upload"
)

func main() {
	// 1. Load Environment Variables
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Document store
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open store: %v", err)
	}
	defer store.Close()

	// 3. Job detail cache
	var jobCache cache.JobCache
	if cfg.RedisAddr != "" {
		rc := cache.NewRedisJobCache(cfg.RedisAddr, "career-atlas:job:", cfg.JobCacheTTL)
		if err := rc.Ping(ctx); err != nil {
			log.Printf("⚠️ Redis unavailable at %s, job cache disabled: %v", cfg.RedisAddr, err)
			_ = rc.Close()
		} else {
			log.Println("✅ Redis job cache connected")
			jobCache = rc
			defer rc.Close()
		}
	}

	// 4. Activity events
	var publisher events.Publisher = events.Noop{}
	if cfg.KafkaBroker != "" {
		producer := events.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		log.Printf("✅ Publishing activity to %s/%s", cfg.KafkaBroker, cfg.KafkaTopic)
	}

	// 5. Core services
	jobService := services.NewJobService(store, jobCache)
	jobService.SearchFetchLimit = cfg.SearchFetchLimit

	llmService, err := services.NewLLMService(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Printf("⚠️ Job extraction disabled: %v", err)
	}

	compressor := imaging.NewCompressor()
	defer compressor.Close()
	uploader := upload.NewClient(cfg.UploadBaseURL, cfg.UploadAPIKey)

	favorites := services.NewFavoritesService(store, jobService, publisher)
	applications := services.NewApplicationsService(store, jobService, publisher)
	profiles := services.NewProfileService(store, uploader, compressor)

	// 6. Identity provider
	var (
		identity auth.IdentityProvider
		flow     handlers.OAuthFlow
	)
	if cfg.GoogleCredentialsFile != "" {
		google, err := auth.NewGoogleProvider(cfg.GoogleCredentialsFile, cfg.GoogleRedirectURL)
		if err != nil {
			log.Printf("⚠️ Google sign-in disabled: %v", err)
		} else {
			identity, flow = google, google
			log.Println("✅ Google sign-in configured")
		}
	} else {
		log.Println("⚠️ GOOGLE_CREDENTIALS_FILE not set, sign-in disabled")
	}

	// 7. Router
	router := handlers.NewRouter(handlers.RouterConfig{
		Jobs:             handlers.NewJobHandler(llmService, jobService, cfg.PageSize),
		Users:            handlers.NewUserHandler(favorites, applications, profiles),
		Auth:             handlers.NewAuthHandler(flow),
		Identity:         identity,
		AdminAPIKey:      cfg.AdminAPIKey,
		UploadRatePerMin: cfg.UploadRatePerMin,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Printf("🚀 Server starting on %s...", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Shutdown: %v", err)
	}
}

func openStore(cfg config.Config) (docstore.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		store := docstore.NewMemoryStore()
		if cfg.SeedFile != "" {
			docs, err := docstore.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				return nil, err
			}
			store = docstore.NewMemoryStore(docs...)
			log.Printf("📦 Loaded %d jobs from %s", len(docs), cfg.SeedFile)
		}
		log.Println("⚠️ Using in-memory store, data is lost on restart")
		return store, nil
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return docstore.NewPostgresStore(db), nil
}
