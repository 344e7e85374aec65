package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fithub/config"
	"fithub/handlers"
	"fithub/services"
	"fithub/storage"
	"fithub/storage/remote"
	"fithub/utils"
	"fithub/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, err := storage.OpenLocal(ctx, cfg.LocalDB)
	if err != nil {
		log.Fatal("failed to open local store:", err)
	}
	defer local.Close()

	var backend services.Backend = local
	var directory services.Directory = local
	var dsn string

	if cfg.StorageMode == config.StorageRemote {
		dsn, err = cfg.ResolveDatabaseURL(ctx)
		if err != nil {
			log.Fatal("failed to resolve database url:", err)
		}
		db, err := remote.OpenPostgres(dsn)
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		rem := remote.New(db)
		if err := rem.Migrate(ctx); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
		backend = storage.NewHybrid(local, rem)
		directory = rem
		log.Println("✅ Remote storage enabled")
	}

	engine := services.NewEngine(cfg.Policy, time.Now)
	store := services.NewStore(engine, backend)

	scheduler, err := workers.NewScheduler(store, cfg.MaintenanceInterval)
	if err != nil {
		log.Fatal("failed to create scheduler:", err)
	}
	store.SetReminderArmer(scheduler)

	if err := store.Open(ctx); err != nil {
		log.Fatal("failed to load state:", err)
	}
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	if cfg.StorageMode == config.StorageRemote {
		listener := workers.NewChangeListener(dsn, remote.ChangeChannel, store)
		go listener.Run(ctx)
	}

	var proofs handlers.ProofStore
	if cfg.R2Enabled() {
		r2, err := utils.NewR2ProofStore(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		proofs = r2
		log.Printf("✅ Proof uploads go to R2 bucket %s", cfg.R2.Bucket)
	} else {
		disk, err := utils.NewLocalProofStore(cfg.UploadDir, cfg.UploadURL)
		if err != nil {
			log.Fatal("failed to ensure upload dir:", err)
		}
		proofs = disk
	}

	auth := services.NewAuthService(directory, store, cfg.BcryptCost)

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // 50MB, check-in videos
	})
	app.Use(recover.New())
	app.Use(logger.New())

	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(allowedOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With, Cache-Control",
		MaxAge:       86400,
	}))

	handlers.SetupRoutes(app, handlers.New(store, auth, proofs), cfg.AdminToken)
	app.Static(cfg.UploadURL, cfg.UploadDir)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s (%s storage)", cfg.HTTPAddr, cfg.StorageMode)
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown: %v", err)
	}
}
