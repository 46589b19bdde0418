// Command main populates the forum database with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"threadboard/internal/bootstrap"
	"threadboard/internal/config"
	"threadboard/internal/database"
	"threadboard/internal/middleware"
	"threadboard/internal/repository"
	"threadboard/internal/search"
	"threadboard/internal/seed"

	"gorm.io/gorm"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numThreads := flag.Int("threads", 200, "Number of threads to create")
	maxReplies := flag.Int("replies", 8, "Maximum replies per thread")
	maxDays := flag.Int("days", 90, "Spread timestamps over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash the shared password at minimum bcrypt cost")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	res, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:    *numUsers,
		NumThreads:  *numThreads,
		MaxReplies:  *maxReplies,
		MaxDays:     *maxDays,
		FastHash:    *fast,
		ShouldClean: *shouldClean,
		RandSeed:    *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// cleaning wipes the configured admin along with everyone else
	if err := bootstrap.EnsureAdmin(ctx, cfg, repository.NewUserRepository(db)); err != nil {
		log.Fatalf("Admin bootstrap failed: %v", err)
	}

	if cfg.MeiliURL != "" {
		reindex(ctx, db, search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey))
	}

	middleware.Logger.Info("Seeding finished",
		slog.Int("users", res.Users),
		slog.Int("threads", res.Threads),
		slog.String("password", seed.DefaultPassword),
	)
}

func reindex(ctx context.Context, db *gorm.DB, meili *search.Meili) {
	defer meili.Close()
	svc := search.NewService(meili)
	if enabled, healthy := svc.Healthy(); !enabled || !healthy {
		middleware.Logger.Warn("Search index unavailable; skipping reindex")
		return
	}

	indexed, err := svc.ReindexAll(ctx, repository.PageRecent(repository.NewThreadRepository(db)))
	if err != nil {
		middleware.Logger.Error("Reindex failed", slog.String("error", err.Error()))
		return
	}
	middleware.Logger.Info("Search index rebuilt", slog.Int("threads", indexed))
}
