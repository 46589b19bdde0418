// Package seed populates the forum database with demo data for development and testing.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/repository"

	"gorm.io/gorm"
)

// Options controls the size and shape of the seeded data.
type Options struct {
	NumUsers   int
	NumThreads int
	// MaxReplies caps the replies generated per thread.
	MaxReplies int
	// MaxDays spreads created_at timestamps over the last MaxDays days.
	MaxDays int
	// FastHash hashes the shared password at bcrypt.MinCost.
	FastHash    bool
	ShouldClean bool
	// RandSeed makes a run reproducible when non-zero.
	RandSeed int64
}

func (o Options) withDefaults() Options {
	if o.NumUsers <= 0 {
		o.NumUsers = 20
	}
	if o.NumThreads < 0 {
		o.NumThreads = 0
	}
	if o.MaxReplies < 0 {
		o.MaxReplies = 0
	}
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	return o
}

// Result counts what a seeding run created.
type Result struct {
	Users   int
	Threads int
	Replies int
	Likes   int
}

// Seed fills db with users, threads, replies and likes.
// Likes and accepted answers go through the repositories so counters and thread status stay consistent.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	if opts.ShouldClean {
		if err := ClearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)
	likes := repository.NewLikeRepository(db)
	replies := repository.NewReplyRepository(db)
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	res.Users = len(users)
	middleware.Logger.Info("Seeded users", slog.Int("count", res.Users))

	for i := 0; i < opts.NumThreads; i++ {
		author := f.pickUsers(users, 1)[0]
		thread, err := f.CreateThread(ctx, author)
		if err != nil {
			return nil, fmt.Errorf("failed to create thread: %w", err)
		}
		res.Threads++

		var posted []*models.Reply
		for j := f.faker.Number(0, opts.MaxReplies); j > 0; j-- {
			reply, err := f.CreateReply(ctx, thread, f.pickUsers(users, 1)[0])
			if err != nil {
				return nil, fmt.Errorf("failed to create reply: %w", err)
			}
			posted = append(posted, reply)
		}
		res.Replies += len(posted)

		for _, liker := range f.pickUsers(users, f.faker.Number(0, len(users)/2)) {
			if _, err := likes.Toggle(ctx, models.LikeTargetThread, thread.ID, liker.ID); err != nil {
				return nil, fmt.Errorf("failed to like thread %d: %w", thread.ID, err)
			}
			res.Likes++
		}
		for _, reply := range posted {
			for _, liker := range f.pickUsers(users, f.faker.Number(0, 3)) {
				if _, err := likes.Toggle(ctx, models.LikeTargetReply, reply.ID, liker.ID); err != nil {
					return nil, fmt.Errorf("failed to like reply %d: %w", reply.ID, err)
				}
				res.Likes++
			}
		}

		if len(posted) > 0 && f.faker.Number(1, 100) <= 30 {
			answer := posted[f.faker.Number(0, len(posted)-1)]
			if err := replies.Accept(ctx, answer); err != nil {
				return nil, fmt.Errorf("failed to accept reply %d: %w", answer.ID, err)
			}
		}
	}

	middleware.Logger.Info("Database seeding completed",
		slog.Int("users", res.Users),
		slog.Int("threads", res.Threads),
		slog.Int("replies", res.Replies),
		slog.Int("likes", res.Likes),
	)
	return res, nil
}

// ClearData removes every forum row. PostgreSQL sequences are reset as well.
func ClearData(db *gorm.DB) error {
	middleware.Logger.Info("Clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE likes, replies, threads, users RESTART IDENTITY CASCADE`).Error
	}
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Like{}, &models.Reply{}, &models.Thread{}, &models.User{}} {
			if err := tx.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
