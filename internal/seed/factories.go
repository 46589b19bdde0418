package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"threadboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded account logs in with.
const DefaultPassword = "password123"

var tagPool = []string{
	"go", "postgres", "redis", "docker", "kubernetes", "api", "auth", "performance",
	"bug", "question", "howto", "release", "frontend", "deploy", "search", "ai",
}

// Factory builds forum entities with realistic fake content and persists them.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	now   time.Time

	passwordHash string
	seq          int
}

// NewFactory creates a Factory bound to db. A zero Options.RandSeed picks a time-based seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	opts = opts.withDefaults()
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), now: time.Now()}
}

func (f *Factory) hashPassword() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", err
	}
	f.passwordHash = string(hashed)
	return f.passwordHash, nil
}

// pastTime returns a random instant between notBefore (or MaxDays ago) and now.
func (f *Factory) pastTime(notBefore time.Time) time.Time {
	start := f.now.AddDate(0, 0, -f.opts.MaxDays)
	if notBefore.After(start) {
		start = notBefore
	}
	if !start.Before(f.now) {
		return f.now
	}
	return f.faker.DateRange(start, f.now)
}

// BuildUser returns an unsaved member with a unique email address.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.hashPassword()
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	f.seq++
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Name:       first + " " + last,
		Email:      strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, f.seq)),
		Password:   hash,
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Reputation: f.faker.Number(0, 500),
		Role:       models.RoleUser,
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser builds and persists a member.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildThread returns an unsaved thread authored by author.
func (f *Factory) BuildThread(author *models.User, overrides ...func(*models.Thread)) *models.Thread {
	category := f.faker.RandomString(models.Categories)
	if category == models.CategoryAnnounce && !author.IsAdmin() {
		category = models.DefaultCategory
	}

	tags := make([]string, 0, 3)
	for i := f.faker.Number(0, 3); i > 0; i-- {
		tags = append(tags, f.faker.RandomString(tagPool))
	}

	title := strings.TrimSpace(f.faker.Question())
	if len(title) > models.MaxTitleLength {
		title = title[:models.MaxTitleLength]
	}

	created := f.pastTime(time.Time{})
	thread := &models.Thread{
		Title:     title,
		Content:   f.faker.Paragraph(f.faker.Number(1, 3), f.faker.Number(2, 5), 12, "\n\n"),
		AuthorID:  author.ID,
		Category:  category,
		Tags:      models.NormalizeTags(dedupe(tags)),
		Status:    models.ThreadStatusOpen,
		Views:     int64(f.faker.Number(0, 2500)),
		IsPinned:  f.faker.Number(1, 100) <= 5,
		IsLocked:  f.faker.Number(1, 100) <= 3,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(thread)
	}
	return thread
}

// CreateThread builds and persists a thread.
func (f *Factory) CreateThread(ctx context.Context, author *models.User, overrides ...func(*models.Thread)) (*models.Thread, error) {
	thread := f.BuildThread(author, overrides...)
	if err := f.db.WithContext(ctx).Omit(clause.Associations).Create(thread).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

// BuildReply returns an unsaved reply posted after the thread was created.
func (f *Factory) BuildReply(thread *models.Thread, author *models.User, overrides ...func(*models.Reply)) *models.Reply {
	created := f.pastTime(thread.CreatedAt)
	reply := &models.Reply{
		ThreadID:  thread.ID,
		AuthorID:  author.ID,
		Content:   f.faker.Paragraph(1, f.faker.Number(1, 3), 10, " "),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(reply)
	}
	return reply
}

// CreateReply builds and persists a reply.
func (f *Factory) CreateReply(ctx context.Context, thread *models.Thread, author *models.User, overrides ...func(*models.Reply)) (*models.Reply, error) {
	reply := f.BuildReply(thread, author, overrides...)
	if err := f.db.WithContext(ctx).Omit(clause.Associations).Create(reply).Error; err != nil {
		return nil, err
	}
	return reply, nil
}

// pickUsers returns up to n distinct users in random order.
func (f *Factory) pickUsers(users []*models.User, n int) []*models.User {
	if n > len(users) {
		n = len(users)
	}
	shuffled := append([]*models.User(nil), users...)
	f.faker.ShuffleAnySlice(shuffled)
	return shuffled[:n]
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
