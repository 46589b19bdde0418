package service

import (
	"context"
	"errors"
	"testing"

	"threadboard/internal/models"
	"threadboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threadRepoStub is a stub for repository.ThreadRepository.
type threadRepoStub struct {
	listFn          func(context.Context, repository.ThreadListQuery) ([]*models.Thread, int64, error)
	getByIDFn       func(context.Context, uint) (*models.Thread, error)
	getAndIncrFn    func(context.Context, uint) (*models.Thread, error)
	createFn        func(context.Context, *models.Thread) error
	updateFn        func(context.Context, uint, map[string]interface{}) error
	deleteFn        func(context.Context, uint) error
	deleteRepliesFn func(context.Context, uint) (int64, error)
}

func (s *threadRepoStub) List(ctx context.Context, q repository.ThreadListQuery) ([]*models.Thread, int64, error) {
	return s.listFn(ctx, q)
}
func (s *threadRepoStub) GetByID(ctx context.Context, id uint) (*models.Thread, error) {
	return s.getByIDFn(ctx, id)
}
func (s *threadRepoStub) GetAndIncrementViews(ctx context.Context, id uint) (*models.Thread, error) {
	return s.getAndIncrFn(ctx, id)
}
func (s *threadRepoStub) Create(ctx context.Context, thread *models.Thread) error {
	return s.createFn(ctx, thread)
}
func (s *threadRepoStub) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFn(ctx, id, fields)
}
func (s *threadRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *threadRepoStub) DeleteReplies(ctx context.Context, threadID uint) (int64, error) {
	return s.deleteRepliesFn(ctx, threadID)
}

func noopThreadRepo() *threadRepoStub {
	return &threadRepoStub{
		listFn: func(_ context.Context, _ repository.ThreadListQuery) ([]*models.Thread, int64, error) {
			return nil, 0, nil
		},
		getByIDFn:       func(_ context.Context, id uint) (*models.Thread, error) { return &models.Thread{ID: id}, nil },
		getAndIncrFn:    func(_ context.Context, id uint) (*models.Thread, error) { return &models.Thread{ID: id}, nil },
		createFn:        func(_ context.Context, _ *models.Thread) error { return nil },
		updateFn:        func(_ context.Context, _ uint, _ map[string]interface{}) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		deleteRepliesFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// replyRepoStub is a stub for repository.ReplyRepository.
type replyRepoStub struct {
	listByThreadFn  func(context.Context, uint) ([]*models.Reply, error)
	getByIDFn       func(context.Context, uint) (*models.Reply, error)
	createFn        func(context.Context, *models.Reply, func(*models.Thread) error) error
	updateContentFn func(context.Context, uint, string) error
	deleteFn        func(context.Context, uint) error
	acceptFn        func(context.Context, *models.Reply) error
}

func (s *replyRepoStub) ListByThread(ctx context.Context, threadID uint) ([]*models.Reply, error) {
	return s.listByThreadFn(ctx, threadID)
}
func (s *replyRepoStub) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	return s.getByIDFn(ctx, id)
}
func (s *replyRepoStub) Create(ctx context.Context, reply *models.Reply, admit func(*models.Thread) error) error {
	return s.createFn(ctx, reply, admit)
}
func (s *replyRepoStub) UpdateContent(ctx context.Context, id uint, content string) error {
	return s.updateContentFn(ctx, id, content)
}
func (s *replyRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *replyRepoStub) Accept(ctx context.Context, reply *models.Reply) error {
	return s.acceptFn(ctx, reply)
}

func noopReplyRepo() *replyRepoStub {
	return &replyRepoStub{
		listByThreadFn: func(_ context.Context, _ uint) ([]*models.Reply, error) { return []*models.Reply{}, nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Reply, error) { return &models.Reply{ID: id}, nil },
		createFn: func(_ context.Context, r *models.Reply, admit func(*models.Thread) error) error {
			return admit(&models.Thread{ID: r.ThreadID})
		},
		updateContentFn: func(_ context.Context, _ uint, _ string) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		acceptFn:        func(_ context.Context, _ *models.Reply) error { return nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	toggleFn func(context.Context, models.LikeTarget, uint, uint) (*models.LikeResult, error)
}

func (s *likeRepoStub) Toggle(ctx context.Context, target models.LikeTarget, targetID, userID uint) (*models.LikeResult, error) {
	return s.toggleFn(ctx, target, targetID, userID)
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	setRoleFn    func(context.Context, uint, models.Role) error
	setAvatarFn  func(context.Context, uint, string) error
	countFn      func(context.Context) (int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) SetRole(ctx context.Context, id uint, role models.Role) error {
	return s.setRoleFn(ctx, id, role)
}
func (s *userRepoStub) SetAvatar(ctx context.Context, id uint, url string) error {
	return s.setAvatarFn(ctx, id, url)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return nil, models.NewNotFoundError("User", email)
		},
		createFn:    func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		setRoleFn:   func(_ context.Context, _ uint, _ models.Role) error { return nil },
		setAvatarFn: func(_ context.Context, _ uint, _ string) error { return nil },
		countFn:     func(_ context.Context) (int64, error) { return 0, nil },
	}
}

var (
	owner    = models.Principal{ID: 1, Role: models.RoleUser}
	stranger = models.Principal{ID: 2, Role: models.RoleUser}
	admin    = models.Principal{ID: 3, Role: models.RoleAdmin}
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// assertAppError asserts that err is an AppError carrying code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
