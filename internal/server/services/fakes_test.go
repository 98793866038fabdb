package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/dbx"
	"github.com/streamfi/streamfi/internal/logging"
	"github.com/streamfi/streamfi/internal/server/livepeer"
	"github.com/streamfi/streamfi/internal/server/models"
	categoriesrepo "github.com/streamfi/streamfi/internal/server/repositories/categories"
	sessionsrepo "github.com/streamfi/streamfi/internal/server/repositories/sessions"
	tagsrepo "github.com/streamfi/streamfi/internal/server/repositories/tags"
	usersrepo "github.com/streamfi/streamfi/internal/server/repositories/users"
	tokensrepo "github.com/streamfi/streamfi/internal/server/repositories/verificationtokens"
	viewersrepo "github.com/streamfi/streamfi/internal/server/repositories/viewers"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// newSQLMockDB returns a DB whose only job in these tests is to hand out
// transactions; all statements run against the in-memory fakes below.
func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// sqlmockExpecter wraps sqlmock so tests can declare "one transaction
// happens here" without caring about the statements inside it.
type sqlmockExpecter struct {
	mock sqlmock.Sqlmock
}

func (e sqlmockExpecter) expectTx(t *testing.T) {
	t.Helper()
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
}

// --- users ---

type fakeUsersRepo struct {
	user *models.User

	setStreamCalls int
	clearCalls     int

	following map[string][]string
	followers map[string][]string
}

func newFakeUsersRepo(u *models.User) *fakeUsersRepo {
	return &fakeUsersRepo{
		user:      u,
		following: map[string][]string{},
		followers: map[string][]string{},
	}
}

func (f *fakeUsersRepo) match(wallet string) bool {
	return f.user != nil && strings.EqualFold(f.user.Wallet, wallet)
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.user != nil && (strings.EqualFold(f.user.Wallet, u.Wallet) || strings.EqualFold(f.user.Username, u.Username)) {
		return nil, common.ErrorConflict
	}
	u.ID = "u-new"
	u.StreamState = models.StreamUnconfigured
	f.user = u
	return u, nil
}

func (f *fakeUsersRepo) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	if !f.match(wallet) {
		return nil, common.ErrorNotFound
	}
	clone := *f.user
	return &clone, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.user == nil || !strings.EqualFold(f.user.Username, username) {
		return nil, common.ErrorNotFound
	}
	clone := *f.user
	return &clone, nil
}

func (f *fakeUsersRepo) GetByPlaybackID(ctx context.Context, playbackID string) (*models.User, error) {
	if f.user == nil || f.user.PlaybackID != playbackID {
		return nil, common.ErrorNotFound
	}
	clone := *f.user
	return &clone, nil
}

func (f *fakeUsersRepo) UpdateProfile(ctx context.Context, u *models.User) error {
	if !f.match(u.Wallet) {
		return common.ErrorNotFound
	}
	*f.user = *u
	return nil
}

func (f *fakeUsersRepo) SetEmailVerified(ctx context.Context, email string) error {
	if f.user == nil || !strings.EqualFold(f.user.Email, email) {
		return common.ErrorNotFound
	}
	f.user.EmailVerified = true
	return nil
}

func (f *fakeUsersRepo) SetStream(ctx context.Context, wallet, streamID, playbackID, streamKey string, creator models.CreatorProfile) error {
	f.setStreamCalls++
	if !f.match(wallet) || f.user.StreamState != models.StreamUnconfigured {
		return common.ErrorNotFound
	}
	f.user.LivepeerStreamID = streamID
	f.user.PlaybackID = playbackID
	f.user.StreamKey = streamKey
	f.user.Creator = creator
	f.user.StreamState = models.StreamIdle
	return nil
}

func (f *fakeUsersRepo) UpdateCreator(ctx context.Context, wallet string, creator models.CreatorProfile) error {
	if !f.match(wallet) {
		return common.ErrorNotFound
	}
	f.user.Creator = creator
	return nil
}

func (f *fakeUsersRepo) ClearStream(ctx context.Context, wallet string) error {
	f.clearCalls++
	if !f.match(wallet) {
		return common.ErrorNotFound
	}
	f.user.LivepeerStreamID = ""
	f.user.PlaybackID = ""
	f.user.StreamKey = ""
	f.user.StreamState = models.StreamUnconfigured
	f.user.CurrentViewers = 0
	f.user.StreamStartedAt = nil
	return nil
}

func (f *fakeUsersRepo) SetLive(ctx context.Context, wallet string, startedAt time.Time) error {
	if !f.match(wallet) || f.user.StreamState != models.StreamIdle {
		return common.ErrorNotFound
	}
	f.user.StreamState = models.StreamLive
	f.user.CurrentViewers = 0
	f.user.StreamStartedAt = &startedAt
	return nil
}

func (f *fakeUsersRepo) SetIdle(ctx context.Context, wallet string) error {
	if !f.match(wallet) || f.user.StreamState != models.StreamLive {
		return common.ErrorNotFound
	}
	f.user.StreamState = models.StreamIdle
	f.user.CurrentViewers = 0
	return nil
}

func (f *fakeUsersRepo) IncrementViewers(ctx context.Context, wallet string) (int, error) {
	if !f.match(wallet) {
		return 0, common.ErrorNotFound
	}
	f.user.CurrentViewers++
	f.user.TotalViews++
	return f.user.CurrentViewers, nil
}

func (f *fakeUsersRepo) DecrementViewers(ctx context.Context, wallet string) (int, error) {
	if !f.match(wallet) {
		return 0, common.ErrorNotFound
	}
	if f.user.CurrentViewers > 0 {
		f.user.CurrentViewers--
	}
	return f.user.CurrentViewers, nil
}

func (f *fakeUsersRepo) AddFollowing(ctx context.Context, username, target string) error {
	for _, v := range f.following[username] {
		if v == target {
			return nil
		}
	}
	f.following[username] = append(f.following[username], target)
	return nil
}

func (f *fakeUsersRepo) RemoveFollowing(ctx context.Context, username, target string) error {
	out := f.following[username][:0]
	for _, v := range f.following[username] {
		if v != target {
			out = append(out, v)
		}
	}
	f.following[username] = out
	return nil
}

func (f *fakeUsersRepo) AddFollower(ctx context.Context, username, follower string) error {
	for _, v := range f.followers[username] {
		if v == follower {
			return nil
		}
	}
	f.followers[username] = append(f.followers[username], follower)
	return nil
}

func (f *fakeUsersRepo) RemoveFollower(ctx context.Context, username, follower string) error {
	out := f.followers[username][:0]
	for _, v := range f.followers[username] {
		if v != follower {
			out = append(out, v)
		}
	}
	f.followers[username] = out
	return nil
}

// --- sessions ---

type fakeSessionsRepo struct {
	open    map[string]*models.StreamSession // keyed by user id
	counter int

	closed []string
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{open: map[string]*models.StreamSession{}}
}

func (f *fakeSessionsRepo) Open(ctx context.Context, userID string) (*models.StreamSession, error) {
	if _, ok := f.open[userID]; ok {
		return nil, common.ErrorConflict
	}
	f.counter++
	s := &models.StreamSession{
		ID:        fmt.Sprintf("sess-%d", f.counter),
		UserID:    userID,
		StartedAt: time.Now(),
	}
	f.open[userID] = s
	return s, nil
}

func (f *fakeSessionsRepo) GetOpen(ctx context.Context, userID string) (*models.StreamSession, error) {
	s, ok := f.open[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (f *fakeSessionsRepo) CloseOpen(ctx context.Context, userID string) (bool, error) {
	s, ok := f.open[userID]
	if !ok {
		return false, nil
	}
	now := time.Now()
	s.EndedAt = &now
	f.closed = append(f.closed, s.ID)
	delete(f.open, userID)
	return true, nil
}

func (f *fakeSessionsRepo) RecordViewer(ctx context.Context, sessionID string, currentViewers int, newUnique bool) error {
	for _, s := range f.open {
		if s.ID == sessionID {
			if currentViewers > s.PeakViewers {
				s.PeakViewers = currentViewers
			}
			if newUnique {
				s.UniqueViewers++
			}
		}
	}
	return nil
}

func (f *fakeSessionsRepo) IncrementMessages(ctx context.Context, sessionID string) error {
	for _, s := range f.open {
		if s.ID == sessionID {
			s.Messages++
		}
	}
	return nil
}

// --- viewers ---

type viewerKey struct{ session, client string }

type fakeViewersRepo struct {
	rows map[viewerKey]*models.StreamViewer
}

func newFakeViewersRepo() *fakeViewersRepo {
	return &fakeViewersRepo{rows: map[viewerKey]*models.StreamViewer{}}
}

func (f *fakeViewersRepo) GetActive(ctx context.Context, sessionID, clientID string) (*models.StreamViewer, error) {
	v, ok := f.rows[viewerKey{sessionID, clientID}]
	if !ok || v.LeftAt != nil {
		return nil, common.ErrorNotFound
	}
	return v, nil
}

func (f *fakeViewersRepo) WasEverPresent(ctx context.Context, sessionID, clientID string) (bool, error) {
	_, ok := f.rows[viewerKey{sessionID, clientID}]
	return ok, nil
}

func (f *fakeViewersRepo) Insert(ctx context.Context, v *models.StreamViewer) error {
	v.ID = fmt.Sprintf("v-%d", len(f.rows)+1)
	v.JoinedAt = time.Now()
	clone := *v
	clone.LeftAt = nil
	f.rows[viewerKey{v.StreamSessionID, v.ClientSessionID}] = &clone
	return nil
}

func (f *fakeViewersRepo) MarkLeft(ctx context.Context, sessionID, clientID string) (bool, error) {
	v, ok := f.rows[viewerKey{sessionID, clientID}]
	if !ok || v.LeftAt != nil {
		return false, nil
	}
	now := time.Now()
	v.LeftAt = &now
	return true, nil
}

// --- categories / tags ---

type fakeCategoriesRepo struct {
	byTitle map[string]*models.Category
	creates int
}

func newFakeCategoriesRepo() *fakeCategoriesRepo {
	return &fakeCategoriesRepo{byTitle: map[string]*models.Category{}}
}

func (f *fakeCategoriesRepo) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	f.creates++
	key := strings.ToLower(c.Title)
	if _, ok := f.byTitle[key]; ok {
		return nil, common.ErrorConflict
	}
	c.ID = fmt.Sprintf("cat-%d", len(f.byTitle)+1)
	c.CreatedAt = time.Now()
	f.byTitle[key] = c
	return c, nil
}

func (f *fakeCategoriesRepo) GetByTitle(ctx context.Context, title string) (*models.Category, error) {
	c, ok := f.byTitle[strings.ToLower(title)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return c, nil
}

func (f *fakeCategoriesRepo) List(ctx context.Context) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range f.byTitle {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategoriesRepo) Update(ctx context.Context, c *models.Category) error { return nil }
func (f *fakeCategoriesRepo) Delete(ctx context.Context, id string) error          { return nil }

type fakeTagsRepo struct {
	byName map[string]*models.Tag
}

func newFakeTagsRepo() *fakeTagsRepo {
	return &fakeTagsRepo{byName: map[string]*models.Tag{}}
}

func (f *fakeTagsRepo) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	key := strings.ToLower(tag.Name)
	if _, ok := f.byName[key]; ok {
		return nil, common.ErrorConflict
	}
	tag.ID = fmt.Sprintf("tag-%d", len(f.byName)+1)
	f.byName[key] = tag
	return tag, nil
}

func (f *fakeTagsRepo) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	tag, ok := f.byName[strings.ToLower(name)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return tag, nil
}

func (f *fakeTagsRepo) List(ctx context.Context, visibleOnly bool) ([]*models.Tag, error) {
	var out []*models.Tag
	for _, tag := range f.byName {
		if !visibleOnly || tag.Visible {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (f *fakeTagsRepo) Update(ctx context.Context, tag *models.Tag) error { return nil }
func (f *fakeTagsRepo) Delete(ctx context.Context, id string) error       { return nil }

// --- verification tokens ---

type fakeTokensRepo struct {
	byEmail map[string]*models.VerificationToken
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{byEmail: map[string]*models.VerificationToken{}}
}

func (f *fakeTokensRepo) Replace(ctx context.Context, token *models.VerificationToken) error {
	f.byEmail[strings.ToLower(token.Email)] = token
	return nil
}

func (f *fakeTokensRepo) Find(ctx context.Context, email, code string) (*models.VerificationToken, error) {
	t, ok := f.byEmail[strings.ToLower(email)]
	if !ok || t.Token != code {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeTokensRepo) DeleteByEmail(ctx context.Context, email string) error {
	delete(f.byEmail, strings.ToLower(email))
	return nil
}

// --- repo manager ---

type fakeRepoManager struct {
	users      *fakeUsersRepo
	sessions   *fakeSessionsRepo
	viewers    *fakeViewersRepo
	categories *fakeCategoriesRepo
	tags       *fakeTagsRepo
	tokens     *fakeTokensRepo
}

func newFakeRepoManager(u *models.User) *fakeRepoManager {
	return &fakeRepoManager{
		users:      newFakeUsersRepo(u),
		sessions:   newFakeSessionsRepo(),
		viewers:    newFakeViewersRepo(),
		categories: newFakeCategoriesRepo(),
		tags:       newFakeTagsRepo(),
		tokens:     newFakeTokensRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.users }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository { return m.sessions }
func (m *fakeRepoManager) Viewers(db dbx.DBTX) viewersrepo.Repository   { return m.viewers }
func (m *fakeRepoManager) Categories(db dbx.DBTX) categoriesrepo.Repository {
	return m.categories
}
func (m *fakeRepoManager) Tags(db dbx.DBTX) tagsrepo.Repository { return m.tags }
func (m *fakeRepoManager) VerificationTokens(db dbx.DBTX) tokensrepo.Repository {
	return m.tokens
}

// --- provider ---

type fakeProvider struct {
	createOut *livepeer.Stream
	createErr error

	updateErr error
	deleteErr error

	healthOut *livepeer.HealthStatus
	healthErr error

	playbackOut *livepeer.PlaybackInfo
	playbackErr error

	createCalls   int
	updateCalls   int
	deleteCalls   int
	healthCalls   int
	playbackCalls int
}

func (p *fakeProvider) CreateStream(ctx context.Context, name string) (*livepeer.Stream, error) {
	p.createCalls++
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.createOut != nil {
		return p.createOut, nil
	}
	return &livepeer.Stream{ID: "st-1", Name: name, PlaybackID: "pb-1234567890", StreamKey: "sk-1"}, nil
}

func (p *fakeProvider) UpdateStream(ctx context.Context, id, name string, record bool) error {
	p.updateCalls++
	return p.updateErr
}

func (p *fakeProvider) DeleteStream(ctx context.Context, id string) error {
	p.deleteCalls++
	return p.deleteErr
}

func (p *fakeProvider) Health(ctx context.Context, id string) (*livepeer.HealthStatus, error) {
	p.healthCalls++
	if p.healthErr != nil {
		return nil, p.healthErr
	}
	if p.healthOut != nil {
		return p.healthOut, nil
	}
	return &livepeer.HealthStatus{Healthy: true, IsActive: true}, nil
}

func (p *fakeProvider) Playback(ctx context.Context, playbackID string) (*livepeer.PlaybackInfo, error) {
	p.playbackCalls++
	if p.playbackErr != nil {
		return nil, p.playbackErr
	}
	if p.playbackOut != nil {
		return p.playbackOut, nil
	}
	return &livepeer.PlaybackInfo{PlaybackID: playbackID, Live: true}, nil
}
