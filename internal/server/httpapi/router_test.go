package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/logging"
	"github.com/streamfi/streamfi/internal/server/auth"
	"github.com/streamfi/streamfi/internal/server/chat"
	"github.com/streamfi/streamfi/internal/server/livepeer"
	"github.com/streamfi/streamfi/internal/server/models"
	"github.com/streamfi/streamfi/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

// --- service fakes ---

type fakeUserAPI struct {
	user *models.User
	err  error

	followed   []string
	unfollowed []string
}

func (f *fakeUserAPI) Register(ctx context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u.ID = "u-1"
	return u, nil
}

func (f *fakeUserAPI) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	if f.user == nil {
		return nil, common.ErrorNotFound
	}
	return f.user, nil
}

func (f *fakeUserAPI) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.user == nil {
		return nil, common.ErrorNotFound
	}
	return f.user, nil
}

func (f *fakeUserAPI) UpdateProfile(ctx context.Context, wallet string, updates *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	updates.Wallet = wallet
	return updates, nil
}

func (f *fakeUserAPI) Follow(ctx context.Context, wallet, target string) error {
	f.followed = append(f.followed, target)
	return f.err
}

func (f *fakeUserAPI) Unfollow(ctx context.Context, wallet, target string) error {
	f.unfollowed = append(f.unfollowed, target)
	return f.err
}

func (f *fakeUserAPI) IssueSession(ctx context.Context, wallet string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return auth.GenerateToken(wallet, testSecret, time.Hour)
}

type fakeStreamAPI struct {
	info     *services.StreamInfo
	session  *models.StreamSession
	creator  *models.CreatorProfile
	playback *services.PlaybackResult
	err      error

	lastWallet string
}

func (f *fakeStreamAPI) Create(ctx context.Context, wallet, title, description, category string, tags []string) (*services.StreamInfo, error) {
	f.lastWallet = wallet
	return f.info, f.err
}

func (f *fakeStreamAPI) Start(ctx context.Context, wallet string) (*models.StreamSession, error) {
	f.lastWallet = wallet
	return f.session, f.err
}

func (f *fakeStreamAPI) Stop(ctx context.Context, wallet string) error {
	f.lastWallet = wallet
	return f.err
}

func (f *fakeStreamAPI) Update(ctx context.Context, wallet string, updates models.CreatorProfile) (*models.CreatorProfile, error) {
	f.lastWallet = wallet
	return f.creator, f.err
}

func (f *fakeStreamAPI) Delete(ctx context.Context, wallet string) error {
	f.lastWallet = wallet
	return f.err
}

func (f *fakeStreamAPI) ForceDelete(ctx context.Context, wallet string) error {
	f.lastWallet = wallet
	return f.err
}

func (f *fakeStreamAPI) ResolvePlayback(ctx context.Context, playbackID string) (*services.PlaybackResult, error) {
	return f.playback, f.err
}

type fakeViewerAPI struct {
	count int
	err   error
}

func (f *fakeViewerAPI) Join(ctx context.Context, playbackID, clientSessionID, wallet string) (int, error) {
	return f.count, f.err
}

func (f *fakeViewerAPI) Leave(ctx context.Context, playbackID, clientSessionID string) (int, error) {
	return f.count, f.err
}

type fakeCatalogAPI struct {
	category *models.Category
	tag      *models.Tag
	err      error
}

func (f *fakeCatalogAPI) CreateCategory(ctx context.Context, title, description string) (*models.Category, error) {
	return f.category, f.err
}

func (f *fakeCatalogAPI) ListCategories(ctx context.Context) ([]*models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Category{f.category}, nil
}

func (f *fakeCatalogAPI) GetCategory(ctx context.Context, title string) (*models.Category, error) {
	return f.category, f.err
}

func (f *fakeCatalogAPI) UpdateCategory(ctx context.Context, category *models.Category) error {
	return f.err
}

func (f *fakeCatalogAPI) DeleteCategory(ctx context.Context, id string) error { return f.err }

func (f *fakeCatalogAPI) CreateTag(ctx context.Context, name string, visible bool) (*models.Tag, error) {
	return f.tag, f.err
}

func (f *fakeCatalogAPI) ListTags(ctx context.Context, visibleOnly bool) ([]*models.Tag, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Tag{f.tag}, nil
}

func (f *fakeCatalogAPI) UpdateTag(ctx context.Context, tag *models.Tag) error { return f.err }
func (f *fakeCatalogAPI) DeleteTag(ctx context.Context, id string) error       { return f.err }

type fakeVerificationAPI struct {
	token *models.VerificationToken
	err   error
}

func (f *fakeVerificationAPI) Request(ctx context.Context, email string) (*models.VerificationToken, error) {
	return f.token, f.err
}

func (f *fakeVerificationAPI) Confirm(ctx context.Context, email, code string) error {
	return f.err
}

type fakeMediaAPI struct {
	key string
	url string
	err error
}

func (f *fakeMediaAPI) GetPresignedPutURL(ctx context.Context, kind string) (string, string, error) {
	return f.key, f.url, f.err
}

func (f *fakeMediaAPI) GetPresignedGetURL(ctx context.Context, key string) (string, error) {
	return f.url, f.err
}

type apiFakes struct {
	users        *fakeUserAPI
	streams      *fakeStreamAPI
	viewers      *fakeViewerAPI
	catalog      *fakeCatalogAPI
	verification *fakeVerificationAPI
	media        *fakeMediaAPI
}

func newTestRouter(t *testing.T, debug bool) (*gin.Engine, *apiFakes) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fakes := &apiFakes{
		users:        &fakeUserAPI{},
		streams:      &fakeStreamAPI{},
		viewers:      &fakeViewerAPI{},
		catalog:      &fakeCatalogAPI{},
		verification: &fakeVerificationAPI{},
		media:        &fakeMediaAPI{},
	}

	hub := chat.NewHub(noCounter{}, nopLogger{})

	router := NewRouter(testSecret, Controllers{
		Users:        NewUserController(fakes.users),
		Streams:      NewStreamController(fakes.streams),
		Viewers:      NewViewerController(fakes.viewers),
		Catalog:      NewCatalogController(fakes.catalog),
		Verification: NewVerificationController(fakes.verification, debug),
		Media:        NewMediaController(fakes.media),
		Chat:         NewChatController(hub, nopLogger{}),
	})
	return router, fakes
}

type noCounter struct{}

func (noCounter) CountMessage(context.Context, string) error { return nil }

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionToken(t *testing.T, wallet string) string {
	t.Helper()
	token, err := auth.GenerateToken(wallet, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// --- tests ---

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, false)

	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		w := doJSON(t, router, http.MethodPost, "/api/users", "",
			gin.H{"wallet": "0xabc123", "username": "alice"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
	})

	t.Run("missing fields rejected by binding", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		w := doJSON(t, router, http.MethodPost, "/api/users", "", gin.H{"wallet": "0xabc123"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate maps to 409", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.users.err = common.ErrorConflict

		w := doJSON(t, router, http.MethodPost, "/api/users", "",
			gin.H{"wallet": "0xabc123", "username": "alice"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		w := doJSON(t, router, http.MethodPost, "/api/streams/start", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		w := doJSON(t, router, http.MethodPost, "/api/streams/start", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wallet flows into the handler", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.streams.session = &models.StreamSession{ID: "sess-1"}

		w := doJSON(t, router, http.MethodPost, "/api/streams/start", sessionToken(t, "0xabc123"), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0xabc123", fakes.streams.lastWallet)
	})
}

func TestStreamEndpoints(t *testing.T) {
	t.Run("create returns identifiers", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.streams.info = &services.StreamInfo{StreamID: "st-1", PlaybackID: "pb-1", StreamKey: "sk-1"}

		w := doJSON(t, router, http.MethodPost, "/api/streams", sessionToken(t, "0xabc123"),
			gin.H{"title": "my stream"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"streamKey":"sk-1"`)
	})

	t.Run("second create maps to 409", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.streams.err = fmt.Errorf("%w: stream already configured", common.ErrorConflict)

		w := doJSON(t, router, http.MethodPost, "/api/streams", sessionToken(t, "0xabc123"),
			gin.H{"title": "my stream"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("provider outage maps to 503", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.streams.err = fmt.Errorf("create stream: %w", livepeer.ErrUnavailable)

		w := doJSON(t, router, http.MethodPost, "/api/streams", sessionToken(t, "0xabc123"),
			gin.H{"title": "my stream"})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("playback is public", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.streams.playback = &services.PlaybackResult{PlaybackID: "pb-1234567890", Live: true}

		w := doJSON(t, router, http.MethodGet, "/api/streams/playback/pb-1234567890", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"live":true`)
	})

	t.Run("unknown playback id maps to 404", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.streams.err = fmt.Errorf("%w: unknown playback id", common.ErrorNotFound)

		w := doJSON(t, router, http.MethodGet, "/api/streams/playback/pb-1234567890", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete while live maps to 409", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.streams.err = fmt.Errorf("%w: stream is live", common.ErrorConflict)

		w := doJSON(t, router, http.MethodDelete, "/api/streams", sessionToken(t, "0xabc123"), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestViewerEndpoints(t *testing.T) {
	t.Run("join returns the viewer count", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.viewers.count = 7

		w := doJSON(t, router, http.MethodPost, "/api/streams/viewers/join", "",
			gin.H{"playbackId": "pb-1234567890", "sessionId": "client-1"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"currentViewers":7`)
	})

	t.Run("missing session id rejected", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		w := doJSON(t, router, http.MethodPost, "/api/streams/viewers/join", "",
			gin.H{"playbackId": "pb-1234567890"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("join on idle stream maps to 409", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.viewers.err = fmt.Errorf("%w: stream is not live", common.ErrorConflict)

		w := doJSON(t, router, http.MethodPost, "/api/streams/viewers/leave", "",
			gin.H{"playbackId": "pb-1234567890", "sessionId": "client-1"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestCatalogEndpoints(t *testing.T) {
	t.Run("list categories is public", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.catalog.category = &models.Category{ID: "cat-1", Title: "Gaming"}

		w := doJSON(t, router, http.MethodGet, "/api/categories", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Gaming")
	})

	t.Run("create category requires auth", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		w := doJSON(t, router, http.MethodPost, "/api/categories", "", gin.H{"title": "Gaming"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("duplicate category maps to 409", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.catalog.err = fmt.Errorf("%w: category already exists", common.ErrorConflict)

		w := doJSON(t, router, http.MethodPost, "/api/categories", sessionToken(t, "0xabc123"),
			gin.H{"title": "Gaming"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("create tag defaults to visible", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.catalog.tag = &models.Tag{ID: "tag-1", Name: "fps", Visible: true}

		w := doJSON(t, router, http.MethodPost, "/api/tags", sessionToken(t, "0xabc123"),
			gin.H{"name": "fps"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestVerificationEndpoints(t *testing.T) {
	t.Run("request hides the code by default", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.verification.token = &models.VerificationToken{
			Email: "a@b.com", Token: "123456", ExpiresAt: time.Now().Add(15 * time.Minute),
		}

		w := doJSON(t, router, http.MethodPost, "/api/verification/request", "", gin.H{"email": "a@b.com"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "123456")
	})

	t.Run("debug mode echoes the code", func(t *testing.T) {
		router, fakes := newTestRouter(t, true)
		fakes.verification.token = &models.VerificationToken{
			Email: "a@b.com", Token: "123456", ExpiresAt: time.Now().Add(15 * time.Minute),
		}

		w := doJSON(t, router, http.MethodPost, "/api/verification/request", "", gin.H{"email": "a@b.com"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "123456")
	})

	t.Run("expired code maps to 400", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.verification.err = common.ErrTokenExpired

		w := doJSON(t, router, http.MethodPost, "/api/verification/confirm", "",
			gin.H{"email": "a@b.com", "code": "123456"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong code maps to 401", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.verification.err = common.ErrInvalidToken

		w := doJSON(t, router, http.MethodPost, "/api/verification/confirm", "",
			gin.H{"email": "a@b.com", "code": "000000"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMediaEndpoints(t *testing.T) {
	t.Run("upload url", func(t *testing.T) {
		router, fakes := newTestRouter(t, false)
		fakes.media.key = "avatar/2026/01/02/abc"
		fakes.media.url = "https://s3/put/avatar/2026/01/02/abc"

		w := doJSON(t, router, http.MethodPost, "/api/media/upload-url", sessionToken(t, "0xabc123"),
			gin.H{"kind": "avatar"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"uploadUrl"`)
	})

	t.Run("download url requires key", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		w := doJSON(t, router, http.MethodGet, "/api/media/url", sessionToken(t, "0xabc123"), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, false)

	w := doJSON(t, router, http.MethodPost, "/api/users/session", "", gin.H{"wallet": "0xabc123"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token"`)
}
