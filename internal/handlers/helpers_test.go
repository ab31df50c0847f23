package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/cliphub/backend/internal/accounts"
	"github.com/cliphub/backend/internal/auth"
	"github.com/cliphub/backend/internal/models"
	"github.com/cliphub/backend/internal/repositories"
	"github.com/cliphub/backend/internal/videos"
)

type memUserStore struct {
	users map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (s *memUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memUserStore) Delete(_ context.Context, id string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if user.IsSuperuser {
		return repositories.ErrSuperuserProtected
	}
	delete(s.users, id)
	return nil
}

var _ repositories.UserRepository = (*memUserStore)(nil)

type memVideoStore struct {
	records    map[string]models.Video
	lastSearch string
	failCreate bool
}

func newMemVideoStore() *memVideoStore {
	return &memVideoStore{records: make(map[string]models.Video)}
}

func (s *memVideoStore) Create(_ context.Context, video models.Video) error {
	if s.failCreate {
		return context.DeadlineExceeded
	}
	if _, exists := s.records[video.ID]; exists {
		return repositories.ErrConflict
	}
	s.records[video.ID] = video
	return nil
}

func (s *memVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	record, ok := s.records[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return record, nil
}

func (s *memVideoStore) List(_ context.Context, search string) ([]models.Video, error) {
	s.lastSearch = search
	out := make([]models.Video, 0, len(s.records))
	for _, record := range s.records {
		if search != "" && !strings.Contains(strings.ToLower(record.Title), strings.ToLower(search)) {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadDate.After(out[j].UploadDate) })
	return out, nil
}

func (s *memVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

type ingestorStub struct {
	result  videos.IngestResult
	err     error
	calls   []string
	removed []videos.IngestResult
}

func (s *ingestorStub) Ingest(_ context.Context, _ io.Reader, declaredFilename string) (videos.IngestResult, error) {
	s.calls = append(s.calls, declaredFilename)
	if s.err != nil {
		return videos.IngestResult{}, s.err
	}
	return s.result, nil
}

func (s *ingestorStub) RemoveAssets(_ context.Context, result videos.IngestResult) {
	s.removed = append(s.removed, result)
}

type resolverStub struct {
	dir     string
	present map[string]bool
}

func newResolverStub(t *testing.T) *resolverStub {
	t.Helper()
	return &resolverStub{dir: t.TempDir(), present: make(map[string]bool)}
}

func (s *resolverStub) Path(key string) string { return filepath.Join(s.dir, key) }

func (s *resolverStub) Exists(key string) bool { return s.present[key] }

func (s *resolverStub) write(t *testing.T, key, content string) {
	t.Helper()
	if err := os.WriteFile(s.Path(key), []byte(content), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	s.present[key] = true
}

type limiterStub struct {
	allow bool
	keys  []string
}

func (l *limiterStub) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}

type testEnv struct {
	mux         *http.ServeMux
	users       *memUserStore
	videos      *memVideoStore
	ingestor    *ingestorStub
	videoAssets *resolverStub
	thumbAssets *resolverStub
	accounts    *accounts.Service
	sessions    *auth.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMemUserStore()
	records := newMemVideoStore()
	ingestor := &ingestorStub{result: videos.IngestResult{
		Filename:          "20240315_103000_cat.mp4",
		ThumbnailFilename: "thumb_20240315_103000_cat.jpg",
	}}
	videoAssets := newResolverStub(t)
	thumbAssets := newResolverStub(t)

	service := accounts.NewService(users)
	sessions := auth.NewManager(15*time.Minute, 24*time.Hour, auth.NewInMemorySessionStore())

	env := &testEnv{
		mux:         http.NewServeMux(),
		users:       users,
		videos:      records,
		ingestor:    ingestor,
		videoAssets: videoAssets,
		thumbAssets: thumbAssets,
		accounts:    service,
		sessions:    sessions,
	}

	RegisterRoutes(env.mux, Dependencies{
		Accounts:       service,
		Sessions:       sessions,
		Users:          users,
		Videos:         records,
		Ingestor:       ingestor,
		VideoAssets:    videoAssets,
		ThumbAssets:    thumbAssets,
		MaxUploadBytes: 64 << 20,
		NowFunc:        func() time.Time { return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC) },
	})

	return env
}

// loginAs registers a user directly and returns a valid access token.
func (e *testEnv) loginAs(t *testing.T, username string, superuser bool) (models.User, string) {
	t.Helper()

	user := models.User{
		ID:          username + "-id",
		Username:    username,
		IsSuperuser: superuser,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	e.users.users[user.ID] = user

	tokens, err := e.sessions.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return user, tokens.AccessToken
}
