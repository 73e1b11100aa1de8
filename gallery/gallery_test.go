package gallery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Brawl345/epicture/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu    sync.Mutex
	token string
	saved bool
}

func (s *fakeStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.saved = token, true
	return nil
}

func (s *fakeStore) Load(_ context.Context) (*model.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, nil
	}
	return &model.Credential{Name: model.UserTokenKey, Value: s.token}, nil
}

func (s *fakeStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.saved = "", false
	return nil
}

func newTestClient(t *testing.T, store model.CredentialStore, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(store, WithBaseURL(srv.URL+"/3/"), WithHTTPClient(srv.Client()))
}

var cred = &model.Credential{Name: model.UserTokenKey, Value: "tok1"}

func TestFetchAccountImages(t *testing.T) {
	client := newTestClient(t, &fakeStore{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/account/me/images", r.URL.Path)
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"data":[
			{"id":"a1","link":"https://i.imgur.com/a1.jpg","type":"image/jpeg","views":12},
			{"id":"b2","link":"https://i.imgur.com/b2.png","type":"image/png"}
		],"success":true,"status":200}`))
	})

	images, err := client.FetchAccountImages(context.Background(), cred)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "a1", images[0].ID)
	assert.Equal(t, "https://i.imgur.com/a1.jpg", images[0].Link)
	assert.Equal(t, "image/jpeg", images[0].ContentType())
	assert.Equal(t, "b2", images[1].ID)
}

func TestFetchAccountImages_Unauthenticated(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, &fakeStore{}, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.FetchAccountImages(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	_, err = client.SearchImages(context.Background(), nil, "cat")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	assert.Zero(t, calls.Load())
}

func TestSearchImages_FiltersPNG(t *testing.T) {
	client := newTestClient(t, &fakeStore{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/gallery/search", r.URL.Path)
		assert.Equal(t, "title: cat ext: png", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"data":[
			{"id":"1","link":"https://i.imgur.com/1.png"},
			{"id":"2","link":"https://i.imgur.com/2.jpg"},
			{"id":"3","link":"https://imgur.com/a/3","is_album":true},
			{"id":"4","link":"https://i.imgur.com/4.png"}
		]}`))
	})

	images, err := client.SearchImages(context.Background(), cred, "cat")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "1", images[0].ID)
	assert.Equal(t, "4", images[1].ID)
}

func TestSearchImages_EmptyText(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, &fakeStore{}, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	images, err := client.SearchImages(context.Background(), cred, "   ")
	require.NoError(t, err)
	assert.Empty(t, images)
	assert.Zero(t, calls.Load())
}

func TestFetch_EmptyData(t *testing.T) {
	client := newTestClient(t, &fakeStore{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[],"success":true,"status":200}`))
	})

	images, err := client.Fetch(context.Background(), cred, model.AccountQuery())
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func TestFetch_UnauthorizedClearsStore(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		for _, query := range []model.GalleryQuery{model.AccountQuery(), model.SearchQuery("cat")} {
			store := &fakeStore{}
			require.NoError(t, store.Save(context.Background(), "tok1"))

			client := newTestClient(t, store, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"data":{"error":"The access token provided is invalid."},"success":false,"status":401}`))
			})

			_, err := client.Fetch(context.Background(), cred, query)

			var failure *model.RequestFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, model.CauseHTTP, failure.Cause)
			assert.Equal(t, status, failure.StatusCode)
			assert.True(t, failure.NeedsReauth())
			assert.True(t, model.IsReauth(err))

			loaded, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Nil(t, loaded)
		}
	}
}

func TestFetch_ServerErrorKeepsStore(t *testing.T) {
	store := &fakeStore{}
	require.NoError(t, store.Save(context.Background(), "tok1"))

	client := newTestClient(t, store, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	images, err := client.FetchAccountImages(context.Background(), cred)
	var failure *model.RequestFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, model.CauseHTTP, failure.Cause)
	assert.Equal(t, http.StatusInternalServerError, failure.StatusCode)
	assert.False(t, model.IsReauth(err))
	assert.Empty(t, images)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}

func TestFetch_DecodeFailure(t *testing.T) {
	for name, body := range map[string]string{
		"invalid json": `not json`,
		"data object":  `{"data":{"error":"oops"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, &fakeStore{}, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			images, err := client.FetchAccountImages(context.Background(), cred)
			var failure *model.RequestFailure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, model.CauseDecode, failure.Cause)
			assert.Empty(t, images)
		})
	}
}

func TestFetch_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	client := New(&fakeStore{}, WithBaseURL(baseURL))
	_, err := client.FetchAccountImages(context.Background(), cred)

	var failure *model.RequestFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, model.CauseNetwork, failure.Cause)
}

func TestFetch_UnauthorizedOldTokenKeepsNewer(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	require.NoError(t, store.Save(ctx, "tok2"))

	client := newTestClient(t, store, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchAccountImages(ctx, &model.Credential{Name: model.UserTokenKey, Value: "tok1"})
	assert.True(t, model.IsReauth(err))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "tok2", loaded.Value)
}

func TestFetch_UnknownQueryKind(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, &fakeStore{}, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	images, err := client.Fetch(context.Background(), cred, model.GalleryQuery{Kind: model.QueryKind(42)})
	var failure *model.RequestFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, model.CauseDecode, failure.Cause)
	assert.Empty(t, images)
	assert.Zero(t, calls.Load())
}
