package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpfetch/pkg/errors"
)

// mockBlogServer mimics the parts of the WordPress REST API the client talks to
type mockBlogServer struct {
	server       *httptest.Server
	probeCalls   int32
	usersCalls   int32
	postsCalls   int32
	probeStatus  int
	usersStatus  int
	postsStatus  int
	users        []map[string]interface{}
	posts        []map[string]interface{}
	lastPostsURL atomic.Value
}

func newMockBlogServer() *mockBlogServer {
	m := &mockBlogServer{
		probeStatus: http.StatusOK,
		usersStatus: http.StatusOK,
		postsStatus: http.StatusOK,
		users: []map[string]interface{}{
			{"id": 3, "name": "Admin Team"},
			{"id": 7, "name": "Jane Doe"},
		},
		posts: []map[string]interface{}{
			{
				"title":  map[string]string{"rendered": "Hello"},
				"link":   "https://blog.example/hello",
				"status": "publish",
				"date":   "2021-10-27T09:00:00",
			},
		},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/wp-json/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.probeCalls, 1)
		w.WriteHeader(m.probeStatus)
	})

	mux.HandleFunc("/wp-json/wp/v2/users", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.usersCalls, 1)
		if m.usersStatus != http.StatusOK {
			w.WriteHeader(m.usersStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.users)
	})

	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.postsCalls, 1)
		m.lastPostsURL.Store(r.URL.String())
		if m.postsStatus != http.StatusOK {
			w.WriteHeader(m.postsStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.posts)
	})

	m.server = httptest.NewServer(mux)
	return m
}

func (m *mockBlogServer) Close() { m.server.Close() }

func (m *mockBlogServer) client(t *testing.T) *Client {
	t.Helper()
	root, err := url.Parse(m.server.URL)
	require.NoError(t, err)
	c := NewClient(root, 5*time.Second, nil)
	c.SetMaxRetries(1)
	return c
}

func TestIsAvailable(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()

	assert.True(t, m.client(t).IsAvailable(context.Background()))

	m.probeStatus = http.StatusNotFound
	assert.False(t, m.client(t).IsAvailable(context.Background()))
}

func TestIsAvailableUnreachableHost(t *testing.T) {
	root, _ := url.Parse("http://127.0.0.1:1")
	c := NewClient(root, time.Second, nil)

	assert.False(t, c.IsAvailable(context.Background()))
}

func TestResolveAuthorID(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	c := m.client(t)

	id, err := c.ResolveAuthorID(context.Background(), "Jane")
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}

func TestResolveAuthorIDMatchIsCaseSensitive(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	c := m.client(t)

	_, err := c.ResolveAuthorID(context.Background(), "jane")
	require.Error(t, err)
	assert.True(t, errors.IsUnknownUser(err))
}

func TestResolveAuthorIDEmptyAuthorMatchesFirstUser(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	c := m.client(t)

	// The loose substring policy matches everyone on an empty author
	id, err := c.ResolveAuthorID(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}

func TestResolveAuthorIDUnknownUser(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	m.users = []map[string]interface{}{}
	c := m.client(t)

	_, err := c.ResolveAuthorID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsUnknownUser(err))
}

func TestResolveAuthorIDServerError(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	m.usersStatus = http.StatusInternalServerError
	c := m.client(t)

	_, err := c.ResolveAuthorID(context.Background(), "Jane")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeAPIUnavailable, errors.TypeOf(err))
	assert.False(t, errors.IsUnknownUser(err))
}

func TestResolveAuthorIDInjectableMatcher(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	c := m.client(t)
	c.SetMatcher(func(displayName, author string) bool {
		return displayName == author
	})

	_, err := c.ResolveAuthorID(context.Background(), "Jane")
	assert.True(t, errors.IsUnknownUser(err))

	id, err := c.ResolveAuthorID(context.Background(), "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}

func TestFetchLatestPosts(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	c := m.client(t)

	posts, err := c.FetchLatestPosts(context.Background(), "Jane")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Equal(t, "Hello", posts[0].Title)
	assert.Equal(t, "https://blog.example/hello", posts[0].URL.String())
	assert.Equal(t, StatusPublish, posts[0].Status)
	assert.Equal(t, time.Date(2021, 10, 27, 9, 0, 0, 0, time.UTC), posts[0].Date)

	// The request carries the resolved author id and the field filter
	requested, _ := url.Parse(m.lastPostsURL.Load().(string))
	q := requested.Query()
	assert.Equal(t, "50", q.Get("per_page"))
	assert.Equal(t, "7", q.Get("author"))
	assert.Equal(t, "title,link,status,date", q.Get("_fields"))
}

func TestFetchLatestPostsDropsMalformedRecords(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	m.posts = append(m.posts,
		map[string]interface{}{
			"title":  map[string]string{"rendered": "Relative link"},
			"link":   "/not-absolute",
			"status": "publish",
			"date":   "2021-10-27T09:00:00",
		},
		map[string]interface{}{
			"title":  map[string]string{"rendered": "Draft leak"},
			"link":   "https://blog.example/draft",
			"status": "draft",
			"date":   "2021-10-27T09:00:00",
		},
		map[string]interface{}{
			"title":  map[string]string{"rendered": "Bad date"},
			"link":   "https://blog.example/bad-date",
			"status": "publish",
			"date":   "not a date",
		},
	)
	c := m.client(t)

	posts, err := c.FetchLatestPosts(context.Background(), "Jane")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello", posts[0].Title)
}

func TestFetchLatestPostsServerError(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	m.postsStatus = http.StatusServiceUnavailable
	c := m.client(t)

	_, err := c.FetchLatestPosts(context.Background(), "Jane")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeAPIUnavailable, errors.TypeOf(err))
}

func TestFetchLatestPostsPropagatesUnknownUser(t *testing.T) {
	m := newMockBlogServer()
	defer m.Close()
	c := m.client(t)

	_, err := c.FetchLatestPosts(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsUnknownUser(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&m.postsCalls))
}

func TestPostMarshalJSONRoundTripsURL(t *testing.T) {
	link, _ := url.Parse("https://blog.example/hello")
	post := Post{
		Title:  "Hello",
		URL:    link,
		Date:   time.Date(2021, 10, 27, 9, 0, 0, 0, time.UTC),
		Status: StatusPublish,
	}

	data, err := json.Marshal(post)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "https://blog.example/hello", decoded["url"])
	assert.Equal(t, "publish", decoded["status"])
}
