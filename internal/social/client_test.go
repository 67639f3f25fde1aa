package social_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edithx/rewarder/internal/metrics"
	"github.com/edithx/rewarder/internal/ratelimit"
	"github.com/edithx/rewarder/internal/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *social.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zaptest.NewLogger(t)
	limiter := ratelimit.New(ratelimit.Config{Limit: 120, Window: time.Minute}, logger)

	return social.NewClient(social.ClientConfig{
		BaseURL:        server.URL + "/",
		APIKey:         "secret",
		RequestTimeout: 5 * time.Second,
	}, limiter, metrics.New(), logger)
}

func TestClientGetThread(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/twitter/thread/123", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"tweets":[{"id_str":"123","full_text":"hello world","favorite_count":4,"views_count":40}]}`))
	})

	posts, err := client.GetThread(t.Context(), "123")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "123", posts[0].IDStr)
	assert.Equal(t, "hello world", posts[0].Body())
	assert.Equal(t, 4, posts[0].FavoriteCount)
	assert.Equal(t, 40, posts[0].Views())
}

func TestClientGetComments(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/twitter/tweets/123/comments", r.URL.Path)
		_, _ = w.Write([]byte(`{"tweets":[{"text":"a"},{"text":"b"}]}`))
	})

	comments, err := client.GetComments(t.Context(), "123")
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			wantErr: social.ErrUnexpectedStatus,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"tweets":`))
			},
		},
		{
			name: "empty thread",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"tweets":[]}`))
			},
			wantErr: social.ErrEmptyThread,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, tt.handler)

			_, err := client.GetThread(t.Context(), "1")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
