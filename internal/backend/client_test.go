package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linguaformula/internal/entity"
)

func TestDo_NotConfigured(t *testing.T) {
	c := New("")

	_, err := c.Do(context.Background(), http.MethodGet, "/api/formulas", nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "API URL is not set.", Message(err, "fallback"))
}

func TestDo_AttachesTokenAndCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		ck, err := r.Cookie("sid")
		require.NoError(t, err)
		assert.Equal(t, "s1", ck.Value)

		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s2"})
		http.SetCookie(w, &http.Cookie{Name: "old", Value: "", MaxAge: -1})
		w.Write([]byte(`{"user":{"id":7,"email":"a@b.c","display_name":null,"is_admin":false}}`))
	}))
	defer srv.Close()

	creds := &Credentials{Token: "abc", Cookies: map[string]string{"sid": "s1", "old": "x"}}
	user, err := New(srv.URL).Me(context.Background(), creds)
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "a@b.c", user.Name())
	assert.Equal(t, map[string]string{"sid": "s2"}, creds.Cookies)
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Formulas(context.Background(), DisciplineFilter{})
	require.NoError(t, err)
}

func TestCall_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
		message string
	}{
		{
			name:   "error envelope",
			status: http.StatusUnauthorized,
			body:   `{"error":"Invalid email or password"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
			},
			message: "Invalid email or password",
		},
		{
			name:   "error without message",
			status: http.StatusBadRequest,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				assert.Equal(t, http.StatusBadRequest, StatusCode(err))
			},
			message: "Login failed",
		},
		{
			name:   "html error page",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			check: func(t *testing.T, err error) {
				var decErr *DecodeError
				require.True(t, errors.As(err, &decErr))
				assert.Equal(t, http.StatusBadGateway, decErr.Status)
			},
			message: "Login failed",
		},
		{
			name:   "ok with garbage",
			status: http.StatusOK,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				var decErr *DecodeError
				assert.True(t, errors.As(err, &decErr))
			},
			message: "Login failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Login(context.Background(), "a@b.c", "pw", &Credentials{})
			require.Error(t, err)
			tt.check(t, err)
			assert.Equal(t, tt.message, Message(err, "Login failed"))
		})
	}
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).Me(context.Background(), &Credentials{})
	var trErr *TransportError
	assert.True(t, errors.As(err, &trErr))
}

func TestDo_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL).Formulas(ctx, DisciplineFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFormulas_DisciplineQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"1", "4"}, r.URL.Query()["discipline_id"])
		assert.Equal(t, "false", r.URL.Query().Get("include_children"))
		w.Write([]byte(`[{"id":1,"formula_name":"Newton's second law","latex":"F=ma"}]`))
	}))
	defer srv.Close()

	out, err := New(srv.URL).Formulas(context.Background(), DisciplineFilter{IDs: []int{1, 4}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "F=ma", out[0].Latex)
}

func TestCourseQuestions_SegmentQuery(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.URL.RawQuery)
		json.NewEncoder(w).Encode(entity.CourseQuestions{CourseName: "Physics I"})
	}))
	defer srv.Close()

	c := New(srv.URL)

	out, err := c.CourseQuestions(context.Background(), 3, SegmentQuery{Type: "chapter", Label: " 2 "}, &Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "Physics I", out.CourseName)
	assert.Equal(t, "segment_label=2&segment_type=chapter", got.Load())

	_, err = c.CourseQuestions(context.Background(), 3, SegmentQuery{Type: "lecture"}, &Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "", got.Load())
}

type memCache struct {
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func TestDisciplines_Cached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"id":1,"name":"Physics","handle":"physics","formula_count":3}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithCache(&memCache{data: map[string][]byte{}}, time.Minute))

	for i := 0; i < 3; i++ {
		out, err := c.Disciplines(context.Background())
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Physics", out[0].Name)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestDisciplines_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Database unavailable"}`))
	}))
	defer srv.Close()

	cache := &memCache{data: map[string][]byte{}}
	_, err := New(srv.URL, WithCache(cache, time.Minute)).Disciplines(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "Database unavailable", Message(err, "Failed to load disciplines."))
	assert.Empty(t, cache.data, "errors are not cached")
}

func TestSetAdmin_Body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/admin/users/9", r.URL.Path)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]bool{"is_admin": false}, body)
		w.Write([]byte(`{"user":{"id":9}}`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).SetAdmin(context.Background(), 9, false, &Credentials{}))
}
