package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hextract/parking-net/internal/domain"
)

type fakeUser struct {
	ID         string              `json:"id"`
	Username   string              `json:"username"`
	Email      string              `json:"email"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

type fakeGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// fakeKeycloak serves the subset of the admin API the provisioner uses.
type fakeKeycloak struct {
	mu        sync.Mutex
	users     map[string]*fakeUser
	passwords map[string]string
	members   map[string][]string
	groups    []fakeGroup
	creates   int
	// conflictOnce makes the next create fail with 409 after inserting the user.
	conflictOnce bool
	failLogin    bool
}

func newFakeKeycloak() *fakeKeycloak {
	return &fakeKeycloak{
		users:     map[string]*fakeUser{},
		passwords: map[string]string{},
		members:   map[string][]string{},
		groups: []fakeGroup{
			{ID: "g-admins", Name: "administrators"},
			{ID: "g-admin", Name: "admin"},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeKeycloak) router(t *testing.T) http.Handler {
	r := chi.NewRouter()

	r.Post("/realms/master/protocol/openid-connect/token", func(w http.ResponseWriter, req *http.Request) {
		_ = req.ParseForm()
		if f.failLogin || req.PostForm.Get("username") != "admin" || req.PostForm.Get("password") != "kc-secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "admin-access", "expires_in": 60, "token_type": "Bearer"})
	})

	r.Route("/admin/realms/parking-users", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if req.Header.Get("Authorization") != "Bearer admin-access" {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "HTTP 401 Unauthorized"})
					return
				}
				next.ServeHTTP(w, req)
			})
		})

		r.Get("/users", func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if req.URL.Query().Get("exact") != "true" {
				t.Errorf("expected exact lookup, got %q", req.URL.RawQuery)
			}
			out := []fakeUser{}
			if u, ok := f.users[req.URL.Query().Get("username")]; ok {
				out = append(out, *u)
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Post("/users", func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			var u fakeUser
			if err := json.NewDecoder(req.Body).Decode(&u); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"errorMessage": err.Error()})
				return
			}
			f.creates++
			if _, exists := f.users[u.Username]; exists {
				writeJSON(w, http.StatusConflict, map[string]string{"errorMessage": "User exists with same username"})
				return
			}
			u.ID = fmt.Sprintf("u-%d", f.creates)
			f.users[u.Username] = &u
			if f.conflictOnce {
				f.conflictOnce = false
				writeJSON(w, http.StatusConflict, map[string]string{"errorMessage": "User exists with same username"})
				return
			}
			w.Header().Set("Location", "http://"+req.Host+"/admin/realms/parking-users/users/"+u.ID)
			w.WriteHeader(http.StatusCreated)
		})

		r.Put("/users/{id}/reset-password", func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			var body struct {
				Value     string `json:"value"`
				Temporary bool   `json:"temporary"`
			}
			_ = json.NewDecoder(req.Body).Decode(&body)
			f.passwords[chi.URLParam(req, "id")] = body.Value
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/groups", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, f.groups)
		})

		r.Get("/users/{id}/groups", func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			out := []fakeGroup{}
			for _, gid := range f.members[chi.URLParam(req, "id")] {
				for _, g := range f.groups {
					if g.ID == gid {
						out = append(out, g)
					}
				}
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Put("/users/{id}/groups/{gid}", func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			id := chi.URLParam(req, "id")
			f.members[id] = append(f.members[id], chi.URLParam(req, "gid"))
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

func testConfig(url string) domain.IdentityAdminConfig {
	return domain.IdentityAdminConfig{
		Enabled:     true,
		URL:         url,
		Realm:       "parking-users",
		MasterRealm: "master",
		Username:    "admin",
		Password:    "kc-secret",
		AdminGroup:  "admin",
	}
}

func adminActor() domain.Actor {
	return domain.Actor{
		Role:       domain.RoleAdmin,
		Login:      "e2e_admin",
		Email:      "e2e_admin@test.com",
		Password:   "AdminPass123",
		TelegramID: 42,
	}
}

func TestEnsureUser_CreatesThenReuses(t *testing.T) {
	fk := newFakeKeycloak()
	srv := httptest.NewServer(fk.router(t))
	defer srv.Close()

	p := New(testConfig(srv.URL))
	ctx := context.Background()

	first, err := p.EnsureUser(ctx, adminActor(), "admin")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, first.JoinedGroup)
	assert.NotEmpty(t, first.ID)

	second, err := p.EnsureUser(ctx, adminActor(), "admin")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.JoinedGroup)
	assert.Equal(t, first.ID, second.ID)

	fk.mu.Lock()
	defer fk.mu.Unlock()
	assert.Equal(t, 1, fk.creates, "no duplicate account")
	assert.Len(t, fk.users, 1)
	assert.Equal(t, []string{"g-admin"}, fk.members[first.ID])
	assert.Equal(t, "AdminPass123", fk.passwords[first.ID])
	assert.Equal(t, []string{"42"}, fk.users["e2e_admin"].Attributes["telegram_id"])
}

func TestEnsureUser_ConflictFallsBackToLookup(t *testing.T) {
	fk := newFakeKeycloak()
	fk.conflictOnce = true
	srv := httptest.NewServer(fk.router(t))
	defer srv.Close()

	got, err := New(testConfig(srv.URL)).EnsureUser(context.Background(), adminActor(), "admin")
	require.NoError(t, err)
	assert.False(t, got.Created)
	assert.Equal(t, "u-1", got.ID)
}

func TestEnsureUser_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*fakeKeycloak, *domain.IdentityAdminConfig)
		group  string
		op     string
		kind   domain.ErrorKind
	}{
		{
			name:   "admin login rejected",
			mutate: func(f *fakeKeycloak, _ *domain.IdentityAdminConfig) { f.failLogin = true },
			group:  "admin",
			op:     "keycloak.login",
			kind:   domain.KindUnavailable,
		},
		{
			name:   "missing admin credentials",
			mutate: func(_ *fakeKeycloak, c *domain.IdentityAdminConfig) { c.Password = "" },
			group:  "admin",
			op:     "keycloak.login",
			kind:   domain.KindInvalidConfig,
		},
		{
			name:   "unknown group",
			mutate: func(*fakeKeycloak, *domain.IdentityAdminConfig) {},
			group:  "superusers",
			op:     "keycloak.groups",
			kind:   domain.KindNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fk := newFakeKeycloak()
			srv := httptest.NewServer(fk.router(t))
			defer srv.Close()

			cfg := testConfig(srv.URL)
			tc.mutate(fk, &cfg)

			_, err := New(cfg).EnsureUser(context.Background(), adminActor(), tc.group)
			require.Error(t, err)

			var oe *domain.OpError
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, tc.op, oe.Op)
			assert.Equal(t, tc.kind, oe.Kind)
		})
	}
}

func TestEnsureUser_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(testConfig(url)).EnsureUser(context.Background(), adminActor(), "admin")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindUnavailable))
}
