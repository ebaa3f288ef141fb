package twin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/hextract/parking-net/internal/infra/logger"
)

const currency = "RUB"

// Server is the twin. The zero value is not usable; call New.
type Server struct {
	store  *store
	tokens issuer
	header string
	now    func() time.Time
	log    *slog.Logger
}

type Option func(*Server)

// WithClock fixes the time used for tokens, settlement and promocode expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCredentialHeader sets the header carrying caller tokens.
func WithCredentialHeader(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.header = name
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		store:  newStore(),
		header: "api_key",
		now:    time.Now,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = issuer{secret: []byte("parknet-twin-secret"), now: s.clock}
	return s
}

func (s *Server) clock() time.Time { return s.now() }

// AddUser registers an account directly, bypassing the role rules of
// /auth/register. It is how administrators come to exist. An existing login
// keeps its id and gets password and role updated.
func (s *Server) AddUser(login, email, password, role string) string {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if u := s.store.userByLogin(login); u != nil {
		u.Password = password
		u.Role = role
		return u.ID
	}
	u, _ := s.store.addUser(user{Login: login, Email: email, Password: password, Role: role})
	s.log.Info("twin.user.seeded", "login", login, "role", role)
	return u.ID
}

// Credit adds amount to the balance of login. It reports false for an
// unknown login.
func (s *Server) Credit(login string, amount decimal.Decimal) bool {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	u := s.store.userByLogin(login)
	if u == nil {
		return false
	}
	s.store.balances[u.ID] = s.store.balances[u.ID].Add(amount)
	return true
}

// Handler returns the gateway router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	for _, svc := range []string{"auth", "parking", "booking", "payment"} {
		r.Get("/"+svc+"/metrics", s.metrics(svc))
	}

	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/auth/me", s.me)
		r.Post("/auth/change-password", s.changePassword)
	})

	r.Get("/parking", s.searchParkings)
	r.Get("/parking/{id}", s.getParking)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/parking", s.createParking)
		r.Put("/parking/{id}", s.updateParking)
		r.Delete("/parking/{id}", s.deleteParking)
	})

	r.Route("/booking", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/", s.createBooking)
		r.Get("/", s.listBookings)
		r.Get("/{id}", s.getBooking)
		r.Put("/{id}", s.updateBooking)
		r.Delete("/{id}", s.deleteBooking)
	})

	r.Route("/payment", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/balance", s.balance)
		r.Get("/transactions", s.transactions)
		r.Post("/promocode/create", s.createPromocode)
		r.Post("/promocode/activate", s.activatePromocode)
		r.Post("/promocode/generate", s.generatePromocode)
		r.Get("/promocode/{code}", s.getPromocode)
	})

	return r
}

func (s *Server) metrics(svc string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte("# TYPE " + svc + "_up gauge\n" + svc + "_up 1\n"))
	}
}

type callerKey struct{}

// authenticate resolves the credential header to a user.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(s.header))
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing "+s.header)
			return
		}
		id, err := s.tokens.subject(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		s.store.mu.Lock()
		u, ok := s.store.users[id]
		var snapshot user
		if ok {
			snapshot = *u
		}
		s.store.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, snapshot)))
	})
}

func caller(r *http.Request) user {
	u, _ := r.Context().Value(callerKey{}).(user)
	return u
}

type errorBody struct {
	ErrorMessage    string `json:"error_message"`
	ErrorStatusCode int    `json:"error_status_code"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{ErrorMessage: msg, ErrorStatusCode: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

// number renders money as a bare JSON number.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
