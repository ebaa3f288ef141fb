// Package twin is an in-memory stand-in for the parking-net services: auth,
// parking, booking and payment behind one gateway address. It follows the
// documented contract closely enough to run the whole step catalog offline.
package twin

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type user struct {
	ID         string
	Login      string
	Email      string
	Password   string
	Role       string
	TelegramID int64
}

type parking struct {
	ID          int64
	Name        string
	City        string
	Address     string
	ParkingType string
	HourlyRate  int64
	Capacity    int64
	OwnerID     string
}

type booking struct {
	ID        int64
	ParkingID int64
	From      time.Time
	To        time.Time
	Status    string
	Cost      decimal.Decimal
	UserID    string
}

type promocode struct {
	Code      string
	Amount    decimal.Decimal
	MaxUses   int64
	UsedCount int64
	ExpiresAt time.Time
	CreatedBy string
	UsedBy    map[string]bool
}

func (p *promocode) active(now time.Time) bool {
	if p.UsedCount >= p.MaxUses {
		return false
	}
	return p.ExpiresAt.IsZero() || now.Before(p.ExpiresAt)
}

type transaction struct {
	UserID string
	Type   string
	Amount decimal.Decimal
}

// store holds all twin state. Every field is guarded by mu.
type store struct {
	mu sync.Mutex

	users    map[string]*user
	byLogin  map[string]string
	parkings map[int64]*parking
	bookings map[int64]*booking
	promos   map[string]*promocode
	balances map[string]decimal.Decimal
	txs      []transaction

	nextParking int64
	nextBooking int64
}

func newStore() *store {
	return &store{
		users:    map[string]*user{},
		byLogin:  map[string]string{},
		parkings: map[int64]*parking{},
		bookings: map[int64]*booking{},
		promos:   map[string]*promocode{},
		balances: map[string]decimal.Decimal{},
	}
}

// addUser stores u under a fresh id. It reports false when the login is taken.
func (s *store) addUser(u user) (*user, bool) {
	if _, taken := s.byLogin[u.Login]; taken {
		return nil, false
	}
	u.ID = uuid.NewString()
	s.users[u.ID] = &u
	s.byLogin[u.Login] = u.ID
	s.balances[u.ID] = decimal.Zero
	return &u, true
}

func (s *store) userByLogin(login string) *user {
	id, ok := s.byLogin[login]
	if !ok {
		return nil
	}
	return s.users[id]
}

func (s *store) record(userID, typ string, amount decimal.Decimal) {
	s.txs = append(s.txs, transaction{UserID: userID, Type: typ, Amount: amount})
}
