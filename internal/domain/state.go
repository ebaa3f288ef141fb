package domain

import "github.com/shopspring/decimal"

// Role is the role an actor registers with.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

// Actor is one identity under test. Token is empty until registration or
// login succeeds.
type Actor struct {
	Role       Role
	Login      string
	Email      string
	Password   string
	TelegramID int64
	Token      string
}

// StateKey names a field of State that a step can require or produce.
type StateKey string

const (
	KeyOwnerToken   StateKey = "owner_token"
	KeyDriverToken  StateKey = "driver_token"
	KeyAdminToken   StateKey = "admin_token"
	KeyDriverUserID StateKey = "driver_user_id"
	KeyParkingID    StateKey = "parking_id"
	KeyParkingIDs   StateKey = "parking_ids"
	KeyBookingIDs   StateKey = "booking_ids"
	KeyPromoCodes   StateKey = "promo_codes"
)

// KnownKeys lists every StateKey in declaration order.
func KnownKeys() []StateKey {
	return []StateKey{
		KeyOwnerToken,
		KeyDriverToken,
		KeyAdminToken,
		KeyDriverUserID,
		KeyParkingID,
		KeyParkingIDs,
		KeyBookingIDs,
		KeyPromoCodes,
	}
}

// State is the record threaded through every step of a run.
//
// Zero values mean "not yet produced": an empty token or user id, a parking id
// of 0, an empty list.
type State struct {
	Owner  Actor
	Driver Actor
	Admin  Actor

	DriverUserID string

	// ParkingID is the primary parking place under test.
	ParkingID  int64
	ParkingIDs []int64
	BookingIDs []int64
	PromoCodes []string
	// PromoAmounts holds the face value of each code in PromoCodes.
	PromoAmounts map[string]decimal.Decimal
	// GeneratedCodes are the codes the driver paid for out of their balance.
	GeneratedCodes []string

	Tally Tally
}

// NewState builds the initial state for a run.
func NewState(owner, driver, admin Actor) *State {
	owner.Role = RoleOwner
	driver.Role = RoleDriver
	admin.Role = RoleAdmin
	return &State{
		Owner:  owner,
		Driver: driver,
		Admin:  admin,
	}
}

// Has reports whether key has been produced.
func (s *State) Has(key StateKey) bool {
	switch key {
	case KeyOwnerToken:
		return s.Owner.Token != ""
	case KeyDriverToken:
		return s.Driver.Token != ""
	case KeyAdminToken:
		return s.Admin.Token != ""
	case KeyDriverUserID:
		return s.DriverUserID != ""
	case KeyParkingID:
		return s.ParkingID != 0
	case KeyParkingIDs:
		return len(s.ParkingIDs) > 0
	case KeyBookingIDs:
		return len(s.BookingIDs) > 0
	case KeyPromoCodes:
		return len(s.PromoCodes) > 0
	default:
		return false
	}
}

// Missing returns the keys from keys that have not been produced, in order.
func (s *State) Missing(keys []StateKey) []StateKey {
	var out []StateKey
	for _, k := range keys {
		if !s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Actor returns the actor for role, or nil for an unknown role.
func (s *State) Actor(role Role) *Actor {
	switch role {
	case RoleOwner:
		return &s.Owner
	case RoleDriver:
		return &s.Driver
	case RoleAdmin:
		return &s.Admin
	default:
		return nil
	}
}

func (s *State) AddParking(id int64) {
	s.ParkingIDs = append(s.ParkingIDs, id)
}

func (s *State) AddBooking(id int64) {
	s.BookingIDs = append(s.BookingIDs, id)
}

func (s *State) AddPromoCode(code string, amount decimal.Decimal) {
	s.PromoCodes = append(s.PromoCodes, code)
	if s.PromoAmounts == nil {
		s.PromoAmounts = map[string]decimal.Decimal{}
	}
	s.PromoAmounts[code] = amount
}

// PromoAmount returns the recorded face value of code, or decimal.Zero.
func (s *State) PromoAmount(code string) decimal.Decimal {
	if d, ok := s.PromoAmounts[code]; ok {
		return d
	}
	return decimal.Zero
}

// FirstPromoCode returns the first code minted in this run.
func (s *State) FirstPromoCode() (string, bool) {
	if len(s.PromoCodes) == 0 {
		return "", false
	}
	return s.PromoCodes[0], true
}
