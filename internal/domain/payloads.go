package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Response payloads of the services under test. Missing fields decode to their
// zero value: "" for strings, 0 for ids and counters, decimal.Zero for money.

type TokenResponse struct {
	Token string `json:"token"`
}

type UserInfo struct {
	UserID     string `json:"user_id"`
	Login      string `json:"login"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	TelegramID int64  `json:"telegram_id"`
}

// Parking is a parking place as returned by the inventory service.
type Parking struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Address     string `json:"address"`
	ParkingType string `json:"parking_type"`
	HourlyRate  int64  `json:"hourly_rate"`
	Capacity    int64  `json:"capacity"`
	OwnerID     string `json:"owner_id"`
}

// ParkingInput is the body of create and update requests.
type ParkingInput struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	Address     string `json:"address"`
	ParkingType string `json:"parking_type"`
	HourlyRate  int64  `json:"hourly_rate"`
	Capacity    int64  `json:"capacity"`
}

const (
	BookingConfirmed = "Confirmed"
	BookingCanceled  = "Canceled"
	BookingWaiting   = "Waiting"
)

type Booking struct {
	BookingID      int64           `json:"booking_id"`
	ParkingPlaceID int64           `json:"parking_place_id"`
	DateFrom       string          `json:"date_from"`
	DateTo         string          `json:"date_to"`
	Status         string          `json:"status"`
	FullCost       decimal.Decimal `json:"full_cost"`
	UserID         string          `json:"user_id"`
}

// BookingInput is the body of create and update requests. Status is only sent
// on updates.
type BookingInput struct {
	ParkingPlaceID int64  `json:"parking_place_id"`
	DateFrom       string `json:"date_from"`
	DateTo         string `json:"date_to"`
	Status         string `json:"status,omitempty"`
}

// StatusResponse is returned by delete endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

type Balance struct {
	UserID   string          `json:"user_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

type Promocode struct {
	Code          string          `json:"code"`
	Amount        decimal.Decimal `json:"amount"`
	MaxUses       int64           `json:"max_uses"`
	UsedCount     int64           `json:"used_count"`
	RemainingUses int64           `json:"remaining_uses"`
	IsActive      bool            `json:"is_active"`
	ExpiresAt     string          `json:"expires_at"`
}

// PromocodeInput is the body of the admin create request.
type PromocodeInput struct {
	Code      string `json:"code,omitempty"`
	Amount    int64  `json:"amount"`
	MaxUses   int64  `json:"max_uses"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

const (
	TransactionPromocodeActivate = "promocode_activate"
	TransactionPromocodeGenerate = "promocode_generate"
)

type Transaction struct {
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
}

// ErrorPayload is the error body shared by all services.
type ErrorPayload struct {
	ErrorMessage    string `json:"error_message"`
	ErrorStatusCode int64  `json:"error_status_code"`
}

func (e ErrorPayload) String() string {
	if e.ErrorStatusCode == 0 {
		return e.ErrorMessage
	}
	return fmt.Sprintf("%s (code %d)", e.ErrorMessage, e.ErrorStatusCode)
}
