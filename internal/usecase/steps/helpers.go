// Package steps is the canonical step library: the contract of the auth,
// parking, booking and payment services expressed as an ordered plan.
package steps

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/usecase/extract"
	"github.com/hextract/parking-net/internal/usecase/scenario"
)

// missingID is an identifier no service under test is expected to have issued.
const missingID int64 = 99999999

const dayLength = 24 * time.Hour

type registerBody struct {
	Email      string `json:"email"`
	Login      string `json:"login"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	TelegramID int64  `json:"telegram_id"`
}

type loginBody struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func requires(keys ...domain.StateKey) []domain.StateKey { return keys }
func produces(keys ...domain.StateKey) []domain.StateKey { return keys }

// ensureTelegramID gives actors without a configured telegram id a random one.
func ensureTelegramID(sc *scenario.Scope, a *domain.Actor) {
	if a.TelegramID < 1 {
		a.TelegramID = int64(sc.Fake.Number(100000000, 999999999))
	}
}

// tokenFrom reads a non-empty token out of r.
func tokenFrom(sc *scenario.Scope, r domain.Result) (string, bool) {
	tr, _ := domain.DecodeAs[domain.TokenResponse](r)
	if tr.Token == "" {
		sc.Failf("No token in response. Response: %s", r.Diagnostic())
		return "", false
	}
	return tr.Token, true
}

// register posts actor to /auth/register and stores the issued token on it.
func register(ctx context.Context, sc *scenario.Scope, a *domain.Actor, label string) domain.Outcome {
	ensureTelegramID(sc, a)

	res := sc.Services.Auth.Anonymous().Post(ctx, "/auth/register", registerBody{
		Email:      a.Email,
		Login:      a.Login,
		Password:   a.Password,
		Role:       string(a.Role),
		TelegramID: a.TelegramID,
	})
	if !sc.Expect(label, res, 200) {
		return sc.Failure()
	}
	tok, ok := tokenFrom(sc, res)
	if !ok {
		return sc.Failure()
	}
	a.Token = tok
	return sc.Passf("%s registered. Token: %s", a.Role, domain.AbbrevToken(tok))
}

func loginAs(ctx context.Context, sc *scenario.Scope, login, password string) domain.Result {
	return sc.Services.Auth.Anonymous().Post(ctx, "/auth/login", loginBody{Login: login, Password: password})
}

func login(ctx context.Context, sc *scenario.Scope, a *domain.Actor, label string) domain.Outcome {
	res := loginAs(ctx, sc, a.Login, a.Password)
	if !sc.Expect(label, res, 200) {
		return sc.Failure()
	}
	tok, ok := tokenFrom(sc, res)
	if !ok {
		return sc.Failure()
	}
	a.Token = tok
	return sc.Passf("%s logged in successfully", a.Role)
}

func parkingPath(id int64) string { return "/parking/" + strconv.FormatInt(id, 10) }
func bookingPath(id int64) string { return "/booking/" + strconv.FormatInt(id, 10) }

// createParking posts in as the current parking proxy credential and returns
// the new id, 0 when none was issued.
func createParking(ctx context.Context, sc *scenario.Scope, in domain.ParkingInput) (int64, domain.Result) {
	res := sc.Services.Parking.Post(ctx, "/parking", in)
	if res.Status != 200 {
		return 0, res
	}
	p, _ := domain.DecodeAs[domain.Parking](res)
	return p.ID, res
}

// window returns an RFC3339 booking window starting after offset.
func window(now time.Time, offset, length time.Duration) (string, string) {
	from := now.Add(offset).UTC().Truncate(time.Second)
	return from.Format(time.RFC3339), from.Add(length).Format(time.RFC3339)
}

// createBooking books parkingID as the current booking proxy credential.
func createBooking(ctx context.Context, sc *scenario.Scope, parkingID int64, offset, length time.Duration) (domain.Booking, domain.Result) {
	from, to := window(sc.Now(), offset, length)
	res := sc.Services.Booking.Post(ctx, "/booking", domain.BookingInput{
		ParkingPlaceID: parkingID,
		DateFrom:       from,
		DateTo:         to,
	})
	b, _ := domain.DecodeAs[domain.Booking](res)
	return b, res
}

// balanceOf reads the balance of the actor holding token.
func balanceOf(ctx context.Context, sc *scenario.Scope, token string) (decimal.Decimal, domain.Result, bool) {
	res := sc.Services.Payment.As(token).Get(ctx, "/payment/balance", nil)
	if res.Status != 200 {
		return decimal.Zero, res, false
	}
	b, ok := domain.DecodeAs[domain.Balance](res)
	if !ok {
		return decimal.Zero, res, false
	}
	return b.Balance, res, true
}

// expectSuccessStatus checks a {"status":"success"} delete response.
func expectSuccessStatus(sc *scenario.Scope, res domain.Result) bool {
	sr, _ := domain.DecodeAs[domain.StatusResponse](res)
	if sr.Status != "success" {
		sc.Failf("Expected success status, got %q", sr.Status)
		return false
	}
	return true
}

// idOf reads the id of a returned entity, trying each expression in turn.
func idOf(body []byte, exprs ...string) int64 {
	for _, e := range exprs {
		if id, ok := extract.Int(body, e); ok {
			return id
		}
	}
	return 0
}

func containsAll(have []int64, want ...int64) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
