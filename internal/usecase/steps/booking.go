package steps

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hextract/parking-net/internal/domain"
	ucassert "github.com/hextract/parking-net/internal/usecase/assert"
	"github.com/hextract/parking-net/internal/usecase/scenario"
)

// immediateStart places a booking inside the window in which the booking
// service settles payment on creation.
const immediateStart = 2 * time.Minute

func createFirstBooking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Booking.SetCredential(sc.State.Driver.Token)

	b, res := createBooking(ctx, sc, sc.State.ParkingID, dayLength, dayLength)
	if !sc.Expect("Create Booking", res, 200) {
		return sc.Failure()
	}
	if b.BookingID == 0 {
		return sc.Failf("No booking_id in response. Response: %s", res.Diagnostic())
	}
	sc.State.AddBooking(b.BookingID)
	return sc.Passf("Booking created: ID=%d status=%s", b.BookingID, b.Status)
}

func getBookingByID(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Booking.SetCredential(sc.State.Driver.Token)

	want := sc.State.BookingIDs[0]
	res := sc.Services.Booking.Get(ctx, bookingPath(want), nil)
	if !sc.Expect("Get Booking by ID", res, 200) {
		return sc.Failure()
	}
	if got := idOf(res.Body, "$.booking_id", "$.id"); got != want {
		return sc.Failf("Expected ID %d, got %d", want, got)
	}
	return sc.Passf("Retrieved booking ID: %d", want)
}

func ownerListsParkingBookings(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Booking.SetCredential(sc.State.Owner.Token)

	res := sc.Services.Booking.Get(ctx, "/booking", map[string]string{
		"parking_place_id": strconv.FormatInt(sc.State.ParkingID, 10),
	})
	if !sc.Expect("Get Bookings", res, 200) {
		return sc.Failure()
	}
	list, ok := domain.DecodeAs[[]domain.Booking](res)
	if !ok {
		return sc.Failf("Expected bookings list, got %s", res.Diagnostic())
	}
	if len(list) == 0 && len(sc.State.BookingIDs) > 0 {
		return sc.Failf("Expected bookings for parking %d, got none", sc.State.ParkingID)
	}
	for _, b := range list {
		if b.ParkingPlaceID != 0 && b.ParkingPlaceID != sc.State.ParkingID {
			return sc.Failf("Found booking %d for parking %d", b.BookingID, b.ParkingPlaceID)
		}
	}
	return sc.Passf("Owner found %d bookings for parking %d", len(list), sc.State.ParkingID)
}

// confirmBookingRejected tries to confirm a booking by direct update. Only
// the payment flow may confirm.
func confirmBookingRejected(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	bk := sc.Services.Booking
	bk.SetCredential(sc.State.Driver.Token)

	id := sc.State.BookingIDs[0]
	res := bk.Get(ctx, bookingPath(id), nil)
	if res.Status != 200 {
		return sc.Skipf("Could not retrieve booking %d to update (status %d)", id, res.Status)
	}
	existing, _ := domain.DecodeAs[domain.Booking](res)
	parkingID := existing.ParkingPlaceID
	if parkingID == 0 {
		parkingID = sc.State.ParkingID
	}

	res = bk.Put(ctx, bookingPath(id), domain.BookingInput{
		ParkingPlaceID: parkingID,
		DateFrom:       existing.DateFrom,
		DateTo:         existing.DateTo,
		Status:         domain.BookingConfirmed,
	})
	if !sc.Expect("Update Booking Status to Confirmed", res, 400) {
		return sc.Failure()
	}
	if !sc.ExpectPaths(res, ucassert.ContainsText("$.error_message", "payment")) {
		return sc.Failure()
	}
	return sc.Passf("Direct confirmation correctly rejected: %s", res.Diagnostic())
}

func driverListsOwnBookings(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	bk := sc.Services.Booking
	bk.SetCredential(sc.State.Driver.Token)

	userID := sc.State.DriverUserID
	if userID == "" {
		res := bk.Get(ctx, bookingPath(sc.State.BookingIDs[0]), nil)
		if res.Status != 200 {
			return sc.Skipf("Could not retrieve booking to get user_id (status %d)", res.Status)
		}
		b, _ := domain.DecodeAs[domain.Booking](res)
		if b.UserID == "" {
			return sc.Skipf("No user_id in booking")
		}
		userID = b.UserID
	}

	res := bk.Get(ctx, "/booking", map[string]string{"user_id": userID})
	if !sc.Expect("Get Bookings by user_id", res, 200) {
		return sc.Failure()
	}
	list, ok := domain.DecodeAs[[]domain.Booking](res)
	if !ok {
		return sc.Failf("Expected bookings list, got %s", res.Diagnostic())
	}
	ids := make([]int64, 0, len(list))
	for _, b := range list {
		if b.UserID != userID {
			return sc.Failf("Found booking with different user_id: %s", b.UserID)
		}
		ids = append(ids, b.BookingID)
	}
	if !containsAll(ids, sc.State.BookingIDs...) {
		return sc.Failf("Driver listing %v misses created bookings %v", ids, sc.State.BookingIDs)
	}
	return sc.Passf("Driver found %d of their own bookings", len(list))
}

func driverDeletesBooking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	bk := sc.Services.Booking
	bk.SetCredential(sc.State.Driver.Token)

	b, res := createBooking(ctx, sc, sc.State.ParkingID, 5*dayLength, dayLength)
	if res.Status != 200 || b.BookingID == 0 {
		return sc.Skipf("Could not create booking to delete (status %d)", res.Status)
	}

	res = bk.Delete(ctx, bookingPath(b.BookingID))
	if !sc.Expect("Delete Booking", res, 200) {
		return sc.Failure()
	}
	if !expectSuccessStatus(sc, res) {
		return sc.Failure()
	}

	res = bk.Get(ctx, bookingPath(b.BookingID), nil)
	if !sc.Expect("Get Deleted Booking", res, 404) {
		return sc.Failure()
	}
	return sc.Passf("Booking %d deleted successfully", b.BookingID)
}

func ownerDeletesParkingBooking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	bk := sc.Services.Booking
	bk.SetCredential(sc.State.Driver.Token)

	b, res := createBooking(ctx, sc, sc.State.ParkingID, 7*dayLength, dayLength)
	if res.Status != 200 || b.BookingID == 0 {
		return sc.Skipf("Could not create booking to delete (status %d)", res.Status)
	}

	bk.SetCredential(sc.State.Owner.Token)
	res = bk.Delete(ctx, bookingPath(b.BookingID))
	if !sc.Expect("Owner Delete Booking", res, 200) {
		return sc.Failure()
	}
	if !expectSuccessStatus(sc, res) {
		return sc.Failure()
	}
	return sc.Passf("Owner successfully deleted booking %d for their parking", b.BookingID)
}

func deleteMissingBooking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Booking.SetCredential(sc.State.Driver.Token)

	res := sc.Services.Booking.Delete(ctx, bookingPath(missingID))
	if !sc.Expect("Delete Non-Existent Booking", res, 404) {
		return sc.Failure()
	}
	return sc.Passf("Correctly returned 404 for non-existent booking")
}

// paidBookingAndRefund books inside the settlement window, expects the booking
// to be confirmed and paid, then deletes it and expects a refund. Balance
// drift is reported as a warning.
func paidBookingAndRefund(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	d := &sc.State.Driver
	bk := sc.Services.Booking
	bk.SetCredential(d.Token)

	before, res, ok := balanceOf(ctx, sc, d.Token)
	if !ok {
		return sc.Skipf("Could not read driver balance (status %d)", res.Status)
	}
	if need, known := hourlyCost(ctx, sc, sc.State.ParkingID, d.Token); known {
		if before.LessThan(need) {
			return sc.Skipf("Driver balance %s is below the booking cost %s (no promocode was activated)", money(before), money(need))
		}
	} else if !before.IsPositive() {
		return sc.Skipf("Driver has no funds (no promocode was activated)")
	}

	b, res := createBooking(ctx, sc, sc.State.ParkingID, immediateStart, time.Hour)
	if !sc.Expect("Create Paid Booking", res, 200) {
		return sc.Failure()
	}
	if b.BookingID == 0 {
		return sc.Failf("No booking_id in response. Response: %s", res.Diagnostic())
	}
	if b.Status != domain.BookingConfirmed {
		return sc.Failf("Expected status %s with balance %s, got %q", domain.BookingConfirmed, money(before), b.Status)
	}

	after, _, ok := balanceOf(ctx, sc, d.Token)
	switch {
	case !ok:
		sc.Warnf("Could not read balance after payment")
	case !before.Sub(b.FullCost).Equal(after):
		sc.Warnf("Balance after payment is %s, expected %s - %s = %s",
			money(after), money(before), money(b.FullCost), money(before.Sub(b.FullCost)))
	default:
		sc.Infof("Balance debited by %s", money(b.FullCost))
	}

	res = bk.Delete(ctx, bookingPath(b.BookingID))
	if !sc.Expect("Delete Paid Booking", res, 200) {
		return sc.Failure()
	}

	refunded, _, ok := balanceOf(ctx, sc, d.Token)
	switch {
	case !ok:
		sc.Warnf("Could not read balance after refund")
	case !refunded.Equal(before):
		sc.Warnf("Balance after refund is %s, expected %s", money(refunded), money(before))
	default:
		sc.Infof("Refund restored balance to %s", money(refunded))
	}
	return sc.Passf("Paid booking %d confirmed (cost %s) and refunded", b.BookingID, money(b.FullCost))
}

// hourlyCost reads the hourly rate of parkingID, the price of a one hour
// booking.
func hourlyCost(ctx context.Context, sc *scenario.Scope, parkingID int64, token string) (decimal.Decimal, bool) {
	res := sc.Services.Parking.As(token).Get(ctx, parkingPath(parkingID), nil)
	if res.Status != 200 {
		return decimal.Zero, false
	}
	p, ok := domain.DecodeAs[domain.Parking](res)
	if !ok || p.HourlyRate <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(p.HourlyRate), true
}

// insufficientFundsBooking registers a fresh driver with no balance and books
// inside the settlement window. The service may either reject the booking or
// create it canceled.
func insufficientFundsBooking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	base := sc.State.Driver
	broke := domain.Actor{
		Role:     domain.RoleDriver,
		Login:    base.Login + "_nf",
		Email:    "nf_" + base.Email,
		Password: base.Password,
	}
	if out := register(ctx, sc, &broke, "Register Driver Without Funds"); out.Status != domain.OutcomePassed {
		return out
	}

	sc.Services.Booking.SetCredential(broke.Token)
	b, res := createBooking(ctx, sc, sc.State.ParkingID, immediateStart, time.Hour)
	switch {
	case res.Unavailable():
		sc.Expect("Create Booking Without Funds", res, 200)
		return sc.Failure()
	case res.Status == 400:
		if !sc.ExpectPaths(res, ucassert.ContainsText("$.error_message", "insufficient funds")) {
			return sc.Failure()
		}
		return sc.Passf("Booking without funds rejected: %s", res.Diagnostic())
	case res.Status == 200:
		if !strings.EqualFold(b.Status, domain.BookingCanceled) {
			return sc.Failf("Expected status %s for a driver without funds, got %q", domain.BookingCanceled, b.Status)
		}
		return sc.Passf("Booking %d without funds created as %s", b.BookingID, b.Status)
	default:
		sc.Expect("Create Booking Without Funds", res, 400)
		return sc.Failure()
	}
}
