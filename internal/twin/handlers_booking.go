package twin

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// settlementWindow is how close to now a booking must start to be paid on
// creation.
const settlementWindow = 5 * time.Minute

const (
	statusWaiting   = "Waiting"
	statusConfirmed = "Confirmed"
	statusCanceled  = "Canceled"
)

type bookingRequest struct {
	ParkingPlaceID int64  `json:"parking_place_id"`
	DateFrom       string `json:"date_from"`
	DateTo         string `json:"date_to"`
	Status         string `json:"status"`
}

type bookingResponse struct {
	BookingID      int64       `json:"booking_id"`
	ParkingPlaceID int64       `json:"parking_place_id"`
	DateFrom       string      `json:"date_from"`
	DateTo         string      `json:"date_to"`
	Status         string      `json:"status"`
	FullCost       json.Number `json:"full_cost"`
	UserID         string      `json:"user_id"`
}

func toBooking(b *booking) bookingResponse {
	return bookingResponse{
		BookingID:      b.ID,
		ParkingPlaceID: b.ParkingID,
		DateFrom:       b.From.Format(time.RFC3339),
		DateTo:         b.To.Format(time.RFC3339),
		Status:         b.Status,
		FullCost:       number(b.Cost),
		UserID:         b.UserID,
	}
}

func (req bookingRequest) window() (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, req.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, req.DateTo)
	if err != nil || !to.After(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// cost charges every started hour.
func cost(rate int64, from, to time.Time) decimal.Decimal {
	hours := int64(math.Ceil(to.Sub(from).Hours()))
	return decimal.NewFromInt(rate * hours)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	var req bookingRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	from, to, ok := req.window()
	if !ok {
		writeError(w, http.StatusBadRequest, "date_from and date_to must be RFC3339 and ordered")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	p, found := s.store.parkings[req.ParkingPlaceID]
	if !found {
		writeError(w, http.StatusNotFound, "parking place not found")
		return
	}
	b := &booking{
		ParkingID: p.ID,
		From:      from.UTC(),
		To:        to.UTC(),
		Status:    statusWaiting,
		Cost:      cost(p.HourlyRate, from, to),
		UserID:    u.ID,
	}

	if from.Before(s.now().Add(settlementWindow)) {
		bal := s.store.balances[u.ID]
		if bal.LessThan(b.Cost) {
			writeError(w, http.StatusBadRequest, "payment processing failed: insufficient funds")
			return
		}
		s.store.balances[u.ID] = bal.Sub(b.Cost)
		s.store.record(u.ID, "booking_payment", b.Cost)
		b.Status = statusConfirmed
	}

	s.store.nextBooking++
	b.ID = s.store.nextBooking
	s.store.bookings[b.ID] = b
	writeJSON(w, http.StatusOK, toBooking(b))
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	b, found := s.store.bookings[id]
	if !found || !s.canSee(caller(r), b) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, toBooking(b))
}

// canSee reports whether u booked b or owns its parking place. Callers hold mu.
func (s *Server) canSee(u user, b *booking) bool {
	if b.UserID == u.ID {
		return true
	}
	p, ok := s.store.parkings[b.ParkingID]
	return ok && p.OwnerID == u.ID
}

func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	q := r.URL.Query()
	var parkingID int64
	if v := q.Get("parking_place_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid parking_place_id")
			return
		}
		parkingID = id
	}
	userID := q.Get("user_id")

	s.store.mu.Lock()
	out := make([]bookingResponse, 0, len(s.store.bookings))
	for _, b := range s.store.bookings {
		if parkingID != 0 && b.ParkingID != parkingID {
			continue
		}
		if userID != "" && b.UserID != userID {
			continue
		}
		if !s.canSee(u, b) {
			continue
		}
		out = append(out, toBooking(b))
	}
	s.store.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].BookingID < out[j].BookingID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req bookingRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Status == statusConfirmed {
		writeError(w, http.StatusBadRequest, "status Confirmed can only be set by the payment service")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	b, found := s.store.bookings[id]
	if !found || !s.canSee(caller(r), b) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if from, to, ok := req.window(); ok {
		b.From, b.To = from.UTC(), to.UTC()
	}
	if req.Status == statusCanceled || req.Status == statusWaiting {
		b.Status = req.Status
	}
	writeJSON(w, http.StatusOK, toBooking(b))
}

// deleteBooking removes a booking and refunds it when it was paid.
func (s *Server) deleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	b, found := s.store.bookings[id]
	if !found || !s.canSee(caller(r), b) {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	if b.Status == statusConfirmed {
		s.store.balances[b.UserID] = s.store.balances[b.UserID].Add(b.Cost)
		s.store.record(b.UserID, "booking_refund", b.Cost)
	}
	delete(s.store.bookings, id)
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}
