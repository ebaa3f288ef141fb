package twin

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type parkingRequest struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	Address     string `json:"address"`
	ParkingType string `json:"parking_type"`
	HourlyRate  int64  `json:"hourly_rate"`
	Capacity    int64  `json:"capacity"`
}

type parkingResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Address     string `json:"address"`
	ParkingType string `json:"parking_type"`
	HourlyRate  int64  `json:"hourly_rate"`
	Capacity    int64  `json:"capacity"`
	OwnerID     string `json:"owner_id"`
}

func toParking(p *parking) parkingResponse {
	return parkingResponse{
		ID:          p.ID,
		Name:        p.Name,
		City:        p.City,
		Address:     p.Address,
		ParkingType: p.ParkingType,
		HourlyRate:  p.HourlyRate,
		Capacity:    p.Capacity,
		OwnerID:     p.OwnerID,
	}
}

func (req parkingRequest) valid() bool {
	return req.Name != "" && req.City != "" && req.HourlyRate > 0 && req.Capacity > 0
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (s *Server) createParking(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	if u.Role != "owner" {
		writeError(w, http.StatusForbidden, "only owners can create parking places")
		return
	}
	var req parkingRequest
	if !decodeBody(r, &req) || !req.valid() {
		writeError(w, http.StatusBadRequest, "name, city, hourly_rate and capacity are required")
		return
	}

	s.store.mu.Lock()
	s.store.nextParking++
	p := &parking{
		ID:          s.store.nextParking,
		Name:        req.Name,
		City:        req.City,
		Address:     req.Address,
		ParkingType: req.ParkingType,
		HourlyRate:  req.HourlyRate,
		Capacity:    req.Capacity,
		OwnerID:     u.ID,
	}
	s.store.parkings[p.ID] = p
	out := toParking(p)
	s.store.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) searchParkings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city, typ, owner := q.Get("city"), q.Get("parking_type"), q.Get("owner_id")

	s.store.mu.Lock()
	out := make([]parkingResponse, 0, len(s.store.parkings))
	for _, p := range s.store.parkings {
		if city != "" && p.City != city {
			continue
		}
		if typ != "" && p.ParkingType != typ {
			continue
		}
		if owner != "" && p.OwnerID != owner {
			continue
		}
		out = append(out, toParking(p))
	}
	s.store.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getParking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.store.mu.Lock()
	p, found := s.store.parkings[id]
	var out parkingResponse
	if found {
		out = toParking(p)
	}
	s.store.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "parking place not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) updateParking(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	if u.Role != "owner" {
		writeError(w, http.StatusForbidden, "only owners can update parking places")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req parkingRequest
	if !decodeBody(r, &req) || !req.valid() {
		writeError(w, http.StatusBadRequest, "name, city, hourly_rate and capacity are required")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	p, found := s.store.parkings[id]
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "parking place not found")
		return
	case p.OwnerID != u.ID:
		writeError(w, http.StatusForbidden, "parking place belongs to another owner")
		return
	}
	p.Name, p.City, p.Address, p.ParkingType = req.Name, req.City, req.Address, req.ParkingType
	p.HourlyRate, p.Capacity = req.HourlyRate, req.Capacity
	writeJSON(w, http.StatusOK, toParking(p))
}

func (s *Server) deleteParking(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	if u.Role != "owner" {
		writeError(w, http.StatusForbidden, "only owners can delete parking places")
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	p, found := s.store.parkings[id]
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "parking place not found")
		return
	case p.OwnerID != u.ID:
		writeError(w, http.StatusForbidden, "parking place belongs to another owner")
		return
	}
	delete(s.store.parkings, id)
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

type statusResponse struct {
	Status string `json:"status"`
}
