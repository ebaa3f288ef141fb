package steps

import (
	"context"
	"strconv"

	"github.com/hextract/parking-net/internal/domain"
	ucassert "github.com/hextract/parking-net/internal/usecase/assert"
	"github.com/hextract/parking-net/internal/usecase/extract"
	"github.com/hextract/parking-net/internal/usecase/scenario"
)

const searchCity = "Moscow"

func centralParking(sc *scenario.Scope) domain.ParkingInput {
	return domain.ParkingInput{
		Name:        "Central Parking",
		City:        searchCity,
		Address:     sc.Fake.Street(),
		ParkingType: "underground",
		HourlyRate:  150,
		Capacity:    200,
	}
}

func airportParking(sc *scenario.Scope) domain.ParkingInput {
	return domain.ParkingInput{
		Name:        "Airport Parking",
		City:        searchCity,
		Address:     sc.Fake.Street(),
		ParkingType: "covered",
		HourlyRate:  200,
		Capacity:    500,
	}
}

func createPrimaryParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Owner.Token)

	id, res := createParking(ctx, sc, centralParking(sc))
	if !sc.Expect("Create Parking", res, 200) {
		return sc.Failure()
	}
	if id == 0 {
		return sc.Failf("No parking ID in response")
	}
	sc.State.ParkingID = id
	sc.State.AddParking(id)
	return sc.Passf("Parking place created with ID: %d", id)
}

func createSecondParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Owner.Token)

	id, res := createParking(ctx, sc, airportParking(sc))
	if !sc.Expect("Create Second Parking", res, 200) {
		return sc.Failure()
	}
	if id == 0 {
		return sc.Failf("No parking ID in response")
	}
	sc.State.AddParking(id)
	return sc.Passf("Second parking place created with ID: %d", id)
}

func searchParkingByCity(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Driver.Token)

	res := sc.Services.Parking.Get(ctx, "/parking", map[string]string{"city": searchCity})
	if !sc.Expect("Search Parking by City", res, 200) {
		return sc.Failure()
	}
	list := res.List()
	if list == nil {
		return sc.Failf("Expected a list, got %s", res.Diagnostic())
	}
	if len(list) < 2 {
		return sc.Failf("Expected at least 2 parkings, got %d", len(list))
	}
	if ids := extract.IDs(res.Body, "$[*].id"); !containsAll(ids, sc.State.ParkingIDs...) {
		return sc.Failf("Search results %v do not contain created parkings %v", ids, sc.State.ParkingIDs)
	}
	return sc.Passf("Found %d parking places in %s", len(list), searchCity)
}

func getParkingByID(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Driver.Token)

	res := sc.Services.Parking.Get(ctx, parkingPath(sc.State.ParkingID), nil)
	if !sc.Expect("Get Parking by ID", res, 200) {
		return sc.Failure()
	}
	p, _ := domain.DecodeAs[domain.Parking](res)
	if p.ID != sc.State.ParkingID {
		return sc.Failf("Expected ID %d, got %d", sc.State.ParkingID, p.ID)
	}
	return sc.Passf("Retrieved parking: %s", p.Name)
}

func searchParkingByType(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Driver.Token)

	res := sc.Services.Parking.Get(ctx, "/parking", map[string]string{"parking_type": "underground"})
	if !sc.Expect("Search by Type", res, 200) {
		return sc.Failure()
	}
	list := res.List()
	if list == nil {
		return sc.Failf("Expected a list, got %s", res.Diagnostic())
	}
	for _, p := range list {
		if t, _ := p["parking_type"].(string); t != "underground" {
			return sc.Failf("Found parking of type %q in underground search", t)
		}
	}
	return sc.Passf("Found %d underground parking places", len(list))
}

func updateParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Owner.Token)

	in := centralParking(sc)
	in.Name = "Updated Central Parking"
	in.HourlyRate = 180
	in.Capacity = 250

	res := sc.Services.Parking.Put(ctx, parkingPath(sc.State.ParkingID), in)
	if !sc.Expect("Update Parking", res, 200) {
		return sc.Failure()
	}
	if !sc.ExpectPaths(res, ucassert.Equals("$.name", in.Name)) {
		return sc.Failure()
	}
	return sc.Passf("Parking place updated successfully")
}

func driverCannotCreateParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Driver.Token)

	in := centralParking(sc)
	in.Name = "Unauthorized Parking"
	in.ParkingType = "outdoor"
	_, res := createParking(ctx, sc, in)
	if !sc.Expect("Driver Create Parking Forbidden", res, 403) {
		return sc.Failure()
	}
	return sc.Passf("Driver correctly forbidden from creating parking")
}

func driverCannotUpdateParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Driver.Token)

	in := centralParking(sc)
	in.Name = "Hacked Parking"
	in.HourlyRate = 1
	in.Capacity = 1
	res := sc.Services.Parking.Put(ctx, parkingPath(sc.State.ParkingID), in)
	if !sc.Expect("Driver Update Parking Forbidden", res, 403) {
		return sc.Failure()
	}
	return sc.Passf("Driver correctly forbidden from updating owner's parking")
}

func getMissingParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	res := sc.Services.Parking.Get(ctx, parkingPath(missingID), nil)
	if !sc.Expect("Get Non-Existent Parking", res, 404) {
		return sc.Failure()
	}
	return sc.Passf("Correctly returned 404 for non-existent parking")
}

func ownerListsOwnParkings(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	p := sc.Services.Parking
	p.SetCredential(sc.State.Owner.Token)

	res := p.Get(ctx, parkingPath(sc.State.ParkingIDs[0]), nil)
	if res.Status != 200 {
		return sc.Skipf("Could not retrieve parking to get owner_id (status %d)", res.Status)
	}
	parking, _ := domain.DecodeAs[domain.Parking](res)
	if parking.OwnerID == "" {
		return sc.Skipf("No owner_id in parking")
	}

	res = p.Get(ctx, "/parking", map[string]string{"owner_id": parking.OwnerID})
	if !sc.Expect("Get Parkings by owner_id", res, 200) {
		return sc.Failure()
	}
	list, ok := domain.DecodeAs[[]domain.Parking](res)
	if !ok {
		return sc.Failf("Expected parkings list, got %s", res.Diagnostic())
	}
	ids := make([]int64, 0, len(list))
	for _, it := range list {
		if it.OwnerID != parking.OwnerID {
			return sc.Failf("Found parking with different owner_id: %s", it.OwnerID)
		}
		ids = append(ids, it.ID)
	}
	if !containsAll(ids, sc.State.ParkingIDs...) {
		return sc.Failf("Owner listing %v misses created parkings %v", ids, sc.State.ParkingIDs)
	}
	return sc.Passf("Owner found %d of their own parking places", len(list))
}

// ownerDeletesParking creates a throwaway parking and deletes it.
func ownerDeletesParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	p := sc.Services.Parking
	p.SetCredential(sc.State.Owner.Token)

	in := domain.ParkingInput{
		Name:        "Temporary Parking",
		City:        searchCity,
		Address:     sc.Fake.Street(),
		ParkingType: "outdoor",
		HourlyRate:  50,
		Capacity:    10,
	}
	id, res := createParking(ctx, sc, in)
	if res.Status != 200 || id == 0 {
		return sc.Skipf("Could not create parking to delete (status %d)", res.Status)
	}

	res = p.Delete(ctx, parkingPath(id))
	if !sc.Expect("Delete Parking", res, 200) {
		return sc.Failure()
	}
	if !expectSuccessStatus(sc, res) {
		return sc.Failure()
	}

	res = p.Get(ctx, parkingPath(id), nil)
	if !sc.Expect("Get Deleted Parking", res, 404) {
		return sc.Failure()
	}
	return sc.Passf("Parking %d deleted successfully", id)
}

func driverCannotDeleteParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Driver.Token)

	res := sc.Services.Parking.Delete(ctx, parkingPath(sc.State.ParkingID))
	if !sc.Expect("Driver Delete Parking Forbidden", res, 403) {
		return sc.Failure()
	}
	return sc.Passf("Driver correctly forbidden from deleting parking")
}

func ownerDeletesMissingParking(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	sc.Services.Parking.SetCredential(sc.State.Owner.Token)

	res := sc.Services.Parking.Delete(ctx, parkingPath(missingID))
	if !sc.ExpectOneOf("Owner Delete Foreign Parking", res, ucassert.HiddenOrForbidden) {
		return sc.Failure()
	}
	return sc.Passf("Correctly returned %s for unauthorized/non-existent parking deletion", strconv.Itoa(res.Status))
}
