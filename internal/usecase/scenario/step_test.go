package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hextract/parking-net/internal/domain"
)

func noop(context.Context, *Scope) domain.Outcome { return domain.Passed("ok") }

func samplePlan() Plan {
	return Plan{
		{Name: "register_owner", Produces: []domain.StateKey{domain.KeyOwnerToken}, Run: noop},
		{Name: "register_driver", Produces: []domain.StateKey{domain.KeyDriverToken}, Run: noop},
		{Name: "login_owner", Requires: []domain.StateKey{domain.KeyOwnerToken}, Produces: []domain.StateKey{domain.KeyOwnerToken}, Run: noop},
		{Name: "get_missing_parking", Run: noop},
		{Name: "create_parking", Requires: []domain.StateKey{domain.KeyOwnerToken}, Produces: []domain.StateKey{domain.KeyParkingID, domain.KeyParkingIDs}, Run: noop},
		{Name: "create_booking", Requires: []domain.StateKey{domain.KeyDriverToken, domain.KeyParkingID}, Produces: []domain.StateKey{domain.KeyBookingIDs}, Run: noop},
	}
}

func TestPlanValidate_OK(t *testing.T) {
	require.NoError(t, samplePlan().Validate())
}

func TestPlanValidate_ReportsEveryProblem(t *testing.T) {
	plan := Plan{
		{Name: "create_booking", Requires: []domain.StateKey{domain.KeyParkingID}, Run: noop},
		{Name: "create_parking", Produces: []domain.StateKey{domain.KeyParkingID}, Run: noop},
		{Name: "create_parking", Run: noop},
		{Name: "", Run: noop},
		{Name: "no_func"},
		{Name: "weird", Requires: []domain.StateKey{"session_cookie"}, Run: noop},
	}

	err := plan.Validate()
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
	assert.True(t, errors.Is(err, domain.ErrInvalidPlan))

	msg := err.Error()
	for _, want := range []string{
		`step "create_booking": requires "parking_id", which no earlier step produces`,
		`duplicate name "create_parking" (first at #2)`,
		"step #4: empty name",
		`step "no_func": no run func`,
		`requires unknown key "session_cookie"`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestPlanSelect_IncludesNearestProducers(t *testing.T) {
	got, err := samplePlan().Select([]string{"create_booking"})
	require.NoError(t, err)

	// create_booking needs driver_token and parking_id; parking_id needs
	// owner_token whose nearest producer is login_owner, which in turn
	// needs register_owner.
	assert.Equal(t, []string{
		"register_owner",
		"register_driver",
		"login_owner",
		"create_parking",
		"create_booking",
	}, got.Names())
	require.NoError(t, got.Validate())
}

func TestPlanSelect_EmptyKeepsAll(t *testing.T) {
	got, err := samplePlan().Select(nil)
	require.NoError(t, err)
	assert.Len(t, got, len(samplePlan()))
}

func TestPlanSelect_UnknownName(t *testing.T) {
	_, err := samplePlan().Select([]string{"get_missing_parking", "teleport"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.Contains(t, err.Error(), "teleport")
}
