package steps

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hextract/parking-net/internal/domain"
)

func TestCatalogIsValid(t *testing.T) {
	plan := Catalog()
	require.NoError(t, plan.Validate())
	assert.Len(t, plan, 43)

	for _, s := range plan {
		assert.NotEmpty(t, s.Description, s.Name)
	}
}

func TestCatalogOrder(t *testing.T) {
	names := Catalog().Names()

	want := []string{"register_owner", "register_driver", "register_admin_rejected"}
	if diff := cmp.Diff(want, names[:3]); diff != "" {
		t.Fatalf("first steps mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "change_password", names[len(names)-1])

	pos := map[string]int{}
	for i, n := range names {
		pos[n] = i
	}
	before := [][2]string{
		{"create_parking", "create_booking"},
		{"provision_admin", "admin_creates_promocode"},
		{"activate_promocode", "paid_booking_and_refund"},
		{"paid_booking_and_refund", "driver_generates_promocode"},
		{"driver_generates_promocode", "transactions_history"},
	}
	for _, b := range before {
		assert.Less(t, pos[b[0]], pos[b[1]], "%s must run before %s", b[0], b[1])
	}
}

func TestCatalogSelectPullsInProducers(t *testing.T) {
	sel, err := Catalog().Select([]string{"activate_promocode"})
	require.NoError(t, err)

	want := []string{
		"register_driver",
		"login_driver",
		"provision_admin",
		"admin_creates_promocode",
		"activate_promocode",
	}
	if diff := cmp.Diff(want, sel.Names()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogSelectUnknownStep(t *testing.T) {
	_, err := Catalog().Select([]string{"no_such_step"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
