package steps

import (
	"context"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/usecase/scenario"
)

// provisionAdmin makes sure the administrator account exists and can log in.
//
// Administrators cannot self-register, so when an identity admin API is
// configured the account is looked up or created there first. Without one the
// step only tries to log in with the configured credentials.
func provisionAdmin(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	a := &sc.State.Admin
	ensureTelegramID(sc, a)

	if sc.Admin != nil {
		u, err := sc.Admin.EnsureUser(ctx, *a, sc.AdminGroup)
		if err != nil {
			return sc.Failf("Provision admin %s: %v", a.Login, err)
		}
		switch {
		case u.Created:
			sc.Infof("Admin %s created (id %s)", a.Login, u.ID)
		default:
			sc.Infof("Admin %s already exists (id %s), reusing it", a.Login, u.ID)
		}
		if u.JoinedGroup {
			sc.Infof("Admin %s added to group %s", a.Login, sc.AdminGroup)
		}
	}

	res := loginAs(ctx, sc, a.Login, a.Password)
	if sc.Admin == nil && res.Status != 200 && !res.Unavailable() {
		return sc.Skipf("identity admin API not configured and admin %s cannot log in (status %d)", a.Login, res.Status)
	}
	if !sc.Expect("Login Admin", res, 200) {
		return sc.Failure()
	}
	tok, ok := tokenFrom(sc, res)
	if !ok {
		return sc.Failure()
	}
	a.Token = tok
	return sc.Passf("Admin logged in. Token: %s", domain.AbbrevToken(tok))
}
