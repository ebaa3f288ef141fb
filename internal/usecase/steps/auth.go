package steps

import (
	"context"
	"fmt"

	"github.com/hextract/parking-net/internal/domain"
	ucassert "github.com/hextract/parking-net/internal/usecase/assert"
	"github.com/hextract/parking-net/internal/usecase/extract"
	"github.com/hextract/parking-net/internal/usecase/scenario"
)

func registerOwner(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	return register(ctx, sc, &sc.State.Owner, "Register Owner")
}

func registerDriver(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	return register(ctx, sc, &sc.State.Driver, "Register Driver")
}

// registerAdminRejected tries self-service registration with the admin role.
func registerAdminRejected(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	login := sc.State.Owner.Login + "_adm"
	res := sc.Services.Auth.Anonymous().Post(ctx, "/auth/register", registerBody{
		Email:      login + "@test.com",
		Login:      login,
		Password:   sc.State.Owner.Password,
		Role:       string(domain.RoleAdmin),
		TelegramID: int64(sc.Fake.Number(100000000, 999999999)),
	})
	if !sc.ExpectOneOf("Register Admin Rejected", res, ucassert.RejectedRole) {
		return sc.Failure()
	}
	return sc.Passf("Self-service admin registration correctly rejected with %d", res.Status)
}

func loginOwner(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	return login(ctx, sc, &sc.State.Owner, "Login Owner")
}

func loginDriver(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	return login(ctx, sc, &sc.State.Driver, "Login Driver")
}

// currentUser checks GET /auth/me against the registered driver and records
// the driver's user id.
func currentUser(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	d := &sc.State.Driver
	res := sc.Services.Auth.As(d.Token).Get(ctx, "/auth/me", nil)
	if !sc.Expect("Get Current User", res, 200) {
		return sc.Failure()
	}

	fields, _ := extract.Apply(res.Body, extract.Rules{
		"user_id": "$.user_id",
		"login":   "$.login",
		"email":   "$.email",
		"role":    "$.role",
	})
	if fields["user_id"] == "" {
		return sc.Failf("No user_id in response. Response: %s", res.Diagnostic())
	}
	want := map[string]string{"login": d.Login, "email": d.Email, "role": string(domain.RoleDriver)}
	for _, k := range []string{"login", "email", "role"} {
		if fields[k] != want[k] {
			return sc.Failf("Expected %s %q, got %q", k, want[k], fields[k])
		}
	}
	if tg, ok := extract.Int(res.Body, "$.telegram_id"); ok && d.TelegramID > 0 && tg != d.TelegramID {
		sc.Warnf("telegram_id mismatch: registered %d, got %d", d.TelegramID, tg)
	}

	sc.State.DriverUserID = fields["user_id"]
	if claims, ok := domain.InspectToken(d.Token); ok && claims.Subject != "" && claims.Subject != sc.State.DriverUserID {
		sc.Warnf("token subject %q differs from user_id %q", claims.Subject, sc.State.DriverUserID)
	}
	return sc.Passf("Current user is %s (user_id %s)", fields["login"], fields["user_id"])
}

func meWithoutToken(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	res := sc.Services.Auth.Anonymous().Get(ctx, "/auth/me", nil)
	if !sc.ExpectOneOf("Get Me Without Token", res, ucassert.MissingCredential) {
		return sc.Failure()
	}
	return sc.Passf("Missing token correctly rejected with %d", res.Status)
}

func meWithInvalidToken(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	res := sc.Services.Auth.As("invalid.token.value").Get(ctx, "/auth/me", nil)
	if !sc.ExpectOneOf("Get Me With Invalid Token", res, ucassert.InvalidCredential) {
		return sc.Failure()
	}
	return sc.Passf("Invalid token correctly rejected with %d", res.Status)
}

type changePasswordBody struct {
	Login       string `json:"login"`
	OldPassword string `json:"oldPassword,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

// changePassword walks the password change flow for the driver: a wrong old
// password and a missing field are rejected, a valid change issues a new
// token, and afterwards only the new password logs in.
func changePassword(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	d := &sc.State.Driver
	auth := sc.Services.Auth
	auth.SetCredential(d.Token)
	defer auth.SetCredential("")

	newPassword := fmt.Sprintf("NewPass%d", sc.Fake.Number(1000, 9999))

	res := auth.Post(ctx, "/auth/change-password", changePasswordBody{
		Login:       d.Login,
		OldPassword: d.Password + "x",
		NewPassword: newPassword,
	})
	if !sc.Expect("Change Password With Wrong Old Password", res, 401) {
		return sc.Failure()
	}

	res = auth.Post(ctx, "/auth/change-password", changePasswordBody{Login: d.Login})
	if !sc.ExpectOneOf("Change Password Missing Fields", res, ucassert.MissingFields) {
		return sc.Failure()
	}

	res = auth.Post(ctx, "/auth/change-password", changePasswordBody{
		Login:       d.Login,
		OldPassword: d.Password,
		NewPassword: newPassword,
	})
	if !sc.Expect("Change Password", res, 200) {
		return sc.Failure()
	}
	tok, ok := tokenFrom(sc, res)
	if !ok {
		return sc.Failure()
	}
	oldPassword := d.Password
	d.Password = newPassword
	d.Token = tok

	res = loginAs(ctx, sc, d.Login, oldPassword)
	if !sc.Expect("Login With Old Password", res, 401) {
		return sc.Failure()
	}

	res = loginAs(ctx, sc, d.Login, newPassword)
	if !sc.Expect("Login With New Password", res, 200) {
		return sc.Failure()
	}
	if tok, ok := tokenFrom(sc, res); ok {
		d.Token = tok
	}
	return sc.Passf("Password changed; old password rejected, new password accepted")
}
