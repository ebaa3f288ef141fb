// Package keycloak provisions harness accounts through the Keycloak admin
// REST API.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Nerzal/gocloak/v13"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/infra/logger"
	"github.com/hextract/parking-net/internal/ports"
)

type Provisioner struct {
	client *gocloak.GoCloak
	cfg    domain.IdentityAdminConfig
	log    *slog.Logger
}

type Option func(*Provisioner)

func WithLogger(l *slog.Logger) Option {
	return func(p *Provisioner) {
		if l != nil {
			p.log = l
		}
	}
}

func New(cfg domain.IdentityAdminConfig, opts ...Option) *Provisioner {
	p := &Provisioner{
		client: gocloak.NewClient(strings.TrimRight(cfg.URL, "/")),
		cfg:    cfg,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ ports.IdentityAdmin = (*Provisioner)(nil)

// EnsureUser looks the actor up by exact username and creates it only when
// absent. The password is always reset to actor.Password and membership in
// group is added when missing, so repeated calls converge on the same account.
func (p *Provisioner) EnsureUser(ctx context.Context, actor domain.Actor, group string) (ports.ProvisionedUser, error) {
	if p.cfg.Username == "" || p.cfg.Password == "" {
		return ports.ProvisionedUser{}, opErr("keycloak.login", domain.KindInvalidConfig,
			fmt.Errorf("%w: identity_admin.username and identity_admin.password are required", domain.ErrInvalidConfig))
	}

	jwt, err := p.client.LoginAdmin(ctx, p.cfg.Username, p.cfg.Password, p.cfg.MasterRealm)
	if err != nil {
		return ports.ProvisionedUser{}, opErr("keycloak.login", domain.KindUnavailable, err)
	}
	token := jwt.AccessToken

	out, err := p.lookupOrCreate(ctx, token, actor)
	if err != nil {
		return ports.ProvisionedUser{}, err
	}

	if err := p.client.SetPassword(ctx, token, out.ID, p.cfg.Realm, actor.Password, false); err != nil {
		return ports.ProvisionedUser{}, opErr("keycloak.password", domain.KindExecution, err)
	}

	if group != "" {
		joined, err := p.ensureMembership(ctx, token, out.ID, group)
		if err != nil {
			return ports.ProvisionedUser{}, err
		}
		out.JoinedGroup = joined
	}

	return out, nil
}

func (p *Provisioner) lookupOrCreate(ctx context.Context, token string, actor domain.Actor) (ports.ProvisionedUser, error) {
	id, err := p.findUser(ctx, token, actor.Login)
	if err != nil {
		return ports.ProvisionedUser{}, err
	}
	if id != "" {
		p.log.Info("keycloak.user.reused", "login", actor.Login, "user_id", id)
		return ports.ProvisionedUser{ID: id}, nil
	}

	user := gocloak.User{
		Username:      gocloak.StringP(actor.Login),
		Email:         gocloak.StringP(actor.Email),
		Enabled:       gocloak.BoolP(true),
		EmailVerified: gocloak.BoolP(true),
		Attributes: &map[string][]string{
			"telegram_id": {strconv.FormatInt(actor.TelegramID, 10)},
		},
	}

	id, err = p.client.CreateUser(ctx, token, p.cfg.Realm, user)
	if err != nil {
		if !isConflict(err) {
			return ports.ProvisionedUser{}, opErr("keycloak.users.create", domain.KindExecution, err)
		}
		// created concurrently between lookup and create
		id, err = p.findUser(ctx, token, actor.Login)
		if err != nil {
			return ports.ProvisionedUser{}, err
		}
		if id == "" {
			return ports.ProvisionedUser{}, opErr("keycloak.users.create", domain.KindExecution,
				fmt.Errorf("user %q reported as existing but not found", actor.Login))
		}
		p.log.Info("keycloak.user.reused", "login", actor.Login, "user_id", id)
		return ports.ProvisionedUser{ID: id}, nil
	}

	p.log.Info("keycloak.user.created", "login", actor.Login, "user_id", id)
	return ports.ProvisionedUser{ID: id, Created: true}, nil
}

func (p *Provisioner) findUser(ctx context.Context, token, login string) (string, error) {
	users, err := p.client.GetUsers(ctx, token, p.cfg.Realm, gocloak.GetUsersParams{
		Username: gocloak.StringP(login),
		Exact:    gocloak.BoolP(true),
	})
	if err != nil {
		return "", opErr("keycloak.users.lookup", domain.KindExecution, err)
	}
	for _, u := range users {
		if u == nil || u.ID == nil || u.Username == nil {
			continue
		}
		if strings.EqualFold(*u.Username, login) {
			return *u.ID, nil
		}
	}
	return "", nil
}

// ensureMembership reports whether the user had to be added to group.
func (p *Provisioner) ensureMembership(ctx context.Context, token, userID, group string) (bool, error) {
	groups, err := p.client.GetGroups(ctx, token, p.cfg.Realm, gocloak.GetGroupsParams{
		Search: gocloak.StringP(group),
	})
	if err != nil {
		return false, opErr("keycloak.groups", domain.KindExecution, err)
	}
	groupID := ""
	for _, g := range groups {
		if g != nil && g.ID != nil && g.Name != nil && *g.Name == group {
			groupID = *g.ID
			break
		}
	}
	if groupID == "" {
		return false, opErr("keycloak.groups", domain.KindNotFound,
			fmt.Errorf("%w: group %q in realm %q", domain.ErrNotFound, group, p.cfg.Realm))
	}

	current, err := p.client.GetUserGroups(ctx, token, p.cfg.Realm, userID, gocloak.GetGroupsParams{})
	if err != nil {
		return false, opErr("keycloak.groups", domain.KindExecution, err)
	}
	for _, g := range current {
		if g != nil && g.ID != nil && *g.ID == groupID {
			return false, nil
		}
	}

	if err := p.client.AddUserToGroup(ctx, token, p.cfg.Realm, userID, groupID); err != nil {
		return false, opErr("keycloak.groups", domain.KindExecution, err)
	}
	p.log.Info("keycloak.group.joined", "user_id", userID, "group", group)
	return true, nil
}

func isConflict(err error) bool {
	var apiErr *gocloak.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusConflict
	}
	return strings.Contains(strings.ToLower(err.Error()), "exists")
}

func opErr(op string, kind domain.ErrorKind, err error) error {
	return &domain.OpError{Op: op, Kind: kind, Err: err}
}
