package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	accountdomain "github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/internal/config"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectLocation    = "location"
	ObjectSection     = "section"
	ObjectStall       = "stall"
	ObjectNonrentable = "nonrentable"
	ObjectRenter      = "renter"
	ObjectInvoice     = "invoice"
	ObjectAccount     = "account"
	ObjectChangeLog   = "change_log"
	ObjectErrorLog    = "error_log"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	// ActionStatus covers activate and deactivate.
	ActionStatus = "status"

	ActionInvoiceGenerate = "generate"
	ActionAccountAccess   = "access"
)

type accountLookup interface {
	Lookup(ctx context.Context, orgID, id snowflake.ID) (accountdomain.AccountRow, error)
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Enforcer *casbin.SyncedEnforcer
	Accounts accountdomain.Service
}

type ServiceImpl struct {
	log      *zap.Logger
	cfg      config.Config
	enforcer *casbin.SyncedEnforcer
	accounts accountLookup
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return newService(p.Log, p.Config, p.Enforcer, p.Accounts)
}

func newService(log *zap.Logger, cfg config.Config, enforcer *casbin.SyncedEnforcer, accounts accountLookup) *ServiceImpl {
	return &ServiceImpl{
		log:      log.Named("authorization.service"),
		cfg:      cfg,
		enforcer: enforcer,
		accounts: accounts,
	}
}

func (s *ServiceImpl) ResolveActor(ctx context.Context, orgID, accountID snowflake.ID) (Actor, error) {
	if orgID == 0 {
		return Actor{}, ErrInvalidOrganization
	}
	if accountID == 0 {
		return Actor{}, ErrInvalidActor
	}

	account, err := s.accounts.Lookup(ctx, orgID, accountID)
	if err != nil {
		if errors.Is(err, accountdomain.ErrNotFound) {
			return Actor{}, ErrForbidden
		}
		return Actor{}, err
	}

	actor := Actor{AccountID: account.ID, OrgID: orgID, Email: account.Email}
	switch {
	case s.cfg.IsSuperAdmin(account.Email):
		actor.Role = RoleSuperAdmin
	case account.Status == referencedomain.StatusActive && account.HasAccess:
		actor.Role = RoleMember
	default:
		return Actor{}, ErrForbidden
	}
	return actor, nil
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, object string, action string) error {
	if actor.AccountID == 0 || actor.Role == "" {
		return ErrInvalidActor
	}
	if actor.OrgID == 0 {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("account:%s", actor.AccountID.String())
	domain := fmt.Sprintf("org:%s", actor.OrgID.String())
	if err := s.ensureGrouping(subject, "role:"+actor.Role, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("subject", subject),
			zap.String("domain", domain),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps exactly one role link for subject in domain, so a
// role change (e.g. revoked system access) takes effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	superadmin := "role:" + RoleSuperAdmin
	member := "role:" + RoleMember

	var policies [][]string
	for _, object := range []string{
		ObjectLocation, ObjectSection, ObjectStall, ObjectNonrentable,
		ObjectRenter, ObjectInvoice, ObjectAccount, ObjectChangeLog, ObjectErrorLog,
	} {
		policies = append(policies, []string{superadmin, object, "*"})
	}

	// Members run day-to-day collections but cannot manage accounts.
	for _, object := range []string{ObjectLocation, ObjectSection, ObjectStall, ObjectNonrentable, ObjectRenter, ObjectInvoice} {
		for _, action := range []string{ActionView, ActionCreate, ActionUpdate, ActionStatus} {
			policies = append(policies, []string{member, object, action})
		}
	}
	policies = append(policies,
		[]string{member, ObjectInvoice, ActionInvoiceGenerate},
		[]string{member, ObjectChangeLog, ActionView},
		[]string{member, ObjectErrorLog, ActionView},
	)

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
