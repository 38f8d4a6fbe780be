package cache

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultLookupTTL = 2 * time.Minute

// Invalidator drops every cached list of an organization.
type Invalidator interface {
	Invalidate(orgID snowflake.ID)
}

// LookupCache memoizes dropdown option lists per organization.
// Writers call Invalidate after changing locations, sections, stalls or renters.
type LookupCache interface {
	Invalidator

	LocationOptions(ctx context.Context, orgID snowflake.ID) ([]referencedomain.Option, error)
	SectionOptions(ctx context.Context, orgID snowflake.ID, locationID *snowflake.ID) ([]referencedomain.Option, error)
	ActiveRenterOptions(ctx context.Context, orgID snowflake.ID) ([]referencedomain.Option, error)
	VacantStallOptions(ctx context.Context, orgID snowflake.ID, sectionID *snowflake.ID) ([]referencedomain.Option, error)
}

type LookupParams struct {
	fx.In

	Repo referencedomain.Repository
	Log  *zap.Logger
}

type lookupCache struct {
	repo    referencedomain.Repository
	log     *zap.Logger
	options Cache[string, []referencedomain.Option]
	ttl     time.Duration
}

func NewLookupCache(p LookupParams) LookupCache {
	return &lookupCache{
		repo:    p.Repo,
		log:     p.Log.Named("cache.lookup"),
		options: NewTTLCache[string, []referencedomain.Option](),
		ttl:     defaultLookupTTL,
	}
}

var Module = fx.Module("cache.lookup",
	fx.Provide(NewLookupCache),
	fx.Provide(func(c LookupCache) Invalidator { return c }),
)

func (c *lookupCache) LocationOptions(ctx context.Context, orgID snowflake.ID) ([]referencedomain.Option, error) {
	return c.load(orgPrefix(orgID)+"locations", func() ([]referencedomain.Option, error) {
		return c.repo.ListLocationOptions(ctx, orgID)
	})
}

func (c *lookupCache) SectionOptions(ctx context.Context, orgID snowflake.ID, locationID *snowflake.ID) ([]referencedomain.Option, error) {
	return c.load(orgPrefix(orgID)+"sections:"+idKey(locationID), func() ([]referencedomain.Option, error) {
		return c.repo.ListSectionOptions(ctx, orgID, locationID)
	})
}

func (c *lookupCache) ActiveRenterOptions(ctx context.Context, orgID snowflake.ID) ([]referencedomain.Option, error) {
	return c.load(orgPrefix(orgID)+"renters", func() ([]referencedomain.Option, error) {
		return c.repo.ListActiveRenterOptions(ctx, orgID)
	})
}

func (c *lookupCache) VacantStallOptions(ctx context.Context, orgID snowflake.ID, sectionID *snowflake.ID) ([]referencedomain.Option, error) {
	return c.load(orgPrefix(orgID)+"stalls:"+idKey(sectionID), func() ([]referencedomain.Option, error) {
		return c.repo.ListVacantStallOptions(ctx, orgID, sectionID)
	})
}

func (c *lookupCache) Invalidate(orgID snowflake.ID) {
	c.options.DeleteByPrefix(orgPrefix(orgID))
	c.log.Debug("lookup cache invalidated", zap.String("org_id", orgID.String()))
}

func (c *lookupCache) load(key string, fetch func() ([]referencedomain.Option, error)) ([]referencedomain.Option, error) {
	if cached, ok := c.options.Get(key); ok {
		return cached, nil
	}
	items, err := fetch()
	if err != nil {
		return nil, err
	}
	c.options.Set(key, items, c.ttl)
	return items, nil
}

func orgPrefix(orgID snowflake.ID) string {
	return "org:" + orgID.String() + ":"
}

func idKey(id *snowflake.ID) string {
	if id == nil {
		return "all"
	}
	return id.String()
}
