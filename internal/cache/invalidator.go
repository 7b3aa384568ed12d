package cache

import (
	"context"

	"github.com/rs/zerolog"

	"bookkeeper/internal/logger"
	"bookkeeper/pkg/services"
)

// Invalidator drops cached results touched by store mutations
type Invalidator struct {
	cache Cache
	log   zerolog.Logger
}

// NewInvalidator creates a services.ChangeNotifier that invalidates c
func NewInvalidator(c Cache) *Invalidator {
	return &Invalidator{
		cache: c,
		log:   logger.WithComponent("cache-invalidator"),
	}
}

// Notify implements services.ChangeNotifier
func (i *Invalidator) Notify(ctx context.Context, event services.ChangeEvent) {
	dropped := 0
	for _, a := range event.Accounts {
		dropped += i.cache.InvalidatePattern(AccountPattern(a))
	}
	for _, c := range event.CompanyIDs {
		if c == "" {
			continue
		}
		dropped += i.cache.InvalidatePattern(CompanyPattern(c))
	}
	for _, p := range event.Products {
		if p == "" {
			continue
		}
		dropped += i.cache.InvalidatePattern(ProductPattern(p))
	}

	i.log.Debug().
		Str("entity", event.Entity).
		Int("accounts", len(event.Accounts)).
		Strs("companies", event.CompanyIDs).
		Strs("products", event.Products).
		Int("dropped", dropped).
		Msg("Cache invalidated after mutation")
}
