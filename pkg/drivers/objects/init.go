package objects

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
)

var (
	publishedMu sync.RWMutex
	published   []*Realm
)

func init() {
	driver.Register("objects", open)
}

// Publish makes r available to drivers opened from configuration.
// Publishing a realm with the name of an earlier one replaces it.
func Publish(r *Realm) {
	publishedMu.Lock()
	defer publishedMu.Unlock()
	for i, p := range published {
		if p.Name() == r.Name() {
			published[i] = r
			return
		}
	}
	published = append(published, r)
}

// Published returns the published realms in publication order.
func Published() []*Realm {
	publishedMu.RLock()
	defer publishedMu.RUnlock()
	return append([]*Realm(nil), published...)
}

// open exposes the configured realms by name, or every published realm
// when none are listed.
func open(_ context.Context, cfg core.DriverConfig, logger *slog.Logger) (driver.Driver, error) {
	all := Published()
	if len(cfg.Databases) == 0 {
		return New(all, logger), nil
	}

	byName := make(map[string]*Realm, len(all))
	for _, r := range all {
		byName[r.Name()] = r
	}
	realms := make([]*Realm, 0, len(cfg.Databases))
	for _, dc := range cfg.Databases {
		r, ok := byName[dc.Name]
		if !ok {
			return nil, fmt.Errorf("objects: realm %q is not published", dc.Name)
		}
		realms = append(realms, r)
	}
	return New(realms, logger), nil
}
