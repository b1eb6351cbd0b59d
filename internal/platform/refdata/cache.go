// Package refdata maintains an in-memory snapshot of the safety and
// coverage reference tables: drug interactions, dose ranges, and the
// formulary. The prescription pipeline reads the snapshot on every
// request instead of hitting the database per medication.
package refdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pharmasense/pharmasense/internal/domain/formulary"
	"github.com/pharmasense/pharmasense/internal/domain/rules"
)

// Cache holds the latest reference snapshot. Reads never block on a
// reload; a failed reload keeps the previous snapshot in place.
type Cache struct {
	interactions rules.DrugInteractionRepository
	doseRanges   rules.DoseRangeRepository
	formulary    formulary.Repository
	log          zerolog.Logger

	mu       sync.RWMutex
	snapshot snapshot
}

type snapshot struct {
	interactions []rules.DrugInteraction
	doseRanges   []rules.DoseRange
	entries      []formulary.Entry
	loadedAt     time.Time
}

func NewCache(
	interactions rules.DrugInteractionRepository,
	doseRanges rules.DoseRangeRepository,
	formularyRepo formulary.Repository,
	log zerolog.Logger,
) *Cache {
	return &Cache{
		interactions: interactions,
		doseRanges:   doseRanges,
		formulary:    formularyRepo,
		log:          log.With().Str("component", "refdata").Logger(),
	}
}

// Reload fetches all three tables and swaps the snapshot atomically.
// On error the current snapshot is left untouched.
func (c *Cache) Reload(ctx context.Context) error {
	start := time.Now()

	interactions, err := c.interactions.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load drug interactions: %w", err)
	}
	doseRanges, err := c.doseRanges.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load dose ranges: %w", err)
	}
	entries, err := c.formulary.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load formulary entries: %w", err)
	}

	c.mu.Lock()
	c.snapshot = snapshot{
		interactions: interactions,
		doseRanges:   doseRanges,
		entries:      entries,
		loadedAt:     time.Now().UTC(),
	}
	c.mu.Unlock()

	c.log.Info().
		Int("interactions", len(interactions)).
		Int("dose_ranges", len(doseRanges)).
		Int("formulary_entries", len(entries)).
		Dur("elapsed", time.Since(start)).
		Msg("reference data reloaded")
	return nil
}

func (c *Cache) DrugInteractions() []rules.DrugInteraction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.interactions
}

func (c *Cache) DoseRanges() []rules.DoseRange {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.doseRanges
}

func (c *Cache) FormularyEntries() []formulary.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.entries
}

// LoadedAt reports when the current snapshot was taken. Zero means no
// successful load yet.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.loadedAt
}
