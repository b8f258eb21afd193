package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/period"
)

type overrideRepository struct {
	db *overrideTable
}

var _ period.OverrideStore = (*overrideRepository)(nil) // interface compliance check

func NewOverrideRepository(db *DB) period.OverrideStore {
	return &overrideRepository{db: db.overrides}
}

func (repo *overrideRepository) ActiveOverride(_ context.Context) (period.Override, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.err != nil {
		return period.Override{}, repo.db.err
	}
	for _, o := range repo.db.table {
		if o.IsActive {
			return o, nil
		}
	}
	return period.Override{}, core.ErrNotFound
}

func (repo *overrideRepository) GetOverride(_ context.Context, id string) (period.Override, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.err != nil {
		return period.Override{}, repo.db.err
	}
	if o, ok := repo.db.table[id]; ok {
		return o, nil
	}
	return period.Override{}, core.ErrNotFound
}

func (repo *overrideRepository) ListOverrides(_ context.Context) ([]period.Override, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	overrides := make([]period.Override, 0, len(repo.db.table))
	for _, o := range repo.db.table {
		overrides = append(overrides, o)
	}
	sort.Slice(overrides, func(i, j int) bool { return overrides[i].CreatedAt.After(overrides[j].CreatedAt) })
	return overrides, nil
}

func (repo *overrideRepository) CreateOverride(_ context.Context, o period.Override) (period.Override, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[o.ID]; ok {
		return period.Override{}, core.ErrConflict
	}
	repo.db.table[o.ID] = o
	return o, nil
}

func (repo *overrideRepository) ActivateOverride(_ context.Context, id string, now time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return core.ErrNotFound
	}
	for oid, o := range repo.db.table {
		if active := oid == id; o.IsActive != active {
			o.IsActive, o.UpdatedAt = active, now
			repo.db.table[oid] = o
		}
	}
	return nil
}

func (repo *overrideRepository) DeactivateOverride(_ context.Context, id string, now time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	o, ok := repo.db.table[id]
	if !ok {
		return core.ErrNotFound
	}
	o.IsActive, o.UpdatedAt = false, now
	repo.db.table[id] = o
	return nil
}

func (repo *overrideRepository) DeleteOverride(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return core.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
