package boiledrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/period"
)

const overrideColumns = "id, spring_start, spring_end, fall_start, fall_end, effective_from, effective_until, " +
	"is_emergency, is_active, reason, created_by, created_at, updated_at"

type overrideRow struct {
	ID             string    `boil:"id"`
	SpringStart    string    `boil:"spring_start"`
	SpringEnd      string    `boil:"spring_end"`
	FallStart      string    `boil:"fall_start"`
	FallEnd        string    `boil:"fall_end"`
	EffectiveFrom  null.Time `boil:"effective_from"`
	EffectiveUntil null.Time `boil:"effective_until"`
	IsEmergency    bool      `boil:"is_emergency"`
	IsActive       bool      `boil:"is_active"`
	Reason         string    `boil:"reason"`
	CreatedBy      string    `boil:"created_by"`
	CreatedAt      time.Time `boil:"created_at"`
	UpdatedAt      time.Time `boil:"updated_at"`
}

func civilPtr(t null.Time, loc *time.Location) *time.Time {
	if !t.Valid {
		return nil
	}
	d := core.CivilDate(t.Time, loc)
	return &d
}

func nullDate(t *time.Time) null.String {
	if t == nil {
		return null.String{}
	}
	return null.StringFrom(core.DateKey(*t))
}

func (row overrideRow) override(loc *time.Location) (period.Override, error) {
	var b period.Boundaries
	days := []struct {
		s   string
		dst *core.MonthDay
	}{
		{row.SpringStart, &b.SpringStart},
		{row.SpringEnd, &b.SpringEnd},
		{row.FallStart, &b.FallStart},
		{row.FallEnd, &b.FallEnd},
	}
	for _, d := range days {
		md, err := core.ParseMonthDay(d.s)
		if err != nil {
			return period.Override{}, errors.Wrapf(err, "override %s", row.ID)
		}
		*d.dst = md
	}
	return period.Override{
		ID:             row.ID,
		Boundaries:     b,
		EffectiveFrom:  civilPtr(row.EffectiveFrom, loc),
		EffectiveUntil: civilPtr(row.EffectiveUntil, loc),
		IsEmergency:    row.IsEmergency,
		IsActive:       row.IsActive,
		Reason:         row.Reason,
		CreatedBy:      row.CreatedBy,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

type overrideRepository struct {
	db  core.DB
	loc *time.Location
}

var _ period.OverrideStore = (*overrideRepository)(nil) // interface compliance check

func NewOverrideRepository(db core.DB, conf *core.Config) *overrideRepository {
	return &overrideRepository{db: db, loc: conf.Location}
}

func (repo *overrideRepository) getOne(ctx context.Context, where string, args ...interface{}) (period.Override, error) {
	var row overrideRow
	q := "SELECT " + overrideColumns + " FROM semester_overrides WHERE " + where + " LIMIT 1"
	if err := queries.Raw(q, args...).Bind(ctx, repo.db, &row); err != nil {
		return period.Override{}, trapNoRowsErr(err, "selecting semester override")
	}
	return row.override(repo.loc)
}

func (repo *overrideRepository) ActiveOverride(ctx context.Context) (period.Override, error) {
	return repo.getOne(ctx, "is_active")
}

func (repo *overrideRepository) GetOverride(ctx context.Context, id string) (period.Override, error) {
	return repo.getOne(ctx, "id = $1", id)
}

func (repo *overrideRepository) ListOverrides(ctx context.Context) ([]period.Override, error) {
	var rows []overrideRow
	q := "SELECT " + overrideColumns + " FROM semester_overrides ORDER BY created_at DESC"
	if err := queries.Raw(q).Bind(ctx, repo.db, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting semester overrides")
	}
	overrides := make([]period.Override, 0, len(rows))
	for _, row := range rows {
		o, err := row.override(repo.loc)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

func (repo *overrideRepository) CreateOverride(ctx context.Context, o period.Override) (period.Override, error) {
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO semester_overrides ("+overrideColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)",
		o.ID,
		o.Boundaries.SpringStart.String(), o.Boundaries.SpringEnd.String(),
		o.Boundaries.FallStart.String(), o.Boundaries.FallEnd.String(),
		nullDate(o.EffectiveFrom), nullDate(o.EffectiveUntil),
		o.IsEmergency, o.IsActive, o.Reason, o.CreatedBy, o.CreatedAt.UTC(), o.UpdatedAt.UTC(),
	)
	if err != nil {
		return period.Override{}, errors.Wrap(err, "inserting semester override")
	}
	return o, nil
}

func (repo *overrideRepository) setActive(ctx context.Context, exec core.DBExecutor, id string, active bool, now time.Time) error {
	res, err := exec.ExecContext(ctx,
		"UPDATE semester_overrides SET is_active = $2, updated_at = $3 WHERE id = $1", id, active, now.UTC())
	if err != nil {
		return errors.Wrap(err, "updating semester override")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "updating semester override")
	} else if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (repo *overrideRepository) ActivateOverride(ctx context.Context, id string, now time.Time) error {
	return core.RunInTx(ctx, repo.db, func(exec core.DBExecutor) error {
		if _, err := exec.ExecContext(ctx,
			"UPDATE semester_overrides SET is_active = FALSE, updated_at = $2 WHERE is_active AND id <> $1",
			id, now.UTC()); err != nil {
			return errors.Wrap(err, "deactivating semester overrides")
		}
		return repo.setActive(ctx, exec, id, true, now)
	})
}

func (repo *overrideRepository) DeactivateOverride(ctx context.Context, id string, now time.Time) error {
	return repo.setActive(ctx, repo.db, id, false, now)
}

func (repo *overrideRepository) DeleteOverride(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM semester_overrides WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting semester override")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting semester override")
	} else if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
