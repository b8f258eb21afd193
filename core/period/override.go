package period

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/presence/core"
)

var (
	monthDayTag  = "monthday"
	monthDayText = "{0} must be a valid MM-DD day"

	boundariesTag  = "boundaries"
	boundariesText = "terms must be ordered: spring start <= spring end < fall start <= fall end"

	windowTag  = "window"
	windowText = "effective_until must not be before effective_from"
)

type (
	// Override replaces the default term boundaries while it is active and in effect.
	Override struct {
		ID             string     `json:"id"`
		Boundaries     Boundaries `json:"boundaries"`
		EffectiveFrom  *time.Time `json:"effective_from,omitempty"`
		EffectiveUntil *time.Time `json:"effective_until,omitempty"`
		IsEmergency    bool       `json:"is_emergency"`
		IsActive       bool       `json:"is_active"`
		Reason         string     `json:"reason"`
		CreatedBy      string     `json:"created_by"`
		CreatedAt      time.Time  `json:"created_at"`
		UpdatedAt      time.Time  `json:"updated_at"`
	}

	// NewOverride is the admin input of an override; days are "MM-DD".
	NewOverride struct {
		SpringStart    string     `json:"spring_start" validate:"required,monthday"`
		SpringEnd      string     `json:"spring_end" validate:"required,monthday"`
		FallStart      string     `json:"fall_start" validate:"required,monthday"`
		FallEnd        string     `json:"fall_end" validate:"required,monthday"`
		EffectiveFrom  *time.Time `json:"effective_from"`
		EffectiveUntil *time.Time `json:"effective_until"`
		IsEmergency    bool       `json:"is_emergency"`
		Reason         string     `json:"reason" validate:"required"`
		CreatedBy      string     `json:"created_by" validate:"required"`
	}

	// OverrideStore is the admin-maintained override configuration source.
	OverrideStore interface {
		// ActiveOverride returns core.ErrNotFound when no override is active.
		ActiveOverride(ctx context.Context) (Override, error)
		GetOverride(ctx context.Context, id string) (Override, error)
		ListOverrides(ctx context.Context) ([]Override, error)
		CreateOverride(ctx context.Context, o Override) (Override, error)
		// ActivateOverride activates id and deactivates every other override, atomically.
		ActivateOverride(ctx context.Context, id string, now time.Time) error
		DeactivateOverride(ctx context.Context, id string, now time.Time) error
		DeleteOverride(ctx context.Context, id string) error
	}
)

// InEffect reports whether the override applies on date.
func (o Override) InEffect(date time.Time) bool {
	if !o.IsActive {
		return false
	}
	key := core.DateKey(date)
	if o.EffectiveFrom != nil && key < core.DateKey(*o.EffectiveFrom) {
		return false
	}
	if o.EffectiveUntil != nil && key > core.DateKey(*o.EffectiveUntil) {
		return false
	}
	return true
}

// boundaries parses the days of a validated NewOverride.
func (no NewOverride) boundaries() (Boundaries, error) {
	var b Boundaries
	days := []struct {
		s   string
		dst *core.MonthDay
	}{
		{no.SpringStart, &b.SpringStart},
		{no.SpringEnd, &b.SpringEnd},
		{no.FallStart, &b.FallStart},
		{no.FallEnd, &b.FallEnd},
	}
	for _, d := range days {
		md, err := core.ParseMonthDay(d.s)
		if err != nil {
			return Boundaries{}, err
		}
		*d.dst = md
	}
	return b, nil
}

// InitValidators registers the override validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(monthDayTag, func(fl validator.FieldLevel) bool {
		_, err := core.ParseMonthDay(fl.Field().String())
		return err == nil
	})
	validate.RegisterStructValidation(overrideStructValidation, NewOverride{})

	core.RegisterCustomTranslation(validate, translator, monthDayTag, monthDayText)
	core.RegisterCustomTranslation(validate, translator, boundariesTag, boundariesText)
	core.RegisterCustomTranslation(validate, translator, windowTag, windowText)
}

// overrideStructValidation checks the term ordering and the effective window.
func overrideStructValidation(sl validator.StructLevel) {
	no := sl.Current().Interface().(NewOverride)
	if b, err := no.boundaries(); err == nil && !b.valid() {
		sl.ReportError(no.FallStart, "fall_start", "FallStart", boundariesTag, "")
	}
	if no.EffectiveFrom != nil && no.EffectiveUntil != nil &&
		core.DateKey(*no.EffectiveUntil) < core.DateKey(*no.EffectiveFrom) {
		sl.ReportError(no.EffectiveUntil, "effective_until", "EffectiveUntil", windowTag, "")
	}
}
