package period

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/presence/core"
)

// Service administers overrides and keeps the resolver cache in sync with them.
type Service struct {
	store      OverrideStore
	resolver   *Resolver
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

func NewService(
	store OverrideStore,
	resolver *Resolver,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *Service {
	return &Service{store: store, resolver: resolver, validate: validate, translator: translator, logger: logger}
}

func (svc *Service) List(ctx context.Context) ([]Override, error) {
	return svc.store.ListOverrides(ctx)
}

// Create stores a new, inactive override.
func (svc *Service) Create(ctx context.Context, no NewOverride) (Override, error) {
	if err := svc.validate.Struct(no); err != nil {
		return Override{}, core.TranslateErrors(err, svc.translator)
	}
	b, err := no.boundaries()
	if err != nil {
		return Override{}, err
	}

	now := NowFunc().UTC()
	o, err := svc.store.CreateOverride(ctx, Override{
		ID:             uuid.New().String(),
		Boundaries:     b,
		EffectiveFrom:  no.EffectiveFrom,
		EffectiveUntil: no.EffectiveUntil,
		IsEmergency:    no.IsEmergency,
		Reason:         core.CleanString(no.Reason),
		CreatedBy:      no.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Override{}, errors.Wrap(err, "creating override")
	}
	svc.logger.Info("semester override created", map[string]interface{}{"id": o.ID}, core.Actor{ID: o.CreatedBy})
	return o, nil
}

// Activate makes id the single active override.
func (svc *Service) Activate(ctx context.Context, id string) error {
	if err := svc.store.ActivateOverride(ctx, id, NowFunc().UTC()); err != nil {
		return errors.Wrapf(err, "activating override %s", id)
	}
	svc.resolver.Invalidate()
	return nil
}

func (svc *Service) Deactivate(ctx context.Context, id string) error {
	if err := svc.store.DeactivateOverride(ctx, id, NowFunc().UTC()); err != nil {
		return errors.Wrapf(err, "deactivating override %s", id)
	}
	svc.resolver.Invalidate()
	return nil
}

// Delete removes an override. The override defining the current period cannot be removed:
// it must be deactivated first.
func (svc *Service) Delete(ctx context.Context, id string) error {
	o, err := svc.store.GetOverride(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "getting override %s", id)
	}
	if o.InEffect(NowFunc()) {
		return errors.Wrapf(core.ErrConflict, "override %s defines the current period", id)
	}
	if err := svc.store.DeleteOverride(ctx, id); err != nil {
		return errors.Wrapf(err, "deleting override %s", id)
	}
	svc.resolver.Invalidate()
	return nil
}
