package badges

import (
	"context"

	interf "github.com/glkeru/loyalty/badges/internal/interfaces"
	"go.uber.org/zap"
)

// Досоздание кодов скидок для бейджей, выданных без кода (сбой между выдачей и выпуском)
type Reconciler struct {
	registry *Registry
	awards   interf.AwardStore
	minter   *Minter
	batch    int
	logger   *zap.Logger
}

func NewReconciler(registry *Registry, awards interf.AwardStore, minter *Minter, batch int, logger *zap.Logger) *Reconciler {
	if batch <= 0 {
		batch = 100
	}
	return &Reconciler{registry, awards, minter, batch, logger}
}

// Возвращает кол-во выпущенных кодов
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	catalog := r.registry.Snapshot()
	ids := catalog.RewardBadgeIDs()
	if len(ids) == 0 {
		return 0, nil
	}

	minted := 0
	for {
		awards, err := r.awards.AwardsWithoutCode(ctx, ids, r.batch)
		if err != nil {
			return minted, storageError("awards without code", err)
		}
		if len(awards) == 0 {
			return minted, nil
		}

		progress := 0
		for _, a := range awards {
			if ctx.Err() != nil {
				return minted, ctx.Err()
			}
			def, ok := catalog.Definition(a.BadgeID)
			if !ok {
				continue
			}
			code, err := r.minter.Mint(ctx, a.UserID, a.BadgeID, def.RewardPercent)
			if err != nil {
				r.logger.Error("Reconcile",
					zap.String("service", "Mint"),
					zap.String("user", a.UserID),
					zap.String("badge", a.BadgeID),
					zap.Error(err),
				)
				continue
			}
			r.logger.Info("discount code reconciled",
				zap.String("user", a.UserID),
				zap.String("badge", a.BadgeID),
				zap.String("code", code.Code),
			)
			progress++
		}
		minted += progress
		// все в пачке с ошибкой - повтор в следующий запуск
		if progress == 0 || len(awards) < r.batch {
			return minted, nil
		}
	}
}
