package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/vsinha/mrpengine/pkg/application/services/mrp"
	"github.com/vsinha/mrpengine/pkg/domain/entities"
	"github.com/vsinha/mrpengine/pkg/domain/repositories"
	"github.com/vsinha/mrpengine/pkg/domain/services"
	"github.com/vsinha/mrpengine/pkg/infrastructure/config"
	"github.com/vsinha/mrpengine/pkg/infrastructure/lock"
	"github.com/vsinha/mrpengine/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/mrpengine/pkg/infrastructure/sqlstore"
)

// PlanningSettings converts the planning configuration into run settings
func PlanningSettings(cfg config.PlanningConfig) (mrp.Settings, error) {
	makeOrBuy, err := entities.ParseOrderKind(cfg.MakeOrBuy)
	if err != nil {
		return mrp.Settings{}, err
	}
	calendar, err := services.NewLeadTimeCalendar(cfg.Calendar, cfg.Holidays)
	if err != nil {
		return mrp.Settings{}, err
	}

	return mrp.Settings{
		BucketDays:         cfg.BucketDays,
		Workers:            cfg.Workers,
		MakeOrBuy:          makeOrBuy,
		EnforceSafetyStock: cfg.EnforceSafetyStock,
		Calendar:           calendar,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenPlanningStore returns the store selected by cfg and a closer for it
func OpenPlanningStore(ctx context.Context, cfg config.StoreConfig) (repositories.PlanningStore, io.Closer, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.NewPlanningStore(), nopCloser{}, nil
	case "sqlite", "postgres":
		store, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// OpenRunLock returns the run lock selected by cfg and a closer for it
func OpenRunLock(ctx context.Context, cfg config.LockConfig) (repositories.RunLock, io.Closer, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.NewRunLock(), nopCloser{}, nil
	case "redis":
		l, err := lock.NewRedisRunLock(ctx, lock.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	default:
		return nil, nil, fmt.Errorf("unsupported lock backend %q", cfg.Backend)
	}
}
