package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"verigate/internal/bootstrap/config"
	"verigate/internal/bootstrap/database"
	"verigate/internal/bootstrap/logging"
	sqliterepo "verigate/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "verigate/internal/infrastructure/persistence/sqlite/uow"
	"verigate/internal/ports"
	"verigate/internal/registry"
	"verigate/internal/usecase/ingest"
	"verigate/internal/usecase/verify"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideRegistry),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewEventRepository,
			fx.As(new(ports.EventRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewResultRepository,
			fx.As(new(ports.ResultRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(verify.NewExecExecutor),
	fx.Provide(verify.NewWalkScanner),
	fx.Provide(ingest.NewService),
	fx.Provide(verify.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideRegistry(cfg config.Config) (*registry.Registry, error) {
	return registry.Load(cfg.Projects.File)
}
