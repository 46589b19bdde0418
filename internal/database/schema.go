package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"threadboard/internal/config"
	"threadboard/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus summarizes what ApplySchema would do and what is already applied.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// schemaPlan is the resolved DB_SCHEMA_MODE for one environment.
type schemaPlan struct {
	mode        string
	runSQL      bool
	runAuto     bool
	destructive bool
}

var protectedEnvs = map[string]bool{"production": true, "prod": true, "staging": true, "stage": true}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.mode == "" {
		plan.mode = SchemaModeHybrid
	}
	protected := protectedEnvs[strings.ToLower(strings.TrimSpace(cfg.Env))]

	switch plan.mode {
	case SchemaModeSQL:
		plan.runSQL = true
	case SchemaModeHybrid:
		// forum tables come from the SQL files; AutoMigrate only tops up local databases
		plan.runSQL = true
		plan.runAuto = !protected
	case SchemaModeAuto:
		if protected && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.runAuto = true
		plan.destructive = protected
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.mode)
	}
	return plan, nil
}

// AutoMigrate creates or updates the users, threads, replies and likes tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs SQL migrations and/or AutoMigrate according to the configured mode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.runAuto {
		return nil
	}

	if plan.destructive {
		middleware.Logger.Warn("AutoMigrate running against a protected environment",
			slog.String("env", cfg.Env))
	}
	middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.mode), slog.String("env", cfg.Env))
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the schema plan and which SQL migrations have not run yet.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.runSQL,
		WillRunAutoMigrate: plan.runAuto,
	}
	if !plan.runSQL {
		return status, nil
	}

	if status.AppliedVersions, err = appliedVersions(ctx, db); err != nil {
		return nil, err
	}
	migrations, err := GetMigrations()
	if err != nil {
		return nil, err
	}
	status.PendingMigrations = pendingMigrations(migrations, status.AppliedVersions)
	return status, nil
}

func pendingMigrations(all []Migration, applied []int) []Migration {
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	var pending []Migration
	for _, m := range all {
		if _, ok := done[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending
}
