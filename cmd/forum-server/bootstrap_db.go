package main

import (
	"context"

	"github.com/quillboard/quillboard/internal/config"
	pg "github.com/quillboard/quillboard/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.NewDB(ctx, cfg.DB)
}
