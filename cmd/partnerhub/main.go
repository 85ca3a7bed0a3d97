package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/northlink/partnerhub/internal/clock"
	"github.com/northlink/partnerhub/internal/config"
	"github.com/northlink/partnerhub/internal/migration"
	"github.com/northlink/partnerhub/internal/observability"
	"github.com/northlink/partnerhub/internal/seed"
	"github.com/northlink/partnerhub/internal/server"
	"github.com/northlink/partnerhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Schema before anything touches the tables
		migration.Module,
		seed.Module,

		// HTTP API and functional domains
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
