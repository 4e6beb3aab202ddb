package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/internal/clock"
	"github.com/syncspace/syncspace/internal/config"
	"github.com/syncspace/syncspace/internal/migration"
	"github.com/syncspace/syncspace/internal/observability"
	"github.com/syncspace/syncspace/internal/server"
	"github.com/syncspace/syncspace/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
