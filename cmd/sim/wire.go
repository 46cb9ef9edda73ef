//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/milk9111/wheelchair/logging"
	"github.com/milk9111/wheelchair/telemetry"
)

func InitializeApp(cfg Config) (*App, func(), error) {
	wire.Build(
		ProvideSpec,
		ProvideLogger,
		wire.Bind(new(logging.Log), new(*logging.Logger)),
		ProvideScenario,
		telemetry.NewHub,
		NewApp,
	)
	return nil, nil, nil
}
