package config

import (
	"go.uber.org/zap"
)

// Config carries the cross-cutting concerns shared by the platform client,
// the pipeline layer and the CLI.
type Config struct {
	Logger      *zap.SugaredLogger
	Environment *Environment
}
