package cmdutil

import (
	"fmt"
	"os"

	"github.com/user/tagrelease/internal/config"
	"github.com/user/tagrelease/internal/logger"
)

// Globals holds the flags shared by every subcommand.
type Globals struct {
	ConfigFile string
	Debug      bool
	LogJSON    bool
}

func (g *Globals) Setup() {
	logger.SetOutput(os.Stderr, g.LogJSON)
	logger.SetDebug(g.Debug)
}

func (g *Globals) LoadConfig() (*config.Config, error) {
	g.Setup()

	cfg, err := config.Load(g.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
