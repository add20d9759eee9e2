package integrationtest

import (
	"os"
	"sync"

	"github.com/coderacer/core/internal/config"
)

var (
	cfg     *config.Config
	cfgOnce sync.Once
)

func getConfig() *config.Config {
	cfgOnce.Do(func() {
		cfg = config.FromEnv()
	})
	return cfg
}

// enabled reports whether a Postgres instance was provided for the run.
func enabled() bool {
	return os.Getenv("INTEGRATION") != ""
}
