package main

import (
	"github.com/coderacer/core/internal/app"
	"github.com/coderacer/core/internal/config"
)

func main() {
	app.Go(config.Load())
}
