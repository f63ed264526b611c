package main

import (
	"log"

	"github.com/jaennil/terrain_streamer/internal/app"
	"github.com/jaennil/terrain_streamer/pkg/config"
)

func main() {
	realMain()
}

func realMain() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	app.Run(cfg)
}
