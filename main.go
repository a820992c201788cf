package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/pedalswitch/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	flag.StringVar(&cfg.Scene, "scene", cfg.Scene, "scene name in the scene directory (basename, .yaml optional)")
	flag.StringVar(&cfg.SavePath, "save", cfg.SavePath, "sqlite save file; empty keeps state in memory")
	flag.StringVar(&cfg.SceneDir, "dir", cfg.SceneDir, "directory searched for scenes before the embedded ones")
	flag.IntVar(&cfg.TPS, "tps", cfg.TPS, "updates per second")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug mode")
	flag.BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload scenes and scripts when they change on disk")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("pedalswitch")
	ebiten.SetTPS(cfg.TPS)

	game, err := NewGame(cfg)
	if err != nil {
		log.Fatalf("game: %v", err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
