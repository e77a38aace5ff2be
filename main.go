package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/user-none/emgs/cli"
	"github.com/user-none/emgs/emu"
	"github.com/user-none/emgs/script"
	"github.com/user-none/emgs/ui"
)

func main() {
	scriptPath := flag.String("script", "", "path to a Lua scenario to run before capture starts")
	regionFlag := flag.String("region", "", "region: ntsc or pal (default: scenario directive, else ntsc)")
	borderCols := flag.Int("border-cols", 0, "border width in columns (0-10)")
	borderRows := flag.Int("border-rows", 0, "border height in scanlines (0-24, multiple of 8)")
	scale := flag.Int("scale", 3, "initial window scale")
	flag.Parse()

	cfg := emu.DefaultConfig()
	cfg.BorderColumns = *borderCols
	cfg.BorderRows = *borderRows

	var src []byte
	if *scriptPath != "" {
		var err error
		if src, err = os.ReadFile(*scriptPath); err != nil {
			log.Fatalf("Failed to load scenario: %v", err)
		}
		if region, ok := script.DetectRegion(src); ok {
			cfg.Region = region
		}
	}
	if *regionFlag != "" {
		region, err := emu.ParseRegion(*regionFlag)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Region = region
	}

	ram := emu.NewRAM()
	sw := emu.NewSwitches()
	video := emu.NewVideo(ram, sw, cfg)

	var sc *script.Runner
	if src != nil {
		sc = script.NewRunner(video, ram, sw)
		defer sc.Close()
		if err := sc.RunString(*scriptPath, string(src)); err != nil {
			log.Fatalf("Scenario failed: %v", err)
		}
	}
	if video.Read().Mode() == emu.TagNone {
		video.Refresh()
	}

	ebiten.SetWindowSize(ui.FrameWidth*(*scale), ui.MaxFrameHeight*(*scale))
	ebiten.SetWindowTitle(emu.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(ui.FrameWidth, ui.MaxFrameHeight, -1, -1)
	ebiten.SetTPS(60)

	runner := cli.NewRunner(video, sw, sc)
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}
