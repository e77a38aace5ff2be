package main

import (
	"fmt"
	"log"
	"os"

	"github.com/user-none/emgs/emu"
	"github.com/user-none/emgs/script"
)

// options are the capture settings given on the command line.
type options struct {
	region     string // empty means the scenario directive, else NTSC
	borderCols int
	borderRows int
	frames     int
}

// config builds the capture configuration for src. An explicit region
// option overrides the scenario's region directive.
func (o options) config(src []byte) (emu.Config, error) {
	cfg := emu.DefaultConfig()
	cfg.BorderColumns = o.borderCols
	cfg.BorderRows = o.borderRows
	if region, ok := script.DetectRegion(src); ok {
		cfg.Region = region
	}
	if o.region != "" {
		region, err := emu.ParseRegion(o.region)
		if err != nil {
			return cfg, err
		}
		cfg.Region = region
	}
	return cfg, nil
}

// scenario is one executed Lua scenario and the engine it drives.
type scenario struct {
	video  *emu.Video
	runner *script.Runner
	hook   bool
}

// loadScenario runs src against a fresh engine. When the scenario did not
// publish a frame itself a full frame is captured from its final state.
func loadScenario(name string, src []byte, cfg emu.Config) (*scenario, error) {
	ram := emu.NewRAM()
	sw := emu.NewSwitches()
	video := emu.NewVideo(ram, sw, cfg)

	runner := script.NewRunner(video, ram, sw)
	if err := runner.RunString(name, string(src)); err != nil {
		runner.Close()
		return nil, err
	}
	if video.Read().Mode() == emu.TagNone {
		video.Refresh()
	}

	return &scenario{
		video:  video,
		runner: runner,
		hook:   runner.HasFrameHook(),
	}, nil
}

// openScenario reads path and runs it with o, then advances o.frames
// frames.
func openScenario(path string, o options) (*scenario, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := o.config(src)
	if err != nil {
		return nil, err
	}
	sc, err := loadScenario(path, src, cfg)
	if err != nil {
		return nil, err
	}
	sc.Step(o.frames)
	return sc, nil
}

// Step runs n frames, calling the scenario's frame hook after each. A
// failing hook is logged and not called again.
func (s *scenario) Step(n int) {
	for i := 0; i < n; i++ {
		s.video.RunFrame()
		if !s.hook {
			continue
		}
		if err := s.runner.OnFrame(); err != nil {
			log.Printf("beamscript: %v; frame hook disabled", err)
			s.hook = false
		}
	}
}

// Close releases the Lua state.
func (s *scenario) Close() {
	s.runner.Close()
}

func (s *scenario) String() string {
	r := s.video.Read()
	return fmt.Sprintf("%s  frame %d  %s", emu.RegionName(s.video.GetRegion()), r.Frame(), r.Mode())
}
