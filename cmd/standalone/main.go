//go:build !libretro && !ios

package main

import (
	"flag"
	"log"
	"strconv"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/emgs/adapter"
)

func main() {
	scriptPath := flag.String("script", "", "path to Lua scenario (opens UI if not provided)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	borderCols := flag.Int("border-cols", 0, "border width in columns (0-10)")
	borderRows := flag.Int("border-rows", 0, "border height in scanlines (0-24, multiple of 8)")
	flag.Parse()

	factory := &adapter.Factory{}

	if *scriptPath != "" {
		options := map[string]string{
			"border_columns": strconv.Itoa(*borderCols),
			"border_rows":    strconv.Itoa(*borderRows),
		}
		if err := standalone.RunDirect(factory, *scriptPath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
