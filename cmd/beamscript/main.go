// Command beamscript runs a Lua capture scenario headless and prints a
// report of the captured frame. With -dev it keeps the scenario open,
// reruns it whenever the file changes and shows the report in the
// terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/user-none/emgs/emu"
	"github.com/user-none/emgs/ui"
)

func main() {
	var o options
	flag.StringVar(&o.region, "region", "", "region: ntsc or pal (default: scenario directive, else ntsc)")
	flag.IntVar(&o.borderCols, "border-cols", 0, "border width in columns (0-10)")
	flag.IntVar(&o.borderRows, "border-rows", 0, "border height in scanlines (0-24, multiple of 8)")
	flag.IntVar(&o.frames, "frames", 0, "frames to run after the scenario")
	pngPath := flag.String("png", "", "write the read frame as a PNG to this path")
	scale := flag.Int("scale", 2, "PNG scale factor")
	dev := flag.Bool("dev", false, "rerun the scenario on change and show the report in the terminal")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] scenario.lua\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("beamscript: ")

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *dev {
		if err := devMode(path, o); err != nil {
			log.Fatal(err)
		}
		return
	}

	sc, err := openScenario(path, o)
	if err != nil {
		log.Fatal(err)
	}
	defer sc.Close()

	if *pngPath != "" {
		if err := writePNG(*pngPath, sc.video, *scale); err != nil {
			log.Fatal(err)
		}
	}
	if err := writeReport(os.Stdout, sc.video, reportWidth()); err != nil {
		log.Fatal(err)
	}
}

// reportWidth is the terminal width of stdout, or defaultWidth when
// stdout is not a terminal.
func reportWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

func writePNG(path string, v *emu.Video, scale int) error {
	var snap emu.FrameSnapshot
	v.CopyFrame(&snap)
	img := ui.Compose(&snap, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ui.WritePNG(f, img, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
