package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/emgs/adapter"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: adapter.ButtonRefresh},
		{RetroID: libretro.JoypadB, BitID: adapter.ButtonBorder},
		{RetroID: libretro.JoypadX, BitID: adapter.ButtonFormat},
	})
}

func main() {}
