// Package emuios binds the diagnostic core for the iOS frontend. Scenarios
// take the place of ROMs; the core has no save states or battery RAM, so
// only the frame, input and option calls are exported.
package emuios

import (
	ios "github.com/user-none/eblitui-ios"
	"github.com/user-none/emgs/adapter"
)

func init() {
	ios.RegisterFactory(&adapter.Factory{})
}

// Re-export bridge functions for gomobile binding

func Init(path string, regionCode int) bool { return ios.Init(path, regionCode) }
func Close()                                { ios.Close() }
func RunFrame()                             { ios.RunFrame() }
func GetFrameData() []byte                  { return ios.GetFrameData() }
func GetAudioData() []byte                  { return ios.GetAudioData() }
func SetInput(player int, buttons int)      { ios.SetInput(player, buttons) }
func FrameWidth() int                       { return ios.FrameWidth() }
func FrameStride() int                      { return ios.FrameStride() }
func FrameHeight() int                      { return ios.FrameHeight() }
func SystemInfoJSON() string                { return ios.SystemInfoJSON() }
func Region() int                           { return ios.Region() }
func GetFPS() int                           { return ios.GetFPS() }
func DetectRegionFromPath(path string) int  { return ios.DetectRegionFromPath(path) }
func SetOption(key string, value string)    { ios.SetOption(key, value) }

// ImportScenario copies a scenario picked in the document browser into
// the app's library directory and returns its new path.
func ImportScenario(srcPath, destDir string) (string, error) {
	return ios.ExtractAndStoreROM(srcPath, destDir)
}

// ScenarioID returns the library key for the scenario at path.
func ScenarioID(path string) int64 { return ios.GetCRC32FromPath(path) }
