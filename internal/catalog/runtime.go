package catalog

import (
	"context"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/INM-6/gather-metadata/internal/recordable"
)

// GoRuntime describes the collector binary itself, so archived metadata can
// be traced back to the tool version that produced it.
type GoRuntime struct {
	GoVersion  string `json:"go_version"`
	GOOS       string `json:"goos"`
	GOARCH     string `json:"goarch"`
	NumCPU     int    `json:"num_cpu"`
	GOMAXPROCS int    `json:"gomaxprocs"`
	Executable string `json:"executable,omitempty"`
	Module     string `json:"module,omitempty"`
	Version    string `json:"version,omitempty"`
	Revision   string `json:"vcs_revision,omitempty"`
	PID        int    `json:"pid"`
}

func goRuntime() recordable.Recordable {
	return recordable.JSON("go-runtime", func(context.Context) (GoRuntime, error) {
		rt := GoRuntime{
			GoVersion:  runtime.Version(),
			GOOS:       runtime.GOOS,
			GOARCH:     runtime.GOARCH,
			NumCPU:     runtime.NumCPU(),
			GOMAXPROCS: runtime.GOMAXPROCS(0),
			PID:        os.Getpid(),
		}
		rt.Executable, _ = os.Executable()
		if info, ok := debug.ReadBuildInfo(); ok {
			rt.Module = info.Main.Path
			rt.Version = info.Main.Version
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					rt.Revision = s.Value
				}
			}
		}
		return rt, nil
	})
}
