// Package sysinfo describes the host a benchmark runs on.
package sysinfo

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Host summarises the machine and runtime.
type Host struct {
	GOOS       string
	GOARCH     string
	NumCPU     int
	GOMAXPROCS int
	GoVersion  string
	Features   []string
}

// Describe reports the current host.
func Describe() Host {
	return Host{
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		GoVersion:  runtime.Version(),
		Features:   features(runtime.GOARCH),
	}
}

// String returns a one-line summary suitable for a report header.
func (h Host) String() string {
	feats := "none"
	if len(h.Features) > 0 {
		feats = strings.Join(h.Features, ",")
	}
	return fmt.Sprintf("%s/%s | CPUs: %d | GOMAXPROCS: %d | %s | SIMD: %s",
		h.GOOS, h.GOARCH, h.NumCPU, h.GOMAXPROCS, h.GoVersion, feats)
}

func features(arch string) []string {
	var flags []struct {
		name string
		has  bool
	}
	switch arch {
	case "amd64", "386":
		flags = []struct {
			name string
			has  bool
		}{
			{"sse2", cpu.X86.HasSSE2},
			{"sse4.1", cpu.X86.HasSSE41},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		}
	case "arm64":
		flags = []struct {
			name string
			has  bool
		}{
			{"asimd", cpu.ARM64.HasASIMD},
			{"fp", cpu.ARM64.HasFP},
			{"asimdhp", cpu.ARM64.HasASIMDHP},
			{"sve", cpu.ARM64.HasSVE},
			{"sve2", cpu.ARM64.HasSVE2},
		}
	}

	var out []string
	for _, f := range flags {
		if f.has {
			out = append(out, f.name)
		}
	}
	return out
}
