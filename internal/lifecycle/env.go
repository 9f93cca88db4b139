package lifecycle

import (
	"os"
	"runtime"

	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/store"
)

// Environment capture levels. Host details are opt-in and never reach the index.
const (
	EnvNone  = "none"
	EnvBasic = "basic"
	EnvFull  = "full"
)

// ParseEnvLevel validates an environment capture level. Empty means none.
func ParseEnvLevel(s string) (string, error) {
	switch s {
	case "", EnvNone:
		return EnvNone, nil
	case EnvBasic, EnvFull:
		return s, nil
	}
	return "", errors.NewWithDetails(errors.EUsage, "environment level must be one of: none, basic, full", map[string]string{"input": s})
}

// captureEnvironment returns nil for EnvNone.
func (e *Engine) captureEnvironment(level string) *store.Environment {
	if level == EnvNone || level == "" {
		return nil
	}
	env := &store.Environment{
		Level:     level,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
	if e.Hostname != nil {
		if h, err := e.Hostname(); err == nil {
			env.Hostname = h
		}
	}
	if level != EnvFull {
		return env
	}

	if wd, err := os.Getwd(); err == nil {
		env.Cwd = wd
	}
	if exe, err := os.Executable(); err == nil {
		env.Executable = exe
	}
	if e.Getenv != nil {
		env.CUDAVisibleDevices = e.Getenv("CUDA_VISIBLE_DEVICES")
	}
	return env
}
