package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/expbox/internal/core"
	"github.com/NielsdaWheelz/expbox/internal/errors"
	"github.com/NielsdaWheelz/expbox/internal/fs"
)

// Settings are workspace defaults read from .expbox/settings.yaml.
// Command-line flags override every field.
type Settings struct {
	Version     int    `yaml:"version"`
	Logger      string `yaml:"logger"`
	Environment string `yaml:"environment"`
	IDPrefix    string `yaml:"id_prefix"`
	GitTimeout  string `yaml:"git_timeout"`
	Workers     int    `yaml:"sweep_workers"`
}

var (
	validLoggers      = map[string]bool{"none": true, "file": true}
	validEnvironments = map[string]bool{"none": true, "basic": true, "full": true}
)

// DefaultSettings returns built-in defaults used when settings.yaml is missing.
func DefaultSettings() Settings {
	return Settings{
		Version:     1,
		Logger:      "file",
		Environment: "none",
		GitTimeout:  "5s",
		Workers:     4,
	}
}

// LoadSettings loads and validates workspace settings.
// If the file is missing, returns defaults with found=false.
// Unknown keys and invalid values yield E_CONFIG_INVALID.
func LoadSettings(fsys fs.FS, ws Workspace) (Settings, bool, error) {
	path := ws.SettingsPath()
	details := map[string]string{"path": path}

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), false, nil
		}
		return Settings{}, false, errors.WrapWithDetails(errors.EConfigInvalid, "failed to read settings", err, details)
	}

	cfg := DefaultSettings()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Settings{}, false, errors.WrapWithDetails(errors.EConfigInvalid, "invalid settings: "+err.Error(), err, details)
	}

	if err := ValidateSettings(cfg); err != nil {
		return Settings{}, false, err
	}
	return cfg, true, nil
}

// ValidateSettings returns E_CONFIG_INVALID on the first invalid field.
func ValidateSettings(s Settings) error {
	if s.Version != 1 {
		return errors.New(errors.EConfigInvalid, "settings version must be 1")
	}
	if !validLoggers[s.Logger] {
		return errors.New(errors.EConfigInvalid, "settings logger must be one of: none, file")
	}
	if !validEnvironments[s.Environment] {
		return errors.New(errors.EConfigInvalid, "settings environment must be one of: none, basic, full")
	}
	if s.IDPrefix != "" && core.Slugify(s.IDPrefix) == "" {
		return errors.New(errors.EConfigInvalid, "settings id_prefix must contain a letter or digit")
	}
	if _, err := s.GitTimeoutDuration(); err != nil {
		return err
	}
	if s.Workers < 1 {
		return errors.New(errors.EConfigInvalid, "settings sweep_workers must be at least 1")
	}
	return nil
}

// GitTimeoutDuration parses GitTimeout. Empty means the 5s default.
func (s Settings) GitTimeoutDuration() (time.Duration, error) {
	if s.GitTimeout == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(s.GitTimeout)
	if err != nil || d <= 0 {
		return 0, errors.NewWithDetails(errors.EConfigInvalid, "settings git_timeout must be a positive duration such as 5s", map[string]string{"input": s.GitTimeout})
	}
	return d, nil
}
