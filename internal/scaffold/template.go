// Package scaffold provides helpers for creating workspace files.
package scaffold

// SettingsTemplate is the content of a fresh .expbox/settings.yaml.
// Its values equal config.DefaultSettings; flags override every field.
const SettingsTemplate = `# expbox workspace settings
version: 1

# Metric logger for new boxes: none or file.
logger: file

# Environment capture level: none, basic, or full.
environment: none

# Prefix added to generated ids, e.g. "lab" gives 20251125-132000-lab-<slug>.
id_prefix: ""

# Timeout for each git command run during capture.
git_timeout: 5s

# Concurrent box reads and archives during sweep and export.
sweep_workers: 4
`
