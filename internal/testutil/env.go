// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"os"
)

// isolatedEnv lists variables that would point a test at a repository or
// workspace outside its temp dir.
var isolatedEnv = []string{
	"GIT_DIR",
	"GIT_WORK_TREE",
	"GIT_COMMON_DIR",
	"GIT_INDEX_FILE",
	"GIT_OBJECT_DIRECTORY",
	"GIT_ALTERNATE_OBJECT_DIRECTORIES",
	"EXPBOX_ROOT",
	"EXPBOX_RESULTS_ROOT",
}

// IsolateEnv clears git and expbox location overrides for the test binary.
// Call it from TestMain.
func IsolateEnv() error {
	for _, name := range isolatedEnv {
		if err := os.Unsetenv(name); err != nil {
			return fmt.Errorf("unset %s: %w", name, err)
		}
	}
	return nil
}
