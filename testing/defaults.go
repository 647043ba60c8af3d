package testing

import (
	"os"
	"path/filepath"
)

const DefaultTestDirRoot = "afsmo-test"

func DefaultTestDir() string {
	return filepath.Join(os.TempDir(), DefaultTestDirRoot)
}
