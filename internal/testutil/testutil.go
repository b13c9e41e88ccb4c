// Package testutil holds helpers shared by the tests: synthetic images,
// correspondence fixtures and project paths.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// projectRoot walks up from this file to the directory holding go.mod. The
// result never changes, so it is computed once.
var projectRoot = sync.OnceValues(func() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get caller information")
	}
	for dir := filepath.Dir(filename); ; {
		if FileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod above %s", filepath.Dir(filename))
		}
		dir = parent
	}
})

// GetProjectRoot returns the module root.
func GetProjectRoot() (string, error) {
	return projectRoot()
}

// ProjectPath joins elem onto the module root.
func ProjectPath(t *testing.T, elem ...string) string {
	t.Helper()

	root, err := projectRoot()
	require.NoError(t, err, "Failed to find project root")
	return filepath.Join(append([]string{root}, elem...)...)
}

// FixturePath returns the path of a correspondence fixture by name.
func FixturePath(t *testing.T, name string) string {
	t.Helper()
	return ProjectPath(t, "testdata", "fixtures", name+".json")
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o750)
}

// FileExists reports whether path exists, whatever its type.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists reports whether path is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
