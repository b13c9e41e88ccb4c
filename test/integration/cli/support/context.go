package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/testutil"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStderr    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	WorkingDir string
	TempDir    string
	EnvVars    map[string]string

	// Server management
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string

	// Test artifacts
	CreatedFiles []string
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	workingDir, err := testutil.GetProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "quadwarp-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		WorkingDir:      workingDir,
		TempDir:         tempDir,
		EnvVars:         map[string]string{},
		LastHTTPHeaders: map[string]string{},
	}, nil
}

// Cleanup removes all temporary files, stops the test server and restores
// the environment.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	if testCtx.HTTPTestServer != nil {
		testCtx.stopTestHTTPServer()
	}

	for name := range testCtx.EnvVars {
		if err := os.Unsetenv(name); err != nil {
			errs = append(errs, fmt.Errorf("failed to unset %s: %w", name, err))
		}
	}

	for _, file := range testCtx.CreatedFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("failed to remove file %s: %w", file, err))
		}
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// TrackFile adds a file to be cleaned up after tests.
func (testCtx *TestContext) TrackFile(filename string) {
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, testCtx.resolvePath(filename))
}

// resolvePath expands the {tmp} placeholder and makes relative paths
// relative to the scenario's temp directory.
func (testCtx *TestContext) resolvePath(p string) string {
	p = testCtx.expand(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(testCtx.TempDir, p)
}

// expand replaces {tmp} with the scenario's temp directory.
func (testCtx *TestContext) expand(s string) string {
	return strings.ReplaceAll(s, "{tmp}", testCtx.TempDir)
}
