package support

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/quadwarp/cmd/quadwarp/cmd"
	"github.com/MeKo-Tech/quadwarp/internal/testutil"
)

// splitArgs splits a command line on whitespace, honoring single and double
// quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quote   rune
		started bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, started = r, true
		case r == ' ' || r == '\t':
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

// iRunCommand executes the CLI in-process from the scenario's temp directory.
func (testCtx *TestContext) iRunCommand(command string) error {
	testCtx.LastCommand = testCtx.expand(command)
	args, err := splitArgs(testCtx.LastCommand)
	if err != nil {
		return err
	}
	if len(args) > 0 && args[0] == "quadwarp" {
		args = args[1:]
	}

	prevDir, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(testCtx.TempDir); err != nil {
		return fmt.Errorf("failed to enter temp directory: %w", err)
	}
	defer func() { _ = os.Chdir(prevDir) }()

	var stdout, stderr bytes.Buffer
	root := cmd.GetRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	testCtx.LastStartTime = time.Now()
	testCtx.LastError = root.ExecuteContext(ctx)
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastExitCode = 0
	if testCtx.LastError != nil {
		testCtx.LastExitCode = 1
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %q failed: %w\nstderr: %s", testCtx.LastCommand, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %q succeeded unexpectedly\noutput: %s", testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastOutput, testCtx.expand(expected)) {
		return fmt.Errorf("output does not contain %q\noutput: %s", expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(unexpected string) error {
	if strings.Contains(testCtx.LastOutput, unexpected) {
		return fmt.Errorf("output contains %q\noutput: %s", unexpected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldHaveLines(n int) error {
	got := len(strings.Split(strings.TrimRight(testCtx.LastOutput, "\n"), "\n"))
	if got != n {
		return fmt.Errorf("expected %d lines, got %d\noutput: %s", n, got, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\noutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidYAML() error {
	var v any
	if err := yaml.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return fmt.Errorf("output is not valid YAML: %w", err)
	}
	if v == nil {
		return errors.New("output is empty YAML")
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidCSV() error {
	records, err := csv.NewReader(strings.NewReader(testCtx.LastOutput)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w", err)
	}
	if len(records) < 2 {
		return fmt.Errorf("expected a header and at least one record, got %d rows", len(records))
	}
	return nil
}

// theJSONFieldShouldBeApproximately looks up a dotted path such as
// "column_major.0" or "0.output.x" in the JSON output.
func (testCtx *TestContext) theJSONFieldShouldBeApproximately(path string, want float64) error {
	var doc any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &doc); err != nil {
		return fmt.Errorf("output is not valid JSON: %w", err)
	}
	v, err := lookup(doc, path)
	if err != nil {
		return err
	}
	got, ok := v.(float64)
	if !ok {
		return fmt.Errorf("field %s is %T, not a number", path, v)
	}
	if math.Abs(got-want) > 1e-6*math.Max(1, math.Abs(want)) {
		return fmt.Errorf("field %s = %g, want %g", path, got, want)
	}
	return nil
}

func lookup(doc any, path string) (any, error) {
	cur := doc
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", key, path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("invalid index %q in %s", key, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q in %s", cur, key, path)
		}
	}
	return cur, nil
}

func (testCtx *TestContext) theErrorShouldMention(expected string) error {
	if testCtx.LastError == nil {
		return errors.New("expected an error, command succeeded")
	}
	if !strings.Contains(strings.ToLower(testCtx.LastError.Error()), strings.ToLower(expected)) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError, expected)
	}
	return nil
}

func (testCtx *TestContext) theStderrShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastStderr, expected) {
		return fmt.Errorf("stderr does not contain %q\nstderr: %s", expected, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(testCtx.resolvePath(name)) {
		return fmt.Errorf("file %s does not exist", name)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, content string) error {
	data, err := os.ReadFile(testCtx.resolvePath(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), content) {
		return fmt.Errorf("file %s does not contain %q", name, content)
	}
	return nil
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.EnvVars[name] = value
	return os.Setenv(name, value)
}

func (testCtx *TestContext) aConfigFileWith(name string, body *godog.DocString) error {
	path := testCtx.resolvePath(name)
	if err := testutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(body.Content), 0o600)
}

func (testCtx *TestContext) aCorrespondenceFileForFixture(name, fixture string) error {
	for _, f := range testutil.SampleFixtures() {
		if f.Name != fixture {
			continue
		}
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(testCtx.resolvePath(name), data, 0o600)
	}
	return fmt.Errorf("unknown fixture %q", fixture)
}

// RegisterCommonSteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	// Setup
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aConfigFileWith)
	sc.Step(`^a correspondence file "([^"]*)" for fixture "([^"]*)"$`, testCtx.aCorrespondenceFileForFixture)

	// Execution
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	// Output
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should have (\d+) lines$`, testCtx.theOutputShouldHaveLines)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the output should be valid YAML$`, testCtx.theOutputShouldBeValidYAML)
	sc.Step(`^the output should be valid CSV$`, testCtx.theOutputShouldBeValidCSV)
	sc.Step(`^the JSON field "([^"]*)" should be approximately (-?[0-9.eE+-]+)$`, testCtx.theJSONFieldShouldBeApproximately)
	sc.Step(`^stderr should contain "([^"]*)"$`, testCtx.theStderrShouldContain)

	// Errors
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	// Files
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
}
