package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
)

// QuadFixture is a correspondence set with probe points whose images are
// known.
type QuadFixture struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Source      []homography.Point `json:"source"`
	Destination []homography.Point `json:"destination"`
	Probes      []Probe            `json:"probes,omitempty"`
}

// Probe is an input point and its expected forward mapping.
type Probe struct {
	Input    homography.Point `json:"input"`
	Expected homography.Point `json:"expected"`
}

var square100 = []homography.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

// SampleFixtures returns the built-in correspondence sets.
func SampleFixtures() []QuadFixture {
	unit := []homography.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	return []QuadFixture{
		{
			Name:        "identity",
			Description: "unit square onto itself",
			Source:      unit,
			Destination: unit,
			Probes: []Probe{
				{Input: homography.Pt(0.5, 0.5), Expected: homography.Pt(0.5, 0.5)},
				{Input: homography.Pt(2, -3), Expected: homography.Pt(2, -3)},
			},
		},
		{
			Name:        "inset",
			Description: "square onto a slightly inset quadrilateral",
			Source:      square100,
			Destination: []homography.Point{{X: 10, Y: 10}, {X: 90, Y: 5}, {X: 95, Y: 95}, {X: 5, Y: 90}},
			Probes: []Probe{
				{Input: homography.Pt(0, 0), Expected: homography.Pt(10, 10)},
				{Input: homography.Pt(100, 100), Expected: homography.Pt(95, 95)},
			},
		},
		{
			Name:        "affine",
			Description: "translation by (5, -2) and uniform scale 2",
			Source:      square100,
			Destination: []homography.Point{{X: 5, Y: -2}, {X: 205, Y: -2}, {X: 205, Y: 198}, {X: 5, Y: 198}},
			Probes: []Probe{
				{Input: homography.Pt(50, 50), Expected: homography.Pt(105, 98)},
				{Input: homography.Pt(-10, 10), Expected: homography.Pt(-15, 18)},
			},
		},
	}
}

// FixtureNames lists the fixtures stored under testdata/fixtures.
func FixtureNames(t *testing.T) []string {
	t.Helper()

	paths, err := filepath.Glob(ProjectPath(t, "testdata", "fixtures", "*.json"))
	require.NoError(t, err)
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = strings.TrimSuffix(filepath.Base(p), ".json")
	}
	return names
}

// LoadFixture loads a fixture from testdata/fixtures.
func LoadFixture(t *testing.T, name string) QuadFixture {
	t.Helper()

	data, err := os.ReadFile(FixturePath(t, name)) //nolint:gosec // G304: controlled test path
	require.NoError(t, err, "Failed to read fixture %s", name)

	var fixture QuadFixture
	require.NoError(t, json.Unmarshal(data, &fixture), "Failed to parse fixture %s", name)
	return fixture
}

// SaveFixture writes fixture as indented JSON into dir.
func SaveFixture(t *testing.T, dir string, fixture QuadFixture) string {
	t.Helper()

	require.NoError(t, EnsureDir(dir))
	data, err := json.MarshalIndent(fixture, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(dir, fixture.Name+".json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// ValidateFixture checks that a fixture is usable for estimation.
func ValidateFixture(t *testing.T, fixture QuadFixture) {
	t.Helper()

	require.NotEmpty(t, fixture.Name, "Fixture name should not be empty")
	require.GreaterOrEqual(t, len(fixture.Source), 4, "Fixture %s needs 4 source points", fixture.Name)
	require.GreaterOrEqual(t, len(fixture.Destination), 4, "Fixture %s needs 4 destination points", fixture.Name)
}
