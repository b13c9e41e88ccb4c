package homography_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/quadwarp/internal/homography"
	"github.com/MeKo-Tech/quadwarp/internal/testutil"
)

func TestEstimate_StoredFixtures(t *testing.T) {
	for _, name := range testutil.FixtureNames(t) {
		t.Run(name, func(t *testing.T) {
			f := testutil.LoadFixture(t, name)
			m, err := homography.Estimate(f.Source, f.Destination)
			require.NoError(t, err)

			for i := range 4 {
				got, err := homography.MapForward(f.Source[i], m)
				require.NoError(t, err)
				assert.InDelta(t, f.Destination[i].X, got.X, 1e-6, "corner %d", i)
				assert.InDelta(t, f.Destination[i].Y, got.Y, 1e-6, "corner %d", i)
			}

			for _, p := range f.Probes {
				got, err := homography.MapForward(p.Input, m)
				require.NoError(t, err)
				assert.InDelta(t, p.Expected.X, got.X, 1e-6)
				assert.InDelta(t, p.Expected.Y, got.Y, 1e-6)

				back, err := homography.MapInverse(got, m)
				require.NoError(t, err)
				assert.InDelta(t, p.Input.X, back.X, 1e-6)
				assert.InDelta(t, p.Input.Y, back.Y, 1e-6)
			}
		})
	}
}
