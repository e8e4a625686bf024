package bench

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Levalicious/spinx"
)

var errStubFactory = errors.New("stub factory")

func TestRunAllVariants(t *testing.T) {
	for _, variant := range Variants() {
		t.Run(variant, func(t *testing.T) {
			res, err := Run(Config{
				Variant: variant,
				Workers: 4,
				Iters:   2000,
			})
			require.NoError(t, err)
			assert.Equal(t, uint64(4*2000), res.TotalOps)
			assert.Len(t, res.PerWorker, 4)
			for _, n := range res.PerWorker {
				assert.Equal(t, uint64(2000), n)
			}
			assert.Equal(t, 1.0, res.Imbalance)
			assert.Greater(t, res.OpsPerSecond, 0.0)
		})
	}
}

func TestRunDurationMode(t *testing.T) {
	res, err := Run(Config{
		Variant:  "ticket",
		Workers:  2,
		Duration: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Greater(t, res.TotalOps, uint64(0))
	var sum uint64
	for _, n := range res.PerWorker {
		sum += n
	}
	assert.Equal(t, res.TotalOps, sum)
}

func TestRunUnknownVariant(t *testing.T) {
	_, err := Run(Config{Variant: "clh", Workers: 1, Iters: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variant")
}

func TestRunRejectsBadConfig(t *testing.T) {
	_, err := Run(Config{Variant: "tas", Workers: 0, Iters: 10})
	require.Error(t, err)

	_, err = Run(Config{Variant: "tas", Workers: 1})
	require.Error(t, err)

	_, err = Run(Config{Variant: "anderson", Workers: 8, Iters: 10, MaxThreads: 2})
	require.Error(t, err)
}

func TestVariantsSortedAndComplete(t *testing.T) {
	names := Variants()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)
	for _, want := range []string{
		"anderson", "graunke-thakkar", "mutex", "tas",
		"ticket", "ticket-prop", "ttas", "ttas-backoff",
	} {
		assert.Contains(t, names, want)
	}
}

func TestRegisterReplaces(t *testing.T) {
	Register("stub", func(Config) (func() sync.Locker, error) {
		return nil, errStubFactory
	})
	t.Cleanup(func() { registry.Delete("stub") })
	_, err := Run(Config{Variant: "stub", Workers: 1, Iters: 1})
	require.ErrorIs(t, err, errStubFactory)
}

func TestRunCustomBackoff(t *testing.T) {
	res, err := Run(Config{
		Variant: "ttas-backoff",
		Workers: 4,
		Iters:   500,
		Backoff: spinx.BackoffConfig{MinIters: 8, MaxIters: 64, MaxWaitIters: 1 << 12},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4*500), res.TotalOps)

	// An invalid tuning surfaces as a Run error, not a silent default.
	_, err = Run(Config{
		Variant: "ttas-backoff",
		Workers: 1,
		Iters:   1,
		Backoff: spinx.BackoffConfig{MinIters: 64, MaxIters: 8, MaxWaitIters: 1},
	})
	require.Error(t, err)
}

func TestRunCustomBaseUnit(t *testing.T) {
	res, err := Run(Config{
		Variant:  "ticket-prop",
		Workers:  4,
		Iters:    500,
		BaseUnit: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4*500), res.TotalOps)
}
