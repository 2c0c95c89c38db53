package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/provider/memory"
	"github.com/dwsmith1983/accredit/internal/provider/providertest"
	"github.com/dwsmith1983/accredit/pkg/types"
)

var errBackend = errors.New("connection reset")

// failingProcess fails every Process store call while down is set.
type failingProcess struct {
	provider.Store[types.ProcessRecord]
	down  bool
	calls int
}

func (f *failingProcess) Insert(ctx context.Context, id string, rec types.ProcessRecord) error {
	f.calls++
	if f.down {
		return errBackend
	}
	return f.Store.Insert(ctx, id, rec)
}

type flakyProvider struct {
	*memory.MemoryProvider
	process *failingProcess
}

func (p *flakyProvider) Process() provider.Store[types.ProcessRecord] { return p.process }

func newFlaky() *flakyProvider {
	m := memory.New()
	return &flakyProvider{MemoryProvider: m, process: &failingProcess{Store: m.Process()}}
}

func TestConformance(t *testing.T) {
	providertest.RunAll(t, Wrap(memory.New(), DefaultConfig(), nil))
}

func TestOpensAfterThreshold(t *testing.T) {
	inner := newFlaky()
	inner.process.down = true
	p := Wrap(inner, Config{FailThreshold: 3, Cooldown: time.Hour}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := p.Process().Insert(ctx, "id", providertest.SampleProcess("id"))
		assert.ErrorIs(t, err, errBackend)
	}

	err := p.Process().Insert(ctx, "id", providertest.SampleProcess("id"))
	assert.True(t, IsOpen(err), "expected open breaker, got %v", err)
	assert.Equal(t, 3, inner.process.calls, "open breaker must not reach the store")

	// Other projections keep their own breaker.
	require.NoError(t, p.Faculty().Insert(ctx, "id", providertest.SampleFaculty("id")))
}

func TestRecordOutcomesDoNotTrip(t *testing.T) {
	p := Wrap(memory.New(), Config{FailThreshold: 2, Cooldown: time.Hour}, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := p.Annual().Get(ctx, "missing")
		assert.ErrorIs(t, err, provider.ErrNotFound)
	}
	require.NoError(t, p.Annual().Insert(ctx, "a", providertest.SampleAnnual("a")))
	for i := 0; i < 5; i++ {
		err := p.Annual().Insert(ctx, "a", providertest.SampleAnnual("a"))
		assert.ErrorIs(t, err, provider.ErrAlreadyExists)
	}

	got, err := p.Annual().Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

func TestHalfOpenRecovers(t *testing.T) {
	inner := newFlaky()
	inner.process.down = true
	p := Wrap(inner, Config{FailThreshold: 1, Cooldown: 20 * time.Millisecond}, nil)
	ctx := context.Background()

	assert.ErrorIs(t, p.Process().Insert(ctx, "x", providertest.SampleProcess("x")), errBackend)
	assert.True(t, IsOpen(p.Process().Insert(ctx, "x", providertest.SampleProcess("x"))))

	inner.process.down = false
	time.Sleep(40 * time.Millisecond)
	assert.NoError(t, p.Process().Insert(ctx, "x", providertest.SampleProcess("x")))
}
