package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type stageRecorder struct {
	mu     sync.Mutex
	stages []ProgressStage
}

func (r *stageRecorder) record(s ProgressStage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, s)
}

func (r *stageRecorder) all() []ProgressStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressStage(nil), r.stages...)
}

func TestProgressStages(t *testing.T) {
	stages := ProgressStages()
	require.Len(t, stages, 7)

	percents := make([]int, len(stages))
	for i, s := range stages {
		percents[i] = s.Percent
		assert.NotEmpty(t, s.Text)
	}
	assert.Equal(t, []int{10, 20, 30, 50, 70, 80, 95}, percents)

	// callers get a copy
	stages[0].Percent = 99
	assert.Equal(t, 10, ProgressStages()[0].Percent)
}

func TestProgressSimulatorRunsToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	rec := &stageRecorder{}
	sim := StartProgressSimulator(2*time.Millisecond, rec.record)

	select {
	case <-sim.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("simulator did not finish")
	}
	sim.Stop()

	want := append([]ProgressStage{InitialStage}, ProgressStages()...)
	assert.Equal(t, want, rec.all())
}

func TestProgressSimulatorStop(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	rec := &stageRecorder{}
	sim := StartProgressSimulator(time.Hour, rec.record)

	// the initial stage is reported synchronously
	assert.Equal(t, []ProgressStage{InitialStage}, rec.all())

	sim.Stop()
	sim.Stop()

	select {
	case <-sim.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
	assert.Len(t, rec.all(), 1)
}
