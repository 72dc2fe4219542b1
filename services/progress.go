package services

import (
	"sync"
	"time"
)

// ProgressStage is one cosmetic progress display state
type ProgressStage struct {
	Percent int    `json:"percent"`
	Text    string `json:"text"`
}

// DefaultProgressInterval is the delay between cosmetic stages
const DefaultProgressInterval = 1500 * time.Millisecond

var (
	// InitialStage is shown as soon as a harvest starts.
	InitialStage = ProgressStage{Percent: 0, Text: "Kicking off the process..."}
	// ReadyStage is shown once results are available.
	ReadyStage = ProgressStage{Percent: 100, Text: "Your riffs are ready!"}

	progressStages = []ProgressStage{
		{Percent: 10, Text: "Warming up the tubes... AI is initializing."},
		{Percent: 20, Text: "AI is formulating the best search strategy..."},
		{Percent: 30, Text: "Searching for tracks on YouTube..."},
		{Percent: 50, Text: "Converting videos to audio..."},
		{Percent: 70, Text: "Processing audio files..."},
		{Percent: 80, Text: "Sorting tracks by popularity..."},
		{Percent: 95, Text: "Calculating total file size..."},
	}
)

// ProgressStages returns the fixed stage sequence shown while loading
func ProgressStages() []ProgressStage {
	stages := make([]ProgressStage, len(progressStages))
	copy(stages, progressStages)
	return stages
}

// ProgressSimulator advances through the stage sequence on a timer. It knows
// nothing about real harvest progress.
type ProgressSimulator struct {
	interval time.Duration
	onStage  func(ProgressStage)
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// StartProgressSimulator reports InitialStage immediately, then one stage per
// interval until the sequence ends or Stop is called. onStage must not call Stop.
func StartProgressSimulator(interval time.Duration, onStage func(ProgressStage)) *ProgressSimulator {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	s := &ProgressSimulator{
		interval: interval,
		onStage:  onStage,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.onStage(InitialStage)
	go s.run()
	return s
}

func (s *ProgressSimulator) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := 0; i < len(progressStages); {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.onStage(progressStages[i])
			i++
		}
	}
}

// Stop cancels the timer and waits for the goroutine to exit. After Stop
// returns no further stages are reported. Safe to call more than once.
func (s *ProgressSimulator) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// Done is closed when the simulator has finished or been stopped
func (s *ProgressSimulator) Done() <-chan struct{} {
	return s.done
}
