package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"retroriff/types"
	"retroriff/websocket"
)

// HarvestFailedMessage is the user-facing text for a failed harvest
const HarvestFailedMessage = "Failed to harvest riffs. Please try again."

// ErrQueueFull is returned when no more harvests can be accepted
var ErrQueueFull = errors.New("harvest queue is full")

// Processor runs one harvest
type Processor interface {
	ProcessQuery(ctx context.Context, criteria types.SearchCriteria) (*types.HarvesterResult, error)
}

// SessionManager drives harvest sessions through idle, loading, success and error
type SessionManager interface {
	Start()
	Stop()
	Submit(criteria types.SearchCriteria) (*types.HarvestSession, error)
	Get(id string) (*types.HarvestSession, bool)
	List() []*types.HarvestSession
	Reset(id string) error
}

// SessionOptions configures a session manager
type SessionOptions struct {
	Workers          int
	ProgressInterval time.Duration
	ZipThreshold     int64
	TTL              time.Duration
}

// sessionManager manages harvest sessions
type sessionManager struct {
	sessions   map[string]*types.HarvestSession
	simulators map[string]*ProgressSimulator
	queue      chan string
	mu         sync.RWMutex
	processor  Processor
	hub        websocket.Hub
	opts       SessionOptions
	logger     *zap.Logger

	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a new session manager
func NewSessionManager(processor Processor, hub websocket.Hub, opts SessionOptions, logger *zap.Logger) SessionManager {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionManager{
		sessions:   make(map[string]*types.HarvestSession),
		simulators: make(map[string]*ProgressSimulator),
		queue:      make(chan string, 100), // Buffer for 100 harvests
		processor:  processor,
		hub:        hub,
		opts:       opts,
		logger:     logger,
		quit:       make(chan struct{}),
	}
}

// Start begins processing harvests
func (m *sessionManager) Start() {
	for i := 0; i < m.opts.Workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	if m.opts.TTL > 0 {
		m.wg.Add(1)
		go m.janitor()
	}
}

// Stop halts the workers and janitor. Harvests already running finish first.
func (m *sessionManager) Stop() {
	m.stopOnce.Do(func() { close(m.quit) })
	m.wg.Wait()

	m.mu.Lock()
	sims := m.simulators
	m.simulators = make(map[string]*ProgressSimulator)
	m.mu.Unlock()
	for _, sim := range sims {
		sim.Stop()
	}
}

// Submit validates the criteria and starts a new session in the loading state
func (m *sessionManager) Submit(criteria types.SearchCriteria) (*types.HarvestSession, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	session := &types.HarvestSession{
		ID:        uuid.New().String(),
		Status:    types.HarvestStatusIdle,
		Criteria:  criteria.Normalize(),
		CreatedAt: time.Now(),
	}
	if err := transition(session, types.HarvestStatusLoading); err != nil {
		return nil, err
	}

	m.mu.Lock()
	select {
	case m.queue <- session.ID:
	default:
		m.mu.Unlock()
		return nil, ErrQueueFull
	}
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.broadcast(session.ID, "status", string(types.HarvestStatusLoading), "Harvest queued", 0)

	sim := StartProgressSimulator(m.opts.ProgressInterval, func(stage ProgressStage) {
		m.applyStage(session.ID, stage)
	})
	m.mu.Lock()
	if current, ok := m.sessions[session.ID]; ok && current.Status == types.HarvestStatusLoading {
		m.simulators[session.ID] = sim
		sim = nil
	}
	snapshot := m.snapshot(session.ID)
	m.mu.Unlock()
	if sim != nil {
		// the harvest finished before the simulator was registered
		sim.Stop()
	}
	return snapshot, nil
}

// Get returns a copy of a session
func (m *sessionManager) Get(id string) (*types.HarvestSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot(id)
	return s, s != nil
}

// List returns copies of all sessions
func (m *sessionManager) List() []*types.HarvestSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*types.HarvestSession, 0, len(m.sessions))
	for id := range m.sessions {
		sessions = append(sessions, m.snapshot(id))
	}
	return sessions
}

// Reset returns a finished session to idle and discards it
func (m *sessionManager) Reset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Status != types.HarvestStatusIdle {
		if err := transition(session, types.HarvestStatusIdle); err != nil {
			return err
		}
	}
	delete(m.sessions, id)
	return nil
}

// snapshot copies a session; callers hold m.mu
func (m *sessionManager) snapshot(id string) *types.HarvestSession {
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// transition moves a session along the state machine
func transition(s *types.HarvestSession, next types.HarvestStatus) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, next)
	}
	s.Status = next
	return nil
}

// applyStage records a cosmetic progress stage while the session is loading
func (m *sessionManager) applyStage(id string, stage ProgressStage) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok || session.Status != types.HarvestStatusLoading {
		m.mu.Unlock()
		return
	}
	session.Progress = stage.Percent
	session.ProgressText = stage.Text
	m.mu.Unlock()

	m.broadcast(id, "progress", string(types.HarvestStatusLoading), stage.Text, float64(stage.Percent))
}

// worker processes harvests from the queue
func (m *sessionManager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.quit:
			return
		case id := <-m.queue:
			m.process(id)
		}
	}
}

func (m *sessionManager) process(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	now := time.Now()
	session.StartedAt = &now
	criteria := session.Criteria
	m.mu.Unlock()

	result, err := m.processor.ProcessQuery(context.Background(), criteria)

	m.stopSimulator(id)
	if err != nil {
		m.fail(id, err)
	} else {
		m.succeed(id, result)
	}
	// Submit may register the simulator after the first stop
	m.stopSimulator(id)
}

func (m *sessionManager) stopSimulator(id string) {
	m.mu.Lock()
	sim := m.simulators[id]
	delete(m.simulators, id)
	m.mu.Unlock()
	if sim != nil {
		sim.Stop()
	}
}

func (m *sessionManager) succeed(id string, result *types.HarvesterResult) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	if err := transition(session, types.HarvestStatusSuccess); err != nil {
		m.mu.Unlock()
		m.logger.Error("Harvest completion rejected", zap.String("session", id), zap.Error(err))
		return
	}
	now := time.Now()
	session.Result = result
	session.TotalSize = EstimateDecodedSize(result.Songs)
	session.Packaging = ChoosePackaging(session.TotalSize, m.opts.ZipThreshold)
	session.Progress = ReadyStage.Percent
	session.ProgressText = ReadyStage.Text
	session.CompletedAt = &now
	packaging := session.Packaging
	m.mu.Unlock()

	m.logger.Info("Harvest completed",
		zap.String("session", id),
		zap.Int("songs", len(result.Songs)),
		zap.String("packaging", string(packaging)))
	m.broadcast(id, "complete", string(types.HarvestStatusSuccess), ReadyStage.Text, float64(ReadyStage.Percent))
}

// fail records the error, then resets the session to idle
func (m *sessionManager) fail(id string, cause error) {
	m.logger.Error("Harvest failed", zap.String("session", id), zap.Error(cause))

	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	if err := transition(session, types.HarvestStatusError); err != nil {
		m.mu.Unlock()
		m.logger.Error("Harvest failure rejected", zap.String("session", id), zap.Error(err))
		return
	}
	now := time.Now()
	session.Error = HarvestFailedMessage
	session.CompletedAt = &now
	m.mu.Unlock()

	m.broadcast(id, "error", string(types.HarvestStatusError), HarvestFailedMessage, 0)

	m.mu.Lock()
	if session, ok = m.sessions[id]; ok && session.Status == types.HarvestStatusError {
		_ = transition(session, types.HarvestStatusIdle)
		session.Result = nil
		session.TotalSize = 0
		session.Packaging = ""
		session.Progress = 0
		session.ProgressText = ""
	}
	m.mu.Unlock()

	m.broadcast(id, "status", string(types.HarvestStatusIdle), HarvestFailedMessage, 0)
}

// janitor discards finished sessions older than the TTL
func (m *sessionManager) janitor() {
	defer m.wg.Done()

	interval := m.opts.TTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case now := <-ticker.C:
			m.expire(now)
		}
	}
}

func (m *sessionManager) expire(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.Status == types.HarvestStatusLoading || s.CompletedAt == nil {
			continue
		}
		if now.Sub(*s.CompletedAt) > m.opts.TTL {
			delete(m.sessions, id)
			m.logger.Debug("Harvest session expired", zap.String("session", id))
		}
	}
}

func (m *sessionManager) broadcast(id, msgType, status, message string, progress float64) {
	if m.hub != nil {
		m.hub.BroadcastProgress(id, msgType, status, message, progress)
	}
}
