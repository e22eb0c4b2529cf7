package detector

import (
	"sync"
)

// StateManager guards the mutable lifecycle state of a detector: the fitted
// flag, the fitted threshold, and the training dimensions. Individual
// accessors are safe for concurrent use; whole operations such as Fit or Load
// are not, per the contract's concurrency model.
type StateManager struct {
	mu sync.RWMutex

	fitted       bool
	threshold    float64
	hasThreshold bool
	nFeatures    int
	nSamples     int
}

// NewStateManager creates an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the detector has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the detector as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
}

// Reset clears all lifecycle state, returning the detector to unfitted.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.threshold = 0
	s.hasThreshold = false
	s.nFeatures = 0
	s.nSamples = 0
}

// SetThreshold records the fitted score cut-off.
func (s *StateManager) SetThreshold(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = t
	s.hasThreshold = true
}

// Threshold returns the recorded cut-off and whether one is present.
func (s *StateManager) Threshold() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold, s.hasThreshold
}

// SetDimensions records the number of features and samples seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}
