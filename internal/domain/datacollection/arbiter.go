package datacollection

import (
	"sync"

	"github.com/crashdesk/ondemand/internal/port/inbound"
	"go.uber.org/zap"
)

// Arbiter decides whether crash data may leave the process.
// The configured default applies until SetEnabled overrides it at runtime.
type Arbiter struct {
	mu         sync.RWMutex
	defaultOn  bool
	enabled    bool
	overridden bool
	logger     *zap.Logger
}

// NewArbiter creates a new data collection arbiter.
func NewArbiter(enabledByDefault bool, logger *zap.Logger) *Arbiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arbiter{
		defaultOn: enabledByDefault,
		enabled:   enabledByDefault,
		logger:    logger.Named("datacollection"),
	}
}

// Compile-time interface check
var _ inbound.DataCollectionArbiter = (*Arbiter)(nil)

// IsEnabled reports whether data collection is currently allowed.
func (a *Arbiter) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetEnabled overrides the configured default.
func (a *Arbiter) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.overridden = true
	a.mu.Unlock()

	if changed {
		a.logger.Info("data collection changed", zap.Bool("enabled", enabled))
	}
}

// IsOverridden reports whether SetEnabled has been called.
func (a *Arbiter) IsOverridden() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.overridden
}

// Reset drops any runtime override.
func (a *Arbiter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = a.defaultOn
	a.overridden = false
}
