package ondemand

import (
	"fmt"
	"math"
	"time"
)

const secondsPerMinute = 60.0

// Settings controls the on-demand quota and upload pacing.
type Settings struct {
	// UploadRate is the number of on-demand uploads allowed per minute before backoff.
	UploadRate float64
	// BackoffBase is raised to the backoff step to stretch the upload delay.
	BackoffBase float64
	// BackoffStepDuration is the number of queued operations per backoff step.
	BackoffStepDuration int
	// MaxQueueSize is the number of on-demand operations that may be in flight.
	MaxQueueSize int
	// MaxUnsentReports caps the reports held back while data collection is off.
	MaxUnsentReports int
	// MaxUploadDelay caps the delay between uploads.
	MaxUploadDelay time.Duration
}

// DefaultSettings returns the default on-demand settings.
func DefaultSettings() *Settings {
	return &Settings{
		UploadRate:          10,
		BackoffBase:         1.5,
		BackoffStepDuration: 6,
		MaxQueueSize:        10,
		MaxUnsentReports:    4,
		MaxUploadDelay:      time.Hour,
	}
}

// Validate checks that the settings describe a usable quota.
func (s *Settings) Validate() error {
	switch {
	case s.UploadRate <= 0:
		return fmt.Errorf("%w: upload rate must be positive", ErrInvalidSettings)
	case s.BackoffBase < 1:
		return fmt.Errorf("%w: backoff base must be at least 1", ErrInvalidSettings)
	case s.BackoffStepDuration <= 0:
		return fmt.Errorf("%w: backoff step duration must be positive", ErrInvalidSettings)
	case s.MaxQueueSize <= 0:
		return fmt.Errorf("%w: max queue size must be positive", ErrInvalidSettings)
	case s.MaxUnsentReports < 0:
		return fmt.Errorf("%w: max unsent reports must not be negative", ErrInvalidSettings)
	case s.MaxUploadDelay <= 0:
		return fmt.Errorf("%w: max upload delay must be positive", ErrInvalidSettings)
	}
	return nil
}

// backoffStep returns how many backoff steps the queue depth has crossed.
func (s *Settings) backoffStep(queued int64) int64 {
	step := queued / int64(s.BackoffStepDuration)
	if step < 0 {
		return 0
	}
	return step
}

// UploadDelay returns the wait after an upload given the number of queued operations.
func (s *Settings) UploadDelay(queued int64) time.Duration {
	seconds := (secondsPerMinute / s.UploadRate) * math.Pow(s.BackoffBase, float64(s.backoffStep(queued)))
	if math.IsInf(seconds, 0) || math.IsNaN(seconds) || seconds >= s.MaxUploadDelay.Seconds() {
		return s.MaxUploadDelay
	}
	return time.Duration(seconds * float64(time.Second))
}
