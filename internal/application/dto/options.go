package dto

import (
	"strconv"
	"time"

	"entitysync/internal/domain/entity"
)

// Recognized job option keys. Anything else in the option map is ignored.
const (
	OptionBatchSize     = "batch_size"
	OptionConcurrency   = "concurrency"
	OptionRetryAttempts = "retry_attempts"
	OptionRetryDelay    = "retry_delay"
	OptionUpdatedSince  = "updated_since"
)

// ParseJobOptions extracts the recognized options from a raw option map.
// Malformed values are treated the same as absent ones; defaults are filled
// later by JobOptions.Normalize for the job's kind.
func ParseJobOptions(raw map[string]string) entity.JobOptions {
	var options entity.JobOptions
	if raw == nil {
		return options
	}

	if v, ok := raw[OptionBatchSize]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			options.BatchSize = n
		}
	}
	if v, ok := raw[OptionConcurrency]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			options.Concurrency = n
		}
	}
	if v, ok := raw[OptionRetryAttempts]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			options.RetryAttempts = n
		}
	}
	if v, ok := raw[OptionRetryDelay]; ok {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			options.RetryDelay = d
		}
	}
	if v, ok := raw[OptionUpdatedSince]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			options.UpdatedSince = &t
		}
	}

	return options
}
