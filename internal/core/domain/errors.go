package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidKey is returned when a cache or computation key is empty, too long,
	// contains whitespace or control characters, or contains the reserved wildcard.
	ErrInvalidKey = zerr.New("invalid cache key")

	// ErrInvalidPattern is returned when an invalidation pattern cannot be used.
	ErrInvalidPattern = zerr.New("invalid invalidation pattern")

	// ErrInvalidTTL is returned when a negative time-to-live is supplied.
	ErrInvalidTTL = zerr.New("invalid ttl")

	// ErrUnknownJobKind is returned when a job is scheduled for a kind with no registered handler.
	ErrUnknownJobKind = zerr.New("unknown job kind")

	// ErrJobNotFound is returned when a job id is not known to the engine.
	ErrJobNotFound = zerr.New("job not found")

	// ErrJobPanicked is recorded on a job whose handler panicked.
	ErrJobPanicked = zerr.New("job handler panicked")

	// ErrResultTypeMismatch is returned when a computed result does not have the expected type.
	ErrResultTypeMismatch = zerr.New("computed result has unexpected type")

	// ErrEngineRunning is returned when a background loop is started twice.
	ErrEngineRunning = zerr.New("dispatcher already running")

	// ErrInvalidPage is returned when a page number or page size is out of range.
	ErrInvalidPage = zerr.New("invalid page request")

	// ErrInvalidSortOrder is returned when a sort order is neither asc nor desc.
	ErrInvalidSortOrder = zerr.New("invalid sort order")

	// ErrInvalidField is returned when a filter or sort field name is not a plain identifier.
	ErrInvalidField = zerr.New("invalid field name")

	// ErrInvalidPeriod is returned when a summary period is not positive.
	ErrInvalidPeriod = zerr.New("invalid summary period")

	// ErrInvalidEvent is returned for a mutation event that cannot be decoded or carries unusable ids.
	ErrInvalidEvent = zerr.New("invalid mutation event")

	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrConfigReadFailed is returned when the configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the configuration file is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrStoreOpenFailed is returned when a sqlite database cannot be opened or migrated.
	ErrStoreOpenFailed = zerr.New("failed to open store")

	// ErrSampleWriteFailed is returned when a performance sample cannot be persisted.
	ErrSampleWriteFailed = zerr.New("failed to write performance sample")

	// ErrSampleReadFailed is returned when performance samples cannot be read back.
	ErrSampleReadFailed = zerr.New("failed to read performance samples")

	// ErrBatcherClosed is returned when a sample is added to a closed batcher.
	ErrBatcherClosed = zerr.New("sample batcher is closed")

	// ErrInvalidAmount is returned when a summed document field does not hold a number.
	ErrInvalidAmount = zerr.New("aggregated field is not a number")

	// ErrServiceRunning is returned when Start is called on a running service.
	ErrServiceRunning = zerr.New("service already running")
)
