package axon

// Temperature constants for provider calls.
// Structured output wants deterministic sampling, so the default is low.
const (
	// TemperatureUnset indicates that no temperature has been explicitly set.
	// A zero-value float32 (0.0) is also treated as unset.
	TemperatureUnset float32 = -1

	// TemperatureZero provides an explicitly near-zero temperature.
	// Use this instead of 0.0 since zero is treated as "unset".
	TemperatureZero float32 = 0.0001

	// DefaultTemperature is used when no temperature is configured.
	DefaultTemperature float32 = 0.1
)
