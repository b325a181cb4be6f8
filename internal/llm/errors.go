package llm

import "fmt"

// ConfigurationError is returned when a client cannot be built, e.g. a
// credential is missing. It is not recoverable at runtime.
type ConfigurationError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm %s: configuration: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("llm %s: configuration: %s", e.Provider, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ProviderError wraps a failed generation call: network, timeout, rate
// limit or a malformed response envelope.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
