package audio

import "fmt"

// ConfigError reports a missing external capability or a request the
// current configuration can never satisfy. It is fatal to the request and
// never retried.
type ConfigError struct {
	Capability string
	Detail     string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Capability, e.Detail)
}

// ProcessError reports a failed external tool invocation, carrying the tail
// of the tool's stderr for diagnosis.
type ProcessError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// stderrTail bounds how much tool output a ProcessError carries.
const stderrTailBytes = 1024

func tail(b []byte) string {
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return string(b)
}
