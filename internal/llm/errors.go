package llm

import "fmt"

// ErrorKind distinguishes the failure classes of a model invocation. Every
// failure is surfaced with its class; none is converted to a default answer,
// because a fabricated "could not answer" string would be indistinguishable
// from a genuine model reply in the persisted log.
type ErrorKind string

const (
	// KindTransport covers network/connection failures before a response
	// was received.
	KindTransport ErrorKind = "transport"
	// KindTimeout covers a bounded wait that elapsed.
	KindTimeout ErrorKind = "timeout"
	// KindProvider covers non-2xx responses from the provider.
	KindProvider ErrorKind = "provider"
	// KindMalformed covers responses that parsed but carried no usable
	// text completion.
	KindMalformed ErrorKind = "malformed"
)

// InvocationError is the typed failure returned by the gateway.
type InvocationError struct {
	Kind ErrorKind
	Err  error
}

func (e *InvocationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("llm invocation failed (%s)", e.Kind)
	}
	return fmt.Sprintf("llm invocation failed (%s): %v", e.Kind, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
