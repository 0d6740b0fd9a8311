package llm

import "context"

// MockClient is a canned-response Client for tests and for running the
// server without a provider configured.
type MockClient struct {
	// Reply is returned for every invocation when Err is nil.
	Reply string
	// Err, when set, is returned unchanged for every invocation.
	Err error
	// Requests records every message sequence the mock received.
	Requests [][]ChatMessage
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) CreateCompletion(_ context.Context, messages []ChatMessage) (string, error) {
	m.Requests = append(m.Requests, messages)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}
