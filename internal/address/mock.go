package address

import (
	"context"
)

// MockStandardizer is a test implementation of Standardizer. It records the
// number of calls and the records it received so tests can assert on what
// actually went over the wire.
type MockStandardizer struct {
	StandardizeFunc func(ctx context.Context, rec Record, token string) (*Standardized, error)

	Calls   int
	Records []Record
	Tokens  []string
}

// NewMockStandardizer creates a new mock standardizer for testing.
func NewMockStandardizer() *MockStandardizer {
	return &MockStandardizer{}
}

// Standardize delegates to the configured function or returns the record
// echoed back unchanged.
func (m *MockStandardizer) Standardize(ctx context.Context, rec Record, token string) (*Standardized, error) {
	m.Calls++
	m.Records = append(m.Records, rec)
	m.Tokens = append(m.Tokens, token)
	if m.StandardizeFunc != nil {
		return m.StandardizeFunc(ctx, rec, token)
	}
	return &Standardized{
		Firm:             rec.Firm,
		StreetAddress:    rec.StreetAddress,
		SecondaryAddress: rec.SecondaryAddress,
		City:             rec.City,
		State:            rec.State,
		ZIPCode:          rec.ZIPCode,
		ZIPPlus4:         rec.ZIPPlus4,
		Urbanization:     rec.Urbanization,
	}, nil
}
