package address

// Required-field policy for USPS-class standardization, evaluated in order
// with the first failure winning:
//
//  1. streetAddress must be present
//  2. state must be present
//  3. at least one of city / ZIPCode must be present
//
// Optional fields (firm, secondaryAddress, urbanization, ZIPPlus4) are never
// checked. CheckRequired is a pure predicate with no network access so that
// malformed rows never cost an API call and the policy can be tested without
// mocking a client.
func CheckRequired(rec Record) *ValidationError {
	if rec.StreetAddress == "" {
		return &ValidationError{Field: "streetAddress", Message: "missing streetAddress"}
	}
	if rec.State == "" {
		return &ValidationError{Field: "state", Message: "missing state"}
	}
	if rec.City == "" && rec.ZIPCode == "" {
		return &ValidationError{Field: "city", Message: "missing city or ZIPCode"}
	}
	return nil
}
