package address

import (
	"context"
	"fmt"
)

// Standardizer defines the interface for address standardization against an
// external service. The auth token is passed explicitly per call rather than
// held by the implementation, so a single batch token can be threaded from
// the batch runner down to the wire without ambient state.
type Standardizer interface {
	// Standardize submits one address record and returns the standardized
	// form. Errors are either *ServiceError (transport/API failures with a
	// transient/permanent classification) or context errors.
	Standardize(ctx context.Context, rec Record, token string) (*Standardized, error)
}

// Record is the address-relevant portion of one input row. A blank field
// means absent; the mapper normalizes whitespace-only cells to "".
type Record struct {
	Firm             string
	StreetAddress    string
	SecondaryAddress string
	City             string
	State            string
	Urbanization     string
	ZIPCode          string
	ZIPPlus4         string
}

// IDField is a pass-through identifier column copied verbatim into output
// and never sent to the standardization service.
type IDField struct {
	Name  string
	Value string
}

// Standardized holds the fields returned by the USPS Addresses 3.0 API.
// Empty strings are meaningful: the service returned the field with no
// correction, as opposed to not returning it at all.
type Standardized struct {
	Firm                      string
	StreetAddress             string
	StreetAddressAbbreviation string
	SecondaryAddress          string
	City                      string
	CityAbbreviation          string
	State                     string
	ZIPCode                   string
	ZIPPlus4                  string
	Urbanization              string

	// Deliverability details from the additionalInfo block.
	DeliveryPoint        string
	CarrierRoute         string
	DPVConfirmation      string
	DPVCMRA              string
	Business             string
	CentralDeliveryPoint string
	Vacant               string

	// Warnings are advisory messages attached to an otherwise successful
	// standardization (e.g. a corrected ZIP).
	Warnings []string
}

// ValidationError reports a locally detected problem with a record, found
// before any network call is made. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ServiceError reports a failure talking to the standardization service.
// Transient errors (timeouts, transport failures, 5xx) may succeed on retry;
// permanent errors (4xx) will not without changing the request.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Transient  bool
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("usps: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("usps: %s", e.Message)
}
