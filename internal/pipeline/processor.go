// Package pipeline drives per-row validation and enrichment: map the raw
// row, apply the required-field policy, standardize valid records against
// the USPS API, and fold every outcome back into output columns. No failure
// on one row ever affects another row or aborts the batch.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/twhitfield/addrcheck/internal/address"
)

// Output columns appended to every processed table. Standardized_* carry the
// service's corrected fields; the deliverability columns come from the
// response's additionalInfo block; ValidationError and Warnings are always
// present and blank when not applicable.
const (
	ColStandardizedFirm         = "Standardized_Firm"
	ColStandardizedStreet       = "Standardized_StreetAddress"
	ColStandardizedStreetAbbrev = "Standardized_StreetAddressAbbrev"
	ColStandardizedSecondary    = "Standardized_SecondaryAddress"
	ColStandardizedCity         = "Standardized_City"
	ColStandardizedCityAbbrev   = "Standardized_CityAbbrev"
	ColStandardizedState        = "Standardized_State"
	ColStandardizedZIPCode      = "Standardized_ZIPCode"
	ColStandardizedZIPPlus4     = "Standardized_ZIPPlus4"
	ColStandardizedUrbanization = "Standardized_Urbanization"
	ColDeliveryPoint            = "DeliveryPoint"
	ColCarrierRoute             = "CarrierRoute"
	ColDPVConfirmation          = "DPVConfirmation"
	ColDPVCMRA                  = "DPVCMRA"
	ColBusiness                 = "Business"
	ColCentralDeliveryPoint     = "CentralDeliveryPoint"
	ColVacant                   = "Vacant"
	ColValidationError          = "ValidationError"
	ColWarnings                 = "Warnings"
)

// OutputColumns lists the appended columns in output order.
var OutputColumns = []string{
	ColStandardizedFirm,
	ColStandardizedStreet,
	ColStandardizedStreetAbbrev,
	ColStandardizedSecondary,
	ColStandardizedCity,
	ColStandardizedCityAbbrev,
	ColStandardizedState,
	ColStandardizedZIPCode,
	ColStandardizedZIPPlus4,
	ColStandardizedUrbanization,
	ColDeliveryPoint,
	ColCarrierRoute,
	ColDPVConfirmation,
	ColDPVCMRA,
	ColBusiness,
	ColCentralDeliveryPoint,
	ColVacant,
	ColValidationError,
	ColWarnings,
}

// Outcome classifies what happened to a single row.
type Outcome int

const (
	// OutcomeValid means the service standardized the address.
	OutcomeValid Outcome = iota

	// OutcomeValidationError means a required field was missing; no
	// service call was made.
	OutcomeValidationError

	// OutcomeServiceError means the service call failed after any retries.
	OutcomeServiceError
)

// OutputRow is the processed form of one input row: all original columns,
// the pass-through ID columns, and the appended diagnostic/standardized
// columns. Ordering is carried by the batch runner's output header.
type OutputRow struct {
	Values  map[string]string
	Outcome Outcome
}

// Processor turns one raw input row into one output row. It never returns
// an error: every failure path becomes diagnostic columns.
type Processor struct {
	standardizer address.Standardizer
	idColumns    []string
	logger       *slog.Logger
}

// NewProcessor creates a row processor. idColumns are the pass-through
// identifier columns to copy into output and keep out of service requests.
func NewProcessor(standardizer address.Standardizer, idColumns []string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		standardizer: standardizer,
		idColumns:    idColumns,
		logger:       logger,
	}
}

// Process maps, validates, and standardizes a single row. The token is the
// batch's bearer credential, passed through to the service call.
func (p *Processor) Process(ctx context.Context, row map[string]string, token string) OutputRow {
	out := OutputRow{Values: make(map[string]string, len(row)+len(OutputColumns))}
	for k, v := range row {
		out.Values[k] = v
	}
	for _, col := range OutputColumns {
		out.Values[col] = ""
	}

	rec, ids := address.MapRecord(row, p.idColumns)
	for _, id := range ids {
		out.Values[id.Name] = id.Value
	}

	if vErr := address.CheckRequired(rec); vErr != nil {
		out.Outcome = OutcomeValidationError
		out.Values[ColValidationError] = vErr.Message
		return out
	}

	std, err := p.standardizer.Standardize(ctx, rec, token)
	if err != nil {
		out.Outcome = OutcomeServiceError
		out.Values[ColValidationError] = serviceErrorMessage(err)
		p.logger.Warn("standardization failed",
			"street_address", rec.StreetAddress,
			"error", err,
		)
		return out
	}

	out.Outcome = OutcomeValid
	out.Values[ColStandardizedFirm] = std.Firm
	out.Values[ColStandardizedStreet] = std.StreetAddress
	out.Values[ColStandardizedStreetAbbrev] = std.StreetAddressAbbreviation
	out.Values[ColStandardizedSecondary] = std.SecondaryAddress
	out.Values[ColStandardizedCity] = std.City
	out.Values[ColStandardizedCityAbbrev] = std.CityAbbreviation
	out.Values[ColStandardizedState] = std.State
	out.Values[ColStandardizedZIPCode] = std.ZIPCode
	out.Values[ColStandardizedZIPPlus4] = std.ZIPPlus4
	out.Values[ColStandardizedUrbanization] = std.Urbanization
	out.Values[ColDeliveryPoint] = std.DeliveryPoint
	out.Values[ColCarrierRoute] = std.CarrierRoute
	out.Values[ColDPVConfirmation] = std.DPVConfirmation
	out.Values[ColDPVCMRA] = std.DPVCMRA
	out.Values[ColBusiness] = std.Business
	out.Values[ColCentralDeliveryPoint] = std.CentralDeliveryPoint
	out.Values[ColVacant] = std.Vacant
	out.Values[ColWarnings] = strings.Join(std.Warnings, "; ")
	return out
}

func serviceErrorMessage(err error) string {
	var svcErr *address.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Error()
	}
	return err.Error()
}
