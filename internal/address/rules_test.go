package address_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twhitfield/addrcheck/internal/address"
)

func TestCheckRequired(t *testing.T) {
	tests := []struct {
		name      string
		rec       address.Record
		wantField string
	}{
		{
			name: "complete record passes",
			rec:  address.Record{StreetAddress: "123 Main St", City: "Anytown", State: "NC", ZIPCode: "12345"},
		},
		{
			name: "ZIP without city passes",
			rec:  address.Record{StreetAddress: "9876 Maple Ave", State: "VA", ZIPCode: "22203"},
		},
		{
			name: "city without ZIP passes",
			rec:  address.Record{StreetAddress: "9876 Maple Ave", City: "Newville", State: "VA"},
		},
		{
			name:      "missing streetAddress",
			rec:       address.Record{City: "Anytown", State: "NC", ZIPCode: "12345"},
			wantField: "streetAddress",
		},
		{
			name:      "missing state",
			rec:       address.Record{StreetAddress: "123 Main St", City: "Anytown", ZIPCode: "12345"},
			wantField: "state",
		},
		{
			name:      "missing both city and ZIP",
			rec:       address.Record{StreetAddress: "123 Main St", State: "NC"},
			wantField: "city",
		},
		{
			name:      "streetAddress failure wins over later failures",
			rec:       address.Record{},
			wantField: "streetAddress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := address.CheckRequired(tt.rec)
			if tt.wantField == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantField, err.Field)
			assert.Contains(t, err.Message, tt.wantField)
		})
	}
}

func TestCheckRequired_OptionalFieldsNeverChecked(t *testing.T) {
	rec := address.Record{
		StreetAddress: "25 Paseo del Río",
		State:         "PR",
		ZIPCode:       "00907",
		// firm, secondaryAddress, urbanization, ZIPPlus4 all absent
	}

	assert.Nil(t, address.CheckRequired(rec))
}
