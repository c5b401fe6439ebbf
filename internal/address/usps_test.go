package address_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twhitfield/addrcheck/internal/address"
)

func newTestStandardizer(t *testing.T, handler http.HandlerFunc) (*address.USPSStandardizer, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := address.NewUSPSStandardizer(address.USPSConfig{
		BaseURL:      srv.URL,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	return client, srv
}

func successBody() map[string]any {
	return map[string]any{
		"firm": "",
		"address": map[string]any{
			"streetAddress":             "123 MAIN ST",
			"streetAddressAbbreviation": "123 MAIN ST",
			"city":                      "ANYTOWN",
			"cityAbbreviation":          "ANYTOWN",
			"state":                     "NC",
			"ZIPCode":                   "12345",
			"ZIPPlus4":                  "6789",
		},
		"additionalInfo": map[string]any{
			"deliveryPoint":   "23",
			"carrierRoute":    "C012",
			"DPVConfirmation": "Y",
			"vacant":          "N",
		},
		"warnings": []string{"ZIP was corrected"},
	}
}

func TestUSPSStandardizer_Success(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth, gotAccept string

	client, _ := newTestStandardizer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode(successBody())
	})

	rec := address.Record{
		StreetAddress: "123 Main Street",
		City:          "Anytown",
		State:         "NC",
		ZIPCode:       "12345",
	}
	std, err := client.Standardize(context.Background(), rec, "secret-token")

	require.NoError(t, err)
	assert.Equal(t, "123 MAIN ST", std.StreetAddress)
	assert.Equal(t, "ANYTOWN", std.City)
	assert.Equal(t, "NC", std.State)
	assert.Equal(t, "12345", std.ZIPCode)
	assert.Equal(t, "6789", std.ZIPPlus4)
	assert.Equal(t, "23", std.DeliveryPoint)
	assert.Equal(t, "Y", std.DPVConfirmation)
	assert.Equal(t, []string{"ZIP was corrected"}, std.Warnings)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, []string{"123 Main Street"}, gotQuery["streetAddress"])
	assert.Equal(t, []string{"NC"}, gotQuery["state"])
}

func TestUSPSStandardizer_OmitsAbsentOptionalFields(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestStandardizer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(successBody())
	})

	rec := address.Record{StreetAddress: "9876 Maple Ave", City: "Newville", State: "VA"}
	_, err := client.Standardize(context.Background(), rec, "tok")

	require.NoError(t, err)
	assert.NotContains(t, gotQuery, "ZIPCode")
	assert.NotContains(t, gotQuery, "ZIPPlus4")
	assert.NotContains(t, gotQuery, "firm")
	assert.NotContains(t, gotQuery, "secondaryAddress")
	assert.NotContains(t, gotQuery, "urbanization")
}

func TestUSPSStandardizer_ForwardsUrbanization(t *testing.T) {
	var gotQuery map[string][]string
	client, _ := newTestStandardizer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		body := successBody()
		body["address"].(map[string]any)["urbanization"] = "RIO PIEDRAS"
		json.NewEncoder(w).Encode(body)
	})

	rec := address.Record{
		StreetAddress: "25 Paseo del Río",
		State:         "PR",
		ZIPCode:       "00907",
		Urbanization:  "Río Piedras",
	}
	std, err := client.Standardize(context.Background(), rec, "tok")

	require.NoError(t, err)
	assert.Equal(t, []string{"Río Piedras"}, gotQuery["urbanization"])
	assert.Equal(t, "RIO PIEDRAS", std.Urbanization)
}

func TestUSPSStandardizer_RetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	client, _ := newTestStandardizer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(successBody())
	})

	rec := address.Record{StreetAddress: "123 Main St", City: "Anytown", State: "NC"}
	std, err := client.Standardize(context.Background(), rec, "tok")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "123 MAIN ST", std.StreetAddress)
}

func TestUSPSStandardizer_TransientExhaustsRetries(t *testing.T) {
	attempts := 0
	client, _ := newTestStandardizer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	rec := address.Record{StreetAddress: "123 Main St", City: "Anytown", State: "NC"}
	_, err := client.Standardize(context.Background(), rec, "tok")

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // first try + 2 retries

	var svcErr *address.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.True(t, svcErr.Transient)
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
}

func TestUSPSStandardizer_PermanentErrorNotRetried(t *testing.T) {
	attempts := 0
	client, _ := newTestStandardizer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"401","message":"invalid token"}}`))
	})

	rec := address.Record{StreetAddress: "123 Main St", City: "Anytown", State: "NC"}
	_, err := client.Standardize(context.Background(), rec, "bad-token")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var svcErr *address.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.False(t, svcErr.Transient)
	assert.Equal(t, http.StatusUnauthorized, svcErr.StatusCode)
	assert.Equal(t, "invalid token", svcErr.Message)
	assert.Equal(t, "401", svcErr.Code)
}

func TestUSPSStandardizer_InvalidJSONIsPermanent(t *testing.T) {
	attempts := 0
	client, _ := newTestStandardizer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte("not json"))
	})

	rec := address.Record{StreetAddress: "123 Main St", City: "Anytown", State: "NC"}
	_, err := client.Standardize(context.Background(), rec, "tok")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)

	var svcErr *address.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.False(t, svcErr.Transient)
}

func TestUSPSStandardizer_EmptyFieldsPreserved(t *testing.T) {
	client, _ := newTestStandardizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"streetAddress":"1 ELM ST","city":"","state":"VA","ZIPCode":"22203","ZIPPlus4":""}}`))
	})

	rec := address.Record{StreetAddress: "1 Elm St", City: "Arlington", State: "VA"}
	std, err := client.Standardize(context.Background(), rec, "tok")

	require.NoError(t, err)
	// Empty string means "no correction", not "missing".
	assert.Equal(t, "", std.City)
	assert.Equal(t, "", std.ZIPPlus4)
	assert.Equal(t, "22203", std.ZIPCode)
}
