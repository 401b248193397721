package shipping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteParsesCarrierOffers(t *testing.T) {
	var gotBody rateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/me/shipment/calculate", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": 1,
				"name": "PAC",
				"price": "27.95",
				"delivery_range": {"min": 3, "max": 8},
				"packages": [{"dimensions": {"height": 10, "width": 15, "length": 20}, "weight": "0.75"}]
			},
			{
				"id": 2,
				"name": "SEDEX",
				"price": "41.20",
				"delivery_range": {"min": 1, "max": 2},
				"packages": []
			},
			{
				"id": 3,
				"name": "Mini Envios",
				"error": "dimensions exceed the service limits"
			}
		]`))
	}))
	defer srv.Close()

	client := NewRateClient(srv.URL, "test-token", 5*time.Second)
	quotes, err := client.Quote(context.Background(), "04538-132", "01310-100", []RateItem{
		{Quantity: 2, WidthCm: 10, HeightCm: 10, LengthCm: 2, WeightKg: 0.5},
	})
	require.NoError(t, err)

	assert.Equal(t, "04538-132", gotBody.From.PostalCode)
	assert.Equal(t, "01310-100", gotBody.To.PostalCode)
	require.Len(t, gotBody.Products, 1)
	assert.Equal(t, 2, gotBody.Products[0].Quantity)

	// The carrier that declined is dropped
	require.Len(t, quotes, 2)
	assert.Equal(t, "1", quotes[0].ServiceID)
	assert.Equal(t, "PAC", quotes[0].Name)
	assert.True(t, quotes[0].Price.Equal(decimal.RequireFromString("27.95")))
	assert.Equal(t, 3, quotes[0].DeliveryDaysMin)
	assert.Equal(t, 8, quotes[0].DeliveryDaysMax)
	require.Len(t, quotes[0].Packages, 1)
	assert.Equal(t, 10.0, quotes[0].Packages[0].HeightCm)
	assert.Equal(t, 0.75, quotes[0].Packages[0].WeightKg)

	assert.Equal(t, "2", quotes[1].ServiceID)
}

func TestQuoteEmptyResponseIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewRateClient(srv.URL, "test-token", 5*time.Second)
	quotes, err := client.Quote(context.Background(), "04538-132", "99999-999", nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestQuoteServerErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewRateClient(srv.URL, "test-token", 5*time.Second)
	_, err := client.Quote(context.Background(), "04538-132", "01310-100", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}
