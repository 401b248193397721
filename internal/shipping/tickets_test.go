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

func testSender() Sender {
	return Sender{Name: "Livraria Central", Email: "loja@example.com", CEP: "01310-100"}
}

func TestBookPostsManifestAndParsesTicket(t *testing.T) {
	var gotBody ticketRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/me/cart", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "tk_9f2", "protocol": "ORD-2024-000123"}`))
	}))
	defer srv.Close()

	client := NewTicketClient(srv.URL, "test-token", testSender(), 5*time.Second)
	ticket, err := client.Book(context.Background(),
		Recipient{
			Name:     "Ana Souza",
			Email:    "ana@example.com",
			Street:   "Rua Augusta",
			Number:   "1500",
			District: "Consolação",
			City:     "São Paulo",
			State:    "SP",
			CEP:      "04538-132",
		},
		"2",
		[]ManifestItem{{Name: "Dom Casmurro", Quantity: 2, UnitPrice: decimal.RequireFromString("29.90")}},
		[]Package{{HeightCm: 10, WidthCm: 15, LengthCm: 4, WeightKg: 1.0}},
		`{"session_id":"cs_123","user_id":1}`,
	)
	require.NoError(t, err)
	assert.Equal(t, "tk_9f2", ticket.ID)
	assert.Equal(t, "ORD-2024-000123", ticket.Protocol)

	assert.Equal(t, "2", gotBody.Service)
	assert.Equal(t, "Livraria Central", gotBody.From.Name)
	assert.Equal(t, "01310-100", gotBody.From.PostalCode)
	assert.Equal(t, "Ana Souza", gotBody.To.Name)
	assert.Equal(t, "SP", gotBody.To.StateAbbr)
	assert.Equal(t, "04538-132", gotBody.To.PostalCode)

	require.Len(t, gotBody.Products, 1)
	assert.Equal(t, "Dom Casmurro", gotBody.Products[0].Name)
	assert.True(t, gotBody.Products[0].UnitPrice.Equal(decimal.RequireFromString("29.90")))

	require.Len(t, gotBody.Volumes, 1)
	assert.Equal(t, 1.0, gotBody.Volumes[0].Weight)

	assert.True(t, gotBody.Options.NonCommercial)
	require.Len(t, gotBody.Options.Tags, 1)
	assert.JSONEq(t, `{"session_id":"cs_123","user_id":1}`, gotBody.Options.Tags[0].Tag)
}

func TestBookRejectedBookingIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "insufficient balance"}`))
	}))
	defer srv.Close()

	client := NewTicketClient(srv.URL, "test-token", testSender(), 5*time.Second)
	_, err := client.Book(context.Background(), Recipient{Name: "Ana Souza", CEP: "04538-132"},
		"1", nil, nil, "tag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}
