package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"checkout-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Quote is one carrier offer for shipping a package set to a destination.
// Ephemeral: produced per checkout attempt, never cached.
type Quote struct {
	ServiceID       string
	Name            string
	Price           decimal.Decimal
	DeliveryDaysMin int
	DeliveryDaysMax int
	Packages        []Package
}

// Package describes the physical parcel a quote was computed for.
// Dimensions in centimeters, weight in kilograms.
type Package struct {
	HeightCm float64
	WidthCm  float64
	LengthCm float64
	WeightKg float64
}

// RateItem is one cart line's physical attributes sent to the rate service
type RateItem struct {
	Quantity int     `json:"quantity"`
	WidthCm  float64 `json:"width"`
	HeightCm float64 `json:"height"`
	LengthCm float64 `json:"length"`
	WeightKg float64 `json:"weight"`
}

// RateClient calls the external shipping rate service
type RateClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRateClient creates a rate client. Every request is bounded by the
// given timeout on top of the caller's context.
func NewRateClient(baseURL, token string, timeout time.Duration) *RateClient {
	return &RateClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

type ratePostalCode struct {
	PostalCode string `json:"postal_code"`
}

type rateRequest struct {
	From     ratePostalCode `json:"from"`
	To       ratePostalCode `json:"to"`
	Products []RateItem     `json:"products"`
}

type rateResponseEntry struct {
	ID            json.Number `json:"id"`
	Name          string      `json:"name"`
	Price         string      `json:"price"`
	DeliveryRange struct {
		Min int `json:"min"`
		Max int `json:"max"`
	} `json:"delivery_range"`
	Packages []struct {
		Dimensions struct {
			Height float64 `json:"height"`
			Width  float64 `json:"width"`
			Length float64 `json:"length"`
		} `json:"dimensions"`
		Weight string `json:"weight"`
	} `json:"packages"`
	Error string `json:"error"`
}

// Quote requests fresh carrier quotes for the given package manifest.
// Carriers that answered with a per-entry error are dropped; a response
// with no usable entries is returned as an empty slice, not an error.
func (c *RateClient) Quote(ctx context.Context, originCEP, destCEP string, items []RateItem) ([]Quote, error) {
	ctx, span := util.StartSpan(ctx, "RateClient.Quote")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ShippingQuoteLatency.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(rateRequest{
		From:     ratePostalCode{PostalCode: originCEP},
		To:       ratePostalCode{PostalCode: destCEP},
		Products: items,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/me/shipment/calculate", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate service error: status %s", resp.Status)
	}

	var entries []rateResponseEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse rate response: %w", err)
	}

	quotes := make([]Quote, 0, len(entries))
	for _, e := range entries {
		if e.Error != "" {
			c.logger.Debug("Carrier declined quote",
				zap.String("service", e.Name),
				zap.String("reason", e.Error))
			continue
		}

		price, err := decimal.NewFromString(e.Price)
		if err != nil {
			c.logger.Warn("Unparseable quote price, skipping",
				zap.String("service", e.Name),
				zap.String("price", e.Price))
			continue
		}

		q := Quote{
			ServiceID:       e.ID.String(),
			Name:            e.Name,
			Price:           price,
			DeliveryDaysMin: e.DeliveryRange.Min,
			DeliveryDaysMax: e.DeliveryRange.Max,
		}
		for _, p := range e.Packages {
			weight, _ := decimal.NewFromString(p.Weight)
			wf, _ := weight.Float64()
			q.Packages = append(q.Packages, Package{
				HeightCm: p.Dimensions.Height,
				WidthCm:  p.Dimensions.Width,
				LengthCm: p.Dimensions.Length,
				WeightKg: wf,
			})
		}
		quotes = append(quotes, q)
	}

	c.logger.Info("Shipping quotes fetched",
		zap.String("destination", destCEP),
		zap.Int("offered", len(entries)),
		zap.Int("usable", len(quotes)))
	return quotes, nil
}
