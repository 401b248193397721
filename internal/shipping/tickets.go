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

// Recipient is the contact and address block a shipment is booked against
type Recipient struct {
	Name       string
	Email      string
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	CEP        string
}

// ManifestItem is one booked product line. UnitPrice in major currency
// units, the registrar's convention.
type ManifestItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitary_value"`
}

// Ticket is the opaque handle of a booked shipment
type Ticket struct {
	ID       string `json:"id"`
	Protocol string `json:"protocol"`
}

// Sender identifies the store side of every shipment
type Sender struct {
	Name  string
	Email string
	CEP   string
}

// TicketClient books shipments at the external registrar. Idempotency of
// a booking is the registrar's responsibility; this client never retries.
type TicketClient struct {
	baseURL    string
	token      string
	sender     Sender
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTicketClient creates a ticket registrar client
func NewTicketClient(baseURL, token string, sender Sender, timeout time.Duration) *TicketClient {
	return &TicketClient{
		baseURL:    baseURL,
		token:      token,
		sender:     sender,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

type ticketParty struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	StateAbbr  string `json:"state_abbr,omitempty"`
	PostalCode string `json:"postal_code"`
}

type ticketVolume struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
}

type ticketTag struct {
	Tag string  `json:"tag"`
	URL *string `json:"url"`
}

type ticketOptions struct {
	Receipt       bool        `json:"receipt"`
	OwnHand       bool        `json:"own_hand"`
	NonCommercial bool        `json:"non_commercial"`
	Tags          []ticketTag `json:"tags,omitempty"`
}

type ticketRequest struct {
	Service  string         `json:"service"`
	From     ticketParty    `json:"from"`
	To       ticketParty    `json:"to"`
	Products []ManifestItem `json:"products"`
	Volumes  []ticketVolume `json:"volumes"`
	Options  ticketOptions  `json:"options"`
}

// Book registers a physical shipment for the chosen service and returns
// the registrar's ticket handle. The tag is embedded for later
// correlation with the payment session.
func (c *TicketClient) Book(ctx context.Context, recipient Recipient, serviceID string, manifest []ManifestItem, volumes []Package, tag string) (*Ticket, error) {
	ctx, span := util.StartSpan(ctx, "TicketClient.Book")
	defer span.End()

	start := time.Now()
	defer func() {
		util.TicketRegistrationLatency.Observe(time.Since(start).Seconds())
	}()

	vols := make([]ticketVolume, 0, len(volumes))
	for _, v := range volumes {
		vols = append(vols, ticketVolume{
			Height: v.HeightCm,
			Width:  v.WidthCm,
			Length: v.LengthCm,
			Weight: v.WeightKg,
		})
	}

	body, err := json.Marshal(ticketRequest{
		Service: serviceID,
		From: ticketParty{
			Name:       c.sender.Name,
			Email:      c.sender.Email,
			PostalCode: c.sender.CEP,
		},
		To: ticketParty{
			Name:       recipient.Name,
			Email:      recipient.Email,
			Address:    recipient.Street,
			Number:     recipient.Number,
			Complement: recipient.Complement,
			District:   recipient.District,
			City:       recipient.City,
			StateAbbr:  recipient.State,
			PostalCode: recipient.CEP,
		},
		Products: manifest,
		Volumes:  vols,
		Options: ticketOptions{
			NonCommercial: true,
			Tags:          []ticketTag{{Tag: tag}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/me/cart", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build ticket request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ticket registrar call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("ticket registrar error: status %s", resp.Status)
	}

	var ticket Ticket
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return nil, fmt.Errorf("failed to parse ticket response: %w", err)
	}

	c.logger.Info("Shipping ticket registered",
		zap.String("ticket_id", ticket.ID),
		zap.String("service_id", serviceID),
		zap.String("tag", tag))
	return &ticket, nil
}
