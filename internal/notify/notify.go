// Package notify delivers one-time login codes to salesmen over messaging
// gateways. WhatsApp is preferred, with SMS as the fallback channel.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Sender delivers a message to a phone number over one channel.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
	Channel() string
}

// ErrAllChannelsFailed means every configured channel refused delivery.
var ErrAllChannelsFailed = errors.New("notify: all channels failed")

// Chain tries each sender in order and stops at the first success.
type Chain struct {
	senders []Sender
}

// NewChain builds a delivery chain. Order is significance: first sender is
// the preferred channel.
func NewChain(senders ...Sender) *Chain {
	return &Chain{senders: senders}
}

// Send attempts delivery over each channel until one succeeds.
func (c *Chain) Send(ctx context.Context, phone, message string) error {
	var lastErr error
	for _, s := range c.senders {
		if err := s.Send(ctx, phone, message); err != nil {
			log.Printf("notify: %s delivery to %s failed: %v", s.Channel(), phone, err)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrAllChannelsFailed, lastErr)
	}
	return ErrAllChannelsFailed
}

type gatewaySender struct {
	channel  string
	endpoint string
	apiKey   string
	senderID string
	client   *http.Client
}

// NewWhatsAppSender builds a Sender posting to a WhatsApp gateway endpoint.
func NewWhatsAppSender(endpoint, apiKey, senderID string, client *http.Client) Sender {
	return newGatewaySender("whatsapp", endpoint, apiKey, senderID, client)
}

// NewSMSSender builds a Sender posting to an SMS gateway endpoint.
func NewSMSSender(endpoint, apiKey, senderID string, client *http.Client) Sender {
	return newGatewaySender("sms", endpoint, apiKey, senderID, client)
}

func newGatewaySender(channel, endpoint, apiKey, senderID string, client *http.Client) Sender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &gatewaySender{
		channel:  channel,
		endpoint: endpoint,
		apiKey:   apiKey,
		senderID: senderID,
		client:   client,
	}
}

func (g *gatewaySender) Channel() string {
	return g.channel
}

type gatewayRequest struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

func (g *gatewaySender) Send(ctx context.Context, phone, message string) error {
	if g.endpoint == "" {
		return fmt.Errorf("notify: %s gateway not configured", g.channel)
	}

	body, err := json.Marshal(gatewayRequest{To: phone, From: g.senderID, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: %s gateway: %w", g.channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: %s gateway returned %d", g.channel, resp.StatusCode)
	}
	return nil
}
