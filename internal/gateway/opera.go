package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/txtalert/platform/pkg/logging"
)

// OperaConfig carries the provider account credentials.
type OperaConfig struct {
	URL       string
	ServiceID string
	Password  string
	Channel   string
	Timeout   time.Duration
}

// OperaGateway posts bulk sends to the Opera EAPI HTTP endpoint. The provider
// answers with a single batch identifier shared by every msisdn in the batch.
type OperaGateway struct {
	url        string
	serviceID  string
	password   string
	channel    string
	httpClient *http.Client
	logger     *logging.Logger
	now        func() time.Time
}

func NewOperaGateway(cfg OperaConfig, logger *logging.Logger) *OperaGateway {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OperaGateway{
		url:        strings.TrimSpace(cfg.URL),
		serviceID:  cfg.ServiceID,
		password:   cfg.Password,
		channel:    cfg.Channel,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Component("opera"),
		now:        time.Now,
	}
}

var _ Gateway = (*OperaGateway)(nil)

type operaRequest struct {
	Service  string   `json:"Service"`
	Password string   `json:"Password"`
	Channel  string   `json:"Channel"`
	Numbers  string   `json:"Numbers"`
	SMSTexts []string `json:"SMSTexts"`
	Delivery string   `json:"Delivery"`
	Expiry   string   `json:"Expiry"`
	Priority string   `json:"Priority"`
	Receipt  string   `json:"Receipt"`
}

type operaResponse struct {
	Identifier string `json:"Identifier"`
}

// Send posts one bulk message. All msisdns share the identifier the provider
// returns for the batch.
func (g *OperaGateway) Send(ctx context.Context, msg BulkMessage) ([]SendRecord, error) {
	if g.url == "" {
		return nil, errors.New("gateway: opera url missing")
	}
	if err := msg.normalize(g.now()); err != nil {
		return nil, err
	}

	receipt := "N"
	if msg.Receipt {
		receipt = "Y"
	}
	payload := operaRequest{
		Service:  g.serviceID,
		Password: g.password,
		Channel:  g.channel,
		Numbers:  strings.Join(msg.MSISDNs, ","),
		SMSTexts: msg.Texts,
		Delivery: msg.Delivery.Format(time.RFC3339),
		Expiry:   msg.Expiry.Format(time.RFC3339),
		Priority: msg.Priority,
		Receipt:  receipt,
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal opera payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("gateway: build opera request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: opera send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Error("opera send rejected", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("gateway: opera send returned status %d", resp.StatusCode)
	}

	var parsed operaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("gateway: decode opera response: %w", err)
	}
	if parsed.Identifier == "" {
		return nil, errors.New("gateway: opera response missing identifier")
	}

	records := make([]SendRecord, 0, len(msg.MSISDNs))
	for i, msisdn := range msg.MSISDNs {
		records = append(records, SendRecord{
			ID:         uuid.New(),
			MSISDN:     msisdn,
			Text:       msg.textFor(i),
			Delivery:   msg.Delivery,
			Expiry:     msg.Expiry,
			Priority:   msg.Priority,
			Receipt:    msg.Receipt,
			Identifier: parsed.Identifier,
			CreatedAt:  g.now(),
		})
	}
	g.logger.Info("opera batch sent", "identifier", parsed.Identifier, "msisdns", len(msg.MSISDNs))
	return records, nil
}
