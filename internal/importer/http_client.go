package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/txtalert/platform/pkg/logging"
)

// ClientConfig controls how the case-management API client behaves.
type ClientConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client fetches visit and patient payloads from the remote case-management
// API. Reads are idempotent, so transient failures are retried before the
// batch is declared unavailable.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a configured Client with sane defaults.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("importer: base URL is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		retries := cfg.MaxRetries
		if retries <= 0 {
			retries = 3
		}
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = retries
		retryClient.HTTPClient = &http.Client{Timeout: timeout}
		retryClient.Logger = nil
		httpClient = retryClient.StandardClient()
	}

	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: httpClient,
		logger:     logger.Component("case_api"),
	}, nil
}

// FetchVisitData fetches one category of visit rows. Rows that fail
// validation are logged and dropped here so the reconciler only sees typed
// records.
func (c *Client) FetchVisitData(ctx context.Context, source string, category Category) ([]VisitRecord, error) {
	endpoint := c.baseURL + "/visits?" + url.Values{
		"source":    {source},
		"data_type": {strconv.Itoa(int(category))},
	}.Encode()

	var raw []rawVisitRecord
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	records := make([]VisitRecord, 0, len(raw))
	for i, r := range raw {
		rec, err := r.parse(category)
		if err != nil {
			c.logger.Warn("malformed visit row dropped",
				"source", source, "category", category.String(), "row", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// FetchPatientData fetches the facility-grouped patient payload.
func (c *Client) FetchPatientData(ctx context.Context, source string) ([]FacilityPatients, error) {
	endpoint := c.baseURL + "/patients?" + url.Values{"source": {source}}.Encode()

	var raw []rawFacilityPatients
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	groups := make([]FacilityPatients, 0, len(raw))
	for _, r := range raw {
		groups = append(groups, r.parse())
	}
	return groups, nil
}

// FetchAppointments fetches the worksheet rows the spreadsheet bridge
// publishes for a document. Malformed rows are logged and dropped.
func (c *Client) FetchAppointments(ctx context.Context, docName string, start, until time.Time) ([]Worksheet, error) {
	endpoint := c.baseURL + "/worksheets?" + url.Values{
		"doc":   {docName},
		"start": {start.Format(time.DateOnly)},
		"until": {until.Format(time.DateOnly)},
	}.Encode()

	var raw []rawWorksheet
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	sheets := make([]Worksheet, 0, len(raw))
	for _, rw := range raw {
		sheet := Worksheet{Name: rw.Name, Rows: make([]AppointmentRow, 0, len(rw.Rows))}
		for _, rr := range rw.Rows {
			row, err := rr.parse()
			if err != nil {
				c.logger.Warn("malformed worksheet row dropped",
					"doc", docName, "sheet", rw.Name, "row", rr.Row, "error", err)
				continue
			}
			sheet.Rows = append(sheet.Rows, row)
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// CheckEnrollment asks the bridge whether a file number is enrolled for the
// document and period. Callers normally sit behind an enrollment.Cache.
func (c *Client) CheckEnrollment(ctx context.Context, docName, fileNo string, start, until time.Time) (bool, error) {
	endpoint := c.baseURL + "/enrollment?" + url.Values{
		"doc":     {docName},
		"file_no": {fileNo},
		"start":   {start.Format(time.DateOnly)},
		"until":   {until.Format(time.DateOnly)},
	}.Encode()

	var out struct {
		Enrolled bool `json:"enrolled"`
	}
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return false, err
	}
	return out.Enrolled, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("importer: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d from %s", ErrSourceUnavailable, resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrSourceUnavailable, err)
	}
	return nil
}
