package pricing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	AmadeusProviderName = "amadeus"

	defaultAmadeusTimeout = 15 * time.Second
	defaultMaxOffers      = 5
	tokenExpirySlack      = 30 * time.Second

	tokenPath  = "/v1/security/oauth2/token"
	offersPath = "/v2/shopping/flight-offers"
)

type AmadeusConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	MaxOffers    int
	Timeout      time.Duration
}

type amadeusToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type amadeusOffersResponse struct {
	Data []amadeusOffer `json:"data"`
}

type amadeusOffer struct {
	ID                     string   `json:"id"`
	LastTicketingDate      string   `json:"lastTicketingDate"`
	ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
	Price                  struct {
		Currency string `json:"currency"`
		Total    string `json:"total"`
	} `json:"price"`
}

type amadeusErrorResponse struct {
	Errors []struct {
		Status int    `json:"status"`
		Code   int    `json:"code"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (r *amadeusErrorResponse) message() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	e := r.Errors[0]
	if e.Detail == "" {
		return e.Title
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

var _ Client = (*AmadeusClient)(nil)

// AmadeusClient queries the Amadeus flight offers search API. It holds an
// OAuth client-credentials token and refreshes it shortly before expiry.
type AmadeusClient struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	maxOffers    int
	logger       *zap.Logger
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewAmadeusClient(cfg AmadeusConfig, logger *zap.Logger) (*AmadeusClient, error) {
	client := resty.New()
	return NewAmadeusClientWithResty(cfg, client, logger)
}

func NewAmadeusClientWithResty(cfg AmadeusConfig, client *resty.Client, logger *zap.Logger) (*AmadeusClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("amadeus base url is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("amadeus client credentials are required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAmadeusTimeout
	}
	maxOffers := cfg.MaxOffers
	if maxOffers <= 0 {
		maxOffers = defaultMaxOffers
	}

	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return &AmadeusClient{
		client:       client,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		maxOffers:    maxOffers,
		logger:       logger,
		now:          time.Now,
	}, nil
}

func (c *AmadeusClient) Name() string { return AmadeusProviderName }

func (c *AmadeusClient) QueryPrice(ctx context.Context, q Query) (*domain.PriceQuote, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("amadeus client is not initialized")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"originLocationCode":      q.Departure,
		"destinationLocationCode": q.Arrival,
		"departureDate":           q.DepartureDate.Format(dateLayout),
		"adults":                  "1",
		"max":                     strconv.Itoa(c.maxOffers),
	}
	if q.ReturnDate != nil && !q.ReturnDate.IsZero() {
		params["returnDate"] = q.ReturnDate.Format(dateLayout)
	}
	if q.Currency != "" {
		params["currencyCode"] = q.Currency
	}

	var result amadeusOffersResponse
	var errBody amadeusErrorResponse
	response, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(params).
		SetResult(&result).
		SetError(&errBody).
		Get(offersPath)
	if err != nil {
		return nil, unavailable(0, "flight offers request failed", err)
	}

	if status := response.StatusCode(); status < http.StatusOK || status >= http.StatusMultipleChoices {
		if status == http.StatusUnauthorized {
			c.invalidateToken()
		}
		return nil, classifyStatus(status, errBody.message())
	}

	return lowestOffer(result.Data, q)
}

// accessToken holds c.mu across the token request so concurrent workers
// share a single fetch; the wait is bounded by the request timeout.
func (c *AmadeusClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	var tok amadeusToken
	var errBody amadeusErrorResponse
	response, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
		}).
		SetResult(&tok).
		SetError(&errBody).
		Post(tokenPath)
	if err != nil {
		return "", unavailable(0, "token request failed", err)
	}
	if status := response.StatusCode(); status != http.StatusOK {
		// Token failures never flag the alert for review.
		return "", unavailable(status, strings.TrimSpace("token request rejected "+errBody.message()), nil)
	}
	if tok.AccessToken == "" {
		return "", unavailable(response.StatusCode(), "token response missing access_token", nil)
	}

	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpirySlack)
	c.logger.Debug("amadeus token refreshed", zap.Int("expiresIn", tok.ExpiresIn))

	return c.token, nil
}

func (c *AmadeusClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

func classifyStatus(status int, msg string) *ProviderError {
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusUnauthorized || status == http.StatusForbidden:
		return unavailable(status, msg, nil)
	case status >= http.StatusInternalServerError:
		return unavailable(status, msg, nil)
	case status >= http.StatusBadRequest:
		return invalidRequest(status, msg)
	}
	return unavailable(status, fmt.Sprintf("unexpected status %d", status), nil)
}

// lowestOffer picks the minimum total across offers. Offers with an
// unparseable total are ignored.
func lowestOffer(offers []amadeusOffer, q Query) (*domain.PriceQuote, error) {
	if len(offers) == 0 {
		return nil, noOffers(fmt.Sprintf("no offers for %s on %s", q.Route(), q.DepartureDate.Format(dateLayout)))
	}

	var best *domain.PriceQuote
	for _, offer := range offers {
		price, err := decimal.NewFromString(strings.TrimSpace(offer.Price.Total))
		if err != nil {
			continue
		}
		if best != nil && !price.LessThan(best.Price) {
			continue
		}

		details := domain.FareDetails{
			FareID:            offer.ID,
			LastTicketingDate: offer.LastTicketingDate,
		}
		if len(offer.ValidatingAirlineCodes) > 0 {
			details.ValidatingCarrier = offer.ValidatingAirlineCodes[0]
		}
		best = &domain.PriceQuote{
			Price:    price,
			Currency: offer.Price.Currency,
			Provider: AmadeusProviderName,
			Details:  details,
		}
	}

	if best == nil {
		return nil, unavailable(http.StatusOK, "offers carried no parseable price", nil)
	}
	return best, nil
}
