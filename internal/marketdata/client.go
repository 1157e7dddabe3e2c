package marketdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"spy-options-webhook/internal/types"
)

// ErrDataUnavailable is the single error surfaced by the client: any
// network, decode or empty-data condition collapses into it so callers
// never see a partial snapshot.
var ErrDataUnavailable = errors.New("market data unavailable")

// Client talks to a Tradier-compatible market data REST API.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
}

// NewClient creates a market data client for the given provider.
func NewClient(baseURL, bearerToken string) *Client {
	return &Client{
		BaseURL:     baseURL,
		BearerToken: bearerToken,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type expirationsDTO struct {
	Expirations struct {
		Date []string `json:"date"`
	} `json:"expirations"`
}

type chainTickDTO struct {
	Symbol     string  `json:"symbol"`
	Strike     float64 `json:"strike"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	OptionType string  `json:"option_type"`
	Expiration string  `json:"expiration_date"`
}

type chainsDTO struct {
	Options struct {
		Option []chainTickDTO `json:"option"`
	} `json:"options"`
}

type quoteDTO struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
	Close  float64 `json:"close"`
}

type quotesDTO struct {
	Quotes struct {
		Quote quoteDTO `json:"quote"`
	} `json:"quotes"`
}

// FetchChainSnapshot returns the latest close price of the underlying
// together with the full call chain for its nearest expiry, in the
// order the provider returned it.
func (c *Client) FetchChainSnapshot(ticker string) (float64, []types.OptionContract, error) {
	expiry, err := c.fetchNearestExpiration(ticker)
	if err != nil {
		log.Errorf("failed to fetch expirations for %s: %v", ticker, err)
		return 0, nil, errors.Wrap(ErrDataUnavailable, err.Error())
	}

	calls, err := c.fetchCallChain(ticker, expiry)
	if err != nil {
		log.Errorf("failed to fetch option chain for %s %s: %v", ticker, expiry, err)
		return 0, nil, errors.Wrap(ErrDataUnavailable, err.Error())
	}

	price, err := c.fetchClosePrice(ticker)
	if err != nil {
		log.Errorf("failed to fetch quote for %s: %v", ticker, err)
		return 0, nil, errors.Wrap(ErrDataUnavailable, err.Error())
	}

	return price, calls, nil
}

func (c *Client) fetchNearestExpiration(ticker string) (string, error) {
	var dto expirationsDTO
	if err := c.get("/v1/markets/options/expirations", map[string]string{"symbol": ticker}, &dto); err != nil {
		return "", err
	}

	if len(dto.Expirations.Date) == 0 {
		return "", fmt.Errorf("no expirations returned for %s", ticker)
	}

	// provider returns expirations in ascending order
	return dto.Expirations.Date[0], nil
}

func (c *Client) fetchCallChain(ticker, expiry string) ([]types.OptionContract, error) {
	var dto chainsDTO
	params := map[string]string{"symbol": ticker, "expiration": expiry}
	if err := c.get("/v1/markets/options/chains", params, &dto); err != nil {
		return nil, err
	}

	var calls []types.OptionContract
	for _, tick := range dto.Options.Option {
		if tick.OptionType != "call" {
			continue
		}
		calls = append(calls, types.OptionContract{
			Symbol: ticker,
			Type:   "CALL",
			Strike: tick.Strike,
			Expiry: expiry,
			Price:  tick.Ask,
		})
	}

	if len(calls) == 0 {
		return nil, fmt.Errorf("no call contracts returned for %s %s", ticker, expiry)
	}

	return calls, nil
}

func (c *Client) fetchClosePrice(ticker string) (float64, error) {
	var dto quotesDTO
	if err := c.get("/v1/markets/quotes", map[string]string{"symbols": ticker}, &dto); err != nil {
		return 0, err
	}

	price := dto.Quotes.Quote.Close
	if price == 0 {
		// close is not populated until the daily bar settles
		price = dto.Quotes.Quote.Last
	}

	if price == 0 {
		return 0, fmt.Errorf("no price returned for %s", ticker)
	}

	return price, nil
}

func (c *Client) get(path string, params map[string]string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create request for %s", path)
	}

	q := req.URL.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	req.URL.RawQuery = q.Encode()

	req.Header.Add("Accept", "application/json")
	if c.BearerToken != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.BearerToken))
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s", path)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s, http code %v", path, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", path)
	}

	return nil
}
