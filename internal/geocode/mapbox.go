// Package geocode searches and resolves addresses in Cameroon through the
// Mapbox Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecocollect/ecocollect/internal/apierror"
	"github.com/ecocollect/ecocollect/internal/pickup"
	"github.com/ecocollect/ecocollect/internal/resilience"
)

const (
	// ProviderName identifies Mapbox in the resilience registry.
	ProviderName = "mapbox"

	// DefaultBaseURL is the Mapbox API root.
	DefaultBaseURL = "https://api.mapbox.com"

	DefaultCountry  = "CM"
	DefaultLanguage = "en,fr"
	DefaultLimit    = 5

	// MinQueryLength is the shortest trimmed query that is sent.
	MinQueryLength = 3
)

// Confidence buckets a Mapbox relevance score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceOf maps relevance to a bucket.
func ConfidenceOf(relevance float64) Confidence {
	switch {
	case relevance >= 0.8:
		return ConfidenceHigh
	case relevance >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Context is the administrative hierarchy of a result.
type Context struct {
	Region       string `json:"region,omitempty"`
	District     string `json:"district,omitempty"`
	Locality     string `json:"locality,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Address      string `json:"address,omitempty"`
}

// Suggestion is one address search result.
type Suggestion struct {
	ID          string             `json:"id"`
	Text        string             `json:"text"`
	PlaceName   string             `json:"place_name"`
	Coordinates pickup.Coordinates `json:"coordinates"`
	Relevance   float64            `json:"relevance"`
	Context     Context            `json:"context"`
}

// Components are the parts of a reverse-geocoded address.
type Components struct {
	Street       string `json:"street,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Locality     string `json:"locality,omitempty"`
	District     string `json:"district,omitempty"`
	Region       string `json:"region,omitempty"`
	Country      string `json:"country,omitempty"`
}

// Result is a reverse geocoding answer.
type Result struct {
	Address     string             `json:"address"`
	Coordinates pickup.Coordinates `json:"coordinates"`
	Confidence  Confidence         `json:"confidence"`
	Components  Components         `json:"components"`
}

// AddressCheck reports whether an address resolves.
type AddressCheck struct {
	Valid       bool               `json:"is_valid"`
	Coordinates pickup.Coordinates `json:"coordinates"`
	Suggestion  string             `json:"suggestion,omitempty"`
	Confidence  Confidence         `json:"confidence,omitempty"`
}

// SearchOptions narrows an address search. Zero values use the defaults.
type SearchOptions struct {
	Country   string
	Types     []string
	Proximity *pickup.Coordinates
	// BBox is minLng, minLat, maxLng, maxLat.
	BBox  *[4]float64
	Limit int
}

// ClientConfig holds configuration for the Mapbox client.
type ClientConfig struct {
	// AccessToken is the Mapbox public token (required).
	AccessToken string

	// BaseURL is the API root (optional, defaults to Mapbox).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is a Mapbox geocoding client.
type Client struct {
	token      string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a Mapbox client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultConfig(ProviderName))
	}

	return &Client{
		token:      cfg.AccessToken,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// SearchAddresses returns suggestions for query. Queries shorter than
// MinQueryLength after trimming return no suggestions without a request.
func (c *Client) SearchAddresses(ctx context.Context, query string, opts *SearchOptions) ([]Suggestion, error) {
	if len([]rune(strings.TrimSpace(query))) < MinQueryLength {
		return []Suggestion{}, nil
	}
	if opts == nil {
		opts = &SearchOptions{}
	}

	params := c.params(opts.Country)
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params.Set("limit", strconv.Itoa(limit))
	if len(opts.Types) > 0 {
		params.Set("types", strings.Join(opts.Types, ","))
	}
	if opts.Proximity != nil {
		params.Set("proximity", joinFloats(opts.Proximity[:]))
	}
	if opts.BBox != nil {
		params.Set("bbox", joinFloats(opts.BBox[:]))
	}

	resp, err := c.get(ctx, url.PathEscape(query), params)
	if err != nil {
		c.logger.Error().Err(err).Str("query", query).Msg("address search failed")
		return nil, &apierror.Error{Kind: apierror.KindOf(err), Message: "Failed to search addresses", Op: "geocode.search", Err: err}
	}

	out := make([]Suggestion, 0, len(resp.Features))
	for _, f := range resp.Features {
		out = append(out, Suggestion{
			ID:          f.ID,
			Text:        f.Text,
			PlaceName:   f.PlaceName,
			Coordinates: f.Center,
			Relevance:   f.Relevance,
			Context:     parseContext(f.Context),
		})
	}
	return out, nil
}

// ReverseGeocode resolves coordinates to the closest address. It returns
// nil when nothing matches.
func (c *Client) ReverseGeocode(ctx context.Context, at pickup.Coordinates) (*Result, error) {
	path := joinFloats(at[:])
	resp, err := c.get(ctx, path, c.params(""))
	if err != nil {
		c.logger.Error().Err(err).Str("coordinates", path).Msg("reverse geocoding failed")
		return nil, &apierror.Error{Kind: apierror.KindOf(err), Message: "Failed to reverse geocode coordinates", Op: "geocode.reverse", Err: err}
	}
	if len(resp.Features) == 0 {
		return nil, nil
	}

	f := resp.Features[0]
	ctxParts := parseContext(f.Context)
	return &Result{
		Address:     f.PlaceName,
		Coordinates: f.Center,
		Confidence:  ConfidenceOf(f.Relevance),
		Components: Components{
			Street:       f.Text,
			Neighborhood: ctxParts.Neighborhood,
			Locality:     ctxParts.Locality,
			District:     ctxParts.District,
			Region:       ctxParts.Region,
			Country:      "Cameroon",
		},
	}, nil
}

// ValidateAddress checks that address resolves to at least one place.
// Lookup failures count as invalid.
func (c *Client) ValidateAddress(ctx context.Context, address string) AddressCheck {
	suggestions, err := c.SearchAddresses(ctx, address, &SearchOptions{Limit: 1})
	if err != nil || len(suggestions) == 0 {
		return AddressCheck{}
	}
	s := suggestions[0]
	return AddressCheck{
		Valid:       true,
		Coordinates: s.Coordinates,
		Suggestion:  s.PlaceName,
		Confidence:  ConfidenceOf(s.Relevance),
	}
}

func (c *Client) params(country string) url.Values {
	if country == "" {
		country = DefaultCountry
	}
	v := url.Values{}
	v.Set("access_token", c.token)
	v.Set("country", country)
	v.Set("language", DefaultLanguage)
	return v
}

func (c *Client) get(ctx context.Context, search string, params url.Values) (*featureCollection, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s", c.baseURL, search, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierror.Network("GET mapbox.places", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apierror.Error{
			Kind:    apierror.KindServer,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("mapbox api error: %d", resp.StatusCode),
			Op:      "GET mapbox.places",
		}
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &fc, nil
}

func parseContext(items []contextItem) Context {
	var out Context
	for _, item := range items {
		switch {
		case strings.HasPrefix(item.ID, "region"):
			out.Region = item.Text
		case strings.HasPrefix(item.ID, "district"):
			out.District = item.Text
		case strings.HasPrefix(item.ID, "place"):
			out.Locality = item.Text
		case strings.HasPrefix(item.ID, "neighborhood"):
			out.Neighborhood = item.Text
		case strings.HasPrefix(item.ID, "address"):
			out.Address = item.Text
		}
	}
	return out
}

func joinFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Mapbox API response types.

type featureCollection struct {
	Type     string    `json:"type"`
	Query    []any     `json:"query"`
	Features []feature `json:"features"`
}

type feature struct {
	ID        string             `json:"id"`
	PlaceType []string           `json:"place_type"`
	Relevance float64            `json:"relevance"`
	Text      string             `json:"text"`
	PlaceName string             `json:"place_name"`
	Center    pickup.Coordinates `json:"center"`
	Context   []contextItem      `json:"context"`
}

type contextItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ShortCode string `json:"short_code,omitempty"`
}
