package teletal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"
)

// Client wraps the three Teletal endpoints: the server-rendered weekly menu
// page, the AJAX section endpoint that serves the dynamically loaded menu
// fragments, and the per-item detail endpoint. All requests share one rate
// limiter so menu, section and item fetches never exceed the provider's
// tolerance, and carry a realistic browser user agent: the site serves
// reduced markup to clients that identify as bots.
type Client struct {
	menuURL    string
	ajaxURL    string
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

func NewClient(menuURL, ajaxURL string, httpClient *http.Client, userAgent string, limiter *rate.Limiter) *Client {
	return &Client{
		menuURL:    menuURL,
		ajaxURL:    ajaxURL,
		httpClient: httpClient,
		userAgent:  userAgent,
		limiter:    limiter,
	}
}

// GetMainMenu fetches the weekly menu page for one ISO week
func (c *Client) GetMainMenu(ctx context.Context, week int) (string, error) {
	slog.Debug("Fetching main menu page", "week", week)
	return c.get(ctx, fmt.Sprintf("%s/%d", c.menuURL, week))
}

// GetDynamicSection fetches one AJAX-loaded menu fragment
func (c *Client) GetDynamicSection(ctx context.Context, year, week, ewid int, varname string) (string, error) {
	params := url.Values{}
	params.Set("ev", strconv.Itoa(year))
	params.Set("het", strconv.Itoa(week))
	params.Set("ewid", strconv.Itoa(ewid))
	params.Set("varname", varname)

	sectionURL := fmt.Sprintf("%s/szekcio?%s", c.ajaxURL, params.Encode())
	slog.Debug("Fetching dynamic section", "url", sectionURL)

	return c.get(ctx, sectionURL)
}

// GetFoodPage fetches the detail page for one (category code, weekday) pair
func (c *Client) GetFoodPage(ctx context.Context, year, week, day int, code string) (string, error) {
	params := url.Values{}
	params.Set("ev", strconv.Itoa(year))
	params.Set("het", strconv.Itoa(week))
	params.Set("tipus", "1")
	params.Set("nap", strconv.Itoa(day))
	params.Set("kod", code)

	foodURL := fmt.Sprintf("%s/kodinfo?%s", c.ajaxURL, params.Encode())
	slog.Debug("Fetching food page", "url", foodURL)

	return c.get(ctx, foodURL)
}

// BaseURL returns the scheme and host of the menu URL, used to absolutize
// relative image references found on food pages
func (c *Client) BaseURL() string {
	parsed, err := url.Parse(c.menuURL)
	if err != nil {
		return c.menuURL
	}
	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}

func (c *Client) get(ctx context.Context, requestURL string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter interrupted: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", requestURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error for %s: %d %s", requestURL, resp.StatusCode, resp.Status)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read response body for %s: %w", requestURL, err)
	}

	return body, nil
}

// decodeBody converts the response to UTF-8 using the charset declared in
// the Content-Type header. The provider's pages are Hungarian and have
// historically shifted between UTF-8 and legacy 8-bit encodings.
func decodeBody(resp *http.Response) (string, error) {
	reader := io.Reader(resp.Body)

	if name := charsetFromContentType(resp.Header.Get("Content-Type")); name != "" && !strings.EqualFold(name, "utf-8") {
		encoding, err := htmlindex.Get(name)
		if err != nil {
			return "", fmt.Errorf("unsupported charset %q: %w", name, err)
		}
		reader = transform.NewReader(reader, encoding.NewDecoder())
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	return params["charset"]
}
