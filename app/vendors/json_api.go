package vendors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var _ Strategy = (*JSONAPIStrategy)(nil)

// JSONAPIStrategy covers the Cityfood / Interfood / Efood vendor family:
// one POST per (year, week) against a menu API whose response already
// contains structured items.
type JSONAPIStrategy struct {
	vendor    VendorType
	apiURL    string
	imageURL  string // template with a {food_id} placeholder
	client    *http.Client
	cache     *ResponseCache // may be nil
	userAgent string
	timeout   time.Duration
}

func NewJSONAPIStrategy(vendor VendorType, apiURL, imageURL string, client *http.Client,
	cache *ResponseCache, userAgent string, timeout time.Duration) *JSONAPIStrategy {
	return &JSONAPIStrategy{
		vendor:    vendor,
		apiURL:    apiURL,
		imageURL:  imageURL,
		client:    client,
		cache:     cache,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (s *JSONAPIStrategy) Vendor() VendorType {
	return s.vendor
}

func (s *JSONAPIStrategy) FetchFoodsFor(ctx context.Context, year, week int) (*Result, error) {
	rawData, err := s.getRawData(ctx, year, week)
	if err != nil {
		return nil, err
	}

	var response menuResponse
	if err := json.Unmarshal(rawData, &response); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", s.vendor, err)
	}

	// A well-formed response with zero categories is scheduled vendor
	// downtime, not an error
	if response.isMaintenance() {
		slog.Info("Vendor in maintenance, returning empty result",
			"vendor", string(s.vendor), "year", year, "week", week)
		return &Result{Foods: nil, RawData: rawData, Images: map[int64]string{}, Vendor: s.vendor}, nil
	}

	foods, err := s.deserializeFoods(response)
	if err != nil {
		return nil, err
	}

	slog.Info("Fetched foods from JSON vendor",
		"vendor", string(s.vendor), "year", year, "week", week, "count", len(foods))

	return &Result{
		Foods:   foods,
		RawData: rawData,
		Images:  s.buildImageMap(foods),
		Vendor:  s.vendor,
	}, nil
}

func (s *JSONAPIStrategy) getRawData(ctx context.Context, year, week int) ([]byte, error) {
	cacheKey := fmt.Sprintf("%s:%d:%d", s.vendor, year, week)
	if s.cache != nil {
		if data, ok := s.cache.Get(cacheKey); ok {
			slog.Debug("Serving raw vendor payload from cache", "vendor", string(s.vendor), "key", cacheKey)
			return data, nil
		}
	}

	body, err := json.Marshal(newMenuRequest(year, week))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", s.vendor, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", s.vendor, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s menu: %w", s.vendor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s HTTP error: %d %s", s.vendor, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", s.vendor, err)
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, data)
	}

	return data, nil
}

func (s *JSONAPIStrategy) deserializeFoods(response menuResponse) ([]Food, error) {
	var data map[string]foodTypeData
	if err := json.Unmarshal(response.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode %s menu data: %w", s.vendor, err)
	}

	var foods []Food
	for _, foodType := range data {
		for _, category := range foodType.Categories {
			for _, item := range category.Items {
				food, err := s.mapItem(item)
				if err != nil {
					return nil, err
				}
				foods = append(foods, food)
			}
		}
	}

	return foods, nil
}

func (s *JSONAPIStrategy) mapItem(item menuItem) (Food, error) {
	date, err := time.Parse("2006-01-02", item.Date)
	if err != nil {
		return Food{}, fmt.Errorf("invalid date %q for %s item %d: %w", item.Date, s.vendor, item.ID, err)
	}

	// Macro fields arrive as JSON numbers with fractional portions; values
	// are truncated, never rounded
	calories := int(item.Energy)
	protein := int(item.Protein)
	carb := int(item.Carb)
	fat := int(item.Fat)
	price := int(item.Price)

	return Food{
		FoodID:   item.ID,
		Date:     date,
		Vendor:   s.vendor,
		Name:     item.Food.Name,
		Calories: &calories,
		Protein:  &protein,
		Carb:     &carb,
		Fat:      &fat,
		Price:    &price,
	}, nil
}

// buildImageMap derives image URLs by template substitution; no network
// call is involved
func (s *JSONAPIStrategy) buildImageMap(foods []Food) map[int64]string {
	images := make(map[int64]string, len(foods))
	if s.imageURL == "" {
		return images
	}

	for _, food := range foods {
		images[food.FoodID] = strings.ReplaceAll(s.imageURL, "{food_id}", strconv.FormatInt(food.FoodID, 10))
	}

	return images
}

type menuResponse struct {
	Error bool            `json:"error"`
	Data  json.RawMessage `json:"data"`
}

// isMaintenance detects the "no error, but zero categories" payload the
// vendors serve during scheduled downtime. The data field degrades to an
// empty array in that state.
func (r menuResponse) isMaintenance() bool {
	data := strings.TrimSpace(string(r.Data))
	return !r.Error && (data == "" || data == "null" || data == "[]" || data == "{}")
}

type foodTypeData struct {
	Categories []categoryData `json:"categories"`
}

type categoryData struct {
	Items []menuItem `json:"items"`
}

type menuItem struct {
	ID   int64 `json:"id"`
	Food struct {
		Name string `json:"name"`
	} `json:"food"`
	Energy  float64 `json:"energy_portion_food_one"`
	Protein float64 `json:"protein_portion_food_one"`
	Carb    float64 `json:"carb_portion_food_one"`
	Fat     float64 `json:"fat_portion_food_one"`
	Price   float64 `json:"price"`
	Date    string  `json:"date"`
}

type boundsFilter struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type menuRequest struct {
	Year              string       `json:"year"`
	Week              string       `json:"week"`
	Calorie           boundsFilter `json:"calorie"`
	Carb              boundsFilter `json:"carb"`
	Protein           boundsFilter `json:"protein"`
	Fat               boundsFilter `json:"fat"`
	Price             boundsFilter `json:"price"`
	Favorites         bool         `json:"favorites"`
	LastMinute        bool         `json:"last_minute"`
	SeekLabels        []string     `json:"seek_labels"`
	IgnoreLabels      []string     `json:"ignore_labels"`
	SeekIngredients   []string     `json:"seek_ingredients"`
	IgnoreIngredients []string     `json:"ignore_ingredients"`
}

func newMenuRequest(year, week int) menuRequest {
	wide := boundsFilter{Min: 0, Max: 9000}
	return menuRequest{
		Year:              strconv.Itoa(year),
		Week:              strconv.Itoa(week),
		Calorie:           wide,
		Carb:              wide,
		Protein:           wide,
		Fat:               wide,
		Price:             wide,
		SeekLabels:        []string{},
		IgnoreLabels:      []string{},
		SeekIngredients:   []string{},
		IgnoreIngredients: []string{},
	}
}
