package teletal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/lkadar/menucollect/app/vendors"
)

var _ vendors.Strategy = (*Strategy)(nil)

const weekdaysServed = 5

// Strategy scrapes the Teletal weekly offer: it stitches the menu page,
// walks every (category code, weekday) detail page, and maps the scraped
// fields into normalized foods. One failing item never aborts the rest of
// the week; failures are counted, logged with reproduction context and
// snapshotted to disk.
type Strategy struct {
	menuPage *MenuPage
	foodPage *FoodPage
	baseURL  string
	debugDir string
}

func NewStrategy(client *Client, debugDir string) *Strategy {
	return &Strategy{
		menuPage: NewMenuPage(client),
		foodPage: NewFoodPage(client),
		baseURL:  client.BaseURL(),
		debugDir: debugDir,
	}
}

func (s *Strategy) Vendor() vendors.VendorType {
	return vendors.VendorTeletal
}

// itemOutcome is the per-item fetch result: a parsed record, a deliberate
// skip, or a failure. Skips and failures are distinct outcomes, not
// different error values to be told apart downstream.
type itemOutcome struct {
	raw     RawFood
	skipped bool
	err     error
}

func (s *Strategy) FetchFoodsFor(ctx context.Context, year, week int) (*vendors.Result, error) {
	if err := s.menuPage.Load(ctx, year, week); err != nil {
		return nil, err
	}

	codes := s.menuPage.CategoryCodes()
	slog.Info("Extracted menu categories", "year", year, "week", week, "count", len(codes))

	rawFoods, failures := s.fetchRawFoods(ctx, year, week, codes)

	foods := s.mapFoods(rawFoods, &failures)
	if failures > 0 {
		slog.Warn("Completed week with item failures", "year", year, "week", week, "failures", failures)
	}

	rawData, err := json.Marshal(rawFoods)
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw food data: %w", err)
	}

	return &vendors.Result{
		Foods:   foods,
		RawData: rawData,
		Images:  s.buildImageMap(foods, rawFoods),
		Vendor:  vendors.VendorTeletal,
	}, nil
}

func (s *Strategy) fetchRawFoods(ctx context.Context, year, week int, codes []string) ([]RawFood, int) {
	var rawFoods []RawFood
	failures := 0

	for day := 1; day <= weekdaysServed; day++ {
		for _, code := range codes {
			if err := ctx.Err(); err != nil {
				return rawFoods, failures
			}

			outcome := s.fetchItem(ctx, year, week, day, code)
			switch {
			case outcome.err != nil:
				failures++
				slog.Error("Failed to fetch food item",
					"year", year, "week", week, "day", day, "code", code, "error", outcome.err)
				s.saveDebugSnapshot(code, day)
			case outcome.skipped:
				slog.Info("Skipping unavailable food item", "year", year, "week", week, "day", day, "code", code)
			default:
				rawFoods = append(rawFoods, outcome.raw)
			}
		}
	}

	return rawFoods, failures
}

func (s *Strategy) fetchItem(ctx context.Context, year, week, day int, code string) itemOutcome {
	if err := s.foodPage.Load(ctx, year, week, day, code); err != nil {
		return itemOutcome{err: err}
	}

	raw, err := s.foodPage.FoodData()
	if errors.Is(err, ErrUnavailable) {
		return itemOutcome{skipped: true}
	}
	if err != nil {
		return itemOutcome{err: err}
	}

	// Price lives on the stitched menu page, not the detail page; a
	// missing match means no price, not a failed item
	raw.Price = s.menuPage.Price(code, day)

	return itemOutcome{raw: raw}
}

func (s *Strategy) mapFoods(rawFoods []RawFood, failures *int) []vendors.Food {
	var foods []vendors.Food

	for _, raw := range rawFoods {
		food, err := MapFood(raw)
		if err != nil {
			*failures++
			slog.Error("Failed to map raw food record",
				"year", raw.Year, "week", raw.Week, "day", raw.Day, "code", raw.Code, "error", err)
			continue
		}
		foods = append(foods, food)
	}

	return foods
}

// buildImageMap matches each mapped food back to the first raw record with
// the same name and a non-empty image reference
func (s *Strategy) buildImageMap(foods []vendors.Food, rawFoods []RawFood) map[int64]string {
	images := make(map[int64]string)

	for _, food := range foods {
		for _, raw := range rawFoods {
			if raw.Name != food.Name {
				continue
			}
			if raw.Image != "" {
				images[food.FoodID] = s.absolutize(raw.Image)
			}
			break
		}
	}

	return images
}

func (s *Strategy) absolutize(imageRef string) string {
	ref, err := url.Parse(imageRef)
	if err != nil || ref.IsAbs() {
		return imageRef
	}

	base, err := url.Parse(s.baseURL + "/")
	if err != nil {
		return imageRef
	}

	return base.ResolveReference(ref).String()
}

// saveDebugSnapshot writes the failing page verbatim for offline
// postmortem
func (s *Strategy) saveDebugSnapshot(code string, day int) {
	if s.debugDir == "" {
		return
	}

	dir := filepath.Join(s.debugDir, "teletal")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("Failed to create debug directory", "dir", dir, "error", err)
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("debug_food_page_%s_%d.html", code, day))
	if err := os.WriteFile(path, []byte(s.foodPage.RawHTML()), 0o644); err != nil {
		slog.Warn("Failed to save debug snapshot", "path", path, "error", err)
	}
}
