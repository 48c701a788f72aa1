package teletal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnavailable marks a (code, day) pair whose detail page explicitly says
// no information is available. Callers skip these instead of failing them.
var ErrUnavailable = errors.New("no food information available")

const unavailableMarker = "Jelenleg sajnos nem érhető el információ"

// Locale-specific field labels used on both detail page layouts
const (
	labelProtein       = "Fehérje"
	labelCarb          = "Szénhidrát"
	labelFat           = "Zsír"
	labelCalories      = "Energiatartalom"
	labelCaloriesMulti = "Energia tartalom"
)

// RawFood is the untyped field set scraped from one detail page, before
// mapping into the normalized Food model. Nil fields were absent from the
// page.
type RawFood struct {
	Name     string  `json:"name"`
	Calories *string `json:"calories"`
	Protein  *string `json:"protein"`
	Carb     *string `json:"carb"`
	Fat      *string `json:"fat"`
	Price    *string `json:"price"`
	Image    string  `json:"image,omitempty"`
	Code     string  `json:"code"`
	Year     int     `json:"year"`
	Week     int     `json:"week"`
	Day      int     `json:"day"`
}

// FoodPage loads and parses one (category code, weekday) detail page. Two
// mutually exclusive layouts exist and are told apart only after fetching,
// by counting item headings: one heading is a plain food page, several
// headings form a "menu of items" page whose macro fields aggregate every
// listed item.
type FoodPage struct {
	client *Client
	doc    *goquery.Document
	raw    string

	year int
	week int
	day  int
	code string
}

func NewFoodPage(client *Client) *FoodPage {
	return &FoodPage{client: client}
}

func (p *FoodPage) Load(ctx context.Context, year, week, day int, code string) error {
	p.year = year
	p.week = week
	p.day = day
	p.code = code

	html, err := p.client.GetFoodPage(ctx, year, week, day, code)
	if err != nil {
		return fmt.Errorf("failed to load food page: %w", err)
	}
	p.raw = html

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse food page: %w", err)
	}
	p.doc = doc

	return nil
}

// RawHTML returns the last loaded page verbatim, for debug snapshots
func (p *FoodPage) RawHTML() string {
	return p.raw
}

// FoodData extracts the raw field set from the loaded page
func (p *FoodPage) FoodData() (RawFood, error) {
	if p.doc == nil {
		return RawFood{}, fmt.Errorf("food page not loaded")
	}

	if strings.Contains(p.doc.Text(), unavailableMarker) {
		return RawFood{}, ErrUnavailable
	}

	headings := p.doc.Find("h1.uk-article-title")
	if headings.Length() == 0 {
		return RawFood{}, fmt.Errorf("no food name headings found on page for code %s day %d", p.code, p.day)
	}

	var food RawFood
	if headings.Length() > 1 {
		food = p.parseMultiFood(headings)
	} else {
		food = p.parseSingleFood(headings)
	}

	food.Image = p.extractImage()
	food.Code = p.code
	food.Year = p.year
	food.Week = p.week
	food.Day = p.day

	return food, nil
}

// parseSingleFood handles the one-item layout: macro values sit in label
// rows and are matched by their locale label, not by position
func (p *FoodPage) parseSingleFood(headings *goquery.Selection) RawFood {
	return RawFood{
		Name:     strings.TrimSpace(headings.First().Text()),
		Calories: p.labeledValue(labelCalories),
		Protein:  p.labeledValue(labelProtein),
		Carb:     p.labeledValue(labelCarb),
		Fat:      p.labeledValue(labelFat),
	}
}

// parseMultiFood handles the several-items layout: the macro fields carry
// page-level sums and the name is every listed item name newline-joined.
// The first heading is the menu title, not an item.
func (p *FoodPage) parseMultiFood(headings *goquery.Selection) RawFood {
	var names []string
	headings.Slice(1, headings.Length()).Each(func(_ int, heading *goquery.Selection) {
		name := strings.TrimSpace(whitespaceRe.ReplaceAllString(heading.Text(), " "))
		if name != "" {
			names = append(names, name)
		}
	})

	return RawFood{
		Name:     strings.Join(names, "\n"),
		Calories: p.expandedValue(labelCaloriesMulti),
		Protein:  p.siblingValue(labelProtein),
		Carb:     p.siblingValue(labelCarb),
		Fat:      p.siblingValue(labelFat),
	}
}

// labeledValue finds a single-layout macro row by label text and returns
// the portion value next to it
func (p *FoodPage) labeledValue(label string) *string {
	var value *string

	p.doc.Find("div.uk-grid-small").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		labelDiv := row.Find("div.uk-width-1-2").First()
		if labelDiv.Length() == 0 || !strings.Contains(labelDiv.Text(), label) {
			return true
		}

		valueSpan := row.Find("span.en_adag").First()
		if valueSpan.Length() == 0 {
			return true
		}

		text := strings.TrimSpace(valueSpan.Text())
		if text != "" {
			value = &text
		}
		return false
	})

	return value
}

// siblingValue finds a multi-layout macro value: an expand div whose text
// equals the label, followed by a sibling div carrying the summed value
func (p *FoodPage) siblingValue(label string) *string {
	var value *string

	p.doc.Find("div.uk-width-expand").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if strings.TrimSpace(div.Text()) != label {
			return true
		}

		sibling := div.NextFiltered("div")
		if sibling.Length() == 0 {
			return false
		}

		text := strings.TrimSpace(sibling.Text())
		if text != "" {
			value = &text
		}
		return false
	})

	return value
}

// expandedValue handles the calories row on the multi layout, whose value
// sits one level up from the label
func (p *FoodPage) expandedValue(label string) *string {
	var value *string

	p.doc.Find("div.uk-width-expand").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if !strings.Contains(div.Text(), label) {
			return true
		}

		sibling := div.Parent().NextFiltered("div")
		if sibling.Length() == 0 {
			return false
		}

		text := strings.TrimSpace(sibling.Text())
		if text != "" {
			value = &text
		}
		return false
	})

	return value
}

func (p *FoodPage) extractImage() string {
	src, _ := p.doc.Find("img").First().Attr("src")
	if strings.HasPrefix(src, "data:") {
		return ""
	}
	return src
}
