package teletal

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// MenuPage holds the stitched weekly menu document. The served page carries
// some item rows statically and the rest behind AJAX placeholders; Load
// fetches every placeholder's fragment and appends it to the document, so
// code and price lookups see a complete page either way.
type MenuPage struct {
	client *Client
	doc    *goquery.Document
	year   int
	week   int
}

func NewMenuPage(client *Client) *MenuPage {
	return &MenuPage{client: client}
}

type dynamicSection struct {
	ewid    int
	varname string
}

// Load fetches the main menu page for one week and stitches every
// dynamically loaded section into it
func (p *MenuPage) Load(ctx context.Context, year, week int) error {
	p.year = year
	p.week = week

	html, err := p.client.GetMainMenu(ctx, week)
	if err != nil {
		return fmt.Errorf("failed to load menu page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse menu page: %w", err)
	}
	p.doc = doc

	return p.stitchDynamicSections(ctx)
}

// CategoryCodes returns the distinct item codes present on the stitched
// page, static and dynamic alike, in document order
func (p *MenuPage) CategoryCodes() []string {
	var codes []string
	seen := make(map[string]bool)

	p.doc.Find("tr[kod]").Each(func(_ int, row *goquery.Selection) {
		code, _ := row.Attr("kod")
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	})

	return codes
}

// Price looks up the menu-page price for one (category code, weekday) pair.
// Returns nil when the page carries no price for that cell.
func (p *MenuPage) Price(code string, day int) *string {
	row := p.doc.Find(fmt.Sprintf("div.hl_%s_%d", code, day))
	if row.Length() == 0 {
		return nil
	}

	priceTag := row.Find("div.menu-price-field strong").First()
	if priceTag.Length() == 0 {
		return nil
	}

	price := strings.TrimSpace(whitespaceRe.ReplaceAllString(priceTag.Text(), " "))
	if price == "" {
		return nil
	}

	return &price
}

func (p *MenuPage) stitchDynamicSections(ctx context.Context) error {
	sections := p.parseDynamicSections()
	slog.Debug("Discovered dynamic menu sections", "week", p.week, "count", len(sections))

	for _, section := range sections {
		fragment, err := p.client.GetDynamicSection(ctx, p.year, p.week, section.ewid, section.varname)
		if err != nil {
			return fmt.Errorf("failed to load dynamic section %q: %w", section.varname, err)
		}

		if err := p.appendToDocument(fragment); err != nil {
			return fmt.Errorf("failed to stitch dynamic section %q: %w", section.varname, err)
		}
	}

	return nil
}

func (p *MenuPage) parseDynamicSections() []dynamicSection {
	var sections []dynamicSection

	p.doc.Find("section[ewid][section]").Each(func(_ int, sel *goquery.Selection) {
		ewidAttr, _ := sel.Attr("ewid")
		varname, _ := sel.Attr("section")

		ewid, err := strconv.Atoi(ewidAttr)
		if err != nil {
			slog.Warn("Skipping dynamic section with invalid ewid", "ewid", ewidAttr, "varname", varname)
			return
		}

		sections = append(sections, dynamicSection{ewid: ewid, varname: varname})
	})

	return sections
}

func (p *MenuPage) appendToDocument(fragment string) error {
	body := p.doc.Find("body").First()
	if body.Length() == 0 {
		return fmt.Errorf("menu document has no body element")
	}

	body.AppendHtml(fragment)
	return nil
}
