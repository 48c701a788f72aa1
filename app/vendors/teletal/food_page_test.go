package teletal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const singleFoodHTML = `<html><body>
<h1 class="uk-article-title">Rántott sajt</h1>
<img src="/etel/kep/rantott-sajt.jpg">
<div class="uk-grid-small">
  <div class="uk-width-1-2">Energiatartalom</div>
  <div><span class="en_adag">1,262.10 kcal</span></div>
</div>
<div class="uk-grid-small">
  <div class="uk-width-1-2">Fehérje</div>
  <div><span class="en_adag">35.5 g</span></div>
</div>
<div class="uk-grid-small">
  <div class="uk-width-1-2">Szénhidrát</div>
  <div><span class="en_adag">90.2 g</span></div>
</div>
<div class="uk-grid-small">
  <div class="uk-width-1-2">Zsír</div>
  <div><span class="en_adag">78.9 g</span></div>
</div>
</body></html>`

const multiFoodHTML = `<html><body>
<h1 class="uk-article-title">Heti menü</h1>
<h1 class="uk-article-title">Gulyásleves</h1>
<h1 class="uk-article-title">Csirkemell
	rizzsel</h1>
<div><div class="uk-width-expand">Energia tartalom</div></div>
<div>2,262.5 kcal</div>
<div class="uk-grid">
  <div class="uk-width-expand">Fehérje</div>
  <div>88.1 g</div>
</div>
<div class="uk-grid">
  <div class="uk-width-expand">Szénhidrát</div>
  <div>190.4 g</div>
</div>
<div class="uk-grid">
  <div class="uk-width-expand">Zsír</div>
  <div>95.7 g</div>
</div>
</body></html>`

// loadFoodPage serves the given HTML from a test server and loads a food
// page through a real client
func loadFoodPage(t *testing.T, html string) *FoodPage {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/etlap", server.URL+"/ajax", server.Client(), "test-agent", nil)
	page := NewFoodPage(client)

	if err := page.Load(context.Background(), 2025, 5, 1, "K1"); err != nil {
		t.Fatalf("Expected no error loading food page, got: %v", err)
	}

	return page
}

func TestFoodPageSingleLayout(t *testing.T) {
	page := loadFoodPage(t, singleFoodHTML)

	food, err := page.FoodData()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if food.Name != "Rántott sajt" {
		t.Errorf("Expected name 'Rántott sajt', got '%s'", food.Name)
	}
	if food.Calories == nil || *food.Calories != "1,262.10 kcal" {
		t.Errorf("Expected calories '1,262.10 kcal', got %v", food.Calories)
	}
	if food.Protein == nil || *food.Protein != "35.5 g" {
		t.Errorf("Expected protein '35.5 g', got %v", food.Protein)
	}
	if food.Carb == nil || *food.Carb != "90.2 g" {
		t.Errorf("Expected carb '90.2 g', got %v", food.Carb)
	}
	if food.Fat == nil || *food.Fat != "78.9 g" {
		t.Errorf("Expected fat '78.9 g', got %v", food.Fat)
	}
	if food.Image != "/etel/kep/rantott-sajt.jpg" {
		t.Errorf("Expected image '/etel/kep/rantott-sajt.jpg', got '%s'", food.Image)
	}
	if food.Code != "K1" || food.Year != 2025 || food.Week != 5 || food.Day != 1 {
		t.Errorf("Expected context (K1, 2025, 5, 1), got (%s, %d, %d, %d)",
			food.Code, food.Year, food.Week, food.Day)
	}
}

func TestFoodPageMultiLayout(t *testing.T) {
	page := loadFoodPage(t, multiFoodHTML)

	food, err := page.FoodData()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// The first heading is the menu title; item names are newline-joined
	// with their internal whitespace collapsed
	if food.Name != "Gulyásleves\nCsirkemell rizzsel" {
		t.Errorf("Expected joined item names, got '%s'", food.Name)
	}
	if food.Calories == nil || *food.Calories != "2,262.5 kcal" {
		t.Errorf("Expected calories '2,262.5 kcal', got %v", food.Calories)
	}
	if food.Protein == nil || *food.Protein != "88.1 g" {
		t.Errorf("Expected protein '88.1 g', got %v", food.Protein)
	}
	if food.Carb == nil || *food.Carb != "190.4 g" {
		t.Errorf("Expected carb '190.4 g', got %v", food.Carb)
	}
	if food.Fat == nil || *food.Fat != "95.7 g" {
		t.Errorf("Expected fat '95.7 g', got %v", food.Fat)
	}
}

func TestFoodPageUnavailable(t *testing.T) {
	page := loadFoodPage(t, `<html><body><p>Jelenleg sajnos nem érhető el információ</p></body></html>`)

	_, err := page.FoodData()
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got: %v", err)
	}
}

func TestFoodPageNoHeadings(t *testing.T) {
	page := loadFoodPage(t, `<html><body><p>Unexpected markup</p></body></html>`)

	_, err := page.FoodData()
	if err == nil {
		t.Fatal("Expected error for page without headings, got none")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("Expected a hard failure, got ErrUnavailable")
	}
}

func TestFoodPageIgnoresDataURIImage(t *testing.T) {
	page := loadFoodPage(t, `<html><body>
<h1 class="uk-article-title">Gulyásleves</h1>
<img src="data:image/gif;base64,R0lGOD">
</body></html>`)

	food, err := page.FoodData()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if food.Image != "" {
		t.Errorf("Expected data URI image to be dropped, got '%s'", food.Image)
	}
}

func TestFoodPageNotLoaded(t *testing.T) {
	page := NewFoodPage(nil)

	_, err := page.FoodData()
	if err == nil {
		t.Error("Expected error for unloaded page, got none")
	}
}
