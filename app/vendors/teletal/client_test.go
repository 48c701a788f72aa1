package teletal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientGetFoodPageQuery(t *testing.T) {
	var gotQuery map[string]string
	var gotUserAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/etlap", server.URL+"/ajax", server.Client(), "test-agent", nil)

	_, err := client.GetFoodPage(context.Background(), 2025, 5, 3, "K1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := map[string]string{"ev": "2025", "het": "5", "tipus": "1", "nap": "3", "kod": "K1"}
	for key, value := range expected {
		if gotQuery[key] != value {
			t.Errorf("Expected query %s=%s, got %s", key, value, gotQuery[key])
		}
	}
	if gotUserAgent != "test-agent" {
		t.Errorf("Expected user agent 'test-agent', got '%s'", gotUserAgent)
	}
}

func TestClientDecodesLegacyCharset(t *testing.T) {
	// "Zsír" in ISO-8859-2
	body := []byte{'Z', 's', 0xED, 'r'}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-2")
		w.Write(body)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/etlap", server.URL+"/ajax", server.Client(), "test-agent", nil)

	html, err := client.GetMainMenu(context.Background(), 5)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if html != "Zsír" {
		t.Errorf("Expected decoded body 'Zsír', got '%s'", html)
	}
}

func TestClientHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/etlap", server.URL+"/ajax", server.Client(), "test-agent", nil)

	_, err := client.GetMainMenu(context.Background(), 5)
	if err == nil {
		t.Fatal("Expected error for 500 response, got none")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected error to mention the status code, got: %v", err)
	}
}

func TestClientBaseURL(t *testing.T) {
	client := NewClient("https://www.teletal.hu/etlap", "https://www.teletal.hu/ajax", nil, "", nil)

	if got := client.BaseURL(); got != "https://www.teletal.hu" {
		t.Errorf("Expected base URL 'https://www.teletal.hu', got '%s'", got)
	}
}
