package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/menucollect.db" description:"Path to the sqlite database file"`

	// Collection configuration
	DataDir      string  `long:"data-dir" env:"DATA_DIR" default:"./data/dumps" description:"Directory for raw vendor payload dumps"`
	ImageDir     string  `long:"image-dir" env:"IMAGE_DIR" default:"./data/images" description:"Directory for downloaded food images"`
	WeeksToFetch int     `long:"weeks-to-fetch" env:"WEEKS_TO_FETCH" default:"2" description:"Number of weeks to collect starting from the current week"`
	FetchDelay   float64 `long:"fetch-delay" env:"FETCH_DELAY" default:"0.3" description:"Delay between vendor requests in seconds"`
	FetchTimeout int     `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Vendor request timeout in seconds"`
	FetchImages  bool    `long:"fetch-images" env:"FETCH_IMAGES" description:"Download food images after a successful collection"`
	CronSchedule string  `long:"cron-schedule" env:"CRON_SCHEDULE" default:"0 5 * * *" description:"Cron schedule for the collection job"`
	RunOnce      bool    `long:"run-once" env:"RUN_ONCE" description:"Run the collection once and exit"`

	// Vendor configuration
	VendorsFile       string `long:"vendors-file" env:"VENDORS_FILE" default:"./vendors.yml" description:"Per-vendor settings file"`
	CityFoodAPIURL    string `long:"cityfood-api-url" env:"CITYFOOD_API_URL" default:"https://rendel.cityfood.hu/api/v1/menu" description:"Cityfood menu API endpoint"`
	CityFoodImageURL  string `long:"cityfood-image-url" env:"CITYFOOD_IMAGE_URL" default:"https://rendel.cityfood.hu/api/v1/foods/{food_id}/image" description:"Cityfood image URL template"`
	InterFoodAPIURL   string `long:"interfood-api-url" env:"INTERFOOD_API_URL" default:"https://rendel.interfood.hu/api/v1/menu" description:"Interfood menu API endpoint"`
	InterFoodImageURL string `long:"interfood-image-url" env:"INTERFOOD_IMAGE_URL" default:"https://rendel.interfood.hu/api/v1/foods/{food_id}/image" description:"Interfood image URL template"`
	EfoodAPIURL       string `long:"efood-api-url" env:"EFOOD_API_URL" default:"https://rendel.e-food.hu/api/v1/menu" description:"Efood menu API endpoint"`
	EfoodImageURL     string `long:"efood-image-url" env:"EFOOD_IMAGE_URL" default:"https://rendel.e-food.hu/api/v1/foods/{food_id}/image" description:"Efood image URL template"`
	TeletalMenuURL    string `long:"teletal-menu-url" env:"TELETAL_MENU_URL" default:"https://www.teletal.hu/etlap" description:"Teletal weekly menu page URL"`
	TeletalAjaxURL    string `long:"teletal-ajax-url" env:"TELETAL_AJAX_URL" default:"https://www.teletal.hu/ajax" description:"Teletal AJAX endpoint base URL"`
	BrowserUserAgent  string `long:"browser-user-agent" env:"BROWSER_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.6312.86 Safari/537.36" description:"User agent for HTML-scraped vendors"`

	// Application configuration
	Port      string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"MenuCollect/1.0" description:"User agent string for JSON vendor requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Budapest)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		DataDir:           raw.DataDir,
		ImageDir:          raw.ImageDir,
		WeeksToFetch:      raw.WeeksToFetch,
		FetchDelay:        raw.FetchDelay,
		FetchTimeout:      raw.FetchTimeout,
		FetchImages:       raw.FetchImages,
		CronSchedule:      raw.CronSchedule,
		RunOnce:           raw.RunOnce,
		VendorsFile:       raw.VendorsFile,
		CityFoodAPIURL:    raw.CityFoodAPIURL,
		CityFoodImageURL:  raw.CityFoodImageURL,
		InterFoodAPIURL:   raw.InterFoodAPIURL,
		InterFoodImageURL: raw.InterFoodImageURL,
		EfoodAPIURL:       raw.EfoodAPIURL,
		EfoodImageURL:     raw.EfoodImageURL,
		TeletalMenuURL:    raw.TeletalMenuURL,
		TeletalAjaxURL:    raw.TeletalAjaxURL,
		BrowserUserAgent:  raw.BrowserUserAgent,
		Port:              raw.Port,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
