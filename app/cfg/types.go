package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Collection configuration
	DataDir      string
	ImageDir     string
	WeeksToFetch int
	FetchDelay   float64
	FetchTimeout int
	FetchImages  bool
	CronSchedule string
	RunOnce      bool

	// Vendor configuration
	VendorsFile       string
	CityFoodAPIURL    string
	CityFoodImageURL  string
	InterFoodAPIURL   string
	InterFoodImageURL string
	EfoodAPIURL       string
	EfoodImageURL     string
	TeletalMenuURL    string
	TeletalAjaxURL    string
	BrowserUserAgent  string

	// Application configuration
	Port      string
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
