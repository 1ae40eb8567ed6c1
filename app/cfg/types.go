package cfg

type Cfg struct {
	// Storage configuration
	DBPath     string
	BucketsDir string

	// Application configuration
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	FetchTimeout      int
	APIAccessKey      string
	ExtractContent    bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
