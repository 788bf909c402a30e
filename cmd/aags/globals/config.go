package globals

import (
	"time"

	"aags-annotator/internal/aagslist"
	"aags-annotator/internal/annotate"
	"aags-annotator/internal/components/telemetry"
	"aags-annotator/internal/pagesource"
	"aags-annotator/internal/scrapers/eecsis"
	"aags-annotator/lib/restyutil"
)

const ConfigName = "aags.json5"

type RetryConfig struct {
	MaxAttempts       int     `json:"max_attempts"`
	InitialIntervalMs int     `json:"initial_interval_ms"`
	MaxIntervalMs     int     `json:"max_interval_ms"`
	Multiplier        float64 `json:"multiplier"`
}

func (c RetryConfig) Policy() aagslist.RetryPolicy {
	return aagslist.RetryPolicy{
		MaxAttempts:     c.MaxAttempts,
		InitialInterval: time.Duration(c.InitialIntervalMs) * time.Millisecond,
		MaxInterval:     time.Duration(c.MaxIntervalMs) * time.Millisecond,
		Multiplier:      c.Multiplier,
	}
}

type Config struct {
	SourceURL         string      `json:"source_url"`
	CacheTTLSeconds   int         `json:"cache_ttl_seconds"`
	Retry             RetryConfig `json:"retry"`
	RequestsPerSecond float64     `json:"requests_per_second"`
	TimeoutSeconds    int         `json:"timeout_seconds"`
	// HTTPDumpDir, when set, receives a text dump of every HTTP exchange.
	HTTPDumpDir       string      `json:"http_dump_dir"`

	Marker            annotate.MarkerOptions    `json:"marker"`
	HighlightMentions bool                      `json:"highlight_mentions"`
	Table             annotate.TableOptions     `json:"table"`
	Browser           pagesource.BrowserOptions `json:"browser"`

	Listen    string           `json:"listen"`
	Telemetry telemetry.Config `json:"telemetry"`

	dump restyutil.InstrumentOutput
}

func DefaultConfig() Config {
	policy := aagslist.DefaultRetryPolicy()
	return Config{
		SourceURL:       eecsis.DefaultURL,
		CacheTTLSeconds: 15 * 60,
		Retry: RetryConfig{
			MaxAttempts:       policy.MaxAttempts,
			InitialIntervalMs: int(policy.InitialInterval / time.Millisecond),
			MaxIntervalMs:     int(policy.MaxInterval / time.Millisecond),
			Multiplier:        policy.Multiplier,
		},
		RequestsPerSecond: 2,
		TimeoutSeconds:    30,
		Marker: annotate.MarkerOptions{
			Label: annotate.DefaultMarkerLabel,
			Href:  annotate.DefaultMarkerHref,
			Title: annotate.DefaultMarkerTitle,
		},
		Table:  annotate.DefaultTableOptions(),
		Listen: ":8080",
	}
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// PageOptions configures page sources for the annotate command.
func (c Config) PageOptions(render bool) pagesource.Options {
	return pagesource.Options{
		Render:            render,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           c.Timeout(),
		Browser:           c.Browser,
		Dump:              c.dump,
	}
}

// NewValue builds the scraper, retry and cache chain described by config.
func NewValue(config Config, tel telemetry.API) (*Value, error) {
	if config.HTTPDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(config.HTTPDumpDir)
		if err != nil {
			return nil, err
		}
		config.dump = output
	}

	client, err := eecsis.NewClient(eecsis.ClientOptions{
		URL:               config.SourceURL,
		RequestsPerSecond: config.RequestsPerSecond,
		Timeout:           config.Timeout(),
		Dump:              config.dump,
	}, tel)
	if err != nil {
		return nil, err
	}

	list := aagslist.NewCache(
		aagslist.WithRetry(client, config.Retry.Policy()),
		aagslist.CacheOptions{
			TTL:       config.CacheTTL(),
			Telemetry: tel,
		},
	)
	return &Value{Config: config, Tel: tel, List: list}, nil
}
