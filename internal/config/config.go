package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Datasets  DatasetsConfig  `yaml:"datasets" mapstructure:"datasets"`
	Rules     RulesConfig     `yaml:"rules" mapstructure:"rules"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Viability ViabilityConfig `yaml:"viability" mapstructure:"viability"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the results database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeocodeConfig configures the Census geocoder client.
type GeocodeConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Benchmark        string  `yaml:"benchmark" mapstructure:"benchmark"`
	Vintage          string  `yaml:"vintage" mapstructure:"vintage"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSecond    float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// DatasetsConfig points at the reference data files. Paths are relative
// to Dir unless absolute. Parcels is optional; the other files must load
// before any site is evaluated.
type DatasetsConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	Designations string `yaml:"designations" mapstructure:"designations"`
	Projects     string `yaml:"projects" mapstructure:"projects"`
	Amenities    string `yaml:"amenities" mapstructure:"amenities"`
	Counties     string `yaml:"counties" mapstructure:"counties"`
	Rents        string `yaml:"rents" mapstructure:"rents"`
	Parcels      string `yaml:"parcels" mapstructure:"parcels"`
	Encoding     string `yaml:"encoding" mapstructure:"encoding"`
}

// RulesConfig holds the competition radius rules. CycleYear zero means
// the current year at run time; pin it for reproducible runs.
type RulesConfig struct {
	OneMileRadius float64 `yaml:"one_mile_radius" mapstructure:"one_mile_radius"`
	TwoMileRadius float64 `yaml:"two_mile_radius" mapstructure:"two_mile_radius"`
	LookbackYears int     `yaml:"lookback_years" mapstructure:"lookback_years"`
	CycleYear     int     `yaml:"cycle_year" mapstructure:"cycle_year"`
}

// ScoringConfig holds scoring knobs that are not fixed by the QAP tables.
type ScoringConfig struct {
	HighDensityMinPerAcre float64 `yaml:"high_density_min_per_acre" mapstructure:"high_density_min_per_acre"`
	ExceptionalRatio      float64 `yaml:"exceptional_ratio" mapstructure:"exceptional_ratio"`
	HighPotentialRatio    float64 `yaml:"high_potential_ratio" mapstructure:"high_potential_ratio"`
	GoodRatio             float64 `yaml:"good_ratio" mapstructure:"good_ratio"`
}

// ViabilityConfig holds the underwriting assumptions behind the
// revenue-to-cost ratio.
type ViabilityConfig struct {
	DefaultRentMonthly     float64 `yaml:"default_rent_monthly" mapstructure:"default_rent_monthly"`
	VacancyRate            float64 `yaml:"vacancy_rate" mapstructure:"vacancy_rate"`
	OpexRatio              float64 `yaml:"opex_ratio" mapstructure:"opex_ratio"`
	ConstructionPerUnitUSD float64 `yaml:"construction_per_unit_usd" mapstructure:"construction_per_unit_usd"`
	BasisEquityShare       float64 `yaml:"basis_equity_share" mapstructure:"basis_equity_share"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency      int `yaml:"concurrency" mapstructure:"concurrency"`
	ProgressInterval int `yaml:"progress_interval" mapstructure:"progress_interval"`
}

// ServerConfig configures the screening HTTP service. An empty APIKey
// leaves the screen endpoint unauthenticated.
type ServerConfig struct {
	Port   int    `yaml:"port" mapstructure:"port"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An explicit path
// pins the config file; otherwise sitescore.yaml is searched for in the
// working directory and may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sitescore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("SITESCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "sitescore.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("geocode.base_url", "https://geocoding.geo.census.gov/geocoder")
	v.SetDefault("geocode.benchmark", "Public_AR_Current")
	v.SetDefault("geocode.vintage", "Current_Current")
	v.SetDefault("geocode.timeout_secs", 15)
	v.SetDefault("geocode.rate_per_second", 5)
	v.SetDefault("geocode.max_attempts", 3)
	v.SetDefault("geocode.initial_backoff_ms", 500)
	v.SetDefault("geocode.breaker_threshold", 5)
	v.SetDefault("geocode.breaker_reset_secs", 30)
	v.SetDefault("datasets.dir", "data")
	v.SetDefault("datasets.designations", "designations.csv")
	v.SetDefault("datasets.projects", "projects.csv")
	v.SetDefault("datasets.amenities", "amenities.csv")
	v.SetDefault("datasets.counties", "counties.yaml")
	v.SetDefault("datasets.rents", "rents.csv")
	v.SetDefault("datasets.encoding", "utf-8")
	v.SetDefault("rules.one_mile_radius", 1.0)
	v.SetDefault("rules.two_mile_radius", 2.0)
	v.SetDefault("rules.lookback_years", 3)
	v.SetDefault("scoring.high_density_min_per_acre", 25)
	v.SetDefault("scoring.exceptional_ratio", 0.090)
	v.SetDefault("scoring.high_potential_ratio", 0.085)
	v.SetDefault("scoring.good_ratio", 0.078)
	v.SetDefault("viability.default_rent_monthly", 1450)
	v.SetDefault("viability.vacancy_rate", 0.05)
	v.SetDefault("viability.opex_ratio", 0.38)
	v.SetDefault("viability.construction_per_unit_usd", 215000)
	v.SetDefault("viability.basis_equity_share", 0.40)
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("batch.progress_interval", 25)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
