// Package config loads the service configuration with viper, supporting
// YAML files, RESOLVA_-prefixed environment overrides, and hot reload.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/resolva-io/resolva-ce/internal/models"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Sla           SlaConfig           `mapstructure:"sla"`
	BusinessHours BusinessHoursConfig `mapstructure:"business_hours"`
	Monitor       MonitorConfig       `mapstructure:"monitor"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, mysql, sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"` // sqlite file
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	RuleTTL  time.Duration `mapstructure:"rule_ttl"`
}

// SlaConfig tunes the accounting engine.
type SlaConfig struct {
	DefaultResolutionHours float64 `mapstructure:"default_resolution_hours"`
	AtRiskPercent          float64 `mapstructure:"at_risk_percent"`
}

// BusinessHoursConfig mirrors models.BusinessHoursConfig in configuration
// form. Weekdays use Go numbering (0 = Sunday). HolidaysFile optionally
// points at a YAML list of holiday presets.
type BusinessHoursConfig struct {
	StartHour    int    `mapstructure:"start_hour"`
	EndHour      int    `mapstructure:"end_hour"`
	WorkingDays  []int  `mapstructure:"working_days"`
	Timezone     string `mapstructure:"timezone"`
	HolidaysFile string `mapstructure:"holidays_file"`
}

type MonitorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"` // cron expression
	Workers  int    `mapstructure:"workers"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// holidayPreset is the YAML shape of one holidays_file entry.
type holidayPreset struct {
	Name  string `yaml:"name"`
	Month int    `yaml:"month"`
	Day   int    `yaml:"day"`
	Year  int    `yaml:"year,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "resolva")
	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "resolva")
	v.SetDefault("database.user", "resolva")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.rule_ttl", time.Minute)
	v.SetDefault("sla.default_resolution_hours", 4)
	v.SetDefault("sla.at_risk_percent", 90)
	v.SetDefault("business_hours.start_hour", 8)
	v.SetDefault("business_hours.end_hour", 18)
	v.SetDefault("business_hours.working_days", []int{1, 2, 3, 4, 5})
	v.SetDefault("business_hours.timezone", "America/Sao_Paulo")
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.schedule", "*/5 * * * *")
	v.SetDefault("monitor.workers", 4)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load initializes the configuration with hot reload support. The config
// file is optional; defaults plus environment variables are enough to run.
func Load(configPath string) error {
	var err error
	once.Do(func() {
		v := viper.New()
		v.SetConfigType("yaml")
		v.SetConfigName("config")
		v.AddConfigPath(configPath)

		setDefaults(v)

		v.SetEnvPrefix("RESOLVA")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		watch := true
		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config: %w", readErr)
				return
			}
			watch = false
		}

		newCfg := &Config{}
		if err = v.Unmarshal(newCfg); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
		if err = newCfg.Validate(); err != nil {
			return
		}
		cfg = newCfg

		if !watch {
			return
		}
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			reloaded := &Config{}
			if reloadErr := v.Unmarshal(reloaded); reloadErr != nil {
				fmt.Printf("Failed to reload config: %v\n", reloadErr)
				return
			}
			if reloadErr := reloaded.Validate(); reloadErr != nil {
				fmt.Printf("Ignoring invalid config change: %v\n", reloadErr)
				return
			}
			mu.Lock()
			cfg = reloaded
			mu.Unlock()
		})
	})

	return err
}

// LoadFromFile loads configuration from a specific file (useful for tests).
func LoadFromFile(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the current configuration (thread-safe).
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Validate rejects configurations the engine would refuse at runtime, so
// bad business-hours setups fail at startup instead of mid-calculation.
func (c *Config) Validate() error {
	bh := c.BusinessHours
	if len(bh.WorkingDays) == 0 {
		return fmt.Errorf("business_hours: working_days must not be empty")
	}
	for _, d := range bh.WorkingDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("business_hours: weekday %d out of range 0-6", d)
		}
	}
	if bh.StartHour < 0 || bh.EndHour > 24 || bh.StartHour >= bh.EndHour {
		return fmt.Errorf("business_hours: hour window %d-%d out of order", bh.StartHour, bh.EndHour)
	}
	if _, err := time.LoadLocation(bh.Timezone); err != nil {
		return fmt.Errorf("business_hours: unknown timezone %q", bh.Timezone)
	}
	if c.Sla.DefaultResolutionHours <= 0 {
		return fmt.Errorf("sla: default_resolution_hours must be positive")
	}
	if c.Sla.AtRiskPercent <= 0 || c.Sla.AtRiskPercent >= 100 {
		return fmt.Errorf("sla: at_risk_percent must be between 0 and 100")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("database: unsupported driver %q", c.Database.Driver)
	}
	return nil
}

// BusinessHoursModel converts the configured window (and holiday presets,
// when a file is configured) into the model the calendar consumes.
func (c *Config) BusinessHoursModel() (models.BusinessHoursConfig, error) {
	bh := c.BusinessHours
	out := models.BusinessHoursConfig{
		StartHour: bh.StartHour,
		EndHour:   bh.EndHour,
		Timezone:  bh.Timezone,
	}
	for _, d := range bh.WorkingDays {
		out.WorkingDays = append(out.WorkingDays, time.Weekday(d))
	}

	if bh.HolidaysFile != "" {
		data, err := os.ReadFile(bh.HolidaysFile)
		if err != nil {
			return out, fmt.Errorf("failed to read holidays file: %w", err)
		}
		var presets []holidayPreset
		if err := yaml.Unmarshal(data, &presets); err != nil {
			return out, fmt.Errorf("failed to parse holidays file: %w", err)
		}
		for _, p := range presets {
			if p.Month < 1 || p.Month > 12 || p.Day < 1 || p.Day > 31 {
				return out, fmt.Errorf("holiday %q has invalid date %d/%d", p.Name, p.Month, p.Day)
			}
			out.Holidays = append(out.Holidays, models.Holiday{
				Name:  p.Name,
				Month: time.Month(p.Month),
				Day:   p.Day,
				Year:  p.Year,
			})
		}
	}
	return out, nil
}

// GetDSN returns the SQL connection string for the configured driver.
func (c *DatabaseConfig) GetDSN() string {
	switch c.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Name)
	case "sqlite":
		return c.Path
	default:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
}

// GetRedisAddr returns the Redis server address.
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetServerAddr returns the HTTP listen address.
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true when running in production mode.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
