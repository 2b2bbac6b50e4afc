package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type StorageConfig struct {
	DataFile string
	Strict   bool
}

type TariffConfig struct {
	BasePrice  decimal.Decimal
	HourlyRate decimal.Decimal
}

type HTTPConfig struct {
	Host string
	Port int
}

type TelemetryConfig struct {
	ServiceName  string
	OTLPEndpoint string
	Disabled     bool
}

type Config struct {
	Environment string
	Storage     StorageConfig
	Tariff      TariffConfig
	HTTP        HTTPConfig
	Telemetry   TelemetryConfig
}

// flagKeys maps command-line flags onto the env-style keys used everywhere else.
var flagKeys = map[string]string{
	"data-file": "PARKING_DATA_FILE",
	"port":      "HTTP_PORT",
}

// Load reads configuration from an optional parking.env file, the environment
// and, when flags is non-nil, the command-line flags bound to it.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("parking")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PARKING_DATA_FILE", "data/estacionamento.json")
	v.SetDefault("PARKING_BASE_PRICE", "5.00")
	v.SetDefault("PARKING_HOURLY_RATE", "2.00")
	v.SetDefault("PARKING_STRICT_STORAGE", false)
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("OTEL_SERVICE_NAME", "parking-registry")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318")
	v.SetDefault("OTEL_SDK_DISABLED", false)

	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	basePrice, err := decimal.NewFromString(v.GetString("PARKING_BASE_PRICE"))
	if err != nil {
		return nil, fmt.Errorf("PARKING_BASE_PRICE: %w", err)
	}
	hourlyRate, err := decimal.NewFromString(v.GetString("PARKING_HOURLY_RATE"))
	if err != nil {
		return nil, fmt.Errorf("PARKING_HOURLY_RATE: %w", err)
	}

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		Storage: StorageConfig{
			DataFile: v.GetString("PARKING_DATA_FILE"),
			Strict:   v.GetBool("PARKING_STRICT_STORAGE"),
		},
		Tariff: TariffConfig{
			BasePrice:  basePrice,
			HourlyRate: hourlyRate,
		},
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Disabled:     v.GetBool("OTEL_SDK_DISABLED"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Storage.DataFile == "" {
		return fmt.Errorf("PARKING_DATA_FILE is required")
	}
	if cfg.Tariff.BasePrice.IsNegative() {
		return fmt.Errorf("PARKING_BASE_PRICE must not be negative")
	}
	if cfg.Tariff.HourlyRate.IsNegative() {
		return fmt.Errorf("PARKING_HOURLY_RATE must not be negative")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d is out of range", cfg.HTTP.Port)
	}
	return nil
}
