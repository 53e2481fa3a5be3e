package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileName is the JSON file Load looks for in the config directory.
const ConfigFileName = "aoi_sim.cfg.json"

// SceneConfig holds AOI scene settings
type SceneConfig struct {
	MaxRange   float64 `json:"maxRange" mapstructure:"maxRange"`
	Projection string  `json:"projection" mapstructure:"projection"`
}

// MemoryConfig holds in-memory/JSON journal settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite journal settings
type SQLiteConfig struct {
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the journal backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// SimConfig drives the random-walk simulation in cmd/aoi_sim
type SimConfig struct {
	Entities    int           `json:"entities" mapstructure:"entities"`
	Interval    time.Duration `json:"interval" mapstructure:"interval"`
	Ticks       int           `json:"ticks" mapstructure:"ticks"`
	SpawnExtent int           `json:"spawnExtent" mapstructure:"spawnExtent"`
	MinAOI      int           `json:"minAOI" mapstructure:"minAOI"`
	MaxAOI      int           `json:"maxAOI" mapstructure:"maxAOI"`
	MaxStep     int           `json:"maxStep" mapstructure:"maxStep"`
}

// SetDefaults registers default values for every known key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./aoilogs")

	viper.SetDefault("aoi.maxRange", 100.0)
	viper.SetDefault("aoi.projection", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./journals")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "aoi")
	viper.SetDefault("db.postgis", false)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "aoi-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.statusFile", "status.json")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "aoi-sim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("sim.entities", 5)
	viper.SetDefault("sim.interval", "3s")
	viper.SetDefault("sim.ticks", 20)
	viper.SetDefault("sim.spawnExtent", 20)
	viper.SetDefault("sim.minAOI", 5)
	viper.SetDefault("sim.maxAOI", 10)
	viper.SetDefault("sim.maxStep", 2)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a duration config value.
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// GetSceneConfig returns the AOI scene settings.
func GetSceneConfig() SceneConfig {
	return SceneConfig{
		MaxRange:   viper.GetFloat64("aoi.maxRange"),
		Projection: viper.GetString("aoi.projection"),
	}
}

// GetStorageConfig returns the journal backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetSimConfig returns the simulation driver settings.
func GetSimConfig() SimConfig {
	return SimConfig{
		Entities:    viper.GetInt("sim.entities"),
		Interval:    viper.GetDuration("sim.interval"),
		Ticks:       viper.GetInt("sim.ticks"),
		SpawnExtent: viper.GetInt("sim.spawnExtent"),
		MinAOI:      viper.GetInt("sim.minAOI"),
		MaxAOI:      viper.GetInt("sim.maxAOI"),
		MaxStep:     viper.GetInt("sim.maxStep"),
	}
}
