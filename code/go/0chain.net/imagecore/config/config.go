package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SetupDefaultConfig - setup the default config options that can be overridden via the config file
func SetupDefaultConfig() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.console", false)

	viper.SetDefault("server.port", 5050)

	viper.SetDefault("ledger.backend", "pebble")
	viper.SetDefault("ledger.pebble_dir", "data/ledger")
	viper.SetDefault("ledger.sql_dialect", "postgres")
	viper.SetDefault("ledger.dsn", "")
	viper.SetDefault("ledger.block_duration", time.Minute)
	viper.SetDefault("ledger.sweep_frequency", 10*time.Minute)

	viper.SetDefault("upload.max_file_size", 25*1024*1024)
	viper.SetDefault("upload.chunk_size", 64*1024)
	viper.SetDefault("upload.default_btl_days", 7)
	viper.SetDefault("upload.max_parallel_chunks", 4)

	viper.SetDefault("quota.free_tier_max_bytes", 100*1024*1024)
	viper.SetDefault("quota.free_tier_max_uploads_per_day", 10)

	viper.SetDefault("rate_limiters.upload_rps", 5)
	viper.SetDefault("rate_limiters.general_rps", 20)
	viper.SetDefault("rate_limiters.default_token_expire_duration", 5*time.Minute)
	viper.SetDefault("rate_limiters.proxy", false)
}

/*SetupConfig - setup the configuration system */
func SetupConfig(configPath string) {
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()
	viper.SetConfigName("imagestore")

	if configPath == "" {
		viper.AddConfigPath("./config")
	} else {
		viper.AddConfigPath(configPath)
	}

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	ReadConfig()
}

const (
	// DeploymentDevelopment relaxes server timeouts so pprof stays usable.
	DeploymentDevelopment = "development"
	DeploymentProduction  = "production"
)

// Development - is the deployment a development deployment.
func Development() bool {
	return Configuration.DeploymentMode == DeploymentDevelopment
}

type Config struct {
	Port int

	LedgerBackend  string
	PebbleDir      string
	SQLDialect     string
	DSN            string
	BlockDuration  time.Duration
	SweepFrequency time.Duration

	MaxFileSize       int64
	ChunkSize         int
	DefaultBTLDays    int
	MaxParallelChunks int

	FreeTierMaxBytes         int64
	FreeTierMaxUploadsPerDay int64

	DeploymentMode string
}

var Configuration Config

// ReadConfig mirrors the viper settings into the typed Configuration struct.
func ReadConfig() {
	Configuration.Port = viper.GetInt("server.port")

	Configuration.LedgerBackend = viper.GetString("ledger.backend")
	Configuration.PebbleDir = viper.GetString("ledger.pebble_dir")
	Configuration.SQLDialect = viper.GetString("ledger.sql_dialect")
	Configuration.DSN = viper.GetString("ledger.dsn")
	Configuration.BlockDuration = viper.GetDuration("ledger.block_duration")
	Configuration.SweepFrequency = viper.GetDuration("ledger.sweep_frequency")

	Configuration.MaxFileSize = viper.GetInt64("upload.max_file_size")
	Configuration.ChunkSize = viper.GetInt("upload.chunk_size")
	Configuration.DefaultBTLDays = viper.GetInt("upload.default_btl_days")
	Configuration.MaxParallelChunks = viper.GetInt("upload.max_parallel_chunks")

	Configuration.FreeTierMaxBytes = viper.GetInt64("quota.free_tier_max_bytes")
	Configuration.FreeTierMaxUploadsPerDay = viper.GetInt64("quota.free_tier_max_uploads_per_day")
}
