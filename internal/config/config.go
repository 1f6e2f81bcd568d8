package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeServer = "server"
	ModeStdio  = "stdio"

	// Default values
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 5045
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultMaxUploadSize = 50 * 1024 * 1024 // 50MB per uploaded PDF
	DefaultMaxPDFPages   = 100
	DefaultRenderScale   = 2
	DefaultMaxRecords    = 10000
)

// Config holds all configuration for the acta scanner service
type Config struct {
	// Server configuration
	Mode string // "server" for the operator HTTP app, "stdio" for tool mode
	Host string
	Port int

	// Processing limits
	MaxUploadSize int64 // Maximum uploaded file size in bytes
	MaxPDFPages   int   // Maximum PDF pages scanned per document
	RenderScale   int   // Upscale factor for low-resolution QR retries
	MaxRecords    int   // Maximum records held in memory

	// StopAtFirstQR stops the page scan at the first page that yields a QR
	// code. Multi-page documents carry one code per acta, so this is off by
	// default.
	StopAtFirstQR bool

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:          ModeServer,
		Host:          DefaultHost,
		Port:          DefaultPort,
		MaxUploadSize: DefaultMaxUploadSize,
		MaxPDFPages:   DefaultMaxPDFPages,
		RenderScale:   DefaultRenderScale,
		MaxRecords:    DefaultMaxRecords,
		StopAtFirstQR: false,
		Version:       "1.0.0",
		ServerName:    "acta-scanner",
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("ACTA")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("maxuploadsize", cfg.MaxUploadSize)
	viper.SetDefault("maxpdfpages", cfg.MaxPDFPages)
	viper.SetDefault("renderscale", cfg.RenderScale)
	viper.SetDefault("maxrecords", cfg.MaxRecords)
	viper.SetDefault("stopatfirstqr", cfg.StopAtFirstQR)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("logformat", cfg.LogFormat)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'server' for the operator HTTP app, 'stdio' for tool mode")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.Int64("maxuploadsize", cfg.MaxUploadSize, "Maximum uploaded file size in bytes")
	pflag.Int("maxpdfpages", cfg.MaxPDFPages, "Maximum PDF pages scanned per document")
	pflag.Int("renderscale", cfg.RenderScale, "Upscale factor for low-resolution QR retries")
	pflag.Int("maxrecords", cfg.MaxRecords, "Maximum records held in memory")
	pflag.Bool("stopatfirstqr", cfg.StopAtFirstQR, "Stop scanning pages after the first QR code found")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("logformat", cfg.LogFormat, "Log format (console, json)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("maxuploadsize", pflag.Lookup("maxuploadsize"))
	_ = viper.BindPFlag("maxpdfpages", pflag.Lookup("maxpdfpages"))
	_ = viper.BindPFlag("renderscale", pflag.Lookup("renderscale"))
	_ = viper.BindPFlag("maxrecords", pflag.Lookup("maxrecords"))
	_ = viper.BindPFlag("stopatfirstqr", pflag.Lookup("stopatfirstqr"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("logformat", pflag.Lookup("logformat"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nActa Scanner - birth certificate scan ingestion and export service\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # HTTP server on %s:%d\n",
			os.Args[0], DefaultHost, DefaultPort)
		fmt.Fprintf(os.Stderr, "  %s --port=8080 --loglevel=debug     # custom port, verbose logs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio                     # tool mode for scripted ingestion\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ACTA_MODE           Run mode\n")
		fmt.Fprintf(os.Stderr, "  ACTA_HOST           Server host\n")
		fmt.Fprintf(os.Stderr, "  ACTA_PORT           Server port\n")
		fmt.Fprintf(os.Stderr, "  ACTA_MAXUPLOADSIZE  Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  ACTA_MAXPDFPAGES    Maximum PDF pages scanned\n")
		fmt.Fprintf(os.Stderr, "  ACTA_RENDERSCALE    QR retry upscale factor\n")
		fmt.Fprintf(os.Stderr, "  ACTA_MAXRECORDS     Maximum records in memory\n")
		fmt.Fprintf(os.Stderr, "  ACTA_STOPATFIRSTQR  Stop page scan at first QR\n")
		fmt.Fprintf(os.Stderr, "  ACTA_LOGLEVEL       Log level\n")
		fmt.Fprintf(os.Stderr, "  ACTA_LOGFORMAT      Log format\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.MaxUploadSize = viper.GetInt64("maxuploadsize")
	cfg.MaxPDFPages = viper.GetInt("maxpdfpages")
	cfg.RenderScale = viper.GetInt("renderscale")
	cfg.MaxRecords = viper.GetInt("maxrecords")
	cfg.StopAtFirstQR = viper.GetBool("stopatfirstqr")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.LogFormat = viper.GetString("logformat")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeServer && c.Mode != ModeStdio {
		return errors.New("mode must be either 'server' or 'stdio'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.MaxUploadSize <= 0 {
		return errors.New("maximum upload size must be positive")
	}

	if c.MaxPDFPages <= 0 {
		return errors.New("maximum PDF pages must be positive")
	}

	if c.RenderScale < 1 {
		return errors.New("render scale must be at least 1")
	}

	if c.MaxRecords <= 0 {
		return errors.New("maximum records must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.LogFormat)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, MaxUploadSize: %d, MaxPDFPages: %d, "+
		"RenderScale: %d, MaxRecords: %d, StopAtFirstQR: %t, LogLevel: %s}",
		c.Mode, c.Host, c.Port, c.MaxUploadSize, c.MaxPDFPages,
		c.RenderScale, c.MaxRecords, c.StopAtFirstQR, c.LogLevel)
}

// IsServerMode returns true if running the operator HTTP server
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if running in stdio tool mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
