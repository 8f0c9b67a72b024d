package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	AdminPort   int    `mapstructure:"admin_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	SecretKey   string `mapstructure:"secret_key"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type SecurityConfig struct {
	// ExcludedPaths are exact payload paths (e.g. "body.content") skipped
	// by the injection detector; they carry generated prose.
	ExcludedPaths []string `mapstructure:"excluded_paths"`

	// Sanitizer and Monitor are decoded by their consumers with
	// mapstructure, matching the option shapes those packages define.
	Sanitizer map[string]interface{} `mapstructure:"sanitizer"`
	Monitor   map[string]interface{} `mapstructure:"monitor"`

	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Headers HeadersConfig `mapstructure:"headers"`
}

type AlertsConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type HeadersConfig struct {
	FrameDeny             bool   `mapstructure:"frame_deny"`
	ContentTypeNosniff    bool   `mapstructure:"content_type_nosniff"`
	BrowserXSSFilter      bool   `mapstructure:"browser_xss_filter"`
	STSSeconds            int    `mapstructure:"sts_seconds"`
	STSIncludeSubdomains  bool   `mapstructure:"sts_include_subdomains"`
	ReferrerPolicy        string `mapstructure:"referrer_policy"`
	ContentSecurityPolicy string `mapstructure:"content_security_policy"`
}

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("could not load main config file: %w", err)
	}

	setDefaultValues()
	return nil
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues() {
	if globalConfig.Server.AdminPort == 0 {
		globalConfig.Server.AdminPort = 8081
	}
	if globalConfig.Server.MetricsPort == 0 {
		globalConfig.Server.MetricsPort = 9090
	}
	if len(globalConfig.Security.ExcludedPaths) == 0 {
		globalConfig.Security.ExcludedPaths = []string{
			"body.content",
			"body.title",
			"body.description",
			"body.keyword",
			"body.primaryKeyword",
			"body.callToAction",
		}
	}
	if globalConfig.Security.Alerts.TimeoutSeconds == 0 {
		globalConfig.Security.Alerts.TimeoutSeconds = 5
	}
}

func GetConfig() *Config {
	return &globalConfig
}
