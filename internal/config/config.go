package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Autosave  AutosaveConfig  `yaml:"autosave"`
	Schema    SchemaConfig    `yaml:"schema"`
	Page      PageConfig      `yaml:"page"`
	Features  FeaturesConfig  `yaml:"features"`
	Server    ServerConfig    `yaml:"server"`
	Print     PrintConfig     `yaml:"print"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type StorageConfig struct {
	// Driver is one of memory, sqlite, bolt, redis, s3.
	Driver      string `yaml:"driver" default:"sqlite"`
	Prefix      string `yaml:"prefix" default:"boxsuk-assignment_"`
	Path        string `yaml:"path" default:"abubox.db"`
	Compression string `yaml:"compression" default:"zstd"`
	// QuotaBytes caps the memory driver; zero means unlimited.
	QuotaBytes int         `yaml:"quota_bytes" default:"0"`
	Redis      RedisConfig `yaml:"redis"`
	S3         S3Config    `yaml:"s3"`
}

type RedisConfig struct {
	URL string `yaml:"url" default:"redis://localhost:6379/0"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket" default:"abubox"`
	Endpoint        string `yaml:"endpoint" default:""`
	Region          string `yaml:"region" default:"auto"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
}

type AutosaveConfig struct {
	DelayMS int `yaml:"delay_ms" default:"2000"`
}

// Delay is DelayMS as a duration.
func (a AutosaveConfig) Delay() time.Duration {
	return time.Duration(a.DelayMS) * time.Millisecond
}

// SchemaConfig selects a built-in variant; non-empty key fields override it.
type SchemaConfig struct {
	Variant  string `yaml:"variant" default:"auftrag"`
	SlotAKey string `yaml:"slot_a_key" default:""`
	SlotBKey string `yaml:"slot_b_key" default:""`
	LabelA   string `yaml:"label_a" default:""`
	LabelB   string `yaml:"label_b" default:""`
}

type PageConfig struct {
	DefaultAssignment string `yaml:"default_assignment" default:"defaultAssignment"`
	TitlePrefix       string `yaml:"title_prefix" default:"Aufgabe"`
	FallbackFilename  string `yaml:"fallback_filename" default:"antwort.txt"`
	ExportAllBasename string `yaml:"export_all_basename" default:"alle-antworten"`
	ReferrerSegment   string `yaml:"referrer_segment" default:"allgemeinbildung"`
}

// FeaturesConfig is the capability set of a page variant.
type FeaturesConfig struct {
	SlotB     bool `yaml:"slot_b" default:"true"`
	SavedView bool `yaml:"saved_view" default:"true"`
	DraftList bool `yaml:"draft_list" default:"true"`
	Copy      bool `yaml:"copy" default:"true"`
	Export    bool `yaml:"export" default:"true"`
	Print     bool `yaml:"print" default:"true"`
	Reset     bool `yaml:"reset" default:"true"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"127.0.0.1"`
	Port string `yaml:"port" default:"12700"`
	// MaxPages bounds the pages kept open; the least recently used one is closed first.
	MaxPages int `yaml:"max_pages" default:"64"`
}

type PrintConfig struct {
	OutputDir   string `yaml:"output_dir" default:"prints"`
	TimeoutSecs int    `yaml:"timeout_secs" default:"30"`
	ChromePath  string `yaml:"chrome_path" default:""`
}

type ClipboardConfig struct {
	OSC52Fallback bool `yaml:"osc52_fallback" default:"true"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

// Environment overrides for secrets that should not live in the YAML file.
const (
	EnvRedisURL          = "ABUBOX_REDIS_URL"
	EnvS3AccessKeyID     = "ABUBOX_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "ABUBOX_S3_SECRET_ACCESS_KEY"
	EnvStorageDriver     = "ABUBOX_STORAGE_DRIVER"
)

// Default returns a Config with every default tag applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path over the defaults. A missing file is not an error.
// A .env file in the working directory is loaded first, if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		configLogger.Warn().Err(err).Msg("Error loading .env file")
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		applyEnv(cfg)
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Storage.Redis.URL = v
	}
	if v := os.Getenv(EnvS3AccessKeyID); v != "" {
		cfg.Storage.S3.AccessKeyID = v
	}
	if v := os.Getenv(EnvS3SecretAccessKey); v != "" {
		cfg.Storage.S3.SecretAccessKey = v
	}
	if v := os.Getenv(EnvStorageDriver); v != "" {
		cfg.Storage.Driver = v
	}
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
