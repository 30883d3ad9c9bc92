// Package config loads the YAML configuration of the wordgain command.
//
// A file is optional: Default returns a working configuration that builds
// the sample dictionary into a local store. Values are validated with
// go-playground/validator after loading and after flags are applied.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreLocal  = "local"
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreS3     = "s3"
	StoreMinIO  = "minio"
)

// Config is the command configuration.
type Config struct {
	// Dictionary is a word list file. Empty selects the built-in sample.
	Dictionary string `yaml:"dictionary"`

	// WordLength is the length of every dictionary word.
	WordLength int `yaml:"word_length" validate:"min=1,max=32"`

	BatchSize int  `yaml:"batch_size" validate:"min=1"`
	Resume    bool `yaml:"resume"`

	// Workers bounds the goroutines computing one batch. 0 uses GOMAXPROCS.
	Workers int `yaml:"workers" validate:"min=0"`

	// MaxInFlight is the number of batches computed concurrently.
	MaxInFlight int `yaml:"max_in_flight" validate:"min=1"`

	// MemoryLimit bounds the memory reserved by in-flight batches, in bytes.
	MemoryLimit int64 `yaml:"memory_limit" validate:"min=0"`

	Strategy    string `yaml:"strategy" validate:"oneof=filter partition"`
	Compression string `yaml:"compression" validate:"oneof=none lz4 zstd"`

	Retry   Retry   `yaml:"retry"`
	Store   Store   `yaml:"store"`
	Metrics Metrics `yaml:"metrics"`
	Log     Log     `yaml:"log"`
}

// Retry configures commit retries.
type Retry struct {
	Max     int           `yaml:"max" validate:"min=0,max=100"`
	Backoff time.Duration `yaml:"backoff" validate:"min=0"`
}

// Store selects and configures the matrix store.
type Store struct {
	Kind string `yaml:"kind" validate:"oneof=local memory sqlite s3 minio"`

	// Dir is the directory of a local store.
	Dir string `yaml:"dir" validate:"required_if=Kind local"`

	// Path is the database file of a sqlite store.
	Path string `yaml:"path" validate:"required_if=Kind sqlite"`

	Bucket string `yaml:"bucket" validate:"required_if=Kind s3,required_if=Kind minio"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`

	// Endpoint is the host:port of a MinIO server.
	Endpoint  string `yaml:"endpoint" validate:"required_if=Kind minio"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`

	// DDBTable names the DynamoDB table guarding CURRENT on S3. Without it
	// only one builder may write a prefix at a time.
	DDBTable string `yaml:"ddb_table"`

	// CacheBytes bounds the decoded-segment cache of blob stores.
	CacheBytes int64 `yaml:"cache_bytes"`

	// KeepManifests is the number of manifest versions blob stores retain.
	// 0 keeps two.
	KeepManifests int `yaml:"keep_manifests" validate:"gte=0"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	// Addr is the listen address of /metrics. Empty disables it.
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		WordLength:  5,
		BatchSize:   10,
		MaxInFlight: 1,
		Strategy:    "filter",
		Compression: "zstd",
		Retry: Retry{
			Max:     3,
			Backoff: 100 * time.Millisecond,
		},
		Store: Store{
			Kind: StoreLocal,
			Dir:  "wordgain-data",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalid is matched by every validation failure of Validate.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks c.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Parse decodes YAML on top of Default and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func (c *Config) normalize() {
	c.Strategy = strings.ToLower(c.Strategy)
	c.Compression = strings.ToLower(c.Compression)
	c.Store.Kind = strings.ToLower(c.Store.Kind)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
