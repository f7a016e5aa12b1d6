package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sentivault/internal/flagx"
	"github.com/dmitrijs2005/sentivault/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of Config. Keys missing from the file keep
// the value Config already had.
type FileConfig struct {
	HTTPAddr         string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr         string         `json:"grpc_addr" yaml:"grpc_addr"`
	DatabaseDSN      string         `json:"database_dsn" yaml:"database_dsn"`
	StorageBackend   string         `json:"storage_backend" yaml:"storage_backend"`
	StorageBaseDir   string         `json:"storage_base_dir" yaml:"storage_base_dir"`
	EncryptionKeyHex string         `json:"encryption_key" yaml:"encryption_key"`
	MaxMediaBytes    int64          `json:"max_media_bytes" yaml:"max_media_bytes"`
	S3RootUser       string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region         string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	KafkaBrokers     []string       `json:"kafka_brokers" yaml:"kafka_brokers"`
	KafkaTopic       string         `json:"kafka_topic" yaml:"kafka_topic"`
	SweepSchedule    string         `json:"sweep_schedule" yaml:"sweep_schedule"`
	SweepGracePeriod timex.Duration `json:"sweep_grace_period" yaml:"sweep_grace_period"`
	LogLevel         string         `json:"log_level" yaml:"log_level"`
}

func fileConfigFrom(c *Config) *FileConfig {
	return &FileConfig{
		HTTPAddr:         c.HTTPAddr,
		GRPCAddr:         c.GRPCAddr,
		DatabaseDSN:      c.DatabaseDSN,
		StorageBackend:   c.StorageBackend,
		StorageBaseDir:   c.StorageBaseDir,
		EncryptionKeyHex: c.EncryptionKeyHex,
		MaxMediaBytes:    c.MaxMediaBytes,
		S3RootUser:       c.S3RootUser,
		S3RootPassword:   c.S3RootPassword,
		S3Bucket:         c.S3Bucket,
		S3Region:         c.S3Region,
		S3BaseEndpoint:   c.S3BaseEndpoint,
		KafkaBrokers:     c.KafkaBrokers,
		KafkaTopic:       c.KafkaTopic,
		SweepSchedule:    c.SweepSchedule,
		SweepGracePeriod: timex.Duration{Duration: c.SweepGracePeriod},
		LogLevel:         c.LogLevel,
	}
}

func (f *FileConfig) apply(c *Config) {
	c.HTTPAddr = f.HTTPAddr
	c.GRPCAddr = f.GRPCAddr
	c.DatabaseDSN = f.DatabaseDSN
	c.StorageBackend = f.StorageBackend
	c.StorageBaseDir = f.StorageBaseDir
	c.EncryptionKeyHex = f.EncryptionKeyHex
	c.MaxMediaBytes = f.MaxMediaBytes
	c.S3RootUser = f.S3RootUser
	c.S3RootPassword = f.S3RootPassword
	c.S3Bucket = f.S3Bucket
	c.S3Region = f.S3Region
	c.S3BaseEndpoint = f.S3BaseEndpoint
	c.KafkaBrokers = f.KafkaBrokers
	c.KafkaTopic = f.KafkaTopic
	c.SweepSchedule = f.SweepSchedule
	c.SweepGracePeriod = f.SweepGracePeriod.Duration
	c.LogLevel = f.LogLevel
}

// LoadFile overlays the JSON or YAML file at path onto config. Files ending
// in .yaml or .yml are read as YAML, everything else as JSON.
func LoadFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := fileConfigFrom(config)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

// parseFile loads the file named by -c/-config, if any. A file that cannot
// be read or parsed is fatal.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}
	if err := LoadFile(config, path); err != nil {
		panic(err)
	}
}
