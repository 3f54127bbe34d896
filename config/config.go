package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/levonmo/toff/conts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var instance *Config

type Config struct {
	MongodbUrl string `json:"mongodb_url" yaml:"mongodb_url"`

	ElasticsearchUrl      string `json:"elasticsearch_url" yaml:"elasticsearch_url"`
	ElasticsearchUsername string `json:"elasticsearch_username" yaml:"elasticsearch_username"`
	ElasticsearchPassword string `json:"elasticsearch_password" yaml:"elasticsearch_password"`

	DisplayBatchSize int    `json:"display_batch_size" yaml:"display_batch_size"`
	LogLevel         string `json:"log_level" yaml:"log_level"`
}

func GetInstance() *Config {
	return instance
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MongodbUrl:       conts.DefaultMongodbUrl,
		DisplayBatchSize: conts.DefaultDisplayBatchSize,
	}
}

// Load reads a JSON file, or YAML when the name ends in .yaml or .yml, fills
// in defaults and publishes the result through GetInstance.
func Load(path string) (*Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file '%s'", path)
	}
	conf := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, conf)
	default:
		err = json.Unmarshal(bytes, conf)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing config file '%s'", path)
	}
	if conf.MongodbUrl == "" {
		conf.MongodbUrl = conts.DefaultMongodbUrl
	}
	if conf.DisplayBatchSize < 1 {
		conf.DisplayBatchSize = conts.DefaultDisplayBatchSize
	}
	instance = conf
	return conf, nil
}

// Set publishes conf through GetInstance.
func Set(conf *Config) {
	instance = conf
}
