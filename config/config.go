package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "parkman.yaml"

// Config carries the per-kind output directories and namespaces handed to
// the generator, plus the inputs the CLI needs to find things.
type Config struct {
	Schema      string     `yaml:"schema" mapstructure:"schema"`
	Operations  string     `yaml:"operations,omitempty" mapstructure:"operations"`
	Stubs       string     `yaml:"stubs,omitempty" mapstructure:"stubs"`
	SeederCount int        `yaml:"seeder_count" mapstructure:"seeder_count"`
	Paths       Paths      `yaml:"paths" mapstructure:"paths"`
	Namespaces  Namespaces `yaml:"namespaces" mapstructure:"namespaces"`

	DatabaseURL string `yaml:"-" mapstructure:"database_url"`
}

type Paths struct {
	Models      string `yaml:"models" mapstructure:"models"`
	Migrations  string `yaml:"migrations" mapstructure:"migrations"`
	Controllers string `yaml:"controllers" mapstructure:"controllers"`
	Services    string `yaml:"services" mapstructure:"services"`
	Factories   string `yaml:"factories" mapstructure:"factories"`
	Seeders     string `yaml:"seeders" mapstructure:"seeders"`
}

type Namespaces struct {
	Models      string `yaml:"models" mapstructure:"models"`
	Controllers string `yaml:"controllers" mapstructure:"controllers"`
	Services    string `yaml:"services" mapstructure:"services"`
	Factories   string `yaml:"factories" mapstructure:"factories"`
	Seeders     string `yaml:"seeders" mapstructure:"seeders"`
}

// Default returns the layout of a stock Laravel application.
func Default() Config {
	return Config{
		Schema:      "schema.prisma",
		SeederCount: 10,
		Paths: Paths{
			Models:      "app/Models",
			Migrations:  "database/migrations",
			Controllers: "app/Http/Controllers/Api",
			Services:    "app/Services",
			Factories:   "database/factories",
			Seeders:     "database/seeders",
		},
		Namespaces: Namespaces{
			Models:      `App\Models`,
			Controllers: `App\Http\Controllers\Api`,
			Services:    `App\Services`,
			Factories:   `Database\Factories`,
			Seeders:     `Database\Seeders`,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error, so a
// project without parkman.yaml gets the stock layout. The environment
// (and a .env file, if present) supplies DATABASE_URL.
func Load(path string) (Config, error) {
	LoadEnv()

	if path == "" {
		path = DefaultFile
	}

	v := viper.New()
	setDefaults(v, Default())
	if err := v.BindEnv("database_url", "DATABASE_URL"); err != nil {
		return Default(), err
	}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Default(), fmt.Errorf("reading config file: %w", err)
	default:
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Default(), fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("unmarshalling config %s: %w", path, err)
	}
	cfg.DatabaseURL = v.GetString("database_url")
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("schema", d.Schema)
	v.SetDefault("operations", d.Operations)
	v.SetDefault("stubs", d.Stubs)
	v.SetDefault("seeder_count", d.SeederCount)

	v.SetDefault("paths.models", d.Paths.Models)
	v.SetDefault("paths.migrations", d.Paths.Migrations)
	v.SetDefault("paths.controllers", d.Paths.Controllers)
	v.SetDefault("paths.services", d.Paths.Services)
	v.SetDefault("paths.factories", d.Paths.Factories)
	v.SetDefault("paths.seeders", d.Paths.Seeders)

	v.SetDefault("namespaces.models", d.Namespaces.Models)
	v.SetDefault("namespaces.controllers", d.Namespaces.Controllers)
	v.SetDefault("namespaces.services", d.Namespaces.Services)
	v.SetDefault("namespaces.factories", d.Namespaces.Factories)
	v.SetDefault("namespaces.seeders", d.Namespaces.Seeders)
}

// LoadEnv loads .env into the process environment when one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}

// Marshal renders cfg as YAML, for writing a starter file.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
