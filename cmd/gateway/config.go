package main

import (
	"encoding/json"
	"flag"
	"os"
	"path"
	"strings"

	"github.com/omeid/uconfig"
	"github.com/omeid/uconfig/plugins"
	"github.com/omeid/uconfig/plugins/file"
	"github.com/rs/zerolog/log"
)

// configFilename is the filename of the config file automatically loaded.
var configFilename = "config.json"

type config struct {
	Dir string

	Archive ArchiveConfig
	HTTP    HTTPConfig
	Partial PartialConfig

	Metrics struct {
		Port string `default:"9090"`
	}
	Log struct {
		Human bool `default:"false"`
		Debug bool `default:"false"`
	}
}

// ArchiveConfig holds the Postgres connection the batch loader reads from.
type ArchiveConfig struct {
	PostgresURI string `default:"" env:"ARCHIVE_POSTGRES_URI"`
}

// HTTPConfig contains configuration for the HTTP server serving the batch,
// metadata, and status operations.
type HTTPConfig struct {
	Port string `default:"8080"`
}

// PartialConfig tunes the Partial Controller's windowed sweep.
type PartialConfig struct {
	// Budget is the soft wall-clock budget a limit-less batch request's
	// window sweep runs for, parsed with time.ParseDuration.
	Budget string `default:"15s"`
}

func setupConfig() (*config, string) {
	flagDirPath := flag.String("dir", "${HOME}/.archive-gateway", "Directory where the configuration exists")
	flag.Parse()
	if flagDirPath == nil {
		log.Fatal().Msg("--dir is null")
		return nil, ""
	}
	dirPath := os.ExpandEnv(*flagDirPath)

	_ = os.MkdirAll(dirPath, 0o755)

	var plugs []plugins.Plugin
	fullPath := path.Join(dirPath, configFilename)
	configFileBytes, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		log.Info().Str("config_file_path", fullPath).Msg("config file not found")
	} else if err != nil {
		log.Fatal().Str("config_file_path", fullPath).Err(err).Msg("opening config file")
	} else {
		fileStr := os.ExpandEnv(string(configFileBytes))
		plugs = append(plugs, file.NewReader(strings.NewReader(fileStr), json.Unmarshal))
	}

	conf := &config{}
	c, err := uconfig.Classic(&conf, file.Files{}, plugs...)
	if err != nil {
		c.Usage()
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	return conf, dirPath
}
