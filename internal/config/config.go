// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	HTTP HTTPServer `yaml:"http"`

	ValKey    ValKey    `yaml:"valkey"`
	Broker    Broker    `yaml:"broker"`
	Templates Templates `yaml:"templates"`
	Ceremony  Ceremony  `yaml:"ceremony"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
}

type ValKey struct {
	// Enabled switches sign-in persistence from in-memory to Valkey.
	Enabled  bool                `yaml:"enabled"`
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	Prefix   string              `yaml:"prefix" default:"ceremony-manager"`
}

type Broker struct {
	// Kind selects the credential broker implementation. "softauthn"
	// runs the in-process software authenticator.
	Kind   string `yaml:"kind" default:"softauthn"`
	RPID   string `yaml:"rpID" default:"localhost"`
	RPName string `yaml:"rpName" default:"Pawskey"`
	Origin string `yaml:"origin" default:"http://localhost:8080"`
}

type Templates struct {
	Dir string        `yaml:"dir" default:"./templates"`
	TTL time.Duration `yaml:"ttl" default:"5m"`
}

type Ceremony struct {
	RequireUserVerification bool                `yaml:"requireUserVerification" default:"true"`
	CSRFSecret              commoncfg.SourceRef `yaml:"csrfSecret"`
}
