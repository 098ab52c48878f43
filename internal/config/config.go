package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	defaults = map[string]interface{}{
		"verbose":              false,
		"chain.repo":           "./.sigil",
		"chain.device":         "networked",
		"session.idle_timeout": "15m",
		"transport.max_chunk":  512,
	}
)

func init() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

func GetConfig() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("sigil")
	viper.AddConfigPath("/etc/sigil/")
	viper.AddConfigPath("$HOME/.sigil")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("SIGIL")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
			logrus.New().Warnf("no config found")
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	c := &Config{}

	c.chain, err = buildChainConfig()
	if err != nil {
		return nil, errors.Wrap(err, "chain config")
	}

	c.notary, err = buildNotaryConfig()
	if err != nil {
		return nil, errors.Wrap(err, "notary config")
	}

	if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.WithField("level", "debug").Debug("setting log level")
	}

	return c, nil
}

type Config struct {
	chain  *Chain
	notary *Notary
}

func (c *Config) Chain() *Chain {
	return c.chain
}

func (c *Config) Notary() *Notary {
	return c.notary
}

func (c *Config) MaxChunk() int {
	return viper.GetInt("transport.max_chunk")
}
