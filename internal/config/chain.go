package config

import (
	"time"

	"github.com/spf13/viper"
)

type Chain struct {
	Repo        string
	Device      string
	KeyFile     string
	IdleTimeout time.Duration
}

const (
	Cfg_chain_repo        = "chain.repo"
	Cfg_chain_device      = "chain.device"
	Cfg_chain_keyFile     = "chain.keyfile"
	Cfg_session_idle      = "session.idle_timeout"
	Cfg_notary_journal    = "notary.journal"
	Cfg_notary_signingKey = "notary.key"
)

func buildChainConfig() (*Chain, error) {
	c := &Chain{
		Repo:        viper.GetString(Cfg_chain_repo),
		Device:      viper.GetString(Cfg_chain_device),
		KeyFile:     viper.GetString(Cfg_chain_keyFile),
		IdleTimeout: viper.GetDuration(Cfg_session_idle),
	}

	return c, nil
}

type Notary struct {
	Journal    string
	SigningKey string
}

func buildNotaryConfig() (*Notary, error) {
	n := &Notary{
		Journal:    viper.GetString(Cfg_notary_journal),
		SigningKey: viper.GetString(Cfg_notary_signingKey),
	}

	return n, nil
}
