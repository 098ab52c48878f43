package cli

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tcfw/sigil/internal/config"
	"github.com/tcfw/sigil/internal/keys"
	"github.com/tcfw/sigil/internal/notary"
	"github.com/tcfw/sigil/internal/storage"
	"github.com/tcfw/sigil/pkg/anchor"
	"github.com/tcfw/sigil/pkg/cryptography"
	"github.com/tcfw/sigil/pkg/sigchain"
)

var (
	rootCmd = &cobra.Command{
		Use:   "sigil",
		Short: "append-only security event chain with external anchoring",
	}
)

func Execute() error {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase verbosity")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	regCommands()

	return rootCmd.Execute()
}

// env bundles the stores a command needs, built from config.
type env struct {
	cfg   *config.Config
	store *storage.PebbleStore
	chain *sigchain.Store
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}

	store, err := storage.NewPebbleStore(cfg.Chain().Repo)
	if err != nil {
		return nil, errors.Wrap(err, "opening chain repo")
	}

	opts := []sigchain.Option{
		sigchain.WithDevice(sigchain.DeviceRole(cfg.Chain().Device)),
	}

	if cfg.Chain().KeyFile != "" {
		ks, err := keys.NewFileStore(cfg.Chain().KeyFile)
		if err != nil {
			store.Close()
			return nil, errors.Wrap(err, "opening key file")
		}

		if s := ks.Signer(cfg.Chain().Device); s != nil {
			pub, err := s.Public()
			if err != nil {
				store.Close()
				return nil, errors.Wrap(err, "deriving verify key")
			}

			opts = append(opts, sigchain.WithSigner(s), sigchain.WithVerifyKey(pub))
		}
	}

	chain, err := sigchain.NewStore(cmd.Context(), store, opts...)
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "opening chain")
	}

	return &env{cfg: cfg, store: store, chain: chain}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func (e *env) anchorer() (*anchor.Anchor, error) {
	n, err := e.notary()
	if err != nil {
		return nil, err
	}

	return anchor.New(e.store, n)
}

func (e *env) notary() (anchor.Notary, error) {
	ncfg := e.cfg.Notary()

	if ncfg.Journal == "" {
		return nil, errors.New("no notary configured")
	}

	raw, err := cryptography.DecodeMultibase(ncfg.SigningKey)
	if err != nil {
		return nil, errors.Wrap(err, "decoding notary key")
	}

	return notary.NewFileNotary(ncfg.Journal, ed25519.PrivateKey(raw))
}
