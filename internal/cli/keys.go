package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tcfw/sigil/internal/config"
	"github.com/tcfw/sigil/internal/keys"
	"github.com/tcfw/sigil/pkg/cryptography"
)

var (
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "device signing key operations",
	}

	keys_addCmd = &cobra.Command{
		Use:   "add <device>",
		Short: "generate and store a signing key for a device",
		Args:  cobra.ExactArgs(1),
		RunE:  runKeysAdd,
	}
)

func init() {
	keys_addCmd.Flags().String("type", cryptography.KeyTypeEd25519, "key type: ed25519, secp256k1 or bls12381")
}

func runKeysAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	if cfg.Chain().KeyFile == "" {
		return errors.New("no key file configured")
	}

	ks, err := keys.NewFileStore(cfg.Chain().KeyFile)
	if err != nil {
		return err
	}

	device := args[0]
	if ks.Signer(device) != nil {
		return errors.Errorf("device %s already has a key", device)
	}

	keyType, _ := cmd.Flags().GetString("type")

	var s cryptography.Signer

	switch keyType {
	case cryptography.KeyTypeEd25519:
		s, err = cryptography.NewEd25519PrivateKey()
	case cryptography.KeyTypeSecp256k1:
		s, err = cryptography.NewSecp256k1PrivateKey()
	case cryptography.KeyTypeBls12381:
		s = cryptography.NewBls12381PrivateKey()
	default:
		return errors.Errorf("unsupported key type: %s", keyType)
	}
	if err != nil {
		return errors.Wrap(err, "generating key")
	}

	if err := ks.Add(device, keyType, s); err != nil {
		return err
	}

	pub, err := s.Public()
	if err != nil {
		return err
	}

	mb, err := cryptography.EncodeMultibase(pub)
	if err != nil {
		return err
	}

	fmt.Printf("added %s key for %s, public key %s\n", keyType, device, mb)

	return nil
}
