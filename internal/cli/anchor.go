package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcfw/sigil/pkg/cryptography"
)

var (
	anchorCmd = &cobra.Command{
		Use:   "anchor",
		Short: "anchor proof operations",
	}

	anchor_upgradeCmd = &cobra.Command{
		Use:   "upgrade",
		Short: "poll all pending anchor proofs",
		RunE:  runAnchorUpgrade,
	}

	anchor_statusCmd = &cobra.Command{
		Use:   "status [root]",
		Short: "show anchor proof state, all proofs when no root given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnchorStatus,
	}
)

func runAnchorUpgrade(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := e.anchorer()
	if err != nil {
		return err
	}

	return a.UpgradeAll(cmd.Context())
}

func runAnchorStatus(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if len(args) == 1 {
		root, err := cryptography.DecodeMultibase(args[0])
		if err != nil {
			return err
		}

		p, err := e.store.GetProof(cmd.Context(), root)
		if err != nil {
			return err
		}

		fmt.Printf("%s attempts=%d\n", p.State, p.Attempts)
		return nil
	}

	proofs, err := e.store.LoadProofs(cmd.Context())
	if err != nil {
		return err
	}

	for _, p := range proofs {
		fmt.Printf("%x %s attempts=%d\n", p.Root, p.State, p.Attempts)
	}

	return nil
}
