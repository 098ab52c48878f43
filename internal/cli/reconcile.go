package cli

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tcfw/sigil/pkg/cryptography"
	"github.com/tcfw/sigil/pkg/sigchain"
)

var (
	importCmd = &cobra.Command{
		Use:   "import <segment-file>",
		Short: "merge a foreign chain segment into the local chain",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
)

func init() {
	importCmd.Flags().String("root", "", "claimed head hash of the foreign segment (multibase)")
	importCmd.MarkFlagRequired("root")
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	d, err := ioutil.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading segment")
	}

	links, err := sigchain.UnmarshalSegment(d)
	if err != nil {
		return err
	}

	rootArg, _ := cmd.Flags().GetString("root")
	claimed, err := cryptography.DecodeMultibase(rootArg)
	if err != nil {
		return errors.Wrap(err, "decoding claimed root")
	}

	r, err := sigchain.NewReconciler(cmd.Context(), e.chain, e.store)
	if err != nil {
		return err
	}

	l, err := r.Import(cmd.Context(), links, sigchain.Hash(claimed))
	if err != nil {
		return err
	}

	fmt.Printf("imported %d foreign links, commitment seqno=%d\n", len(links), l.Seqno)

	return nil
}
