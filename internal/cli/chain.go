package cli

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tcfw/sigil/pkg/sigchain"
)

var (
	chainCmd = &cobra.Command{
		Use:   "chain",
		Short: "chain operations",
	}

	chain_appendCmd = &cobra.Command{
		Use:   "append <class> [note]",
		Short: "append one event link",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runChainAppend,
	}

	chain_verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "verify chain integrity",
		RunE:  runChainVerify,
	}

	chain_exportCmd = &cobra.Command{
		Use:   "export",
		Short: "export an ordered link range",
		RunE:  runChainExport,
	}
)

func init() {
	chain_appendCmd.Flags().String("data", "", "attach raw payload data from a file")

	chain_exportCmd.Flags().Uint64("from", 0, "first seqno to export")
	chain_exportCmd.Flags().Uint64("to", 0, "last seqno to export (0 = head)")
	chain_exportCmd.Flags().String("format", "yaml", "export format: yaml or wire")
	chain_exportCmd.Flags().String("out", "", "write to file instead of stdout")
}

func runChainAppend(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	p := &sigchain.EntryPayload{Class: args[0]}
	if len(args) > 1 {
		p.Note = args[1]
	}

	if dataFile, _ := cmd.Flags().GetString("data"); dataFile != "" {
		d, err := ioutil.ReadFile(dataFile)
		if err != nil {
			return errors.Wrap(err, "reading payload data")
		}
		p.Data = d
	}

	l, err := e.chain.Append(cmd.Context(), sigchain.EventTypeEntry, p)
	if err != nil {
		return err
	}

	fmt.Printf("appended seqno=%d hash=%s\n", l.Seqno, l.Hash)

	return nil
}

func runChainVerify(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	v, err := sigchain.NewVerifier(e.chain, e.store, e.store)
	if err != nil {
		return err
	}

	if err := v.FullVerify(cmd.Context()); err != nil {
		return err
	}

	head := e.chain.Head()
	if head == nil {
		fmt.Println("ok (empty chain)")
		return nil
	}

	fmt.Printf("ok (%d links, head %s)\n", head.Seqno, head.Hash)

	return nil
}

func runChainExport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	from, _ := cmd.Flags().GetUint64("from")
	to, _ := cmd.Flags().GetUint64("to")

	links, err := e.chain.Export(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")

	var out []byte

	switch format {
	case "yaml":
		out, err = yaml.Marshal(links)
	case "wire":
		out, err = sigchain.MarshalSegment(links)
	default:
		return errors.Errorf("unknown export format: %s", format)
	}
	if err != nil {
		return err
	}

	if outFile, _ := cmd.Flags().GetString("out"); outFile != "" {
		return ioutil.WriteFile(outFile, out, 0600)
	}

	_, err = os.Stdout.Write(out)
	return err
}
