package cli

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tcfw/sigil/internal/config"
	"github.com/tcfw/sigil/pkg/transport"
)

var (
	transportCmd = &cobra.Command{
		Use:   "transport",
		Short: "frame encoding for visual-media transfer",
	}

	transport_encodeCmd = &cobra.Command{
		Use:   "encode <file>",
		Short: "encode a payload into transfer frames, one per line",
		Args:  cobra.ExactArgs(1),
		RunE:  runTransportEncode,
	}

	transport_decodeCmd = &cobra.Command{
		Use:   "decode",
		Short: "reassemble a payload from frame lines on stdin",
		RunE:  runTransportDecode,
	}
)

func init() {
	transport_decodeCmd.Flags().Int("total", 0, "expected frame count")
	transport_decodeCmd.Flags().String("out", "", "write payload to file instead of stdout")
}

func runTransportEncode(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	payload, err := ioutil.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading payload")
	}

	c, err := transport.NewCodec()
	if err != nil {
		return err
	}

	frames, err := c.Encode(payload, cfg.MaxChunk())
	if err != nil {
		return err
	}

	for _, f := range frames {
		fmt.Println(f.String())
	}

	return nil
}

func runTransportDecode(cmd *cobra.Command, args []string) error {
	total, _ := cmd.Flags().GetInt("total")

	var frames []transport.Frame

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		f, err := transport.ParseFrame(line)
		if err != nil {
			return err
		}

		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	if total == 0 && len(frames) > 0 {
		total = frames[0].Total
	}

	c, err := transport.NewCodec()
	if err != nil {
		return err
	}

	payload, err := c.Decode(frames, total)
	if err != nil {
		return err
	}

	if outFile, _ := cmd.Flags().GetString("out"); outFile != "" {
		return ioutil.WriteFile(outFile, payload, 0600)
	}

	_, err = os.Stdout.Write(payload)
	return err
}
