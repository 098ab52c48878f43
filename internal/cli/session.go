package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tcfw/sigil/pkg/sigchain"
)

var (
	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "session operations",
	}

	session_recordCmd = &cobra.Command{
		Use:   "record",
		Short: "open a session, append one event per stdin line, close and anchor on EOF",
		RunE:  runSessionRecord,
	}
)

func runSessionRecord(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := e.anchorer()
	if err != nil {
		return err
	}

	mgr, err := sigchain.NewSessionManager(e.chain, a,
		sigchain.WithIdleTimeout(e.cfg.Chain().IdleTimeout))
	if err != nil {
		return err
	}

	if _, err := mgr.Start(); err != nil {
		return err
	}

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		p := &sigchain.EntryPayload{Class: line}
		if class, note, ok := strings.Cut(line, " "); ok {
			p.Class = class
			p.Note = note
		}

		l, err := mgr.Append(cmd.Context(), sigchain.EventTypeEntry, p)
		if err != nil {
			return err
		}

		fmt.Printf("appended seqno=%d\n", l.Seqno)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	s, err := mgr.End(cmd.Context())
	if err != nil {
		return err
	}

	if s.EndSeqno == 0 {
		fmt.Println("session closed (empty, no batch)")
		return nil
	}

	fmt.Printf("session closed: seqno %d..%d anchored\n", s.StartSeqno, s.EndSeqno)

	return nil
}
