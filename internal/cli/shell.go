package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewise/internal/logging"
	"github.com/ppiankov/casewise/internal/pipeline"
	"github.com/ppiankov/casewise/internal/synonym"
)

var watchSynonyms bool

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Match descriptions interactively, one per line",
	Long: `Shell reads one description per line and prints the closest case for
each, asking clarification questions when needed.

Commands:
  :reload   reload the synonym tables
  :help     show this help
  :quit     leave the shell

With --watch, synonym files are reloaded as soon as they change on disk.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().BoolVar(&watchSynonyms, "watch", false, "reload synonym files when they change")
	shellCmd.Flags().BoolVar(&noAsk, "no-ask", false, "never ask clarification questions")
}

func runShell(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	watcher := synonym.NewWatcher(a.tables, a.cfg.Synonyms.Sources, a.logger)
	watcher.OnReload(func(gen uint64, err error) {
		if err != nil {
			fmt.Fprintf(errOut, "✗ synonym reload failed: %v\n", err)
			return
		}
		fmt.Fprintf(errOut, "✓ synonyms reloaded (generation %d)\n", gen)
	})
	if watchSynonyms || a.cfg.Synonyms.Watch {
		go func() {
			if err := watcher.Run(ctx); err != nil {
				a.logger.Warn("synonym watcher stopped", logging.Err(err))
			}
		}()
	}

	in := bufio.NewReader(cmd.InOrStdin())
	renderer := pipeline.NewRenderer(false)
	ask := newAsker(in, errOut)
	if noAsk {
		ask = nil
	}

	fmt.Fprintf(errOut, "casewise %s: %d cases loaded. Type :help for commands.\n", version, a.library.Len())
	for {
		fmt.Fprint(errOut, "> ")
		line, err := in.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			fmt.Fprintln(errOut)
			return nil
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case ":quit", ":q", ":exit":
			return nil
		case ":help":
			fmt.Fprintln(errOut, "Type a description, or :reload, :quit")
			continue
		case ":reload":
			gen, err := watcher.Reload()
			if err != nil {
				fmt.Fprintf(errOut, "✗ synonym reload failed: %v\n", err)
			} else {
				fmt.Fprintf(errOut, "✓ synonyms reloaded (generation %d)\n", gen)
			}
			continue
		}

		outcome, err := a.reasoner.Reason(ctx, line, ask)
		if err != nil {
			fmt.Fprintf(errOut, "✗ %v\n", err)
			continue
		}
		fmt.Fprintln(out, renderer.Summary(outcome))
	}
}
