package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/smazurov/multistream/internal/config"
	"github.com/smazurov/multistream/internal/process"
	"github.com/spf13/cobra"
)

func newCheckCmd(global *globalOptions) *cobra.Command {
	opts := &options{}
	var showKeys bool

	cmd := &cobra.Command{
		Use:   "check [flags] key...",
		Short: "Resolve the configuration and print the commands run would launch",
		Long: `Resolve flags, environment and config file exactly as run does, check the
encoder program is on PATH, and print one command line per child without
starting anything. Stream keys are masked unless --show-keys is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := opts.load(cmd, global.Config, args)
			if err != nil {
				return err
			}
			setupLogging(cmd, global)

			specs, err := loaded.resolve()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tCHILD\tCOMMAND")
			for i, line := range commandLines(specs, loaded.Keys, showKeys) {
				fmt.Fprintf(w, "%d\t%s\t%s\n", i, specs[i].Name, line)
			}
			return w.Flush()
		},
	}

	addStreamFlags(cmd.Flags(), opts)
	cmd.Flags().BoolVar(&showKeys, "show-keys", false, "Print stream keys in full")
	return cmd
}

// commandLines renders each spec's command line, masking keys unless
// showKeys is set.
func commandLines(specs []process.ChildSpec, keys []string, showKeys bool) []string {
	var replacer *strings.Replacer
	if !showKeys {
		pairs := make([]string, 0, 2*len(keys))
		for _, key := range keys {
			if masked := config.MaskKey(key); masked != key {
				pairs = append(pairs, key, masked)
			}
		}
		replacer = strings.NewReplacer(pairs...)
	}

	lines := make([]string, len(specs))
	for i, spec := range specs {
		lines[i] = spec.CommandLine()
		if replacer != nil {
			lines[i] = replacer.Replace(lines[i])
		}
	}
	return lines
}
