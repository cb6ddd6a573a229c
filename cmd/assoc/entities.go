package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/coolbeans/assockit/pkg/entity"
)

func entitiesCmd() *cobra.Command {
	var showIDs bool

	cmd := &cobra.Command{
		Use:   "entities GPI...",
		Short: "Load GPI side tables and summarise their subjects",
		Long: `Load one or more GPI files into a single registry. Later files win when
the same subject appears twice.

Example:
  assoc entities mgi.gpi
  assoc entities mgi.gpi complexportal.gpi --ids`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			registry := entity.NewRegistry()
			for _, path := range args {
				loaded, err := entity.LoadWithLogger(path, logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d entities\n", path, loaded.Len())
				registry.Merge(loaded)
			}

			byType := make(map[string]int)
			byTaxon := make(map[string]int)
			for _, id := range registry.IDs() {
				subject, _ := registry.Get(id)
				byType[subject.Type]++
				byTaxon[subject.Taxon.String()]++
			}

			fmt.Fprintf(out, "\nTotal: %d entities\n", registry.Len())
			printCounts(cmd, "By type", byType)
			printCounts(cmd, "By taxon", byTaxon)

			if showIDs {
				fmt.Fprintln(out, "\nIDs:")
				for _, id := range registry.IDs() {
					fmt.Fprintf(out, "  %s\n", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showIDs, "ids", false, "List every subject id")
	return cmd
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", title)
	for _, key := range keys {
		label := key
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-30s %d\n", label, counts[key])
	}
}
