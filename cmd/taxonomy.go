/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/query"
	"github.com/gnames/gnotu/pkg/taxonomy"
	"github.com/spf13/cobra"
)

func getTaxonomyCmd() *cobra.Command {
	var amplicon, selected, search string
	var limit int

	taxonomyCmd := &cobra.Command{
		Use:   "taxonomy [QUERY.json]",
		Short: "Show values selectable at the next taxonomic rank",
		Long: `Show values selectable at the first rank that is not selected yet or
matches no taxa, together with the ranks to clear.

The selection comes from the amplicon and taxonomy filters of a query
file, or from --amplicon and --selected. An empty result '{}' means the
selection is complete and valid.

With --search print taxa with lineages containing the text instead.

Examples:
  gnotu taxonomy --amplicon '{"value": 1}'
  gnotu taxonomy --selected '[{"value": 2}, null, null, null, null, null, null]'
  gnotu taxonomy query.json
  gnotu taxonomy --search bacill`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := openBackend(ctx, cfg)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer b.Close()

			res := taxonomy.New(b.store, b.cache)
			if search != "" {
				taxa, err := res.SearchTaxa(ctx, search, limit)
				if err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
				for _, v := range taxa {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", v.ID, v.Code)
				}
				gn.Info("Found <em>%s</em> taxa", humanize.Comma(int64(len(taxa))))
				return nil
			}

			var data []byte
			if len(args) == 1 {
				if data, err = readInput(args[0]); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			} else {
				data = selectionJSON(amplicon, selected)
			}

			p, err := query.ParseParams(data, reg)
			if err != nil {
				err = query.InvalidQueryError(err)
				gn.PrintErrorMessage(err)
				return err
			}
			out, err := res.Possibilities(ctx, p.Amplicon, p.Taxonomy)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return printJSON(cmd, out)
		},
	}

	taxonomyCmd.Flags().StringVar(&amplicon, "amplicon", "",
		`amplicon filter, for example '{"operator": "is", "value": 1}'`)
	taxonomyCmd.Flags().StringVar(&selected, "selected", "",
		"JSON array of 7 taxonomy filters, kingdom to species")
	taxonomyCmd.Flags().StringVarP(&search, "search", "s", "",
		"search taxa by lineage substring")
	taxonomyCmd.Flags().IntVarP(&limit, "limit", "l", 20,
		"maximum number of found taxa, 0 means all")
	return taxonomyCmd
}

// selectionJSON builds a search request from the flag values.
func selectionJSON(amplicon, selected string) []byte {
	if amplicon == "" {
		amplicon = "null"
	}
	if selected == "" {
		selected = "null"
	}
	return []byte(`{"amplicon_filter":` + amplicon +
		`,"taxonomy_filters":` + selected + `}`)
}
