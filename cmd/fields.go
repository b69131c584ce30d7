/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package cmd

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnotu/pkg/ontology"
	"github.com/spf13/cobra"
)

func getFieldsCmd() *cobra.Command {
	var vocabulary string

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "Print contextual field definitions",
		Long: `Print contextual field definitions as JSON, sorted by display name.

With --vocabulary print id/label pairs of a vocabulary instead, for
example of an ontology field or of a taxonomic rank.

Examples:
  gnotu fields
  gnotu fields --vocabulary environment
  gnotu fields --vocabulary phylum`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data any = reg.Definitions()
			if vocabulary != "" {
				ctx := cmd.Context()
				b, err := openBackend(ctx, cfg)
				if err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
				defer b.Close()

				cat := ontology.New(b.store, reg.Vocabularies()...)
				if data, err = cat.Values(ctx, vocabulary); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}
			return printJSON(cmd, data)
		},
	}

	fieldsCmd.Flags().StringVar(&vocabulary, "vocabulary", "",
		"print entries of a vocabulary")
	return fieldsCmd
}

func printJSON(cmd *cobra.Command, data any) error {
	enc := gnfmt.GNjson{Pretty: true}
	bs, err := enc.Encode(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bs))
	return err
}
