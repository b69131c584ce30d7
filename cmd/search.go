/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/ontology"
	"github.com/gnames/gnotu/pkg/query"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type searchOutput struct {
	Count     int           `json:"count"`
	SampleIDs []int64       `json:"sample_ids"`
	Kingdoms  []kingdomOTUs `json:"kingdoms"`
	Headers   [][]any       `json:"headers,omitempty"`
}

type kingdomOTUs struct {
	ID      int    `json:"id"`
	Label   string `json:"label"`
	HasOTUs bool   `json:"has_otus"`
}

type fieldValuesOutput struct {
	Field  string `json:"field"`
	Values []any  `json:"values"`
}

type sampleOutput struct {
	ID          int64          `json:"id"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	Environment string         `json:"environment,omitempty"`
	Fields      map[string]any `json:"fields"`
}

func getSearchCmd() *cobra.Command {
	var (
		columns  []string
		sortCol  int
		sortDir  string
		valuesOf string
		sampleID int64
	)

	searchCmd := &cobra.Command{
		Use:   "search QUERY.json",
		Short: "Find samples matching a query",
		Long: `Find samples matching amplicon, taxonomy and contextual filters of a
query file ('-' reads STDIN). Prints ids of matching samples and, for
every kingdom, whether matching samples contain its taxa.

With --fields also print sample rows with the id, environment and the
given fields. --sort is an index into these columns.

Without a query file, --values prints distinct values of a contextual
field as suggestions, and --sample prints all fields of one sample.

Query file example:
  {
    "amplicon_filter": {"operator": "is", "value": 1},
    "taxonomy_filters": [{"operator": "is", "value": 2},
      null, null, null, null, null, null],
    "contextual_filters": {
      "mode": "and",
      "environment": {"operator": "is", "value": 1},
      "filters": [
        {"field": "elev", "operator": "between", "from": 100, "to": 500}
      ]
    }
  }

Examples:
  gnotu search query.json
  gnotu search query.json --fields elev,collection_date --sort 2 --dir desc
  gnotu search --values soil_type
  gnotu search --sample 102`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch {
			case valuesOf != "":
				return runFieldValues(cmd, valuesOf)
			case cmd.Flags().Changed("sample"):
				return runSample(cmd, sampleID)
			case len(args) == 0:
				err := errors.New("query file is required")
				gn.PrintErrorMessage(err)
				return err
			}

			data, err := readInput(args[0])
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			p, err := query.ParseParams(data, reg)
			if err != nil {
				err = query.InvalidQueryError(err)
				gn.PrintErrorMessage(err)
				return err
			}

			b, err := openBackend(ctx, cfg)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			defer b.Close()

			q, err := query.New(b.store, b.cache, reg, p)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			var out searchOutput
			if out.SampleIDs, err = q.MatchingSampleIDs(ctx); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			out.Count = len(out.SampleIDs)

			cat := ontology.New(b.store, reg.Vocabularies()...)
			if out.Kingdoms, err = kingdomsWithOTUs(ctx, q, cat, cfg.JobsNumber); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			if len(columns) > 0 {
				out.Headers, err = q.MatchingSampleHeaders(ctx, columns, sortCol, sortDir)
				if err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}

			gn.Info("Found <em>%s</em> samples", humanize.Comma(int64(out.Count)))
			return printJSON(cmd, out)
		},
	}

	searchCmd.Flags().StringSliceVar(&columns, "fields", nil,
		"contextual fields of sample rows")
	searchCmd.Flags().IntVar(&sortCol, "sort", 0,
		"index of the sort column among id, environment_id and fields")
	searchCmd.Flags().StringVar(&sortDir, "dir", "asc",
		"sort direction: asc or desc")
	searchCmd.Flags().StringVar(&valuesOf, "values", "",
		"print distinct values of a contextual field")
	searchCmd.Flags().Int64Var(&sampleID, "sample", 0,
		"print contextual fields of a sample")
	return searchCmd
}

func runFieldValues(cmd *cobra.Command, field string) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer b.Close()

	vals, err := query.FieldValues(ctx, b.store, b.cache, reg, field)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	gn.Info("Found <em>%s</em> values", humanize.Comma(int64(len(vals))))
	return printJSON(cmd, fieldValuesOutput{Field: field, Values: vals})
}

func runSample(cmd *cobra.Command, id int64) error {
	ctx := cmd.Context()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer b.Close()

	smp, err := query.Sample(ctx, b.store, id)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	cat := ontology.New(b.store, reg.Vocabularies()...)
	out, err := sampleDetail(ctx, smp, cat, reg)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	return printJSON(cmd, out)
}

// sampleDetail shows ontology fields of a sample as labels.
func sampleDetail(
	ctx context.Context,
	smp schema.Sample,
	cat *ontology.Catalog,
	reg *fields.Registry,
) (sampleOutput, error) {
	res := sampleOutput{ID: smp.ID, X: smp.X, Y: smp.Y, Fields: make(map[string]any)}
	if smp.EnvironmentID != nil {
		l, _, err := cat.Label(ctx, schema.EnvironmentVocabulary, *smp.EnvironmentID)
		if err != nil {
			return res, err
		}
		res.Environment = l
	}
	for k, v := range smp.Attrs {
		f, ok := reg.Lookup(k)
		if !ok || f.Kind != fields.Ontology {
			res.Fields[k] = v
			continue
		}
		id, ok := v.(int)
		if !ok {
			res.Fields[k] = v
			continue
		}
		l, found, err := cat.Label(ctx, f.Ontology, id)
		if err != nil {
			return res, err
		}
		if !found {
			res.Fields[k] = v
			continue
		}
		res.Fields[k] = l
	}
	return res, nil
}

// kingdomsWithOTUs checks every kingdom concurrently, at most jobs
// queries at a time.
func kingdomsWithOTUs(
	ctx context.Context,
	q *query.SampleQuery,
	cat *ontology.Catalog,
	jobs int,
) ([]kingdomOTUs, error) {
	kk, err := cat.Values(ctx, rank.Kingdom.Ontology())
	if err != nil {
		return nil, err
	}

	res := make([]kingdomOTUs, len(kk))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, k := range kk {
		g.Go(func() error {
			id := k.ID
			has, err := q.HasMatchingSampleOTUs(gctx, &id)
			if err != nil {
				return err
			}
			res[i] = kingdomOTUs{ID: k.ID, Label: k.Label, HasOTUs: has}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	slog.Debug("Kingdoms checked", "kingdoms", len(res))
	return res, nil
}
