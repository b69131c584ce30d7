/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package cmd

import (
	"bufio"
	"context"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnotu/pkg/query"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/spf13/cobra"
)

var exportHeader = []string{
	"sample_id", "taxon_id", "taxonomy", "amplicon_id",
	"count", "proportional_abundance",
}

func getExportCmd() *cobra.Command {
	var (
		kingdom int
		output  string
	)

	exportCmd := &cobra.Command{
		Use:   "export QUERY.json",
		Short: "Export abundance of matching samples as TSV",
		Long: `Export every taxon observation in samples matching a query file
('-' reads STDIN) as tab-separated rows ordered by sample and taxon.

Rows are streamed from the store and are never cached.

Examples:
  gnotu export query.json > otus.tsv
  gnotu export query.json --kingdom 2 -o bacteria.tsv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var k *int
			if cmd.Flags().Changed("kingdom") {
				k = &kingdom
			}
			if err := runExport(cmd.Context(), args[0], output, k); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	exportCmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0,
		"export taxa of one kingdom only")
	exportCmd.Flags().StringVarP(&output, "output", "o", "",
		"output file, STDOUT by default")
	return exportCmd
}

func runExport(ctx context.Context, input, output string, kingdom *int) error {
	data, err := readInput(input)
	if err != nil {
		return err
	}
	p, err := query.ParseParams(data, reg)
	if err != nil {
		return query.InvalidQueryError(err)
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	q, err := query.New(b.store, b.cache, reg, p)
	if err != nil {
		return err
	}
	ids, err := q.MatchingSampleIDs(ctx)
	if err != nil {
		return err
	}

	bar := pb.Full.New(len(ids))
	bar.SetWriter(os.Stderr)
	bar.Set("prefix", "samples ")
	bar.Set(pb.CleanOnFinish, true)
	bar.Start()

	var rows int64
	err = writeOutput(output, func(w io.Writer) error {
		var err error
		rows, err = writeTSV(w, q.MatchingSampleOTUs(ctx, kingdom),
			func() { bar.Increment() })
		return err
	})
	bar.Finish()
	if err != nil {
		return err
	}

	gn.Info("Exported <em>%s</em> rows from <em>%s</em> samples",
		humanize.Comma(rows), humanize.Comma(int64(len(ids))))
	return nil
}

// writeOutput runs write on STDOUT, or on a file created at path. The
// file is closed before returning and a failed close is an error.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeTSV writes the header and one line per row. nextSample is
// called every time the sample id changes.
func writeTSV(
	w io.Writer,
	rows iter.Seq2[schema.OTURow, error],
	nextSample func(),
) (int64, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(exportHeader, "\t") + "\n"); err != nil {
		return 0, err
	}

	var count int64
	var sample int64 = -1
	for row, err := range rows {
		if err != nil {
			return count, err
		}
		if row.Abundance.SampleID != sample {
			sample = row.Abundance.SampleID
			nextSample()
		}
		if _, err = bw.WriteString(tsvLine(row) + "\n"); err != nil {
			return count, err
		}
		count++
	}
	return count, bw.Flush()
}

func tsvLine(row schema.OTURow) string {
	amplicon := ""
	if row.Taxon.AmpliconID != nil {
		amplicon = strconv.Itoa(*row.Taxon.AmpliconID)
	}
	return strings.Join([]string{
		strconv.FormatInt(row.Abundance.SampleID, 10),
		strconv.FormatInt(row.Taxon.ID, 10),
		row.Taxon.Code,
		amplicon,
		strconv.FormatFloat(row.Abundance.Count, 'f', -1, 64),
		strconv.FormatFloat(row.Abundance.ProportionalAbundance, 'f', -1, 64),
	}, "\t")
}
