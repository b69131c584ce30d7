package iosql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/gnames/gnotu/pkg/fields"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
)

// Vocabularies returns every vocabulary that needs a table: amplicon,
// the ranks, environment and the registry ontology fields.
func Vocabularies(reg *fields.Registry) []string {
	res := slices.Concat(schema.TaxonomyVocabularies(), reg.Vocabularies())
	slices.Sort(res)
	return slices.Compact(res)
}

// ExtraColumns returns column definitions of registry fields that are
// not fixed sample columns.
func ExtraColumns(reg *fields.Registry) []string {
	var res []string
	for _, f := range reg.Extra() {
		res = append(res, predicate.Quote(f.Column())+" "+f.SQLType())
	}
	return res
}

// CreateSchema creates every table and index from generated DDL. It is
// idempotent.
func (s *Store) CreateSchema(ctx context.Context) error {
	var stmts []string
	for _, v := range Vocabularies(s.reg) {
		stmts = append(stmts, schema.OntologyDDL(v))
	}
	stmts = append(stmts,
		schema.Taxon{}.TableDDL(),
		schema.SampleDDL(ExtraColumns(s.reg)...),
		schema.Abundance{}.TableDDL(),
	)
	stmts = append(stmts, schema.Taxon{}.IndexDDL()...)
	stmts = append(stmts, schema.Sample{}.IndexDDL()...)
	stmts = append(stmts, schema.Abundance{}.IndexDDL()...)

	err := s.withConn(ctx, "CreateSchema", func(conn *sql.Conn) error {
		for _, v := range stmts {
			if _, err := conn.ExecContext(ctx, v); err != nil {
				return fmt.Errorf("%s: %w", firstLine(v), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("Schema is ready", "dialect", s.d.Name(), "statements", len(stmts))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i > 0 {
		return s[:i]
	}
	return s
}

// ColumnNames returns the columns of a table.
func (s *Store) ColumnNames(ctx context.Context, table string) ([]string, error) {
	q := "SELECT name FROM pragma_table_info(?)"
	if s.d.Name() == predicate.Postgres.Name() {
		q = `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`
	}
	var res []string
	err := s.withConn(ctx, "ColumnNames", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, q, table)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err = rows.Scan(&name); err != nil {
				return err
			}
			res = append(res, name)
		}
		return rows.Err()
	})
	return res, err
}

// CheckColumns validates the field registry against the sample table.
func (s *Store) CheckColumns(ctx context.Context) error {
	cols, err := s.ColumnNames(ctx, schema.SampleTable)
	if err != nil {
		return err
	}
	return s.reg.CheckColumns(cols)
}

// Load inserts a dataset in one transaction.
func (s *Store) Load(ctx context.Context, ds *schema.Dataset) error {
	err := s.withConn(ctx, "Load", func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if err = s.loadOntologies(ctx, tx, ds.Ontologies); err != nil {
			return err
		}
		if err = s.loadTaxa(ctx, tx, ds.Taxa); err != nil {
			return err
		}
		if err = s.loadSamples(ctx, tx, ds.Samples); err != nil {
			return err
		}
		if err = s.loadAbundances(ctx, tx, ds.Abundances); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return LoadError(err)
	}
	slog.Info("Dataset loaded",
		"taxa", len(ds.Taxa),
		"samples", len(ds.Samples),
		"abundances", len(ds.Abundances),
	)
	return nil
}

func (s *Store) insert(table string, cols []string) string {
	ph := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i := range cols {
		ph[i] = s.d.Placeholder(i + 1)
		quoted[i] = predicate.Quote(cols[i])
	}
	return "INSERT INTO " + predicate.Quote(table) + " (" + strings.Join(quoted, ", ") +
		") VALUES (" + strings.Join(ph, ", ") + ")"
}

// execMany runs one prepared statement for every argument list.
func execMany(ctx context.Context, tx *sql.Tx, q string, n int, args func(int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range n {
		if _, err = stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadOntologies(
	ctx context.Context,
	tx *sql.Tx,
	onto map[string][]schema.OntologyEntry,
) error {
	names := make([]string, 0, len(onto))
	for k := range onto {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, name := range names {
		ee := onto[name]
		q := s.insert(schema.OntologyTable(name), []string{"id", "label"})
		err := execMany(ctx, tx, q, len(ee), func(i int) []any {
			return []any{ee[i].ID, ee[i].Label}
		})
		if err != nil {
			return fmt.Errorf("vocabulary %s: %w", name, err)
		}
	}
	return nil
}

func nullable(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func (s *Store) loadTaxa(ctx context.Context, tx *sql.Tx, taxa []schema.Taxon) error {
	q := s.insert(schema.TaxonTable, taxonColumns)
	return execMany(ctx, tx, q, len(taxa), func(i int) []any {
		t := &taxa[i]
		res := []any{t.ID, t.Code}
		for _, r := range rank.All {
			res = append(res, nullable(t.RankID(r)))
		}
		return append(res, nullable(t.AmpliconID), t.Endemic, t.Pathogenic)
	})
}

func (s *Store) loadSamples(ctx context.Context, tx *sql.Tx, samples []schema.Sample) error {
	ff := s.sampleColumns()
	cols := make([]string, len(ff))
	for i := range ff {
		cols[i] = ff[i].Column()
	}
	q := s.insert(schema.SampleTable, cols)
	return execMany(ctx, tx, q, len(samples), func(i int) []any {
		smp := &samples[i]
		res := make([]any, len(ff))
		for j, f := range ff {
			switch f.Name {
			case "id":
				res[j] = smp.ID
			case "x":
				res[j] = smp.X
			case "y":
				res[j] = smp.Y
			case schema.EnvironmentField:
				res[j] = nullable(smp.EnvironmentID)
			default:
				res[j] = s.d.Bind(smp.Attrs[f.Name])
			}
		}
		return res
	})
}

func (s *Store) loadAbundances(
	ctx context.Context,
	tx *sql.Tx,
	edges []schema.Abundance,
) error {
	q := s.insert(schema.AbundanceTable, abundanceColumns)
	return execMany(ctx, tx, q, len(edges), func(i int) []any {
		e := &edges[i]
		return []any{e.SampleID, e.TaxonID, e.Count, e.ProportionalAbundance}
	})
}

// UpdateProportions recomputes proportional abundance in the database:
// count divided by the sample total of counts >= 1, or the count itself
// when it is below 1.
func (s *Store) UpdateProportions(ctx context.Context) error {
	stmts := []string{
		`UPDATE sample_otu SET proportional_abundance = "count" WHERE "count" < 1`,
		`UPDATE sample_otu SET proportional_abundance = "count" / (
  SELECT SUM(b."count") FROM sample_otu b
  WHERE b.sample_id = sample_otu.sample_id AND b."count" >= 1
) WHERE "count" >= 1`,
	}
	err := s.withConn(ctx, "UpdateProportions", func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		for _, v := range stmts {
			if _, err = tx.ExecContext(ctx, v); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return ProportionsError(err)
	}
	return nil
}

// Analyze reclaims space and refreshes planner statistics. It cannot
// run inside a transaction.
func (s *Store) Analyze(ctx context.Context) error {
	stmts := []string{"VACUUM ANALYZE"}
	if s.d == predicate.SQLite {
		stmts = []string{"VACUUM", "ANALYZE"}
	}
	return s.withConn(ctx, "Analyze", func(conn *sql.Conn) error {
		for _, v := range stmts {
			if _, err := conn.ExecContext(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
}
