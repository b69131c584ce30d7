package iosql

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"strconv"

	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
)

func (s *Store) TaxaExist(ctx context.Context, cond predicate.Cond) (bool, error) {
	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT EXISTS (SELECT 1" + fromTaxon + " WHERE ")
	b.Cond(cond)
	b.WriteString(")")
	return s.exists(ctx, "TaxaExist", b)
}

func (s *Store) exists(ctx context.Context, op string, b *predicate.Builder) (bool, error) {
	var res bool
	err := s.withConn(ctx, op, func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, b.String(), b.Args()...).Scan(&res)
	})
	return res, err
}

func (s *Store) RankValues(
	ctx context.Context,
	r rank.Rank,
	cond predicate.Cond,
) ([]schema.OntologyEntry, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", r)
	}
	col := schema.TaxonCol(r.Column())
	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT o.id, o.label FROM " +
		predicate.Quote(schema.OntologyTable(r.Ontology())) + " o WHERE o.id IN (SELECT ")
	b.Column(col)
	b.WriteString(fromTaxon + " WHERE ")
	b.Cond(predicate.And(predicate.Ne(col, nil), store.Cond(cond)))
	b.WriteString(") ORDER BY o.label, o.id")
	return s.entries(ctx, "RankValues", b.String(), b.Args()...)
}

func (s *Store) OntologyValues(
	ctx context.Context,
	vocabulary string,
) ([]schema.OntologyEntry, error) {
	q := "SELECT id, label FROM " + predicate.Quote(schema.OntologyTable(vocabulary)) +
		" ORDER BY label, id"
	return s.entries(ctx, "OntologyValues", q)
}

func (s *Store) entries(
	ctx context.Context,
	op, q string,
	args ...any,
) ([]schema.OntologyEntry, error) {
	var res []schema.OntologyEntry
	err := s.withConn(ctx, op, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e schema.OntologyEntry
			if err = rows.Scan(&e.ID, &e.Label); err != nil {
				return err
			}
			res = append(res, e)
		}
		return rows.Err()
	})
	return res, err
}

// sampleWhere writes the WHERE clause of a sample query. The taxonomy
// restriction becomes a subquery over abundance edges.
func sampleWhere(b *predicate.Builder, f store.Filter) {
	b.WriteString(" WHERE ")
	b.Cond(store.Cond(f.Samples))
	if f.Taxa == nil {
		return
	}
	b.WriteString(" AND " + schema.SampleAlias + ".id IN (SELECT " +
		schema.AbundanceAlias + ".sample_id FROM " + schema.AbundanceTable + " " +
		schema.AbundanceAlias + " JOIN " + schema.TaxonTable + " " +
		schema.TaxonAlias + " ON " + schema.TaxonAlias + ".id = " +
		schema.AbundanceAlias + ".taxon_id WHERE ")
	b.Cond(f.Taxa)
	b.WriteString(")")
}

func (s *Store) SampleIDs(ctx context.Context, f store.Filter) ([]int64, error) {
	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT s.id" + fromSample)
	sampleWhere(b, f)
	b.WriteString(" ORDER BY s.id")

	var res []int64
	err := s.withConn(ctx, "SampleIDs", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, b.String(), b.Args()...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var id int64
			if err = rows.Scan(&id); err != nil {
				return err
			}
			res = append(res, id)
		}
		return rows.Err()
	})
	return res, err
}

func (s *Store) SampleIDsEnv(
	ctx context.Context,
	f store.Filter,
) ([]store.SampleEnv, error) {
	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT s.id, s." + schema.EnvironmentField + fromSample)
	sampleWhere(b, f)
	b.WriteString(" ORDER BY s.id")

	var res []store.SampleEnv
	err := s.withConn(ctx, "SampleIDsEnv", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, b.String(), b.Args()...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var se store.SampleEnv
			var env sql.NullInt64
			if err = rows.Scan(&se.ID, &env); err != nil {
				return err
			}
			se.EnvironmentID = intPtr(env)
			res = append(res, se)
		}
		return rows.Err()
	})
	return res, err
}

func (s *Store) Samples(ctx context.Context, f store.Filter) ([]schema.Sample, error) {
	ff := s.sampleColumns()
	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT " + sampleSelectList(ff) + fromSample)
	sampleWhere(b, f)
	b.WriteString(" ORDER BY s.id")

	var res []schema.Sample
	err := s.withConn(ctx, "Samples", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, b.String(), b.Args()...)
		if err != nil {
			return err
		}
		defer rows.Close()
		vals, ptrs := scanTargets(len(ff))
		for rows.Next() {
			if err = rows.Scan(ptrs...); err != nil {
				return err
			}
			res = append(res, s.sample(vals))
		}
		return rows.Err()
	})
	return res, err
}

func (s *Store) SampleHeaders(
	ctx context.Context,
	f store.Filter,
	p store.Projection,
) ([][]any, error) {
	if p.SortColumn < 0 || (len(p.Columns) > 0 && p.SortColumn >= len(p.Columns)) {
		return nil, fmt.Errorf("sort column %d is out of range", p.SortColumn)
	}

	sel := make([]string, len(p.Columns))
	var joins string
	for i, c := range p.Columns {
		col := schema.SampleAlias + "." + predicate.Quote(c.Name)
		if c.Vocabulary == "" {
			sel[i] = col
			continue
		}
		alias := "o" + strconv.Itoa(i)
		sel[i] = alias + ".label"
		joins += " LEFT JOIN " + predicate.Quote(schema.OntologyTable(c.Vocabulary)) +
			" " + alias + " ON " + alias + ".id = " + col
	}

	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT s.id")
	for _, v := range sel {
		b.WriteString(", " + v)
	}
	b.WriteString(fromSample + joins)
	sampleWhere(b, f)
	b.WriteString(" ORDER BY ")
	if len(sel) > 0 {
		dir := "ASC"
		if p.SortDesc {
			dir = "DESC"
		}
		b.WriteString(sel[p.SortColumn] + " " + dir + " NULLS LAST, ")
	}
	b.WriteString("s.id")

	var res [][]any
	err := s.withConn(ctx, "SampleHeaders", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, b.String(), b.Args()...)
		if err != nil {
			return err
		}
		defer rows.Close()
		vals, ptrs := scanTargets(len(sel) + 1)
		for rows.Next() {
			if err = rows.Scan(ptrs...); err != nil {
				return err
			}
			row := make([]any, len(sel))
			for i, c := range p.Columns {
				row[i] = s.normalize(c.Name, c.Vocabulary != "", vals[i+1])
			}
			res = append(res, row)
		}
		return rows.Err()
	})
	return res, err
}

func (s *Store) FieldValues(
	ctx context.Context,
	c store.HeaderColumn,
) ([]any, error) {
	sel := schema.SampleAlias + "." + predicate.Quote(c.Name)
	from := fromSample
	if c.Vocabulary != "" {
		from += " JOIN " + predicate.Quote(schema.OntologyTable(c.Vocabulary)) +
			" o ON o.id = " + sel
		sel = "o.label"
	}
	q := "SELECT DISTINCT " + sel + from + " WHERE " + sel + " IS NOT NULL ORDER BY " + sel

	var res []any
	err := s.withConn(ctx, "FieldValues", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v any
			if err = rows.Scan(&v); err != nil {
				return err
			}
			res = append(res, s.normalize(c.Name, c.Vocabulary != "", v))
		}
		return rows.Err()
	})
	return res, err
}

func (s *Store) SampleOTUs(
	ctx context.Context,
	f store.Filter,
) iter.Seq2[schema.OTURow, error] {
	ff := s.sampleColumns()
	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT " + selectList(schema.TaxonAlias, taxonColumns) + ", " +
		selectList(schema.AbundanceAlias, abundanceColumns) + ", " +
		sampleSelectList(ff) + fromOTU + " WHERE ")
	b.Cond(predicate.And(store.Cond(f.Taxa), store.Cond(f.Samples)))
	b.WriteString(" ORDER BY a.sample_id, a.taxon_id")

	return func(yield func(schema.OTURow, error) bool) {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			yield(schema.OTURow{}, QueryError("SampleOTUs", err))
			return
		}
		defer conn.Close()

		rows, err := conn.QueryContext(ctx, b.String(), b.Args()...)
		if err != nil {
			yield(schema.OTURow{}, QueryError("SampleOTUs", err))
			return
		}
		defer rows.Close()

		var t taxonScan
		var a schema.Abundance
		vals, ptrs := scanTargets(len(ff))
		dest := append(t.targets(),
			&a.SampleID, &a.TaxonID, &a.Count, &a.ProportionalAbundance)
		dest = append(dest, ptrs...)

		for rows.Next() {
			if err = rows.Scan(dest...); err != nil {
				yield(schema.OTURow{}, QueryError("SampleOTUs", err))
				return
			}
			res := schema.OTURow{Taxon: t.taxon(), Abundance: a, Sample: s.sample(vals)}
			if !yield(res, nil) {
				return
			}
		}
		if err = rows.Err(); err != nil {
			yield(schema.OTURow{}, QueryError("SampleOTUs", err))
		}
	}
}

func (s *Store) SampleOTUsExist(ctx context.Context, f store.Filter) (bool, error) {
	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT EXISTS (SELECT 1" + fromOTU + " WHERE ")
	b.Cond(predicate.And(store.Cond(f.Taxa), store.Cond(f.Samples)))
	b.WriteString(")")
	return s.exists(ctx, "SampleOTUsExist", b)
}

func (s *Store) SearchTaxa(
	ctx context.Context,
	text string,
	limit int,
) ([]schema.Taxon, error) {
	b := predicate.NewBuilder(s.d)
	b.WriteString("SELECT " + selectList(schema.TaxonAlias, taxonColumns) + fromTaxon + " WHERE ")
	b.Cond(predicate.Contains(schema.TaxonCol("code"), text))
	b.WriteString(" ORDER BY t.code, t.id")
	if limit > 0 {
		b.WriteString(" LIMIT " + b.Arg(limit))
	}

	var res []schema.Taxon
	err := s.withConn(ctx, "SearchTaxa", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, b.String(), b.Args()...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var t taxonScan
		dest := t.targets()
		for rows.Next() {
			if err = rows.Scan(dest...); err != nil {
				return err
			}
			res = append(res, t.taxon())
		}
		return rows.Err()
	})
	return res, err
}
