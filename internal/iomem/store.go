// Package iomem implements the store contract over records kept in
// memory. Conditions are evaluated row by row with the same three-valued
// logic SQL uses, so results match the SQL backends.
package iomem

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/gnames/gnotu/pkg/abundance"
	"github.com/gnames/gnotu/pkg/predicate"
	"github.com/gnames/gnotu/pkg/rank"
	"github.com/gnames/gnotu/pkg/schema"
	"github.com/gnames/gnotu/pkg/store"
	"github.com/google/uuid"
)

// Store holds a dataset in memory.
type Store struct {
	source     string
	mu         sync.RWMutex
	ontologies map[string][]schema.OntologyEntry
	taxa       []schema.Taxon
	samples    []schema.Sample
	edges      []schema.Abundance
	taxonIdx   map[int64]int
	sampleIdx  map[int64]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		source:     "memory:" + uuid.NewString(),
		ontologies: make(map[string][]schema.OntologyEntry),
		taxonIdx:   make(map[int64]int),
		sampleIdx:  make(map[int64]int),
	}
}

// Source is unique to every store created by New.
func (s *Store) Source() string {
	return s.source
}

// snapshot is an immutable view of the data. Load replaces slices
// instead of changing them, so readers never need the lock after taking
// a snapshot.
type snapshot struct {
	ontologies map[string][]schema.OntologyEntry
	taxa       []schema.Taxon
	samples    []schema.Sample
	edges      []schema.Abundance
	taxonIdx   map[int64]int
	sampleIdx  map[int64]int
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		ontologies: s.ontologies,
		taxa:       s.taxa,
		samples:    s.samples,
		edges:      s.edges,
		taxonIdx:   s.taxonIdx,
		sampleIdx:  s.sampleIdx,
	}
}

// Load adds the dataset records. Records with ids that already exist
// replace the old ones.
func (s *Store) Load(_ context.Context, ds *schema.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	onto := maps.Clone(s.ontologies)
	for k, v := range ds.Ontologies {
		entries := append(slices.Clone(onto[k]), v...)
		slices.SortStableFunc(entries, func(a, b schema.OntologyEntry) int {
			return cmp.Compare(a.ID, b.ID)
		})
		entries = slices.CompactFunc(entries, func(a, b schema.OntologyEntry) bool {
			return a.ID == b.ID
		})
		onto[k] = entries
	}

	taxa := merge(s.taxa, ds.Taxa, func(t schema.Taxon) int64 { return t.ID })
	samples := merge(s.samples, ds.Samples, func(v schema.Sample) int64 { return v.ID })
	all := append(slices.Clone(s.edges), ds.Abundances...)
	slices.SortStableFunc(all, compareEdges)
	var edges []schema.Abundance
	for i := range all {
		if i+1 < len(all) && compareEdges(all[i], all[i+1]) == 0 {
			continue
		}
		edges = append(edges, all[i])
	}

	s.ontologies = onto
	s.taxa = taxa
	s.samples = samples
	s.edges = edges
	s.taxonIdx = index(taxa, func(t schema.Taxon) int64 { return t.ID })
	s.sampleIdx = index(samples, func(v schema.Sample) int64 { return v.ID })
	return nil
}

// merge keeps the last record of every id, sorted by id.
func merge[T any](old, add []T, id func(T) int64) []T {
	res := append(slices.Clone(old), add...)
	slices.SortStableFunc(res, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	var out []T
	for i := range res {
		if i+1 < len(res) && id(res[i]) == id(res[i+1]) {
			continue
		}
		out = append(out, res[i])
	}
	return out
}

func index[T any](recs []T, id func(T) int64) map[int64]int {
	res := make(map[int64]int, len(recs))
	for i := range recs {
		res[id(recs[i])] = i
	}
	return res
}

func compareEdges(a, b schema.Abundance) int {
	if c := cmp.Compare(a.SampleID, b.SampleID); c != 0 {
		return c
	}
	return cmp.Compare(a.TaxonID, b.TaxonID)
}

// UpdateProportions recomputes proportional abundance of all edges.
func (s *Store) UpdateProportions(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	edges := slices.Clone(s.edges)
	abundance.Proportions(edges)
	s.edges = edges
	return nil
}

// Edges returns a copy of all abundance edges.
func (s *Store) Edges() []schema.Abundance {
	return slices.Clone(s.snapshot().edges)
}

func (s *Store) TaxaExist(ctx context.Context, cond predicate.Cond) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	cond = store.Cond(cond)
	for _, t := range s.snapshot().taxa {
		if cond.Eval(row{taxon: &t}).Holds() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) RankValues(
	ctx context.Context,
	r rank.Rank,
	cond predicate.Cond,
) ([]schema.OntologyEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", r)
	}
	snap := s.snapshot()
	cond = store.Cond(cond)
	ids := make(map[int]struct{})
	for _, t := range snap.taxa {
		if id := t.RankID(r); id != nil && cond.Eval(row{taxon: &t}).Holds() {
			ids[*id] = struct{}{}
		}
	}
	var res []schema.OntologyEntry
	for _, v := range snap.ontologies[r.Ontology()] {
		if _, ok := ids[v.ID]; ok {
			res = append(res, v)
		}
	}
	sortEntries(res)
	return res, nil
}

func sortEntries(ee []schema.OntologyEntry) {
	slices.SortFunc(ee, func(a, b schema.OntologyEntry) int {
		if c := cmp.Compare(a.Label, b.Label); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func (s *Store) OntologyValues(
	ctx context.Context,
	vocabulary string,
) ([]schema.OntologyEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vv, ok := s.snapshot().ontologies[vocabulary]
	if !ok {
		return nil, fmt.Errorf("no table %s", schema.OntologyTable(vocabulary))
	}
	res := slices.Clone(vv)
	sortEntries(res)
	return res, nil
}

// matching returns indices of samples passing the filter, in id order.
func (snap snapshot) matching(f store.Filter) []int {
	var allowed map[int64]struct{}
	if f.Taxa != nil {
		allowed = make(map[int64]struct{})
		for i := range snap.edges {
			e := &snap.edges[i]
			ti, ok := snap.taxonIdx[e.TaxonID]
			if !ok {
				continue
			}
			if f.Taxa.Eval(row{taxon: &snap.taxa[ti]}).Holds() {
				allowed[e.SampleID] = struct{}{}
			}
		}
	}

	cond := store.Cond(f.Samples)
	var res []int
	for i := range snap.samples {
		smp := &snap.samples[i]
		if allowed != nil {
			if _, ok := allowed[smp.ID]; !ok {
				continue
			}
		}
		if cond.Eval(row{sample: smp}).Holds() {
			res = append(res, i)
		}
	}
	return res
}

func (s *Store) SampleIDs(ctx context.Context, f store.Filter) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.snapshot()
	var res []int64
	for _, i := range snap.matching(f) {
		res = append(res, snap.samples[i].ID)
	}
	return res, nil
}

func (s *Store) SampleIDsEnv(
	ctx context.Context,
	f store.Filter,
) ([]store.SampleEnv, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.snapshot()
	var res []store.SampleEnv
	for _, i := range snap.matching(f) {
		smp := snap.samples[i]
		var env *int
		if smp.EnvironmentID != nil {
			v := *smp.EnvironmentID
			env = &v
		}
		res = append(res, store.SampleEnv{ID: smp.ID, EnvironmentID: env})
	}
	return res, nil
}

func (s *Store) Samples(ctx context.Context, f store.Filter) ([]schema.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.snapshot()
	var res []schema.Sample
	for _, i := range snap.matching(f) {
		res = append(res, cloneSample(snap.samples[i]))
	}
	return res, nil
}

func cloneSample(s schema.Sample) schema.Sample {
	if s.EnvironmentID != nil {
		v := *s.EnvironmentID
		s.EnvironmentID = &v
	}
	s.Attrs = maps.Clone(s.Attrs)
	return s
}

func cloneTaxon(t schema.Taxon) schema.Taxon {
	res := t
	for _, r := range rank.All {
		if id := t.RankID(r); id != nil {
			v := *id
			res.SetRankID(r, &v)
		}
	}
	if t.AmpliconID != nil {
		v := *t.AmpliconID
		res.AmpliconID = &v
	}
	return res
}

func (s *Store) SampleHeaders(
	ctx context.Context,
	f store.Filter,
	p store.Projection,
) ([][]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.SortColumn < 0 || (len(p.Columns) > 0 && p.SortColumn >= len(p.Columns)) {
		return nil, fmt.Errorf("sort column %d is out of range", p.SortColumn)
	}
	snap := s.snapshot()

	labels := make([]map[int]string, len(p.Columns))
	for i, c := range p.Columns {
		if c.Vocabulary == "" {
			continue
		}
		entries, ok := snap.ontologies[c.Vocabulary]
		if !ok {
			return nil, fmt.Errorf("no table %s", schema.OntologyTable(c.Vocabulary))
		}
		labels[i] = make(map[int]string, len(entries))
		for _, e := range entries {
			labels[i][e.ID] = e.Label
		}
	}

	type headerRow struct {
		id     int64
		values []any
	}
	var rows []headerRow
	for _, i := range snap.matching(f) {
		smp := &snap.samples[i]
		vals := make([]any, len(p.Columns))
		for j, c := range p.Columns {
			v := sampleValue(smp, c.Name)
			if labels[j] != nil && v != nil {
				if l, ok := labels[j][toInt(v)]; ok {
					v = l
				} else {
					v = nil
				}
			}
			vals[j] = v
		}
		rows = append(rows, headerRow{id: smp.ID, values: vals})
	}

	if len(p.Columns) > 0 {
		slices.SortStableFunc(rows, func(a, b headerRow) int {
			c := compareNullsLast(a.values[p.SortColumn], b.values[p.SortColumn], p.SortDesc)
			if c != 0 {
				return c
			}
			return cmp.Compare(a.id, b.id)
		})
	}

	res := make([][]any, len(rows))
	for i := range rows {
		res[i] = rows[i].values
	}
	return res, nil
}

func (s *Store) FieldValues(
	ctx context.Context,
	c store.HeaderColumn,
) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.snapshot()

	var labels map[int]string
	if c.Vocabulary != "" {
		entries, ok := snap.ontologies[c.Vocabulary]
		if !ok {
			return nil, fmt.Errorf("no table %s", schema.OntologyTable(c.Vocabulary))
		}
		labels = make(map[int]string, len(entries))
		for _, e := range entries {
			labels[e.ID] = e.Label
		}
	}

	var res []any
	for i := range snap.samples {
		v := sampleValue(&snap.samples[i], c.Name)
		if v == nil {
			continue
		}
		if labels != nil {
			l, ok := labels[toInt(v)]
			if !ok {
				continue
			}
			v = l
		}
		seen := slices.ContainsFunc(res, func(w any) bool {
			r, ok := predicate.Compare(v, w)
			return ok && r == 0
		})
		if !seen {
			res = append(res, v)
		}
	}
	slices.SortFunc(res, func(a, b any) int {
		return compareNullsLast(a, b, false)
	})
	return res, nil
}

func toInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	}
	return -1
}

// compareNullsLast orders NULL after every value in both directions.
func compareNullsLast(a, b any, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c, _ := predicate.Compare(a, b)
	if desc {
		return -c
	}
	return c
}

func (s *Store) SampleOTUs(
	ctx context.Context,
	f store.Filter,
) iter.Seq2[schema.OTURow, error] {
	return func(yield func(schema.OTURow, error) bool) {
		snap := s.snapshot()
		taxa := store.Cond(f.Taxa)
		samples := store.Cond(f.Samples)
		for i := range snap.edges {
			if err := ctx.Err(); err != nil {
				yield(schema.OTURow{}, err)
				return
			}
			e := &snap.edges[i]
			ti, ok1 := snap.taxonIdx[e.TaxonID]
			si, ok2 := snap.sampleIdx[e.SampleID]
			if !ok1 || !ok2 {
				continue
			}
			r := row{taxon: &snap.taxa[ti], sample: &snap.samples[si], abundance: e}
			if !taxa.Eval(r).Holds() || !samples.Eval(r).Holds() {
				continue
			}
			res := schema.OTURow{
				Taxon:     cloneTaxon(*r.taxon),
				Abundance: *e,
				Sample:    cloneSample(*r.sample),
			}
			if !yield(res, nil) {
				return
			}
		}
	}
}

func (s *Store) SampleOTUsExist(ctx context.Context, f store.Filter) (bool, error) {
	for _, err := range s.SampleOTUs(ctx, f) {
		if err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *Store) SearchTaxa(
	ctx context.Context,
	text string,
	limit int,
) ([]schema.Taxon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cond := predicate.Contains(schema.TaxonCol("code"), text)
	var res []schema.Taxon
	for _, t := range s.snapshot().taxa {
		if cond.Eval(row{taxon: &t}).Holds() {
			res = append(res, cloneTaxon(t))
		}
	}
	slices.SortStableFunc(res, func(a, b schema.Taxon) int {
		if c := cmp.Compare(a.Code, b.Code); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
