package expr

// CompoundOp tags how a Select combines with its Prior (spec §4.4).
type CompoundOp int

const (
	CompoundNone CompoundOp = iota
	CompoundUnion
	CompoundUnionAll
	CompoundIntersect
	CompoundExcept
)

// JoinType tags how a SrcItem joins to the accumulated FROM so far.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeftOuter
	JoinCross
)

// ResultColumn is one entry of a SELECT's result-set: either an expression
// (optionally aliased) or a `*` / `table.*` wildcard expanded at codegen
// time once the source tables are known.
type ResultColumn struct {
	Expr      *Expr
	Alias     string
	Star      bool
	StarTable string // non-empty for "table.*"
}

// SrcItem is one FROM-clause entry: a base table reference or a subquery,
// plus how it joins to the items before it.
type SrcItem struct {
	Database string
	Table    string
	Alias    string
	Subquery *Select

	Join     JoinType
	On       *Expr
	Using    []string
	FromJoin bool // marks predicates folded from ON, for LEFT JOIN nullability

	// Filled in by the planner during fill_in_column_list (spec §4.4 step 2).
	CursorIdx int
}

// OrderingTerm is one ORDER BY / GROUP BY entry.
type OrderingTerm struct {
	Expr *Expr
	Desc bool
}

// Select is a SELECT statement tree, possibly one arm of a compound
// SELECT via Prior/Op (spec §3.2 View, §4.4).
type Select struct {
	ResultColumns []ResultColumn
	From          []SrcItem
	Where         *Expr
	GroupBy       []*Expr
	Having        *Expr
	OrderBy       []OrderingTerm
	Distinct      bool
	Limit         *Expr
	Offset        *Expr

	Op    CompoundOp
	Prior *Select

	// Populated by expr_analyze_aggregates (spec §4.4 step 7).
	Aggregates []*Expr
	IsAgg      bool
}

func (s *Select) Clone() *Select {
	if s == nil {
		return nil
	}
	out := *s
	out.ResultColumns = make([]ResultColumn, len(s.ResultColumns))
	for i, rc := range s.ResultColumns {
		out.ResultColumns[i] = ResultColumn{Expr: rc.Expr.Clone(), Alias: rc.Alias, Star: rc.Star, StarTable: rc.StarTable}
	}
	out.From = make([]SrcItem, len(s.From))
	for i, f := range s.From {
		out.From[i] = f
		out.From[i].Subquery = f.Subquery.Clone()
		out.From[i].On = f.On.Clone()
	}
	out.Where = s.Where.Clone()
	out.GroupBy = cloneList(s.GroupBy)
	out.Having = s.Having.Clone()
	out.OrderBy = make([]OrderingTerm, len(s.OrderBy))
	for i, o := range s.OrderBy {
		out.OrderBy[i] = OrderingTerm{Expr: o.Expr.Clone(), Desc: o.Desc}
	}
	out.Limit = s.Limit.Clone()
	out.Offset = s.Offset.Clone()
	out.Prior = s.Prior.Clone()
	return &out
}

func cloneList(in []*Expr) []*Expr {
	if in == nil {
		return nil
	}
	out := make([]*Expr, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
