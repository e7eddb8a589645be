package expr

import "testing"

func TestIsConstant(t *testing.T) {
	lit := NewLiteral(OpInt, "1")
	if !lit.IsConstant() {
		t.Fatal("literal should be constant")
	}
	col := &Expr{Op: OpColumn, ITable: 0, IColumn: 1}
	if col.IsConstant() {
		t.Fatal("column reference should not be constant")
	}
	bin := NewBinary(OpAdd, lit, col)
	if bin.IsConstant() {
		t.Fatal("expression referencing a column should not be constant")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := NewBinary(OpAdd, NewLiteral(OpInt, "1"), NewLiteral(OpInt, "2"))
	clone := orig.Clone()
	clone.Left.Token = "99"
	if orig.Left.Token == "99" {
		t.Fatal("Clone should not alias the original tree")
	}
}

func TestSelectClone(t *testing.T) {
	s := &Select{
		ResultColumns: []ResultColumn{{Expr: NewId("a")}},
		From:          []SrcItem{{Table: "t"}},
		Where:         NewBinary(OpEq, NewId("a"), NewLiteral(OpInt, "1")),
	}
	c := s.Clone()
	c.From[0].Table = "other"
	if s.From[0].Table == "other" {
		t.Fatal("Select.Clone should not alias From slice contents")
	}
}
