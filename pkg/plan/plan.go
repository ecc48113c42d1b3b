// Package plan defines the relational expression tree shared by the
// normalization pass, the textual parser/renderer, and the reference
// evaluator. The tree is a closed set of operator nodes; passes switch
// over the concrete types exhaustively.
package plan

// LocalID is a dense handle for a let-bound collection. IDs are stable
// only within one plan tree; a normalization run reassigns them.
type LocalID int

// Expr is a relational plan expression.
type Expr interface {
	exprNode()
}

// Constant is an inline collection. Each row is one tuple; duplicate
// rows carry multiplicity by repetition.
type Constant struct {
	Rows [][]int64
}

// Get references a bound collection. A non-empty Name refers to an
// external collection supplied by the environment; otherwise ID refers
// to a Let or LetRec binding visible in the lexical ancestry.
type Get struct {
	ID   LocalID
	Name string
}

// External reports whether the reference targets an external collection
// rather than a local binding.
func (g *Get) External() bool { return g.Name != "" }

// Project reduces each row to the given input columns, in order.
type Project struct {
	Input   Expr
	Columns []int
}

// Map appends literal columns to each row.
type Map struct {
	Input   Expr
	Scalars []int64
}

// Filter keeps rows satisfying every predicate.
type Filter struct {
	Input      Expr
	Predicates []Predicate
}

// Predicate compares an input column against a literal or another column.
type Predicate struct {
	Left  int
	Op    CmpOp
	Right Operand
}

// Operand is the right-hand side of a Predicate: a column when IsCol is
// set, a literal otherwise.
type Operand struct {
	Col     int
	Literal int64
	IsCol   bool
}

// CmpOp is a comparison operator in a filter predicate.
type CmpOp string

// Comparison operators.
const (
	CmpEq CmpOp = "="
	CmpNe CmpOp = "!="
	CmpLt CmpOp = "<"
	CmpLe CmpOp = "<="
	CmpGt CmpOp = ">"
	CmpGe CmpOp = ">="
)

// Union concatenates its inputs, adding multiplicities.
type Union struct {
	Inputs []Expr
}

// Distinct collapses rows to multiplicity one. A nil GroupBy keys on the
// whole row; otherwise rows are first projected to the GroupBy columns.
type Distinct struct {
	Input   Expr
	GroupBy []int
}

// Negate flips the sign of every row multiplicity.
type Negate struct {
	Input Expr
}

// Threshold keeps rows whose multiplicity is positive.
type Threshold struct {
	Input Expr
}

// Let binds one non-recursive collection for use in Body. The value may
// not reference its own ID.
type Let struct {
	ID    LocalID
	Value Expr
	Body  Expr
}

// LetRec binds a group of collections whose values may reference any
// member of the group, including themselves. The group is evaluated to a
// least fixpoint before Body. IDs and Values are parallel.
type LetRec struct {
	IDs    []LocalID
	Values []Expr
	Body   Expr
}

// Opaque is an operator the binding passes traverse but never interpret.
// Tag is the operator head, Detail the remainder of its header line.
type Opaque struct {
	Tag    string
	Detail string
	Inputs []Expr
}

func (*Constant) exprNode()  {}
func (*Get) exprNode()       {}
func (*Project) exprNode()   {}
func (*Map) exprNode()       {}
func (*Filter) exprNode()    {}
func (*Union) exprNode()     {}
func (*Distinct) exprNode()  {}
func (*Negate) exprNode()    {}
func (*Threshold) exprNode() {}
func (*Let) exprNode()       {}
func (*LetRec) exprNode()    {}
func (*Opaque) exprNode()    {}
