package plan

import (
	"reflect"
	"testing"
)

func sampleTree() Expr {
	return &Let{
		ID: 0,
		Value: &Distinct{
			Input: &Union{Inputs: []Expr{
				&Constant{Rows: [][]int64{{1}}},
				&Get{ID: 0},
			}},
		},
		Body: &Project{
			Input:   &Get{ID: 0},
			Columns: []int{0},
		},
	}
}

func TestChildrenOrder(t *testing.T) {
	lr := &LetRec{
		IDs:    []LocalID{0, 1},
		Values: []Expr{&Get{ID: 1}, &Get{ID: 0}},
		Body:   &Get{Name: "base"},
	}
	kids := Children(lr)
	if len(kids) != 3 {
		t.Fatalf("expected 3 children, got %d", len(kids))
	}
	if g, ok := kids[2].(*Get); !ok || g.Name != "base" {
		t.Errorf("expected body last, got %#v", kids[2])
	}
}

func TestWithChildrenPreservesShape(t *testing.T) {
	orig := sampleTree()
	kids := Children(orig)
	rebuilt := WithChildren(orig, kids)
	if !Equal(orig, rebuilt) {
		t.Errorf("WithChildren with original children should be structurally equal")
	}
	if rebuilt == orig {
		t.Errorf("WithChildren should allocate a new node")
	}
}

func TestWithChildrenArityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on wrong child count")
		}
	}()
	WithChildren(&Negate{Input: &Get{ID: 0}}, nil)
}

func TestCopyIsDeep(t *testing.T) {
	orig := sampleTree().(*Let)
	cp := Copy(orig).(*Let)
	if !Equal(orig, cp) {
		t.Fatalf("copy should be structurally equal to original")
	}

	// Mutating the copy must not affect the original.
	cp.Value.(*Distinct).Input.(*Union).Inputs[0].(*Constant).Rows[0][0] = 99
	cp.Body.(*Project).Columns[0] = 7
	if orig.Value.(*Distinct).Input.(*Union).Inputs[0].(*Constant).Rows[0][0] != 1 {
		t.Errorf("copy shares constant rows with original")
	}
	if orig.Body.(*Project).Columns[0] != 0 {
		t.Errorf("copy shares projection columns with original")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Expr
		want bool
	}{
		{"identical trees", sampleTree(), sampleTree(), true},
		{"different get id", &Get{ID: 0}, &Get{ID: 1}, false},
		{"local vs external", &Get{ID: 0}, &Get{Name: "t"}, false},
		{
			"distinct whole-row vs empty key",
			&Distinct{Input: &Get{ID: 0}},
			&Distinct{Input: &Get{ID: 0}, GroupBy: []int{}},
			false,
		},
		{
			"filter predicate operand",
			&Filter{Input: &Get{ID: 0}, Predicates: []Predicate{{Left: 0, Op: CmpEq, Right: Operand{Literal: 3}}}},
			&Filter{Input: &Get{ID: 0}, Predicates: []Predicate{{Left: 0, Op: CmpEq, Right: Operand{Col: 3, IsCol: true}}}},
			false,
		},
		{
			"opaque detail",
			&Opaque{Tag: "ArrangeBy", Detail: "keys=[[#0]]"},
			&Opaque{Tag: "ArrangeBy", Detail: "keys=[[#1]]"},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalkPreOrder(t *testing.T) {
	var tags []string
	Walk(sampleTree(), func(e Expr) bool {
		tags = append(tags, reflect.TypeOf(e).Elem().Name())
		return true
	})
	want := []string{"Let", "Distinct", "Union", "Constant", "Get", "Project", "Get"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("walk order = %v, want %v", tags, want)
	}
}

func TestWalkSkipsSubtree(t *testing.T) {
	count := 0
	Walk(sampleTree(), func(e Expr) bool {
		count++
		_, isUnion := e.(*Union)
		return !isUnion
	})
	// Let, Distinct, Union (skipped inside), Project, Get.
	if count != 5 {
		t.Errorf("expected 5 visited nodes, got %d", count)
	}
}
