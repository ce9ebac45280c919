package emit

import (
	"strings"
	"testing"

	"roguec/internal/ast"
	"roguec/internal/types"
)

func TestWriteTaskControlRendersTriValueReturn(t *testing.T) {
	reg := types.NewOrganizer()
	owner := &types.Type{Name: "Counter", Kind: types.KindClass}
	x := &cctx{reg: reg, owner: owner, indent: 1}

	cases := []struct {
		name string
		c    *ast.Cmd
		want []string
	}{
		{
			name: "yield",
			c:    &ast.Cmd{Kind: ast.KindTaskControl, Name: "yield", A: &ast.Cmd{Kind: ast.KindLiteralInteger, IntegerValue: 7}},
			want: []string{"return", "ROGUE_TASK_YIELDED", "7"},
		},
		{
			name: "await",
			c:    &ast.Cmd{Kind: ast.KindTaskControl, Name: "await", A: &ast.Cmd{Kind: ast.KindReadLocal, Name: "conn"}},
			want: []string{"return", "ROGUE_TASK_SUSPENDED", "conn"},
		},
		{
			name: "finished",
			c:    &ast.Cmd{Kind: ast.KindTaskControl},
			want: []string{"return", "ROGUE_TASK_FINISHED"},
		},
	}

	for _, c := range cases {
		w := &strings.Builder{}
		x.writeStmt(w, c.c)
		got := w.String()
		for _, want := range c.want {
			if !strings.Contains(got, want) {
				t.Errorf("%s: writeStmt(%v) = %q, want it to contain %q", c.name, c.c, got, want)
			}
		}
	}
}
