package router

import "testing"

func TestTree(t *testing.T) {
	r := newTestRouter(t)
	r.SetURL("/users/42?flag")

	tree := r.Tree()
	if len(tree) != 4 {
		t.Fatalf("len(Tree()) = %d, want 4", len(tree))
	}

	tests := []struct {
		i            int
		path         string
		depth        int
		active       bool
		activeChild  string
		capturedPath string
	}{
		{0, "/", 0, true, "users", ""},
		{1, "/home", 1, false, "", ""},
		{2, "/users", 1, true, "", "42"},
		{3, "/search", 1, false, "", ""},
	}
	for _, tt := range tests {
		got := tree[tt.i]
		if got.Path != tt.path || got.Depth != tt.depth || got.Active != tt.active ||
			got.ActiveChild != tt.activeChild || got.CapturedPath != tt.capturedPath {
			t.Errorf("Tree()[%d] = %+v", tt.i, got)
		}
	}

	users := tree[2]
	if len(users.Params) != 1 {
		t.Fatalf("users params = %+v", users.Params)
	}
	p := users.Params[0]
	if p.Variable != "flag" || p.Query != "flag" || p.Kind != "boolean" || p.Value != true {
		t.Errorf("users param = %+v", p)
	}

	search := tree[3].Params[0]
	if search.Query != "q" || search.Kind != "string" || search.Value != "" {
		t.Errorf("search param = %+v", search)
	}
}
