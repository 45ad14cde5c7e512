package route

import (
	"encoding/json"
	"errors"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestStateExportFreshTree(t *testing.T) {
	s := newTestTree().State()

	if s.ActiveChild != nil {
		t.Errorf("ActiveChild = %q, want nil", *s.ActiveChild)
	}
	if len(s.Children) != 3 {
		t.Fatalf("len(Children) = %d, want 3", len(s.Children))
	}
	users := s.Children["users"]
	if users.Path == nil || *users.Path != "" {
		t.Errorf("users.Path = %v, want empty string", users.Path)
	}
	if users.QueryParams["flag"] != false {
		t.Errorf("users.flag = %v, want false", users.QueryParams["flag"])
	}
	if s.Children["home"].Path != nil {
		t.Error("home does not capture paths and should have no Path")
	}
	if s.Children["settings"].Children["security"].QueryParams["verbose"] != false {
		t.Error("nested inactive children should be exported")
	}
}

func TestStateExportIncludesInactiveSubtrees(t *testing.T) {
	root := newTestTree()
	root.SetURL("/settings/security?t=keys&verbose")
	root.SetURL("/users/42?flag")

	s := root.State()
	if s.Active() != "users" {
		t.Errorf("Active() = %q, want users", s.Active())
	}
	settings := s.Children["settings"]
	if settings.Active() != "security" {
		t.Errorf("inactive settings should keep activeChild security, got %q", settings.Active())
	}
	if settings.QueryParams["tab"] != "keys" {
		t.Errorf("settings.tab = %v, want keys", settings.QueryParams["tab"])
	}
	if *s.Children["users"].Path != "42" {
		t.Errorf("users.path = %q, want 42", *s.Children["users"].Path)
	}
}

func TestStateRoundTrip(t *testing.T) {
	src := newTestTree()
	src.SetURL("/settings/security?t=keys&verbose")
	src.SetURL("/users/7?flag")

	data, err := json.Marshal(src.State())
	if err != nil {
		t.Fatal(err)
	}
	var decoded State
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	dst := newTestTree()
	if err := dst.SetState(&decoded); err != nil {
		t.Fatalf("SetState() = %v", err)
	}
	if got := dst.URL(); got != "/users/7?flag" {
		t.Errorf("URL() = %q, want /users/7?flag", got)
	}
	if !dst.State().Equal(src.State()) {
		t.Error("imported state differs from exported state")
	}
	if got := dst.Child("settings").StringValue("tab"); got != "keys" {
		t.Errorf("inactive settings.tab = %q, want keys", got)
	}
}

func TestStateJSONShape(t *testing.T) {
	root := New("").Add(New("a").CapturePath())
	root.SetURL("/a/x")

	data, err := json.Marshal(root.State())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"activeChild":"a","queryParams":{},"children":{"a":{"activeChild":null,"queryParams":{},"children":{},"path":"x"}}}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}

func TestStateCapturingParentWithActiveChild(t *testing.T) {
	root := New("").CapturePath().Add(New("a"))
	root.SetURL("/b/c")
	if got := root.CapturedPath(); got != "b/c" {
		t.Fatalf("CapturedPath() = %q, want b/c", got)
	}

	root.SetURL("/a")
	data, err := json.Marshal(root.State())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"activeChild":"a","queryParams":{},"children":{"a":{"activeChild":null,"queryParams":{},"children":{}}},"path":""}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}
}

func TestSetStateWithoutActiveChildLeavesChildren(t *testing.T) {
	root := newTestTree()
	root.SetURL("/users/42?flag")

	err := root.SetState(&State{QueryParams: map[string]any{}})
	if err != nil {
		t.Fatalf("SetState() = %v", err)
	}

	if root.ActiveChild() != nil {
		t.Error("root should have no active child")
	}
	users := root.Child("users")
	if users.CapturedPath() != "42" || !users.BoolValue("flag") {
		t.Errorf("users changed: path %q flag %v", users.CapturedPath(), users.BoolValue("flag"))
	}
	if got := root.URL(); got != "/" {
		t.Errorf("URL() = %q, want /", got)
	}
}

func TestSetStateRestoresEveryChild(t *testing.T) {
	root := newTestTree()
	s := root.State()
	s.ActiveChild = strPtr("home")
	s.Children["settings"].QueryParams["tab"] = "billing"
	s.Children["users"].Path = strPtr("9")

	if err := root.SetState(s); err != nil {
		t.Fatalf("SetState() = %v", err)
	}
	if root.ActiveChild() != root.Child("home") {
		t.Error("home should be active")
	}
	if got := root.Child("settings").StringValue("tab"); got != "billing" {
		t.Errorf("inactive settings.tab = %q, want billing", got)
	}
	if got := root.Child("users").CapturedPath(); got != "9" {
		t.Errorf("inactive users path = %q, want 9", got)
	}
}

func TestSetStateUnknownActiveChild(t *testing.T) {
	root := newTestTree()
	root.SetURL("/home")

	s := root.State()
	s.ActiveChild = strPtr("missing")
	err := root.SetState(s)

	var mse *MalformedStateError
	if !errors.As(err, &mse) {
		t.Fatalf("SetState() = %v, want *MalformedStateError", err)
	}
	if !errors.Is(err, ErrMalformedState) {
		t.Errorf("SetState() = %v, want ErrMalformedState", err)
	}
	if root.ActiveChild() != root.Child("home") {
		t.Error("rejected state changed the active child")
	}
}

func TestSetStateCapturedPathNil(t *testing.T) {
	root := New("").CapturePath()
	root.SetURL("/x/y")

	if err := root.SetState(&State{}); err != nil {
		t.Fatalf("SetState() = %v", err)
	}
	if root.CapturedPath() != "" {
		t.Errorf("CapturedPath() = %q, want empty", root.CapturedPath())
	}
}

func TestSetStateMissingParamResetsToZero(t *testing.T) {
	root := newTestTree()
	root.SetURL("/users/1?flag")

	s := root.State()
	delete(s.Children["users"].QueryParams, "flag")
	if err := root.SetState(s); err != nil {
		t.Fatalf("SetState() = %v", err)
	}
	if root.Child("users").BoolValue("flag") {
		t.Error("missing flag should reset to false")
	}
}

func TestSetStateMalformed(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *State) *State
		wantRoute string
	}{
		{
			name:      "nil state",
			mutate:    func(*State) *State { return nil },
			wantRoute: "/",
		},
		{
			name: "missing child entry",
			mutate: func(s *State) *State {
				delete(s.Children, "home")
				return s
			},
			wantRoute: "/",
		},
		{
			name: "nil child entry",
			mutate: func(s *State) *State {
				s.Children["settings"] = nil
				return s
			},
			wantRoute: "/settings",
		},
		{
			name: "bool param with string value",
			mutate: func(s *State) *State {
				s.Children["users"].QueryParams["flag"] = "yes"
				return s
			},
			wantRoute: "/users",
		},
		{
			name: "string param with number value",
			mutate: func(s *State) *State {
				s.Children["settings"].QueryParams["tab"] = 3.0
				return s
			},
			wantRoute: "/settings",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := newTestTree()
			root.SetURL("/users/5?flag")
			before := root.State()

			s := root.State()
			s.ActiveChild = strPtr("home")
			err := root.SetState(tc.mutate(s))

			if !errors.Is(err, ErrMalformedState) {
				t.Fatalf("SetState() = %v, want ErrMalformedState", err)
			}
			var mse *MalformedStateError
			if !errors.As(err, &mse) {
				t.Fatalf("error %T is not *MalformedStateError", err)
			}
			if mse.Route != tc.wantRoute {
				t.Errorf("Route = %q, want %q", mse.Route, tc.wantRoute)
			}
			if !root.State().Equal(before) {
				t.Error("a rejected state must leave the tree unchanged")
			}
		})
	}
}

func TestStateClone(t *testing.T) {
	root := newTestTree()
	root.SetURL("/users/3?flag")
	s := root.State()
	c := s.Clone()

	if !c.Equal(s) {
		t.Fatal("clone should equal original")
	}
	*c.Children["users"].Path = "changed"
	c.Children["users"].QueryParams["flag"] = false
	if *s.Children["users"].Path != "3" || s.Children["users"].QueryParams["flag"] != true {
		t.Error("clone shares data with the original")
	}
	if c.Equal(s) {
		t.Error("modified clone should differ")
	}
	if (*State)(nil).Clone() != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestStateEqual(t *testing.T) {
	a := &State{ActiveChild: strPtr("x")}
	b := &State{ActiveChild: strPtr("x"), QueryParams: map[string]any{}, Children: map[string]*State{}}
	if !a.Equal(b) {
		t.Error("nil and empty maps should compare equal")
	}
	b.Path = strPtr("")
	if a.Equal(b) {
		t.Error("nil path and empty path differ")
	}
	var n *State
	if !n.Equal(nil) || n.Equal(a) {
		t.Error("nil handling is wrong")
	}
}
