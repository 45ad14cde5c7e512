package route

import (
	"fmt"

	"github.com/vango-dev/routestate/pkg/urlcodec"
)

// Kind identifies the value type of a query parameter.
type Kind int

const (
	// KindBoolean parameters are true when their key is present in the URL.
	KindBoolean Kind = iota

	// KindString parameters carry the URL value verbatim.
	KindString
)

// String returns "boolean" or "string".
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// QueryParam is a named value owned by a route, synchronized with both the
// URL query string and the route's State.
//
// The only implementations are *BoolParam and *StringParam.
type QueryParam interface {
	// VariableName is the key in State.QueryParams.
	VariableName() string

	// QueryParamName is the key in the URL query string.
	QueryParamName() string

	// Kind reports the value type.
	Kind() Kind

	// Value returns the current value as a bool or a string.
	Value() any

	// ExtractFromState reads the value from state.QueryParams. A missing key
	// resets the value to its zero value; a value of the wrong type is a
	// *MalformedStateError and leaves the value unchanged.
	ExtractFromState(state *State) error

	// ExportToState writes the value into state.QueryParams.
	ExportToState(state *State)

	// ExtractFromURL reads the value from u's query.
	ExtractFromURL(u *urlcodec.URL)

	// ExportToURL writes the value into u's query, or nothing for a zero value.
	ExportToURL(u *urlcodec.URL)

	// check validates state without changing the value.
	check(state *State) error
}

type binding struct {
	variableName   string
	queryParamName string
}

func (b binding) VariableName() string   { return b.variableName }
func (b binding) QueryParamName() string { return b.queryParamName }

// BoolParam is a presence-only flag: "?flag" means true, absence means false.
type BoolParam struct {
	binding
	value bool
}

var _ QueryParam = (*BoolParam)(nil)

// Kind returns KindBoolean.
func (p *BoolParam) Kind() Kind { return KindBoolean }

// Value returns the flag as a bool.
func (p *BoolParam) Value() any { return p.value }

// Get returns the flag.
func (p *BoolParam) Get() bool { return p.value }

// Set changes the flag.
func (p *BoolParam) Set(v bool) { p.value = v }

func (p *BoolParam) stateValue(state *State) (bool, error) {
	if state == nil {
		return false, nil
	}
	raw, ok := state.QueryParams[p.variableName]
	if !ok || raw == nil {
		return false, nil
	}
	v, ok := raw.(bool)
	if !ok {
		return false, &MalformedStateError{Reason: fmt.Sprintf("query parameter %q is %T, want bool", p.variableName, raw)}
	}
	return v, nil
}

func (p *BoolParam) check(state *State) error {
	_, err := p.stateValue(state)
	return err
}

func (p *BoolParam) ExtractFromState(state *State) error {
	v, err := p.stateValue(state)
	if err != nil {
		return err
	}
	p.value = v
	return nil
}

func (p *BoolParam) ExportToState(state *State) {
	if state.QueryParams == nil {
		state.QueryParams = make(map[string]any)
	}
	state.QueryParams[p.variableName] = p.value
}

// ExtractFromURL sets the flag to whether the key is present. The value in
// the URL is ignored.
func (p *BoolParam) ExtractFromURL(u *urlcodec.URL) {
	p.value = u.Query.Has(p.queryParamName)
}

// ExportToURL writes an empty-valued key when the flag is set. A false flag
// is encoded by omission.
func (p *BoolParam) ExportToURL(u *urlcodec.URL) {
	if p.value {
		u.Query.Set(p.queryParamName, "")
	}
}

// StringParam carries a string value. The empty string and an absent key
// are indistinguishable in the URL.
type StringParam struct {
	binding
	value string
}

var _ QueryParam = (*StringParam)(nil)

// Kind returns KindString.
func (p *StringParam) Kind() Kind { return KindString }

// Value returns the value as a string.
func (p *StringParam) Value() any { return p.value }

// Get returns the value.
func (p *StringParam) Get() string { return p.value }

// Set changes the value.
func (p *StringParam) Set(v string) { p.value = v }

func (p *StringParam) stateValue(state *State) (string, error) {
	if state == nil {
		return "", nil
	}
	raw, ok := state.QueryParams[p.variableName]
	if !ok || raw == nil {
		return "", nil
	}
	v, ok := raw.(string)
	if !ok {
		return "", &MalformedStateError{Reason: fmt.Sprintf("query parameter %q is %T, want string", p.variableName, raw)}
	}
	return v, nil
}

func (p *StringParam) check(state *State) error {
	_, err := p.stateValue(state)
	return err
}

func (p *StringParam) ExtractFromState(state *State) error {
	v, err := p.stateValue(state)
	if err != nil {
		return err
	}
	p.value = v
	return nil
}

func (p *StringParam) ExportToState(state *State) {
	if state.QueryParams == nil {
		state.QueryParams = make(map[string]any)
	}
	state.QueryParams[p.variableName] = p.value
}

// ExtractFromURL takes the URL value, or "" when the key is absent.
func (p *StringParam) ExtractFromURL(u *urlcodec.URL) {
	p.value = u.Query.Get(p.queryParamName)
}

// ExportToURL writes the key only for a non-empty value.
func (p *StringParam) ExportToURL(u *urlcodec.URL) {
	if p.value != "" {
		u.Query.Set(p.queryParamName, p.value)
	}
}
