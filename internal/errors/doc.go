// Package errors provides structured, actionable error messages for routestate.
//
// Every error carries a code (e.g., "R001") that maps to a short message,
// a longer explanation, and a category:
//   - routing: route tree construction and state import problems
//   - config: configuration file loading and validation
//   - store: snapshot persistence
//   - cli: command line usage
//   - api: HTTP request problems
//
// # Usage
//
//	err := errors.New("R101").
//	    WithLocation("routestate.toml", 7, 3).
//	    WithSuggestion("Use kind = \"boolean\" or kind = \"string\"")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R101: Unknown query parameter kind
//	//
//	//   routestate.toml:7:3
//	//
//	//     6 │ [[tree.params]]
//	//   → 7 │ kind = "number"
//	//       │   ^
//	//     8 │ variable = "page"
//	//
//	//   Hint: Use kind = "boolean" or kind = "string"
package errors
