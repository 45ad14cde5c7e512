package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Routing Errors (R001-R019)
	// ============================================

	"R001": {
		Category: CategoryRouting,
		Message:  "Malformed route state",
		Detail:   "The route state object does not match the route tree. Every child of a node with an active child needs an entry in children.",
	},
	"R002": {
		Category: CategoryRouting,
		Message:  "Duplicate route name",
		Detail:   "Two children of the same route share a name. Names are used as path segments and state keys and must be unique among siblings.",
	},
	"R003": {
		Category: CategoryRouting,
		Message:  "Route already attached",
		Detail:   "A route can only have one parent.",
	},
	"R004": {
		Category: CategoryRouting,
		Message:  "Duplicate query parameter",
		Detail:   "A query parameter variable or URL name is declared twice on the same route.",
	},
	"R005": {
		Category: CategoryRouting,
		Message:  "Query parameter shadowed by an ancestor",
		Detail:   "A URL query parameter name is reused along a route chain. The ancestor's value would silently overwrite the descendant's in exported URLs.",
	},
	"R006": {
		Category: CategoryRouting,
		Message:  "Invalid query parameter",
		Detail:   "A query parameter needs a non-empty variable name.",
	},

	// ============================================
	// Configuration Errors (R100-R119)
	// ============================================

	"R100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"R101": {
		Category: CategoryConfig,
		Message:  "Unknown query parameter kind",
		Detail:   "Query parameters are either boolean or string.",
	},
	"R102": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Port must be between 0 and 65535.",
	},
	"R103": {
		Category: CategoryConfig,
		Message:  "Unknown store kind",
		Detail:   "Supported snapshot stores are memory, file, and s3.",
	},
	"R104": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No routestate.json or routestate.toml was found.",
	},
	"R105": {
		Category: CategoryConfig,
		Message:  "Invalid route tree",
		Detail:   "The route tree definition could not be built.",
	},

	// ============================================
	// Store Errors (R120-R139)
	// ============================================

	"R120": {
		Category: CategoryStore,
		Message:  "Snapshot not found",
		Detail:   "No snapshot is stored under this name.",
	},
	"R121": {
		Category: CategoryStore,
		Message:  "Invalid snapshot name",
		Detail:   "Snapshot names may contain letters, digits, '-', '_' and '.', and must not start with '.'.",
	},
	"R122": {
		Category: CategoryStore,
		Message:  "Snapshot store failure",
		Detail:   "The snapshot backend returned an error.",
	},

	// ============================================
	// CLI Errors (R140-R159)
	// ============================================

	"R140": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "The command was called with missing or invalid arguments.",
	},
	"R141": {
		Category: CategoryCLI,
		Message:  "Invalid state input",
		Detail:   "The state input is not valid JSON.",
	},
	"R142": {
		Category:   CategoryCLI,
		Message:    "File already exists",
		Detail:     "Refusing to overwrite an existing file.",
		Suggestion: "Pass --force to overwrite it",
	},

	// ============================================
	// HTTP API Errors (R160-R179)
	// ============================================

	"R160": {
		Category: CategoryAPI,
		Message:  "Invalid request body",
		Detail:   "The request body is not valid JSON of the expected shape.",
	},

	"R161": {
		Category:   CategoryAPI,
		Message:    "Internal server error",
		Detail:     "The request handler failed unexpectedly.",
		Suggestion: "Check the server log for the matching request_id.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
