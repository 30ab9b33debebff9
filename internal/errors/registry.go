package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// View Errors (F001-F099)
	// ============================================

	"F001": {
		Category: CategoryStructural,
		Message:  "View must contain exactly one parent element",
	},
	"F002": {
		Category: CategoryContract,
		Message:  "Subview must be a View",
	},
	"F003": {
		Category: CategoryStructural,
		Message:  "Markup could not be parsed",
	},

	// ============================================
	// Config Errors (F100-F199)
	// ============================================

	"F100": {
		Category: CategoryConfig,
		Message:  "Project file not found",
		Detail:   "No figura.json, figura.yaml or figura.yml was found in the project directory.",
	},
	"F101": {
		Category: CategoryConfig,
		Message:  "Invalid project file",
	},
	"F102": {
		Category: CategoryConfig,
		Message:  "Invalid view definition",
	},
	"F103": {
		Category: CategoryConfig,
		Message:  "Page fixture not readable",
	},

	// ============================================
	// Publish Errors (F200-F299)
	// ============================================

	"F200": {
		Category: CategoryPublish,
		Message:  "Output could not be published",
	},
	"F201": {
		Category: CategoryPublish,
		Message:  "Invalid output target",
	},

	// ============================================
	// Snapshot Errors (F300-F399)
	// ============================================

	"F300": {
		Category: CategorySnapshot,
		Message:  "Snapshot encoding failed",
	},
	"F301": {
		Category: CategorySnapshot,
		Message:  "Unknown snapshot format",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
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
