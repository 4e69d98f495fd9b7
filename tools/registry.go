// Package tools provides a metadata-driven registry for MCP tool definitions.
// Tools are defined declaratively and bound to typed Bento client methods.
package tools

// ToolSpec defines a tool's metadata for declarative registration.
// Each spec maps to a bento.Client MCP method with matching Args/Result types.
type ToolSpec struct {
	// Name is the MCP tool name (e.g., "bento_get_sequence")
	Name string

	// Method is the client method name without the MCP suffix (e.g., "GetSequence")
	Method string

	// Description is the tool description shown to LLMs
	Description string

	// Title is the human-readable tool title for annotations
	Title string

	// Category groups tools logically (subscribers, automation, etc.)
	Category string

	// Resource is the Bento API resource the tool operates on
	Resource string

	// ReadOnly indicates the tool doesn't modify account state
	ReadOnly bool

	// Destructive indicates the tool can remove data or stop delivery
	Destructive bool

	// Idempotent indicates repeated calls have the same effect
	Idempotent bool

	// OpenWorld indicates the tool accesses external resources
	OpenWorld bool
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}

// ByName returns the spec with the given tool name.
func ByName(name string) (ToolSpec, bool) {
	for _, spec := range AllTools {
		if spec.Name == name {
			return spec, true
		}
	}
	return ToolSpec{}, false
}

// ToolsByCategory returns the specs in a category.
func ToolsByCategory(category string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	return out
}

// ToolsByResource returns the specs that call a Bento API resource.
func ToolsByResource(resource string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.Resource == resource {
			out = append(out, spec)
		}
	}
	return out
}
