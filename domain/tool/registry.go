package tool

// Registry stores the tools a server exposes.
// Implementations live in infrastructure/storage.
type Registry interface {
	// Register adds a tool. Registering a name twice fails with ErrToolExists.
	Register(tool Tool) error

	// Get retrieves a tool by name.
	Get(name string) (Tool, bool)

	// List returns all registered tools ordered by name.
	List() []Tool

	// Names returns all registered tool names in order.
	Names() []string
}
