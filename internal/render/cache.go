package render

// ChoiceCache remembers interactive choices across runs
type ChoiceCache interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Prompter asks the operator for input. Calls block until answered.
type Prompter interface {
	Confirm(message string) (bool, error)
	FreeText(message string) (string, error)
	ChooseOne(message string, options []string) (string, error)
}

// MemoryCache is a ChoiceCache that lives only as long as the process.
// It is used in tests and when the persistent store cannot be opened.
type MemoryCache struct {
	data map[string]string
}

// NewMemoryCache creates an empty MemoryCache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]string)}
}

// Get returns a cached value
func (c *MemoryCache) Get(key string) (string, bool) {
	v, ok := c.data[key]
	return v, ok
}

// Set stores a value
func (c *MemoryCache) Set(key, value string) error {
	c.data[key] = value
	return nil
}

// Len returns the number of cached entries
func (c *MemoryCache) Len() int {
	return len(c.data)
}
