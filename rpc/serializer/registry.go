package serializer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// Factory creates a new serializer instance
type Factory func() IPayloadSerializer

// registry maps serializer names to their factories
var registry = func() *xsync.MapOf[string, Factory] {
	m := xsync.NewMapOf[string, Factory]()
	m.Store("binary", NewBinarySerializer)
	m.Store("json", NewJSONSerializer)
	m.Store("cbor", NewCBORSerializer)
	return m
}()

// Register adds or replaces a serializer factory under the given name
func Register(name string, factory Factory) {
	registry.Store(strings.ToLower(name), factory)
}

// Get creates the serializer registered under name
func Get(name string) (IPayloadSerializer, error) {
	factory, ok := registry.Load(strings.ToLower(name))
	if !ok {
		return nil, fmt.Errorf("invalid serializer %s (expected one of: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// Names returns the sorted names of all registered serializers
func Names() []string {
	names := make([]string, 0, registry.Size())
	registry.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}
