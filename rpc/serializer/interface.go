package serializer

import "github.com/ValentinKolb/synthd/lib/pose"

// IPoseSerializer is the interface for all pose serializers
type IPoseSerializer interface {
	// Serialize serializes a sample into a byte array
	Serialize(sample pose.Sample) ([]byte, error)
	// Deserialize decodes a byte array into sample
	Deserialize(b []byte, sample *pose.Sample) error
	// Name returns a short name of the format (e.g. "json")
	Name() string
}

// New returns the serializer registered under name ("json" or "binary")
func New(name string) (IPoseSerializer, bool) {
	switch name {
	case "json":
		return NewJSONSerializer(), true
	case "binary", "bin":
		return NewBinarySerializer(), true
	default:
		return nil, false
	}
}
