package serializer

import (
	"encoding/json"
	"github.com/ValentinKolb/synthd/lib/pose"
)

// NewJSONSerializer creates a new serializer using json encoding. This is the
// format of the JSON payload on the wire:
//
//	{"position":{"x":..,"y":..,"z":..},"scale":{..},"rotation":{..}}
func NewJSONSerializer() IPoseSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IPoseSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPoseSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(sample pose.Sample) ([]byte, error) {
	return json.Marshal(sample)
}

func (j jsonSerializerImpl) Deserialize(b []byte, sample *pose.Sample) error {
	return json.Unmarshal(b, sample)
}

func (j jsonSerializerImpl) Name() string {
	return "json"
}
