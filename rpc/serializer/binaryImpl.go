package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/synthd/lib/pose"
	"math"
)

// binaryPoseSize is the size of one encoded sample: nine float32 values
const binaryPoseSize = 9 * 4

// NewBinarySerializer creates a new serializer using a fixed size binary
// record: position, scale and rotation as big endian IEEE 754 float32 values
func NewBinarySerializer() IPoseSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IPoseSerializer using a fixed binary layout
type binarySerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IPoseSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(sample pose.Sample) ([]byte, error) {
	buf := make([]byte, 0, binaryPoseSize)
	for _, v := range []pose.Vec3{sample.Position, sample.Scale, sample.Rotation} {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v.X))
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v.Y))
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v.Z))
	}
	return buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, sample *pose.Sample) error {
	if len(data) != binaryPoseSize {
		return fmt.Errorf("invalid pose record: got %d bytes, want %d", len(data), binaryPoseSize)
	}

	read := func(i int) float32 {
		return math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
	}
	sample.Position = pose.Vec3{X: read(0), Y: read(1), Z: read(2)}
	sample.Scale = pose.Vec3{X: read(3), Y: read(4), Z: read(5)}
	sample.Rotation = pose.Vec3{X: read(6), Y: read(7), Z: read(8)}
	return nil
}

func (b binarySerializerImpl) Name() string {
	return "binary"
}
