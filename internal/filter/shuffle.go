package filter

// ShuffleID is the codec identifier of the byte shuffle filter.
const ShuffleID = "shuffle"

// Shuffle implements the byte shuffle filter.
// This filter rearranges bytes to improve compression by grouping
// similar byte positions together (e.g., all MSBs, then all next bytes, etc.).
type Shuffle struct {
	elemSize int
}

// NewShuffle creates a shuffle filter for elements of elemSize bytes.
func NewShuffle(elemSize int) *Shuffle {
	if elemSize < 1 {
		elemSize = 1
	}
	return &Shuffle{elemSize: elemSize}
}

func (f *Shuffle) ID() string {
	return ShuffleID
}

func (f *Shuffle) Config() Config {
	return Config{"id": ShuffleID, "elementsize": f.elemSize}
}

// Encode groups byte j of every element at offset j*numElems.
// Trailing bytes that do not form a whole element are kept in place.
func (f *Shuffle) Encode(input []byte) ([]byte, error) {
	return f.transpose(input, true), nil
}

// Decode reverses the shuffle transformation.
// Input is organized as: [all byte 0s][all byte 1s]...[all byte N-1s]
// Output is organized as: [elem0][elem1]...[elemM]
func (f *Shuffle) Decode(input []byte) ([]byte, error) {
	return f.transpose(input, false), nil
}

func (f *Shuffle) transpose(input []byte, shuffle bool) []byte {
	if f.elemSize <= 1 {
		return input
	}

	numBytes := len(input)
	numElems := numBytes / f.elemSize
	if numElems == 0 {
		return input
	}

	output := make([]byte, numBytes)
	for i := 0; i < numElems; i++ {
		for j := 0; j < f.elemSize; j++ {
			if shuffle {
				output[j*numElems+i] = input[i*f.elemSize+j]
			} else {
				output[i*f.elemSize+j] = input[j*numElems+i]
			}
		}
	}
	copy(output[numElems*f.elemSize:], input[numElems*f.elemSize:])

	return output
}
