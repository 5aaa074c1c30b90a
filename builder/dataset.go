package builder

// DatasetBuilder is a typed array or scalar.
//
// Data may be a Go scalar, a (nested) slice, a *ReferenceBuilder, a slice of
// builders or containers, a lazily-backed Dataset, a ChunkIterator, or a
// store array from another file. Dtype is a type descriptor understood by
// the datatype package; nil means infer from Data.
type DatasetBuilder struct {
	base
	Data     any
	Dtype    any
	Maxshape []int
	Chunked  bool
}

// NewDataset creates a dataset builder.
func NewDataset(name string, data any, dtype any) *DatasetBuilder {
	return &DatasetBuilder{base: newBase(name), Data: data, Dtype: dtype}
}

// LinkBuilder is a soft link to another group or dataset.
type LinkBuilder struct {
	base
	target Builder
}

// NewLink creates a link named name pointing at target.
func NewLink(name string, target Builder) *LinkBuilder {
	return &LinkBuilder{base: newBase(name), target: target}
}

// Target returns the link target.
func (l *LinkBuilder) Target() Builder { return l.target }

// ReferenceBuilder is an object reference used as dataset or attribute data.
type ReferenceBuilder struct {
	target Builder
}

// NewReference creates a reference to target.
func NewReference(target Builder) *ReferenceBuilder {
	return &ReferenceBuilder{target: target}
}

// Target returns the referenced builder.
func (r *ReferenceBuilder) Target() Builder { return r.target }

// RegionBuilder is a region (sub-array) reference. Region references cannot
// be written to zarr; the type exists so they are rejected explicitly.
type RegionBuilder struct {
	target Builder
	Region any
}

// NewRegion creates a region reference.
func NewRegion(target Builder, region any) *RegionBuilder {
	return &RegionBuilder{target: target, Region: region}
}

// Target returns the referenced builder.
func (r *RegionBuilder) Target() Builder { return r.target }

// Container is a high-level model object that a Manager can turn into a
// builder.
type Container interface {
	ContainerName() string
}

// Manager converts between containers and builders.
type Manager interface {
	Build(c Container) (Builder, error)
	Construct(b Builder) (Container, error)
}

// Dataset is lazily-backed array data, typically read from another file.
type Dataset interface {
	Len() int
	Index(i int) (any, error)
	Slice() ([]any, error)
}
