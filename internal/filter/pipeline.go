package filter

import "fmt"

// Pipeline is the ordered codec chain of one array.
type Pipeline struct {
	filters    []Filter
	compressor Filter
}

// NewPipeline creates a pipeline from the "filters" and "compressor"
// entries of an array's metadata. A nil compressor stores chunks without
// compression.
func NewPipeline(filters []Config, compressor Config) (*Pipeline, error) {
	p := &Pipeline{filters: make([]Filter, 0, len(filters))}

	for i, cfg := range filters {
		f, err := New(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating filter %d: %w", i, err)
		}
		p.filters = append(p.filters, f)
	}

	if compressor != nil {
		c, err := New(compressor)
		if err != nil {
			return nil, fmt.Errorf("creating compressor: %w", err)
		}
		p.compressor = c
	}

	return p, nil
}

// Encode applies the filters in order, then the compressor.
func (p *Pipeline) Encode(input []byte) ([]byte, error) {
	data := input
	for _, f := range p.filters {
		var err error
		data, err = f.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s encode: %w", f.ID(), err)
		}
	}
	if p.compressor != nil {
		var err error
		data, err = p.compressor.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("compressor %s encode: %w", p.compressor.ID(), err)
		}
	}
	return data, nil
}

// Decode reverses Encode: compressor first, then filters in reverse order.
func (p *Pipeline) Decode(input []byte) ([]byte, error) {
	data := input
	if p.compressor != nil {
		var err error
		data, err = p.compressor.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("compressor %s decode: %w", p.compressor.ID(), err)
		}
	}
	for i := len(p.filters) - 1; i >= 0; i-- {
		var err error
		data, err = p.filters[i].Decode(data)
		if err != nil {
			return nil, fmt.Errorf("filter %s decode: %w", p.filters[i].ID(), err)
		}
	}
	return data, nil
}

// Empty returns true if the pipeline neither filters nor compresses.
func (p *Pipeline) Empty() bool {
	return len(p.filters) == 0 && p.compressor == nil
}

// Len returns the number of filters, excluding the compressor.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
