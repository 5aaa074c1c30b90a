package zarrio

import (
	"context"
	"fmt"

	"github.com/robert-malhotra/go-zarrio/builder"
	"github.com/robert-malhotra/go-zarrio/store"
)

// Reader is a source of builder trees that can be exported.
type Reader interface {
	ReadBuilder() (*builder.GroupBuilder, error)
	Location() string
}

// Export reads the tree of src and writes it into this session, which must
// be open in mode w. References in the written tree point into this store.
// Array data from a source that is not a zarr session cannot be linked, so
// such sources require LinkData(false).
func (z *IO) Export(ctx context.Context, src Reader, opts ...WriteOption) error {
	if err := z.check(); err != nil {
		return err
	}
	if z.mode != string(store.ModeWrite) {
		return fmt.Errorf("%w: export requires mode %q, session is %q", ErrUnsupportedOperation, store.ModeWrite, z.mode)
	}
	wo := applyWriteOptions(opts)
	if _, ok := src.(*IO); !ok && wo.linkData {
		return fmt.Errorf("%w: cannot link data from non-zarr source %s", ErrUnsupportedOperation, src.Location())
	}

	root, err := src.ReadBuilder()
	if err != nil {
		return fmt.Errorf("reading %s for export: %w", src.Location(), err)
	}
	z.logger.Debug("exporting", "source", src.Location(), "destination", z.location)
	return z.Write(ctx, root, append(opts, ExportSource(src.Location()))...)
}
