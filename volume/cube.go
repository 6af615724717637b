package volume

import (
	"context"

	"github.com/janelia-flyem/seisvds/storage"
	"github.com/janelia-flyem/seisvds/vds"
)

// Cube opens the store named by config, reads the whole volume and closes the
// store again.  See ReadVolume for its memory cost.
func Cube(ctx context.Context, config vds.StoreConfig, opts storage.Options) (*vds.SampleBuffer, error) {
	sess, err := Open(ctx, config, opts)
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	return sess.ReadVolume(ctx)
}
