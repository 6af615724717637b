/*
Package blobstore implements a chunk backend on gocloud.dev/blob buckets, so volumes
can live in local directories, Google Cloud Storage, S3 or S3-compatible object
stores.

Configuration settings:

	url     bucket URL, e.g., "file:///data/survey", "gs://bucket", "s3://bucket?region=us-east-2",
	        "mem://" or "vast://<endpoint>/<bucket>" for VAST S3-compatible storage
	prefix  optional key prefix within the bucket
*/
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blang/semver"
	"github.com/janelia-flyem/seisvds/storage"
	"github.com/janelia-flyem/seisvds/vds"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

func init() {
	ver, err := semver.Make("1.0.0")
	if err != nil {
		vds.Errorf("Unable to make semver in blobstore: %v\n", err)
	}
	e := Engine{"blob", "Object store via gocloud.dev/blob", ver}
	storage.RegisterEngine(e)
}

// --- Engine Implementation ------

type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewBackend opens the bucket given by the "url" setting.
func (e Engine) NewBackend(ctx context.Context, config vds.StoreConfig) (storage.ChunkBackend, error) {
	ref, prefix, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	bucket, err := OpenBucket(ctx, ref)
	if err != nil {
		return nil, err
	}
	if prefix != "" {
		bucket = blob.PrefixedBucket(bucket, strings.TrimSuffix(prefix, "/")+"/")
	}
	return NewBackend(bucket, ref), nil
}

func parseConfig(config vds.StoreConfig) (ref, prefix string, err error) {
	var found bool
	ref, found, err = config.GetString("url")
	if err != nil {
		return
	}
	if !found || ref == "" {
		err = fmt.Errorf("%q must be specified for blob store configuration", "url")
		return
	}
	prefix, _, err = config.GetString("prefix")
	return
}

// OpenBucket returns a blob.Bucket for the given reference.  Besides the gocloud URL
// schemes, the reference may be of the form vast://<endpoint>/<bucketname>, which
// needs AWS_REGION set (ignored) and credentials in AWS_SHARED_CREDENTIALS_FILE.
func OpenBucket(ctx context.Context, ref string) (*blob.Bucket, error) {
	url := ref
	if strings.HasPrefix(ref, "vast://") {
		parts := strings.SplitN(strings.TrimPrefix(ref, "vast://"), "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("vast ref must be of form 'vast://<endpoint>/<bucket>'")
		}
		url = fmt.Sprintf("s3://%s?endpoint=%s&s3ForcePathStyle=true", parts[1], parts[0])
	}
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		vds.Errorf("Can't open bucket reference @ %q: %v\n", ref, err)
		return nil, err
	}
	return bucket, nil
}

// Backend stores each brick as one object named by its chunk key.
type Backend struct {
	bucket *blob.Bucket
	ref    string
}

// NewBackend wraps an open bucket.  The backend owns the bucket.
func NewBackend(bucket *blob.Bucket, ref string) *Backend {
	return &Backend{bucket: bucket, ref: ref}
}

func (b *Backend) String() string {
	return fmt.Sprintf("blob store @ %s", b.ref)
}

func chunkObject(key storage.ChunkKey) string {
	return key.String()
}

func metaObject(name string) string {
	return "meta/" + name
}

// returns nil/nil if the object does not exist.
func (b *Backend) read(ctx context.Context, obj string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, obj)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil
		}
		return nil, classify(err)
	}
	return data, nil
}

func (b *Backend) write(ctx context.Context, obj string, data []byte) error {
	opts := &blob.WriterOptions{ContentType: "application/octet-stream"}
	if err := b.bucket.WriteAll(ctx, obj, data, opts); err != nil {
		return classify(err)
	}
	return nil
}

// classify marks errors that a retry may fix.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch gcerrors.Code(err) {
	case gcerrors.DeadlineExceeded, gcerrors.ResourceExhausted, gcerrors.Internal, gcerrors.Unknown:
		return fmt.Errorf("%w: %w", storage.ErrTransient, err)
	default:
		return err
	}
}

func (b *Backend) GetChunk(ctx context.Context, key storage.ChunkKey) ([]byte, error) {
	return b.read(ctx, chunkObject(key))
}

func (b *Backend) PutChunk(ctx context.Context, key storage.ChunkKey, data []byte) error {
	return b.write(ctx, chunkObject(key), data)
}

func (b *Backend) GetMeta(ctx context.Context, name string) ([]byte, error) {
	return b.read(ctx, metaObject(name))
}

func (b *Backend) PutMeta(ctx context.Context, name string, data []byte) error {
	return b.write(ctx, metaObject(name), data)
}

func (b *Backend) Close() error {
	if err := b.bucket.Close(); err != nil {
		vds.Errorf("Error on trying to close blob store (%s): %v\n", b.ref, err)
		return err
	}
	return nil
}
