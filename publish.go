package subword

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/subword/blobstore"
	"github.com/hupe1980/subword/codec"
	"github.com/hupe1980/subword/internal/compress"
	"github.com/hupe1980/subword/internal/hash"
	"github.com/hupe1980/subword/internal/resource"
	"github.com/hupe1980/subword/persistence"
)

// CurrentPointer is the base name of the blob that names the live
// version of a published model.
const CurrentPointer = "CURRENT"

const blobPattern = "model-%06d.bin"

// Manifest describes one published model version. It is stored in the
// CURRENT pointer of the model.
type Manifest struct {
	Version     int64     `json:"version"`
	Blob        string    `json:"blob"`
	Compression string    `json:"compression"`
	Size        int64     `json:"size"`
	CRC32C      uint32    `json:"crc32c"`
	Dim         int       `json:"dim"`
	Model       string    `json:"model"`
	Quantized   bool      `json:"quantized"`
	CreatedAt   time.Time `json:"created_at"`
}

func pointerName(name string) string { return path.Join(name, CurrentPointer) }

func readManifest(ctx context.Context, store blobstore.BlobStore, name string, c codec.Codec) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, store, pointerName(name))
	if err != nil {
		return nil, err
	}
	var man Manifest
	if err := c.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrInvalidModel, err)
	}
	if man.Blob == "" || man.Version <= 0 {
		return nil, fmt.Errorf("%w: manifest without blob", ErrInvalidModel)
	}
	return &man, nil
}

// ReadManifest returns the manifest of the live version of name.
func ReadManifest(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Manifest, error) {
	o := applyOptions(opts)
	man, err := readManifest(ctx, store, name, o.codec)
	if err != nil {
		return nil, translateError(err)
	}
	return man, nil
}

// Publish uploads the model as the next version of name and points
// CURRENT at it. The model blob is compressed with the configured
// algorithm and checksummed with CRC32C.
//
// If another publisher moves CURRENT first, the uploaded blob is deleted
// and ErrConcurrentModification is returned. Only stores with
// conditional pointer updates (such as the DynamoDB commit store) detect
// the race.
func (m *Model) Publish(ctx context.Context, store blobstore.BlobStore, name string) (*Manifest, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	log := m.opts.logger

	version := int64(1)
	prev, err := readManifest(ctx, store, name, m.opts.codec)
	switch {
	case err == nil:
		version = prev.Version + 1
	case errors.Is(err, blobstore.ErrNotFound):
	default:
		log.LogPublish(ctx, name, version, "", err)
		return nil, translateError(err)
	}

	blobName := path.Join(name, fmt.Sprintf(blobPattern, version))
	man, err := m.upload(ctx, store, blobName)
	if err != nil {
		log.LogPublish(ctx, name, version, blobName, err)
		return nil, translateError(err)
	}
	man.Version = version

	data, err := m.opts.codec.Marshal(man)
	if err == nil {
		err = store.Put(ctx, pointerName(name), data)
	}
	if err != nil {
		_ = store.Delete(ctx, blobName)
		log.LogPublish(ctx, name, version, blobName, err)
		return nil, translateError(err)
	}

	log.LogPublish(ctx, name, version, blobName, nil)
	return man, nil
}

// upload streams the model into blobName and returns a manifest without
// a version.
func (m *Model) upload(ctx context.Context, store blobstore.BlobStore, blobName string) (*Manifest, error) {
	wb, err := store.Create(ctx, blobName)
	if err != nil {
		return nil, err
	}

	crc := hash.NewCRC32C()
	pw := persistence.NewWriter(io.MultiWriter(resource.NewRateLimitedWriter(ctx, wb, m.opts.resources), crc))
	bw := bufio.NewWriterSize(pw, 256*1024)

	alg := m.opts.compression
	if alg == compress.None {
		_, err = m.WriteTo(bw)
	} else {
		cw := compress.NewWriter(bw, alg, 0)
		if _, err = m.WriteTo(cw); err == nil {
			err = cw.Close()
		}
	}
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		abort(ctx, store, blobName, wb)
		return nil, err
	}
	if err := wb.Close(); err != nil {
		_ = store.Delete(ctx, blobName)
		return nil, err
	}

	return &Manifest{
		Blob:        blobName,
		Compression: alg.String(),
		Size:        pw.N(),
		CRC32C:      crc.Sum32(),
		Dim:         m.cfg.Dim,
		Model:       m.cfg.Model.String(),
		Quantized:   m.IsQuantized(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// abort cancels an upload. Stores without an Abort method get the blob
// closed and deleted.
func abort(ctx context.Context, store blobstore.BlobStore, name string, wb blobstore.WritableBlob) {
	if a, ok := wb.(interface{ Abort() error }); ok {
		_ = a.Abort()
		return
	}
	_ = wb.Close()
	_ = store.Delete(ctx, name)
}

// OpenPublished loads the live version of name. The blob size and
// checksum are verified against the manifest.
func OpenPublished(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Model, error) {
	o := applyOptions(opts)
	man, err := readManifest(ctx, store, name, o.codec)
	if err != nil {
		return nil, translateError(err)
	}
	m, err := openBlob(ctx, store, man, o)
	if err != nil {
		return nil, translateError(err)
	}
	return m, nil
}

func openBlob(ctx context.Context, store blobstore.BlobStore, man *Manifest, o options) (*Model, error) {
	b, err := store.Open(ctx, man.Blob)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if b.Size() != man.Size {
		return nil, fmt.Errorf("%w: blob %s has %d bytes, manifest says %d", ErrInvalidModel, man.Blob, b.Size(), man.Size)
	}

	crc := hash.NewCRC32C()
	src := io.TeeReader(resource.NewRateLimitedReader(ctx, blobstore.NewReader(b), o.resources), crc)
	m, err := readMaybeCompressed(src, o)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(io.Discard, src); err != nil {
		_ = m.Close()
		return nil, err
	}
	if got := crc.Sum32(); got != man.CRC32C {
		_ = m.Close()
		return nil, fmt.Errorf("%w: checksum mismatch for %s (%08x != %08x)", ErrInvalidModel, man.Blob, got, man.CRC32C)
	}
	return m, nil
}

// PublishedVersions lists the versions of name that have a model blob,
// in ascending order. Versions never committed to CURRENT are included
// when their blob survived.
func PublishedVersions(ctx context.Context, store blobstore.BlobStore, name string) ([]int64, error) {
	names, err := store.List(ctx, name+"/")
	if err != nil {
		return nil, translateError(err)
	}
	var versions []int64
	for _, n := range names {
		if path.Dir(n) != path.Clean(name) {
			continue
		}
		base := path.Base(n)
		if !strings.HasPrefix(base, "model-") || !strings.HasSuffix(base, ".bin") {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(base, "model-"), ".bin"), 10, 64)
		if err == nil {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}
