package objstore

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/fsctl/sealbox/pkg/cryptography"
	"github.com/fsctl/sealbox/pkg/util"
)

const (
	// blobObjPrefix distinguishes sealed blob objects from the metadata
	// object; everything after it is a deterministically encrypted name
	blobObjPrefix = "blob-"
)

var (
	ErrBlobNotOnServer = errors.New("no blob with that name on server")
)

// BlobListing describes one sealed blob on the server: its decrypted name
// and the size of its container in bytes.
type BlobListing struct {
	Name string
	Size int64
}

// blobObjName maps a caller-chosen blob name to its object key on the
// server. Label encryption is deterministic, so the same name always maps
// to the same key and lookups need no server-side index.
func blobObjName(labelKey []byte, name string) (string, error) {
	encName, err := cryptography.EncryptLabel(labelKey, name)
	if err != nil {
		log.Printf("error: blobObjName ('%s'): %v", name, err)
		return "", err
	}
	return blobObjPrefix + encName, nil
}

// UploadSealedBlob stores a sealed container under name. The container
// bytes are uploaded as-is; only the name is transformed.
func (objst *ObjStore) UploadSealedBlob(ctx context.Context, bucket string, labelKey []byte, name string, container []byte) error {
	objName, err := blobObjName(labelKey, name)
	if err != nil {
		return err
	}
	return objst.UploadObjFromBuffer(ctx, bucket, objName, container, ComputeETag(container))
}

// DownloadSealedBlob retrieves the sealed container stored under name.
// Returns ErrBlobNotOnServer if no such blob exists.
func (objst *ObjStore) DownloadSealedBlob(ctx context.Context, bucket string, labelKey []byte, name string) ([]byte, error) {
	objName, err := blobObjName(labelKey, name)
	if err != nil {
		return nil, err
	}

	// GetObject is lazy, so probe with a listing to tell "not there" apart
	// from transport failures
	mObjs, err := objst.GetObjList(ctx, bucket, objName, nil)
	if err != nil {
		return nil, err
	}
	if _, ok := mObjs[objName]; !ok {
		return nil, ErrBlobNotOnServer
	}

	return objst.DownloadObjToBuffer(ctx, bucket, objName)
}

// ListSealedBlobs returns the decrypted name and container size of every
// sealed blob in the bucket, sorted by nothing in particular (map order of
// the underlying listing). Objects under the blob prefix whose name does
// not decrypt under labelKey are logged and skipped, not fatal; they were
// written under a different password epoch and the rest of the bucket is
// still usable.
func (objst *ObjStore) ListSealedBlobs(ctx context.Context, bucket string, labelKey []byte, vlog *util.VLog) ([]BlobListing, error) {
	mObjs, err := objst.GetObjList(ctx, bucket, blobObjPrefix, vlog)
	if err != nil {
		log.Println("error: ListSealedBlobs: cannot get bucket object list: ", err)
		return nil, err
	}

	listings := make([]BlobListing, 0, len(mObjs))
	for objName, size := range mObjs {
		encName := strings.TrimPrefix(objName, blobObjPrefix)
		name, err := cryptography.DecryptLabel(labelKey, encName)
		if err != nil {
			log.Printf("warning: ListSealedBlobs: skipping object '%s' (cannot decrypt name): %v", objName, err)
			continue
		}
		listings = append(listings, BlobListing{Name: name, Size: size})
	}

	return listings, nil
}

// DeleteSealedBlob removes the sealed blob stored under name. Deleting a
// name that is not on the server is not an error.
func (objst *ObjStore) DeleteSealedBlob(ctx context.Context, bucket string, labelKey []byte, name string) error {
	objName, err := blobObjName(labelKey, name)
	if err != nil {
		return err
	}
	return objst.DeleteObj(ctx, bucket, objName)
}
