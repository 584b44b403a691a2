package objstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"

	"github.com/fsctl/sealbox/pkg/cryptography"
	"github.com/fsctl/sealbox/pkg/sealbox"
	"github.com/fsctl/sealbox/pkg/util"
)

const (
	MetadataObjName string = "sealbox-metadata"

	bucketMetadataVersion = 1
)

var (
	ErrNoMetadataButNotEmpty = errors.New("the bucket does not contain a metadata object but is also not empty")

	// ErrWrongBucketPassword is returned when the bucket's sentinel container
	// does not open with the supplied master password
	ErrWrongBucketPassword = errors.New("master password does not match the one this bucket was initialized with")
)

// BucketMetadata is the one JSON object stored in the clear in every bucket.
// SentinelB64 is a sealed container of throwaway random bytes; opening it is
// how a password is checked against the bucket before anything is uploaded.
// LabelSaltB64 is the salt for deriving the blob name encryption key (name
// encryption needs one stable key per bucket, so its salt lives here rather
// than in any container).
type BucketMetadata struct {
	Version      int
	LabelSaltB64 string
	SentinelB64  string
}

func (objst *ObjStore) isBucketEmpty(ctx context.Context, bucket string, vlog *util.VLog) (bool, error) {
	mTopLevelObjs, err := objst.GetObjList(ctx, bucket, "", vlog)
	if err != nil {
		log.Println("error: isBucketEmpty: cannot get bucket object list: ", err)
		return false, err
	}
	return len(mTopLevelObjs) == 0, nil
}

func (objst *ObjStore) readBucketMetadata(ctx context.Context, bucket string, masterPassword []byte, vlog *util.VLog) (labelKey []byte, err error) {
	buf, err := objst.DownloadObjToBuffer(ctx, bucket, MetadataObjName)
	if err != nil {
		log.Println("error: readBucketMetadata: cannot download bucket metadata object: ", err)
		return nil, err
	}

	var bMdata BucketMetadata
	if err = json.Unmarshal(buf, &bMdata); err != nil {
		log.Println("error: readBucketMetadata: cannot unmarshal bucket metadata json: ", err)
		return nil, err
	}

	// Opening the sentinel is the password check: wrong password means the
	// tag never verifies
	sentinel, err := base64.URLEncoding.DecodeString(bMdata.SentinelB64)
	if err != nil {
		log.Println("error: readBucketMetadata: cannot base64 decode sentinel: ", err)
		return nil, err
	}
	sentinelPlaintext, err := sealbox.Open(sentinel, masterPassword)
	if err != nil {
		if errors.Is(err, sealbox.ErrIncorrectPassword) {
			return nil, ErrWrongBucketPassword
		}
		log.Println("error: readBucketMetadata: cannot open sentinel: ", err)
		return nil, err
	}
	cryptography.ZeroBytes(sentinelPlaintext)

	labelSalt, err := base64.URLEncoding.DecodeString(bMdata.LabelSaltB64)
	if err != nil {
		log.Println("error: readBucketMetadata: cannot base64 decode label salt: ", err)
		return nil, err
	}
	labelKey, err = cryptography.DeriveKey(masterPassword, labelSalt, cryptography.DefaultKdfParams())
	if err != nil {
		vlog.Printf("error: readBucketMetadata: could not derive label key: %v", err)
		return nil, err
	}

	return labelKey, nil
}

func (objst *ObjStore) writeBucketMetadata(ctx context.Context, bucket string, bMdata *BucketMetadata) error {
	buf, err := json.Marshal(bMdata)
	if err != nil {
		log.Println("error: writeBucketMetadata: cannot marshal bucket metadata to json: ", err)
		return err
	}

	if err = objst.UploadObjFromBuffer(ctx, bucket, MetadataObjName, buf, ComputeETag(buf)); err != nil {
		log.Println("error: writeBucketMetadata: cannot upload metadata to bucket: ", err)
		return err
	}

	return nil
}

// GetOrCreateBucketMetadata reads the bucket's metadata object, verifies the
// master password against its sentinel, and returns the derived blob label
// encryption key. On a brand new (empty) bucket it first initializes the
// metadata object with a fresh label salt and a sentinel sealed under
// masterPassword. A non-empty bucket with no metadata object was not created
// by this tool and is refused with ErrNoMetadataButNotEmpty rather than
// written to.
//
// Callers should ZeroBytes the returned key when done with it.
func (objst *ObjStore) GetOrCreateBucketMetadata(ctx context.Context, bucket string, masterPassword []byte, vlog *util.VLog) ([]byte, error) {
	mObjs, err := objst.GetObjList(ctx, bucket, MetadataObjName, vlog)
	if err != nil {
		log.Println("error: GetOrCreateBucketMetadata: failed while searching for bucket metadata object: ", err)
		return nil, err
	}
	if _, ok := mObjs[MetadataObjName]; ok {
		return objst.readBucketMetadata(ctx, bucket, masterPassword, vlog)
	}

	isEmpty, err := objst.isBucketEmpty(ctx, bucket, vlog)
	if err != nil {
		log.Println("error: GetOrCreateBucketMetadata: cannot determine if bucket is empty: ", err)
		return nil, err
	}
	if !isEmpty {
		return nil, ErrNoMetadataButNotEmpty
	}

	vlog.Printf("initializing empty bucket '%s'", bucket)

	labelSalt, err := cryptography.GenerateRandomSalt(sealbox.SaltSize)
	if err != nil {
		log.Println("error: GetOrCreateBucketMetadata: cannot generate label salt: ", err)
		return nil, err
	}

	// The sentinel's contents are throwaway; the authentication tag is what
	// gets checked, not the bytes themselves
	sentinelPlaintext := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, sentinelPlaintext); err != nil {
		log.Println("error: GetOrCreateBucketMetadata: cannot generate sentinel bytes: ", err)
		return nil, err
	}
	sentinel, err := sealbox.Seal(sentinelPlaintext, masterPassword)
	if err != nil {
		log.Println("error: GetOrCreateBucketMetadata: cannot seal sentinel: ", err)
		return nil, err
	}

	bMdata := &BucketMetadata{
		Version:      bucketMetadataVersion,
		LabelSaltB64: base64.URLEncoding.EncodeToString(labelSalt),
		SentinelB64:  base64.URLEncoding.EncodeToString(sentinel),
	}
	if err := objst.writeBucketMetadata(ctx, bucket, bMdata); err != nil {
		log.Println("error: GetOrCreateBucketMetadata: cannot write new bucket metadata object: ", err)
		return nil, err
	}

	// Read back what we just wrote so both paths return the same thing
	return objst.readBucketMetadata(ctx, bucket, masterPassword, vlog)
}

// CheckBucketPassword verifies masterPassword against the bucket's sentinel
// without uploading or changing anything. Returns ErrWrongBucketPassword on
// mismatch.
func (objst *ObjStore) CheckBucketPassword(ctx context.Context, bucket string, masterPassword []byte, vlog *util.VLog) error {
	labelKey, err := objst.readBucketMetadata(ctx, bucket, masterPassword, vlog)
	if err != nil {
		return err
	}
	cryptography.ZeroBytes(labelKey)
	return nil
}
