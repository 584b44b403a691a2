// Package objstore keeps sealed containers in an S3-compatible bucket.
// Containers are uploaded exactly as Seal produced them; the only thing
// this package adds on top of the transport is deterministic encryption of
// blob names, so an untrusted server learns neither contents nor names.
package objstore

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fsctl/sealbox/pkg/util"
)

const (
	ObjStoreMultiPartUploadPartSize = 129 * 1024 * 1024
)

type ObjStore struct {
	endpoint        string
	accessKeyId     string
	secretAccessKey string
	minioClient     *minio.Client
}

var (
	ErrUploadCorrupted = errors.New("error: upload corrupted in transit, bad etag returned")
)

func NewObjStore(ctx context.Context, endpoint string, accessKeyId string, secretAccessKey string) *ObjStore {
	useSSL := !true

	// Initialize minio client object.
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyId, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Fatalln("error: NewObjStore: ", err)
	}

	return &ObjStore{
		endpoint:        endpoint,
		accessKeyId:     accessKeyId,
		secretAccessKey: secretAccessKey,
		minioClient:     minioClient,
	}
}

func (objst *ObjStore) IsReachableWithRetries(ctx context.Context, maxWaitSeconds int, bucket string, vlog *util.VLog) bool {
	waitSeconds := 1
	for waitSeconds < maxWaitSeconds {
		if _, err := objst.GetObjList(ctx, bucket, "", vlog); err != nil {
			log.Printf("warning: server unreachable: %v\n", err)
			log.Printf("trying again in %d seconds...\n", waitSeconds)
			time.Sleep(time.Duration(waitSeconds * 1e9))
			waitSeconds *= 2
		} else {
			return true
		}
	}
	return false
}

func (objst *ObjStore) UploadObjFromBuffer(ctx context.Context, bucket string, objectName string, buffer []byte, expectedETag string) error {
	contentType := "application/octet-stream"

	// convert byte slice to io.Reader
	reader := bytes.NewReader(buffer)

	info, err := objst.minioClient.PutObject(ctx, bucket, objectName, reader, int64(len(buffer)), minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    ObjStoreMultiPartUploadPartSize})
	if err != nil {
		log.Printf("error: UploadObjFromBuffer (%s): %v", objectName, err)
		return err
	}
	if info.ETag != expectedETag && expectedETag != "" {
		log.Printf("error: UploadObjFromBuffer: ETag returned was '%s', expected '%s'", info.ETag, expectedETag)
		return ErrUploadCorrupted
	}

	return nil
}

func (objst *ObjStore) DownloadObjToBuffer(ctx context.Context, bucket string, objectName string) ([]byte, error) {
	reader, err := objst.minioClient.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		log.Println("error: DownloadObjToBuffer (GetObject): ", err)
		return nil, err
	}
	defer reader.Close()

	// Copy reader to byte array
	var b bytes.Buffer
	bufWriter := bufio.NewWriter(&b)

	stat, err := reader.Stat()
	if err != nil {
		log.Printf("error: DownloadObjToBuffer (Stat on '%s'): %v", objectName, err)
		return nil, err
	}

	if _, err := io.CopyN(bufWriter, reader, stat.Size); err != nil {
		log.Println("error: DownloadObjToBuffer (CopyN): ", err)
		return nil, err
	}
	if err := bufWriter.Flush(); err != nil {
		log.Println("error: DownloadObjToBuffer (Flush): ", err)
		return nil, err
	}

	return b.Bytes(), nil
}

func (objst *ObjStore) GetObjList(ctx context.Context, bucket string, prefix string, vlog *util.VLog) (map[string]int64, error) {
	mAllObjects := make(map[string]int64, 0)

	opts := minio.ListObjectsOptions{
		Recursive: true,
		Prefix:    prefix,
	}

	for object := range objst.minioClient.ListObjects(ctx, bucket, opts) {
		if object.Err != nil {
			log.Printf("warning: GetObjList (ListObjects): %v", object.Err)
			return nil, object.Err
		}
		vlog.Printf("GetObjList: '%s' (%d bytes)", object.Key, object.Size)
		mAllObjects[object.Key] = object.Size
	}

	return mAllObjects, nil
}

func (objst *ObjStore) DeleteObj(ctx context.Context, bucket string, objectName string) error {
	opts := minio.RemoveObjectOptions{
		GovernanceBypass: true,
	}
	err := objst.minioClient.RemoveObject(ctx, bucket, objectName, opts)
	return err
}

// Computes the expected ETag for the entire buffer buf
func ComputeETag(buf []byte) string {
	md5s := make([][16]byte, 0)
	bufStartPos := 0
	for {
		var bufPart []byte
		bufEndPos := bufStartPos + ObjStoreMultiPartUploadPartSize
		if len(buf) > bufEndPos {
			bufPart = buf[bufStartPos:bufEndPos]
			md5s = append(md5s, md5.Sum(bufPart))
			bufStartPos = bufEndPos
		} else {
			bufPart = buf[bufStartPos:]
			md5s = append(md5s, md5.Sum(bufPart))
			break
		}
	}

	// if len(buf) was <= ObjStoreMultiPartUploadPartSize then we
	// just return the md5
	var eTag string
	if len(md5s) == 1 {
		eTag = fmt.Sprintf("%x", md5s[0])
	} else {
		// Concatenate the md5s into a single []byte, and md5 that
		concatMd5s := make([]byte, 0)
		for _, md5Val := range md5s {
			for i := 0; i < 16; i++ {
				concatMd5s = append(concatMd5s, md5Val[i])
			}
		}
		eTag = fmt.Sprintf("%x-%d", md5.Sum(concatMd5s), len(md5s))
	}

	return eTag
}
