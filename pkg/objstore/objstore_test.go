package objstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fsctl/sealbox/pkg/cryptography"
)

func TestComputeETag(t *testing.T) {
	bufEmpty := []byte{}
	eTag := ComputeETag(bufEmpty)
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", eTag)

	bufSmall := []byte{0x68, 0x65, 0x6c, 0x6c, 0x6f}
	eTag = ComputeETag(bufSmall)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", eTag)

	bufTwoParts := make([]byte, 0)
	for i := 0; i < ObjStoreMultiPartUploadPartSize+1; i++ {
		bufTwoParts = append(bufTwoParts, 0x00)
	}
	eTag = ComputeETag(bufTwoParts)
	assert.Equal(t, "0cb34dc976627c8d711d213ea1c83f08-2", eTag)
}

func TestBlobObjName(t *testing.T) {
	labelKey := make([]byte, 32)
	for i := range labelKey {
		labelKey[i] = byte(i)
	}

	objName, err := blobObjName(labelKey, "tax-returns-2025")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(objName, blobObjPrefix))
	assert.NotContains(t, objName, "tax-returns-2025")

	// deterministic: the same name always maps to the same object key
	objNameAgain, err := blobObjName(labelKey, "tax-returns-2025")
	assert.NoError(t, err)
	assert.Equal(t, objName, objNameAgain)

	// and the listing path recovers the original name
	name, err := cryptography.DecryptLabel(labelKey, strings.TrimPrefix(objName, blobObjPrefix))
	assert.NoError(t, err)
	assert.Equal(t, "tax-returns-2025", name)

	// a different key yields an unrelated object key
	otherKey := make([]byte, 32)
	objNameOtherKey, err := blobObjName(otherKey, "tax-returns-2025")
	assert.NoError(t, err)
	assert.NotEqual(t, objName, objNameOtherKey)
}
