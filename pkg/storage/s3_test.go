package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
)

func TestNotExistMapsMissingKey(t *testing.T) {
	apiErr := fmt.Errorf("operation error S3: GetObject: %w", &types.NoSuchKey{Message: aws.String("The specified key does not exist.")})

	err := notExist(apiErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "specified key does not exist")
}

func TestNotExistKeepsOtherErrors(t *testing.T) {
	other := errors.New("access denied")
	assert.Same(t, other, notExist(other))
	assert.False(t, errors.Is(notExist(other), fs.ErrNotExist))
}
