package fcs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	fcstesting "github.com/bitrise-io/go-fcs/internal/testing"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectUploader struct {
	errs   []error
	inputs []s3.PutObjectInput
	bodies [][]byte
}

func (f *fakeObjectUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, *input)
	f.bodies = append(f.bodies, body)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &manager.UploadOutput{}, nil
}

func TestStage(t *testing.T) {
	pth, content := fcstesting.WriteFile(t, "book.epub", 100)
	uploader := &fakeObjectUploader{errs: []error{errors.New("connection reset"), errors.New("connection reset")}}
	stager := s3Stager{uploader: uploader, logger: log.NewLogger()}

	uri, err := stager.stage(context.Background(), S3StageParams{FilePath: pth, Bucket: "books", Key: "/incoming/book.epub"})
	require.NoError(t, err)

	assert.Equal(t, "https://books.s3.amazonaws.com/incoming/book.epub", uri)
	require.Len(t, uploader.inputs, 3)
	for i, input := range uploader.inputs {
		assert.Equal(t, "books", aws.ToString(input.Bucket))
		assert.Equal(t, "incoming/book.epub", aws.ToString(input.Key))
		assert.Equal(t, "application/epub+zip", aws.ToString(input.ContentType))
		assert.Equal(t, content, uploader.bodies[i], "every attempt sends the whole file")
	}
}

func TestStage_DefaultKeyAndAbortOnClientFault(t *testing.T) {
	pth, _ := fcstesting.WriteFile(t, "cover.png", 10)
	denied := &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied", Fault: smithy.FaultClient}
	uploader := &fakeObjectUploader{errs: []error{denied}}
	stager := s3Stager{uploader: uploader, logger: log.NewLogger()}

	_, err := stager.stage(context.Background(), S3StageParams{FilePath: pth, Bucket: "books"})

	var apiErr smithy.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "AccessDenied", apiErr.ErrorCode())
	require.Len(t, uploader.inputs, 1)
	assert.Equal(t, "cover.png", aws.ToString(uploader.inputs[0].Key))
	assert.Equal(t, "image/png", aws.ToString(uploader.inputs[0].ContentType))
}

func TestStageToS3_InvalidParams(t *testing.T) {
	client := &Client{logger: log.NewLogger()}

	_, err := client.StageToS3(context.Background(), S3StageParams{FilePath: "a.epub"})
	assert.EqualError(t, err, "bucket must not be empty")

	_, err = client.StageToS3(context.Background(), S3StageParams{Bucket: "books"})
	assert.EqualError(t, err, "file path must not be empty")

	_, err = client.StageToS3(context.Background(), S3StageParams{Bucket: "books", FilePath: "a.epub"})
	assert.EqualError(t, err, "load aws credentials: region must not be empty")
}

func Test_s3URI(t *testing.T) {
	assert.Equal(t, "https://b.s3.amazonaws.com/path/to/some%20asset.epub", s3URI("b", "path/to/some asset.epub"))
}

func TestTransferS3Asset(t *testing.T) {
	service, server := newFakeService(t, func(r recorded) (int, string) {
		if r.method == http.MethodPut {
			return http.StatusOK, `<asset><id>42</id><tag>9781234567897-CLD_AT_Epub</tag></asset>`
		}
		return http.StatusOK, "ok"
	})
	client := newTestClient(t, server.URL)

	asset, err := client.TransferS3Asset(context.Background(), testProduct, "https://bucket.s3.amazonaws.com/a/b.epub", "")
	require.NoError(t, err)
	assert.Equal(t, "42", asset.String("id"))

	requests := service.recorded()
	require.Len(t, requests, 2)
	assert.Equal(t, "PUT /api/assets/new", requests[0].route())
	assert.Equal(t, "POST /api/copy-s3-asset/42", requests[1].route())

	_, body := decodeBody(t, requests[0].body)
	assert.Equal(t, "b.epub", body.String("original-file-name"))
	assert.Equal(t, string(AssetTypeEpub), body.String("asset-type-name"))
}
