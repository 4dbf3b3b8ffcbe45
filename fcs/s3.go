package fcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-fcs/markup"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
)

const (
	numStageRetries = 3
	stagePartSizeMB = 10
)

// S3StageParams ...
type S3StageParams struct {
	FilePath string
	Bucket   string
	// Key defaults to the file name.
	Key             string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// ContentType defaults to the content type of the file extension.
	ContentType string
}

// PostS3AssetPath asks the service to copy the asset content from an S3 object, given as
// https://<bucket>.s3.amazonaws.com/<key>.
func (c *Client) PostS3AssetPath(ctx context.Context, assetID, s3URI string) ([]byte, error) {
	if err := requireID("asset", assetID); err != nil {
		return nil, err
	}
	return c.sendRaw(ctx, http.MethodPost, withQuery("copy-s3-asset/"+pathEscape(assetID), "s3uri", s3URI), "", nil)
}

// TransferS3Asset registers a pending asset of product for an S3 object and asks the service
// to copy it. The registered asset is returned.
func (c *Client) TransferS3Asset(ctx context.Context, product markup.Value, s3URI string, assetType AssetType) (markup.Value, error) {
	asset, err := c.PutAsset(ctx, product, s3URI, assetType)
	if err != nil {
		return markup.Value{}, err
	}

	if _, err := c.PostS3AssetPath(ctx, asset.String("id"), s3URI); err != nil {
		return asset, err
	}
	return asset, nil
}

// StageToS3 uploads a local file to an S3 bucket and returns its URI in the form
// TransferS3Asset expects.
func (c *Client) StageToS3(ctx context.Context, params S3StageParams) (string, error) {
	if params.Bucket == "" {
		return "", fmt.Errorf("bucket must not be empty")
	}
	if params.FilePath == "" {
		return "", fmt.Errorf("file path must not be empty")
	}

	cfg, err := loadAWSCredentials(ctx, params.Region, params.AccessKeyID, params.SecretAccessKey, c.logger)
	if err != nil {
		return "", fmt.Errorf("load aws credentials: %w", err)
	}

	uploader := manager.NewUploader(s3.NewFromConfig(*cfg), func(u *manager.Uploader) {
		u.PartSize = stagePartSizeMB * 1024 * 1024
	})
	stager := s3Stager{uploader: uploader, wait: 5 * time.Second, logger: c.logger}

	return stager.stage(ctx, params)
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type s3Stager struct {
	uploader objectUploader
	wait     time.Duration
	logger   log.Logger
}

func (s s3Stager) stage(ctx context.Context, params S3StageParams) (string, error) {
	key := strings.TrimLeft(params.Key, "/")
	if key == "" {
		key = fileName(params.FilePath)
	}
	contentType := params.ContentType
	if contentType == "" {
		contentType = ContentType(fileExt(params.FilePath))
	}

	err := retry.Times(numStageRetries).Wait(s.wait).TryWithAbort(func(attempt uint) (error, bool) {
		if attempt > 0 {
			s.logger.Warnf("Retrying S3 upload of %s (attempt %d)", params.FilePath, attempt+1)
		}

		file, err := os.Open(params.FilePath)
		if err != nil {
			return fmt.Errorf("open file: %w", err), true
		}
		defer file.Close() //nolint:errcheck

		_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
			Body:        file,
			Bucket:      aws.String(params.Bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			var apiErr smithy.APIError
			if ctx.Err() != nil || (errors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultClient) {
				return fmt.Errorf("upload to s3: %w", err), true
			}
			return fmt.Errorf("upload to s3: %w", err), false
		}
		return nil, true
	})
	if err != nil {
		return "", err
	}

	uri := s3URI(params.Bucket, key)
	s.logger.Debugf("Staged %s as %s", params.FilePath, uri)
	return uri, nil
}

func s3URI(bucket, key string) string {
	u := url.URL{Scheme: "https", Host: bucket + ".s3.amazonaws.com", Path: "/" + key}
	return u.String()
}

func loadAWSCredentials(
	ctx context.Context,
	region string,
	accessKeyID string,
	secretKey string,
	logger log.Logger,
) (*aws.Config, error) {
	if region == "" {
		return nil, fmt.Errorf("region must not be empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	if accessKeyID != "" && secretKey != "" {
		logger.Debugf("aws credentials provided, using them...")
		opts = append(opts,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %v", err)
	}

	return &cfg, nil
}
