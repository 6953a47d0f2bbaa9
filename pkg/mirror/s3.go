package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/warptools/loom/loomapi"
)

// S3Publisher publishes payloads into an S3-compatible bucket, one object
// per content ID.  Credentials come from the usual AWS environment chain.
type S3Publisher struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      loomapi.S3PushConfig
}

// contentKey maps a content ID onto an object key, fanned out over two
// prefix levels so flat listings of large buckets stay manageable.
//
// Errors:
//
//    - loom-error-invalid -- when the content ID is too short to fan out
func contentKey(prefix *string, cid loomapi.ContentCID) (string, error) {
	s := string(cid)
	if len(s) < 7 {
		return "", loomapi.ErrorInvalid("content ID too short to map onto an object key", [2]string{"cid", s})
	}
	key := path.Join(s[0:3], s[3:6], s)
	if prefix != nil {
		key = path.Join(*prefix, key)
	}
	return key, nil
}

// NewS3Publisher connects to the configured endpoint and verifies the bucket
// is reachable before returning.
//
// Errors:
//
//    - loom-error-mirror -- when the endpoint or bucket cannot be reached
func NewS3Publisher(ctx context.Context, cfg loomapi.S3PushConfig) (*S3Publisher, error) {
	awscfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
					SigningRegion:     cfg.Region,
				}, nil
			})),
	)
	if err != nil {
		return nil, loomapi.ErrorMirror(fmt.Sprintf("loading client config for %q", cfg.Endpoint), err)
	}

	client := s3.NewFromConfig(awscfg)

	// make sure we can access the specified bucket
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, loomapi.ErrorMirror(fmt.Sprintf("could not access bucket %q", cfg.Bucket), err)
	}

	return &S3Publisher{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
	}, nil
}

func (pub *S3Publisher) hasNode(ctx context.Context, cid loomapi.ContentCID) (bool, error) {
	// TODO: list keys under the prefix once instead of one HEAD request per node.
	key, err := contentKey(pub.cfg.Path, cid)
	if err != nil {
		return false, err
	}
	_, err = pub.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(pub.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var responseError *awshttp.ResponseError
		if errors.As(err, &responseError) && responseError.ResponseError.HTTPStatusCode() == http.StatusNotFound {
			return false, nil
		}
		return false, loomapi.ErrorMirror(fmt.Sprintf("checking for %s in bucket %q", cid, pub.cfg.Bucket), err)
	}
	return true, nil
}

func (pub *S3Publisher) publishNode(ctx context.Context, cid loomapi.ContentCID, data []byte) error {
	key, err := contentKey(pub.cfg.Path, cid)
	if err != nil {
		return err
	}
	_, err = pub.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(pub.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return loomapi.ErrorMirror(fmt.Sprintf("uploading %s to bucket %q", cid, pub.cfg.Bucket), err)
	}
	return nil
}
