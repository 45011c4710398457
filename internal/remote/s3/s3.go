// Package s3 implements the remote.Provider contract over an S3 or
// MinIO bucket, presenting key prefixes as folders. Folder IDs are the
// prefixes themselves; the root folder is the configured base prefix.
package s3

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/drivelens/drivelens/internal/remote"
)

// ProviderConfig holds S3 provider settings.
type ProviderConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Prefix    string
}

// Provider lists an S3 bucket as a folder tree.
type Provider struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds an S3 provider from config.
func New(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &Provider{
		client: client,
		bucket: cfg.Bucket,
		prefix: NormalizePrefix(cfg.Prefix),
	}, nil
}

// NormalizePrefix ensures a non-empty prefix ends with "/". The result
// doubles as the root folder ID.
func NormalizePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}

// RootID returns the folder ID of the configured root.
func (p *Provider) RootID() string {
	return p.prefix
}

// List returns one page of a prefix's children: common prefixes map to
// folders, objects to files.
func (p *Provider) List(ctx context.Context, folderID, pageToken string) (*remote.Listing, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucket),
		Prefix:    aws.String(folderID),
		Delimiter: aws.String("/"),
	}
	if pageToken != "" {
		input.ContinuationToken = aws.String(pageToken)
	}

	out, err := p.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("s3: list %s: %w", folderID, classify(err))
	}

	listing := &remote.Listing{}
	if out.NextContinuationToken != nil {
		listing.NextPageToken = *out.NextContinuationToken
	}

	for _, cp := range out.CommonPrefixes {
		prefix := aws.ToString(cp.Prefix)
		listing.Entries = append(listing.Entries, remote.Entry{
			ID:       prefix,
			Name:     path.Base(strings.TrimSuffix(prefix, "/")),
			MimeType: remote.MimeFolder,
			Link:     "s3://" + p.bucket + "/" + prefix,
		})
	}

	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if key == folderID {
			// Placeholder object for the folder itself.
			continue
		}
		entry := remote.Entry{
			ID:       key,
			Name:     strings.TrimPrefix(key, folderID),
			MimeType: mimeForKey(key),
			Size:     aws.ToInt64(obj.Size),
			Link:     "s3://" + p.bucket + "/" + key,
		}
		if obj.LastModified != nil {
			entry.ModifiedTime = obj.LastModified.UTC().Format(time.RFC3339)
		}
		listing.Entries = append(listing.Entries, entry)
	}

	return listing, nil
}

// Description implements remote.Provider; S3 prefixes carry no
// description.
func (p *Provider) Description(ctx context.Context, folderID string) (string, error) {
	return "", nil
}

func mimeForKey(key string) string {
	mimeType := mime.TypeByExtension(path.Ext(key))
	if mimeType == "" {
		return "application/octet-stream"
	}
	// TypeByExtension may append a charset parameter.
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return mimeType
}

// classify maps S3 API error codes onto the provider error kinds the
// retry policy branches on.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded":
		return fmt.Errorf("%w: %s", remote.ErrRateLimited, apiErr.ErrorMessage())
	case "AccessDenied":
		return fmt.Errorf("%w: %s", remote.ErrPermissionDenied, apiErr.ErrorMessage())
	default:
		return err
	}
}
