package media

import (
	"context"
	"io"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig for the S3 compatible media host
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Secure    bool
	// PublicURL is the base URL objects are served from,
	// defaults to the endpoint plus bucket.
	PublicURL string
}

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string,
		reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Minio uploads files into a bucket
type Minio struct {
	cli       objectPutter
	bucket    string
	prefix    string
	publicURL string
}

// NewMinio connects to the endpoint and makes sure the bucket exists
func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new minio client")
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "check bucket %q", cfg.Bucket)
	}
	if !exists {
		return nil, errors.Errorf("bucket %q not found", cfg.Bucket)
	}

	if cfg.PublicURL == "" {
		scheme := "http"
		if cfg.Secure {
			scheme = "https"
		}
		cfg.PublicURL = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}

	return newMinio(cli, cfg), nil
}

func newMinio(cli objectPutter, cfg MinioConfig) *Minio {
	return &Minio{
		cli:       cli,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		publicURL: cfg.PublicURL,
	}
}

// Upload puts the file under prefix/<uuid><ext>
func (m *Minio) Upload(ctx context.Context, file File) (string, error) {
	objkey := objectName(file.Filename)
	if m.prefix != "" {
		objkey = m.prefix + "/" + objkey
	}

	reader, err := file.Open()
	if err != nil {
		return "", errors.Wrapf(err, "open file %q", file.Filename)
	}
	defer reader.Close() //nolint:errcheck

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err = m.cli.PutObject(ctx, m.bucket, objkey, reader, file.Size,
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	); err != nil {
		return "", errors.Wrapf(err, "put object %q", objkey)
	}

	return joinURL(m.publicURL, objkey), nil
}
