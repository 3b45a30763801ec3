package builtin

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	s3Once   sync.Once
	s3Client *s3.Client
	s3Err    error
)

func s3Conn() (*s3.Client, error) {
	s3Once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			s3Err = err
			return
		}
		s3Client = s3.NewFromConfig(cfg)
	})
	return s3Client, s3Err
}

// S3Get reads an object at s3://bucket/key and returns its body, grounded
// on aws-sdk-go-v2/service/s3.
func S3Get(uri string) (string, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return "", err
	}
	cli, err := s3Conn()
	if err != nil {
		return "", err
	}
	out, err := cli.GetObject(context.Background(), &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return "", err
	}
	defer out.Body.Close()
	b, err := io.ReadAll(out.Body)
	return string(b), err
}

// S3Put writes body to s3://bucket/key.
func S3Put(uri, body string) error {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return err
	}
	cli, err := s3Conn()
	if err != nil {
		return err
	}
	_, err = cli.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(bucket), Key: aws.String(key), Body: bytes.NewReader([]byte(body)),
	})
	return err
}

func splitS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return "", "", errInvalidS3URI(uri)
	}
	return parts[0], parts[1], nil
}

type errInvalidS3URI string

func (e errInvalidS3URI) Error() string { return "invalid s3 uri: " + string(e) }
