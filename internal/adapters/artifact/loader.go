// Package artifact loads the pre-fitted vectorizer and classifier exported
// as JSON documents.
package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3GetObjectAPI is the part of the S3 client the loader needs
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader fetches artifacts from the local filesystem or from s3://bucket/key
// locations and verifies their SHA-256 digest.
type Loader struct {
	s3Region string
	logger   *zap.Logger

	mu       sync.Mutex
	s3Client S3GetObjectAPI
}

// NewLoader creates a loader. The S3 client is only created when an s3://
// location is requested.
func NewLoader(s3Region string, logger *zap.Logger) *Loader {
	return &Loader{
		s3Region: s3Region,
		logger:   logger,
	}
}

// NewLoaderWithS3 creates a loader that uses the given S3 client
func NewLoaderWithS3(client S3GetObjectAPI, logger *zap.Logger) *Loader {
	return &Loader{
		s3Client: client,
		logger:   logger,
	}
}

// Digest returns the hex SHA-256 digest of data
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Load fetches location and checks it against wantSHA256 when that is set.
// It returns the bytes and their digest.
func (l *Loader) Load(ctx context.Context, location, wantSHA256 string) ([]byte, string, error) {
	data, err := l.fetch(ctx, location)
	if err != nil {
		return nil, "", err
	}

	digest := Digest(data)
	if wantSHA256 != "" && !strings.EqualFold(strings.TrimSpace(wantSHA256), digest) {
		return nil, "", fmt.Errorf("%w: %s is %s, expected %s", core.ErrDigestMismatch, location, digest, wantSHA256)
	}

	l.logger.Info("Loaded artifact",
		zap.String("location", location),
		zap.Int("bytes", len(data)),
		zap.String("sha256", digest),
		zap.Bool("pinned", wantSHA256 != ""))

	return data, digest, nil
}

// LoadVectorizer loads and parses a vectorizer artifact
func (l *Loader) LoadVectorizer(ctx context.Context, location, wantSHA256 string) (*Vectorizer, error) {
	data, digest, err := l.Load(ctx, location, wantSHA256)
	if err != nil {
		return nil, err
	}
	v, err := ParseVectorizer(data, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vectorizer %s: %w", location, err)
	}
	return v, nil
}

// LoadModel loads and parses a model artifact
func (l *Loader) LoadModel(ctx context.Context, location, wantSHA256 string) (*Model, error) {
	data, digest, err := l.Load(ctx, location, wantSHA256)
	if err != nil {
		return nil, err
	}
	m, err := ParseModel(data, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model %s: %w", location, err)
	}
	return m, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "s3://") {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact: %w", err)
		}
		return data, nil
	}

	bucket, key, err := parseS3Location(location)
	if err != nil {
		return nil, err
	}

	client, err := l.getS3Client()
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact from S3: %w", err)
	}
	return data, nil
}

func (l *Loader) getS3Client() (S3GetObjectAPI, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.s3Client != nil {
		return l.s3Client, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(l.s3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	l.s3Client = s3.NewFromConfig(awsCfg)
	return l.s3Client, nil
}

func parseS3Location(location string) (string, string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 location %q: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 location %q: expected s3://bucket/key", location)
	}
	return u.Host, key, nil
}
