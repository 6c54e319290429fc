package s3view

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

// S3API is the subset of the S3 client the view uses
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Document is the published form of a keyword's active set
type Document struct {
	Keyword     string          `json:"keyword"`
	GeneratedAt time.Time       `json:"generated_at"`
	Domains     []DocumentEntry `json:"domains"`
}

// DocumentEntry is one active domain
type DocumentEntry struct {
	Domain string    `json:"domain"`
	Since  time.Time `json:"since"`
}

// S3View publishes the active set for a keyword as a JSON object in S3
type S3View struct {
	s3Client     S3API
	bucketName   string
	key          string
	contentType  string
	cacheControl string
	log          *slog.Logger
}

// New creates a new S3View adapter.
// An empty key publishes each keyword under active/<keyword>.json.
func New(s3Client S3API, bucketName, key string, log *slog.Logger) *S3View {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &S3View{
		s3Client:     s3Client,
		bucketName:   bucketName,
		key:          key,
		contentType:  "application/json",
		cacheControl: "max-age=60", // Cache for 1 minute
		log:          log,
	}
}

// Open creates an S3View using the default AWS credential chain
func Open(ctx context.Context, bucketName, key string, log *slog.Logger) (*S3View, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucketName, key, log), nil
}

// KeyFor returns the object key the keyword's document lives under
func (s *S3View) KeyFor(keyword string) string {
	if s.key != "" {
		return s.key
	}
	return "active/" + keyword + ".json"
}

// NewDocument builds the published document from active records
func NewDocument(keyword string, generatedAt time.Time, records []model.ActiveRecord) Document {
	doc := Document{
		Keyword:     keyword,
		GeneratedAt: generatedAt.UTC(),
		Domains:     make([]DocumentEntry, len(records)),
	}
	for i, record := range records {
		doc.Domains[i] = DocumentEntry{
			Domain: record.Domain,
			Since:  record.Since.UTC(),
		}
	}
	return doc
}

// Publish uploads the active set for keyword, replacing any earlier document
func (s *S3View) Publish(ctx context.Context, keyword string, generatedAt time.Time, records []model.ActiveRecord) error {
	jsonData, err := json.MarshalIndent(NewDocument(keyword, generatedAt, records), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal active set: %w", err)
	}

	key := s.KeyFor(keyword)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       &s.bucketName,
		Key:          &key,
		Body:         bytes.NewReader(jsonData),
		ContentType:  stringPtr(s.contentType),
		CacheControl: stringPtr(s.cacheControl),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.log.Info("Published active set",
		slog.String("bucket", s.bucketName),
		slog.String("key", key),
		slog.Int("record_count", len(records)))
	return nil
}

// Load reads back the document for keyword.
// Returns model.ErrNotFound if nothing has been published yet.
func (s *S3View) Load(ctx context.Context, keyword string) (*Document, error) {
	key := s.KeyFor(keyword)
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucketName,
		Key:    &key,
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	bodyBytes, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(bodyBytes, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode active set document: %w", err)
	}
	return &doc, nil
}

// stringPtr returns a pointer to a string
func stringPtr(s string) *string {
	return &s
}
