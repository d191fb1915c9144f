package mongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

const (
	fileBucket      = "uploads"
	transferTimeout = 60 * time.Second
)

// FileStore implements ports.FileStore on GridFS.
type FileStore struct {
	db *mongo.Database
}

func NewFileStore(db *mongo.Database) *FileStore {
	return &FileStore{db: db}
}

// bucket opens a bucket whose deadline follows ctx. GridFS streams take
// deadlines rather than contexts, so every call gets its own bucket.
func (s *FileStore) bucket(ctx context.Context) (*gridfs.Bucket, time.Time, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(fileBucket))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open bucket: %w", err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(transferTimeout)
	}
	return b, deadline, nil
}

func (s *FileStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (*ports.StoredFile, error) {
	b, deadline, err := s.bucket(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType})
	stream, err := b.OpenUploadStream(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	size, err := io.Copy(stream, r)
	if err != nil {
		_ = stream.Abort()
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("finish upload %s: %w", filename, err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected file id type %T", stream.FileID)
	}
	return &ports.StoredFile{
		ID:          id.Hex(),
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

func (s *FileStore) Open(ctx context.Context, id string) (io.ReadCloser, *ports.StoredFile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, domain.ErrFileNotFound
	}
	b, deadline, err := s.bucket(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := b.SetReadDeadline(deadline); err != nil {
		return nil, nil, err
	}

	stream, err := b.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, domain.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("open download: %w", err)
	}

	f := stream.GetFile()
	meta := &ports.StoredFile{
		ID:          id,
		Filename:    f.Name,
		Size:        f.Length,
		UploadedAt:  f.UploadDate,
		ContentType: "application/octet-stream",
	}
	if f.Metadata != nil {
		if ct, ok := f.Metadata.Lookup("content_type").StringValueOK(); ok {
			meta.ContentType = ct
		}
	}
	return stream, meta, nil
}
