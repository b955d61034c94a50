package media

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bucketName = "uploads"

// File describes a stored upload.
type File struct {
	ID          primitive.ObjectID
	Name        string
	ContentType string
	Length      int64
}

// Store persists uploaded binaries.
type Store interface {
	Put(ctx context.Context, name, contentType string, r io.Reader) (primitive.ObjectID, error)
	// Open returns a nil reader when id is unknown.
	Open(ctx context.Context, id primitive.ObjectID) (io.ReadCloser, *File, error)
}

type GridFSStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSStore(db *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, err
	}
	return &GridFSStore{bucket: bucket}, nil
}

type fileMetadata struct {
	ContentType string `bson:"contentType"`
}

func (s *GridFSStore) Put(_ context.Context, name, contentType string, r io.Reader) (primitive.ObjectID, error) {
	return s.bucket.UploadFromStream(name, r,
		options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType}))
}

func (s *GridFSStore) Open(_ context.Context, id primitive.ObjectID) (io.ReadCloser, *File, error) {
	stream, err := s.bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	f := stream.GetFile()
	var meta fileMetadata
	if len(f.Metadata) > 0 {
		if err := bson.Unmarshal(f.Metadata, &meta); err != nil {
			_ = stream.Close()
			return nil, nil, err
		}
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}
	return stream, &File{ID: id, Name: f.Name, ContentType: meta.ContentType, Length: f.Length}, nil
}
