package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultBucket = "payment_slips"

// GridFSStorage は MongoDB GridFS に保存する
type GridFSStorage struct {
	bucket    *gridfs.Bucket
	publicURL string
}

func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// NewGridFSStorage: publicURL は保存パスの前に付けて返す公開 URL のベース
func NewGridFSStorage(db *mongo.Database, bucketName string, publicURL string) (*GridFSStorage, error) {
	if bucketName == "" {
		bucketName = defaultBucket
	}
	b, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStorage{bucket: b, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Upload は pathHint 配下にユニークな名前で保存する
func (s *GridFSStorage) Upload(ctx context.Context, obj Object, pathHint string) (Stored, error) {
	name := path.Join(strings.Trim(pathHint, "/"), uuid.NewString()+extFor(obj))

	opts := options.GridFSUpload().SetMetadata(bson.M{
		"contentType":  obj.ContentType,
		"originalName": obj.Filename,
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.bucket.UploadFromStream(name, bytes.NewReader(obj.Bytes), opts)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return Stored{}, ctx.Err()
	case err := <-done:
		if err != nil {
			return Stored{}, fmt.Errorf("gridfs upload: %w", err)
		}
	}

	return Stored{URL: s.publicURL + "/" + name, Path: name}, nil
}

func (s *GridFSStorage) Delete(ctx context.Context, objectPath string) error {
	cur, err := s.bucket.FindContext(ctx, bson.M{"filename": objectPath})
	if err != nil {
		return fmt.Errorf("gridfs find: %w", err)
	}
	defer cur.Close(ctx)

	found := false
	for cur.Next(ctx) {
		var f struct {
			ID any `bson:"_id"`
		}
		if err := cur.Decode(&f); err != nil {
			return err
		}
		if err := s.bucket.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("gridfs delete: %w", err)
		}
		found = true
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if !found {
		return ErrObjectNotFound
	}
	return nil
}

// Open は管理画面で明細を表示するときに使う
func (s *GridFSStorage) Open(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := s.bucket.DownloadToStreamByName(objectPath, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("gridfs download: %w", err)
	}
	return buf.Bytes(), nil
}

func extFor(obj Object) string {
	switch obj.ContentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	return path.Ext(obj.Filename)
}
