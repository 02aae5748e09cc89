package store

import (
	"context"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/cloud_storage/entity"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
	"google.golang.org/api/option"
)

var _ entity.FileStore = GoogleFileStore{}

type GoogleFileStore struct {
	client      *storage.Client
	storageHost string
}

func NewGoogleFileStore(storageHost string, options ...option.ClientOption) (GoogleFileStore, error) {
	client, err := storage.NewClient(context.Background(), options...)
	if err != nil {
		return GoogleFileStore{}, cerr.Wrap(err).Error("Failed to create google storage client")
	}

	return GoogleFileStore{
		client:      client,
		storageHost: storageHost,
	}, nil
}

func (g GoogleFileStore) GetFile(ctx context.Context, fileURL string) ([]byte, error) {
	errctx := cerr.Field("file_url", fileURL)

	bucketName, objectName, err := SplitURL(g.storageHost, fileURL)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to parse file URL")
	}

	reader, err := g.client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to open object for reading")
	}
	defer reader.Close()

	contents, err := io.ReadAll(reader)
	if err != nil {
		return nil, errctx.Wrap(err).Error("Failed to read object contents")
	}

	return contents, nil
}

func (g GoogleFileStore) WriteFile(ctx context.Context, fileURL string, contents []byte) error {
	errctx := cerr.Field("file_url", fileURL)

	bucketName, objectName, err := SplitURL(g.storageHost, fileURL)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to parse file URL")
	}

	writer := g.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentTypeFor(objectName)

	if _, err := writer.Write(contents); err != nil {
		_ = writer.Close()
		return errctx.Wrap(err).Error("Failed to write object contents")
	}

	// the upload only commits on close
	if err := writer.Close(); err != nil {
		return errctx.Wrap(err).Error("Failed to commit object upload")
	}

	return nil
}

// SplitURL breaks <host>/<bucket>/<object path> into bucket and object name.
func SplitURL(storageHost string, fileURL string) (string, string, error) {
	errctx := cerr.Field("storage_host", storageHost).Field("file_url", fileURL)

	host := strings.TrimSuffix(storageHost, "/") + "/"
	if !strings.HasPrefix(fileURL, host) {
		return "", "", errctx.Error("File URL doesn't belong to the storage host")
	}

	path := strings.TrimPrefix(fileURL, host)
	bucketName, escapedObject, found := strings.Cut(path, "/")
	if !found || bucketName == "" || escapedObject == "" {
		return "", "", errctx.Error("File URL is missing a bucket or object name")
	}

	objectName, err := url.PathUnescape(escapedObject)
	if err != nil {
		return "", "", errctx.Wrap(err).Error("Failed to unescape object name")
	}

	return bucketName, objectName, nil
}

func contentTypeFor(objectName string) string {
	switch {
	case strings.HasSuffix(objectName, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(objectName, ".wav"):
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}
