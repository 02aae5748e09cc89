package dummy

import (
	"context"
	"sync"

	"github.com/veedubyou/stem-remixer/src/worker/internal/application/cloud_storage/entity"
)

var _ entity.FileStore = &FileStore{}

type FileStore struct {
	Unavailable bool
	files       map[string][]byte
	mutex       sync.RWMutex
}

func NewDummyFileStore() *FileStore {
	return &FileStore{
		Unavailable: false,
		files:       make(map[string][]byte),
	}
}

func (f *FileStore) GetFile(_ context.Context, fileURL string) ([]byte, error) {
	if f.Unavailable {
		return nil, NetworkFailure
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	contents, ok := f.files[fileURL]
	if !ok {
		return nil, NotFound
	}

	return append([]byte{}, contents...), nil
}

func (f *FileStore) WriteFile(_ context.Context, fileURL string, contents []byte) error {
	if f.Unavailable {
		return NetworkFailure
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.files[fileURL] = append([]byte{}, contents...)
	return nil
}

func (f *FileStore) URLs() []string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	urls := []string{}
	for url := range f.files {
		urls = append(urls, url)
	}

	return urls
}
