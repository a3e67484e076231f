package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const tempPrefix = ".cache-"

// NewStore 以 basePath 为根目录构建磁盘存储，同一目录可被多个进程共享。
func NewStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	return &fileStore{
		basePath: abs,
		locks:    make(map[string]*entryLock),
	}, nil
}

// fileStore 通过 entryLock 串行化同一进程内对同一 Locator 的写入；
// 跨进程的并发写入依赖 rename 的原子性，最后写入者生效。
type fileStore struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Root() string {
	return s.basePath
}

func (s *fileStore) Get(ctx context.Context, locator Locator) (*ReadResult, error) {
	entry, err := s.Stat(ctx, locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(entry.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &ReadResult{
		Entry:  *entry,
		Reader: f,
	}, nil
}

func (s *fileStore) Stat(ctx context.Context, locator Locator) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	return &Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

func (s *fileStore) Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error) {
	unlock := s.lockEntry(locator)
	defer unlock()

	filePath, err := s.entryPath(locator)
	if err != nil {
		return nil, err
	}

	// MkdirAll 对已存在的目录返回 nil，多个 worker 同时创建同一目录是安全的。
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), tempPrefix+"*")
	if err != nil {
		return nil, err
	}
	tempName := tempFile.Name()

	written, err := copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return nil, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	modTime := opts.ModTime
	if modTime.IsZero() {
		modTime = time.Now().UTC()
	}
	if err := os.Chtimes(filePath, modTime, modTime); err != nil {
		return nil, err
	}

	entry := Entry{
		Locator:   locator,
		FilePath:  filePath,
		SizeBytes: written,
		ModTime:   modTime,
	}
	return &entry, nil
}

func (s *fileStore) Remove(ctx context.Context, locator Locator) error {
	unlock := s.lockEntry(locator)
	defer unlock()

	filePath, err := s.entryPath(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) List(ctx context.Context, namespace string) ([]Entry, error) {
	root, err := s.namespaceRoot(namespace)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	walkErr := filepath.WalkDir(root, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(root, filePath)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Locator:   Locator{Namespace: namespace, Path: filepath.ToSlash(rel)},
			FilePath:  filePath,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Locator.Path < entries[j].Locator.Path
	})
	return entries, nil
}

func (s *fileStore) lockEntry(locator Locator) func() {
	key := locatorKey(locator)
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func (s *fileStore) namespaceRoot(namespace string) (string, error) {
	if namespace == "" {
		return s.basePath, nil
	}
	clean := strings.TrimPrefix(path.Clean("/"+namespace), "/")
	if clean == "" || clean != strings.Trim(namespace, "/") {
		return "", fmt.Errorf("invalid cache namespace %q", namespace)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

func (s *fileStore) entryPath(locator Locator) (string, error) {
	root, err := s.namespaceRoot(locator.Namespace)
	if err != nil {
		return "", err
	}

	rel := strings.TrimPrefix(path.Clean("/"+locator.Path), "/")
	if rel == "" {
		return "", errors.New("cache entry path required")
	}

	filePath := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(filePath, root+string(filepath.Separator)) {
		return "", errors.New("invalid cache path")
	}
	return filePath, nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}

func locatorKey(locator Locator) string {
	return locator.Namespace + "::" + locator.Path
}
