package image

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	domainimage "github.com/imagereader/imagereader-mcp/domain/image"
)

// ReadFile reads path, refusing directories and files larger than maxBytes.
// A maxBytes of zero or less disables the cap.
func ReadFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, classify(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, classify(path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domainimage.ErrIO, path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domainimage.ErrInputTooLarge, path, info.Size(), maxBytes)
	}

	var r io.Reader = f
	if maxBytes > 0 {
		// The file may grow between Stat and Read.
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, classify(path, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domainimage.ErrInputTooLarge, path, maxBytes)
	}
	return data, nil
}

func classify(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domainimage.ErrFileNotFound, path)
	}
	return fmt.Errorf("%w: %v", domainimage.ErrIO, err)
}
