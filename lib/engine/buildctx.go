package engine

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteBuildContext populates dir with a Containerfile and the requested
// number of random layer files. Random content keeps the registry from
// deduplicating layers across runs. Each COPY line becomes one layer.
func WriteBuildContext(dir string, layers int, layerSize int64) error {
	if layers < 1 {
		layers = 1
	}

	var containerfile strings.Builder
	containerfile.WriteString("FROM scratch\n")

	for i := 0; i < layers; i++ {
		name := fmt.Sprintf("layer-%d", i)
		if err := writeRandomFile(filepath.Join(dir, name), layerSize); err != nil {
			return fmt.Errorf("write layer file: %w", err)
		}
		fmt.Fprintf(&containerfile, "COPY %s /%s\n", name, name)
	}

	path := filepath.Join(dir, "Containerfile")
	if err := os.WriteFile(path, []byte(containerfile.String()), 0644); err != nil {
		return fmt.Errorf("write Containerfile: %w", err)
	}
	return nil
}

func writeRandomFile(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 32*1024)
	for size > 0 {
		n := int64(len(buf))
		if size < n {
			n = size
		}
		if _, err := rand.Read(buf[:n]); err != nil {
			return err
		}
		if _, err := f.Write(buf[:n]); err != nil {
			return err
		}
		size -= n
	}
	return f.Close()
}
