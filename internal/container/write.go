package container

import "curator/internal/fileutil"

func writeFile(path string, data []byte) error {
	return fileutil.AtomicWrite(path, data, 0o644)
}
