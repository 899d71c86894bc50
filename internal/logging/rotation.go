package logging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// rotate removes the oldest cmdsync log files in dir so that at most
// maxFiles-1 remain before a new file is opened.
func rotate(dir string, maxFiles int) error {
	if maxFiles <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	type logFile struct {
		path    string
		modUnix int64
	}
	var files []logFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{path: filepath.Join(dir, name), modUnix: info.ModTime().UnixNano()})
	}
	if len(files) < maxFiles {
		return nil
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].modUnix == files[j].modUnix {
			return files[i].path < files[j].path
		}
		return files[i].modUnix < files[j].modUnix
	})
	for _, f := range files[:len(files)-maxFiles+1] {
		os.Remove(f.path) // ignore errors
	}
	return nil
}
