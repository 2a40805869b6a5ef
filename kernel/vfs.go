package kernel

import (
	"sort"
	"sync"
)

// FileEntry is one file in the in-memory namespace.
type FileEntry struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// FileSummary is the read-only projection returned by list_files (spec §6):
// path, size, and a short content preview.
type FileSummary struct {
	Path    string `json:"path"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
}

const previewLen = 72

// VFS is the in-memory file namespace: a mapping from absolute path to
// file content, with creation/modification timestamps.
type VFS struct {
	mu    sync.RWMutex
	files map[string]*FileEntry
}

// NewVFS creates an empty file namespace.
func NewVFS() *VFS {
	return &VFS{files: make(map[string]*FileEntry)}
}

// normalizePath roots a non-absolute path, per spec §4.6.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if path[0] != '/' {
		return "/" + path
	}
	return path
}

// Open implements open(path, mode) (spec §4.6). Returns the new
// descriptor's initial position and whether the open succeeded (false
// only for a read of a missing file or an invalid mode).
func (v *VFS) Open(path string, mode OpenMode, now int64) (position int, ok bool) {
	path = normalizePath(path)
	v.mu.Lock()
	defer v.mu.Unlock()

	switch mode {
	case OpenRead:
		if _, exists := v.files[path]; !exists {
			return 0, false
		}
		return 0, true
	case OpenWrite:
		if existing, exists := v.files[path]; exists {
			existing.Content = ""
			existing.UpdatedAt = now
		} else {
			v.files[path] = &FileEntry{Path: path, CreatedAt: now, UpdatedAt: now}
		}
		return 0, true
	case OpenAppend:
		f, exists := v.files[path]
		if !exists {
			f = &FileEntry{Path: path, CreatedAt: now}
			v.files[path] = f
		}
		f.UpdatedAt = now
		return len(f.Content), true
	default:
		return 0, false
	}
}

// Read implements read(fd, n) content semantics against the file the
// descriptor points at. Returns the read slice and the new position.
func (v *VFS) Read(path string, position int, n *int) (data string, newPosition int) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	f, exists := v.files[path]
	if !exists {
		return "", position
	}
	content := f.Content
	if position >= len(content) {
		return "", position
	}
	end := len(content)
	if n != nil {
		if position+*n < end {
			end = position + *n
		}
	}
	return content[position:end], end
}

// Write implements write(fd, data) splicing semantics (spec §4.6): a
// write of length L at position P replaces [P, P+L) in the content,
// extending it if P+L exceeds the current length. Returns the number of
// units written and the new position.
func (v *VFS) Write(path string, position int, data string, now int64) (written int, newPosition int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	f, exists := v.files[path]
	if !exists {
		f = &FileEntry{Path: path, CreatedAt: now}
		v.files[path] = f
	}
	content := []byte(f.Content)
	end := position + len(data)
	if end > len(content) {
		grown := make([]byte, end)
		copy(grown, content)
		content = grown
	}
	copy(content[position:end], data)
	f.Content = string(content)
	f.UpdatedAt = now
	return len(data), end
}

// ReadFile implements read_file(path): whole-file read without a
// descriptor. Returns ok=false if the file does not exist.
func (v *VFS) ReadFile(path string) (content string, ok bool) {
	path = normalizePath(path)
	v.mu.RLock()
	defer v.mu.RUnlock()
	f, exists := v.files[path]
	if !exists {
		return "", false
	}
	return f.Content, true
}

// WriteFile implements write_file(path, text): whole-file overwrite
// without a descriptor.
func (v *VFS) WriteFile(path, text string, now int64) {
	path = normalizePath(path)
	v.mu.Lock()
	defer v.mu.Unlock()
	f, exists := v.files[path]
	if !exists {
		f = &FileEntry{Path: path, CreatedAt: now}
		v.files[path] = f
	}
	f.Content = text
	f.UpdatedAt = now
}

// Unlink implements unlink(path). Returns false if the file did not
// exist.
func (v *VFS) Unlink(path string) bool {
	path = normalizePath(path)
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.files[path]; !exists {
		return false
	}
	delete(v.files, path)
	return true
}

// List implements list_files() (spec §6).
func (v *VFS) List() []FileSummary {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]FileSummary, 0, len(v.files))
	for _, f := range v.files {
		preview := f.Content
		if len(preview) > previewLen {
			preview = preview[:previewLen]
		}
		out = append(out, FileSummary{Path: f.Path, Size: len(f.Content), Preview: preview})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Snapshot renders the namespace in the persistence contract's wire shape
// from spec §6: {path -> {path, created_at, updated_at, content}}. No
// durable store is wired (persistence stays out of scope); this is only
// the serialization contract.
func (v *VFS) Snapshot() map[string]FileEntry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]FileEntry, len(v.files))
	for path, f := range v.files {
		out[path] = *f
	}
	return out
}

// RestoreVFS replaces the namespace with a previously-serialized snapshot,
// then ensures /etc/motd exists per spec §6.
func RestoreVFS(snapshot map[string]FileEntry, now int64) *VFS {
	v := NewVFS()
	v.mu.Lock()
	for path, f := range snapshot {
		entry := f
		entry.Path = path
		v.files[path] = &entry
	}
	v.mu.Unlock()

	if _, ok := v.ReadFile("/etc/motd"); !ok {
		v.WriteFile("/etc/motd", defaultMOTD, now)
	}
	return v
}

const defaultMOTD = "Welcome to opsim.\n"
