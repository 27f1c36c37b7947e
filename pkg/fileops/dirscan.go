package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DirectoryScanOptions configures the behavior of directory scanning operations.
type DirectoryScanOptions struct {
	// SkipUnreadableDirs determines whether to skip directories that cannot be read
	// or to return an error. Setting to true makes scanning more resilient.
	SkipUnreadableDirs bool

	// MaxDepth limits the recursion depth. Depth 1 is the scan root itself,
	// depth 2 adds one level of subdirectories.
	MaxDepth int

	// IncludeHidden determines whether to include files and directories that start with '.'
	IncludeHidden bool

	// SkipPatterns contains directory names that should be skipped during scanning.
	// These are exact matches against directory names (not full paths).
	SkipPatterns []string

	// FileFilter is an optional function that determines whether a file should be included.
	// If nil, all files are included.
	FileFilter func(filename string) bool

	// MaxFileSize, when positive, drops files larger than this many bytes.
	MaxFileSize int64
}

// FileInfo represents information about a discovered file during directory scanning.
type FileInfo struct {
	// Name is the base filename without path components
	Name string

	// Path is the relative path from the scan root to this file
	Path string

	// AbsPath is the scan root joined with Path
	AbsPath string

	Size    int64
	ModTime time.Time
}

// SecureDirectoryScanner provides depth-limited directory scanning with
// protection against symlinks that escape the scan root.
//
// The scanner operates within a security boundary defined by an os.Root,
// preventing access to files outside the designated scan area.
type SecureDirectoryScanner struct {
	root     *os.Root
	opts     *DirectoryScanOptions
	results  []FileInfo
	visited  map[string]bool
	scanRoot string
}

// NewDirectoryScanner creates a new secure directory scanner for the given path.
// The path may start with "~/". A path that does not exist or is not a
// directory is an error; callers that treat a missing directory as empty
// should check with os.Stat first.
func NewDirectoryScanner(scanPath string, opts *DirectoryScanOptions) (*SecureDirectoryScanner, error) {
	if opts == nil {
		opts = getDefaultScanOptions()
	}

	if strings.TrimSpace(scanPath) == "" {
		return nil, fmt.Errorf("scan path cannot be empty")
	}

	absPath, err := filepath.Abs(ExpandPath(scanPath))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve scan path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access scan path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan path is not a directory: %s", absPath)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure scan root: %w", err)
	}

	return &SecureDirectoryScanner{
		root:     root,
		opts:     opts,
		visited:  make(map[string]bool),
		scanRoot: absPath,
	}, nil
}

func getDefaultScanOptions() *DirectoryScanOptions {
	return &DirectoryScanOptions{
		SkipUnreadableDirs: true,
		MaxDepth:           20,
		IncludeHidden:      false,
		SkipPatterns:       getDefaultSkipPatterns(),
	}
}

func getDefaultSkipPatterns() []string {
	return []string{
		"node_modules",
		".git",
		"vendor",
		".cache",
		"backups",
	}
}

// Close releases resources associated with the scanner.
func (s *SecureDirectoryScanner) Close() error {
	if s.root != nil {
		err := s.root.Close()
		s.root = nil
		return err
	}
	return nil
}

// ScanDirectory performs a depth-limited scan of the configured directory.
// Results are in lexical order of their relative paths, files of a directory
// before the files of its subdirectories' contents as ReadDir reports them.
func (s *SecureDirectoryScanner) ScanDirectory() ([]FileInfo, error) {
	if s.root == nil {
		return nil, fmt.Errorf("scanner has been closed")
	}

	s.results = []FileInfo{}
	s.visited = make(map[string]bool)

	if err := s.scanRecursive(".", 1); err != nil {
		return nil, fmt.Errorf("directory scan failed: %w", err)
	}

	resultsCopy := make([]FileInfo, len(s.results))
	copy(resultsCopy, s.results)
	return resultsCopy, nil
}

func (s *SecureDirectoryScanner) scanRecursive(relativePath string, depth int) error {
	if depth > s.opts.MaxDepth {
		return nil
	}

	cleanPath := filepath.Clean(relativePath)
	if s.visited[cleanPath] {
		return nil
	}
	s.visited[cleanPath] = true

	if s.shouldSkipDirectory(filepath.Base(relativePath)) {
		return nil
	}

	dir, err := s.root.Open(relativePath)
	if err != nil {
		if s.opts.SkipUnreadableDirs {
			return nil
		}
		return fmt.Errorf("failed to open directory %s: %w", relativePath, err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		if s.opts.SkipUnreadableDirs {
			return nil
		}
		return fmt.Errorf("failed to read directory %s: %w", relativePath, err)
	}
	slices.SortFunc(entries, func(a, b os.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, entry := range entries {
		entryPath := filepath.Join(relativePath, entry.Name())
		fullEntryPath := filepath.Join(s.scanRoot, entryPath)

		if isLink, err := IsSymlink(fullEntryPath); err == nil && isLink {
			if err := ValidateSymlinkSecurity(fullEntryPath, []string{s.scanRoot}); err != nil {
				if s.opts.SkipUnreadableDirs {
					continue
				}
				return fmt.Errorf("symlink security check failed for %s: %w", entryPath, err)
			}
		}

		if entry.IsDir() {
			if err := s.scanRecursive(entryPath, depth+1); err != nil {
				return err
			}
			continue
		}

		if !s.shouldIncludeFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if s.opts.SkipUnreadableDirs {
				continue
			}
			return fmt.Errorf("failed to get file info for %s: %w", entryPath, err)
		}
		if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
			continue
		}
		s.results = append(s.results, FileInfo{
			Name:    entry.Name(),
			Path:    entryPath,
			AbsPath: fullEntryPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return nil
}

func (s *SecureDirectoryScanner) shouldSkipDirectory(dirName string) bool {
	if dirName == "." || dirName == ".." {
		return false
	}
	if !s.opts.IncludeHidden && strings.HasPrefix(dirName, ".") {
		return true
	}
	return slices.Contains(s.opts.SkipPatterns, dirName)
}

func (s *SecureDirectoryScanner) shouldIncludeFile(fileName string) bool {
	if !s.opts.IncludeHidden && strings.HasPrefix(fileName, ".") {
		return false
	}
	if s.opts.FileFilter != nil {
		return s.opts.FileFilter(fileName)
	}
	return true
}

// ScanWithFilter is a convenience function that creates a scanner with a file filter
// and immediately performs a scan.
//
//	cardFiles, err := fileops.ScanWithFilter(dir, isCardFile, 2)
func ScanWithFilter(scanPath string, fileFilter func(string) bool, maxDepth int) ([]FileInfo, error) {
	opts := getDefaultScanOptions()
	opts.MaxDepth = maxDepth
	opts.FileFilter = fileFilter

	scanner, err := NewDirectoryScanner(scanPath, opts)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	return scanner.ScanDirectory()
}
