package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"mcpconf/internal/logging"
	"mcpconf/pkg/fileops"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is the project variable file name.
const DefaultEnvFile = ".mcp.env"

const envFileHeader = "# MCP server variables for this project. Managed by mcpconf.\n" +
	"# Lines starting with # are ignored.\n"

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var envValueEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	`"`, `\"`,
	`$`, `\$`,
)

// EnvFile is a project's variable file: one export KEY="value" per line.
type EnvFile struct {
	path   string
	opts   Options
	logger *logging.AppLogger
}

// NewEnvFile creates an env file handle for path.
func NewEnvFile(path string, opts Options, logger *logging.AppLogger) *EnvFile {
	path = fileops.ExpandPath(path)
	return &EnvFile{
		path:   path,
		opts:   opts.WithDefaults(path),
		logger: logger,
	}
}

// Path returns the file location.
func (f *EnvFile) Path() string {
	return f.path
}

// Read parses the file. Errors wrap ErrNotExist or ErrCorrupt like
// Store.Read.
func (f *EnvFile) Read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", f.path, ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", f.path, ErrCorrupt, err)
	}
	return vars, nil
}

// ReadOrEmpty returns the parsed variables, or an empty map when the file
// is missing or unparsable.
func (f *EnvFile) ReadOrEmpty() map[string]string {
	vars, err := f.Read()
	switch {
	case err == nil:
		return vars
	case errors.Is(err, ErrNotExist):
		f.logger.Debug("Env file not found", "path", f.path)
	default:
		f.logger.Warn("Env file unreadable, treating as empty", "path", f.path, "error", err)
	}
	return map[string]string{}
}

// Write replaces the file with vars, one sorted export line per key.
func (f *EnvFile) Write(vars map[string]string) error {
	data, err := FormatEnv(vars)
	if err != nil {
		return err
	}

	res, err := fileops.WriteWithBackup(f.path, data, 0600, f.opts.BackupDir, f.opts.BackupKeep, f.opts.Now())
	LogBackup(f.logger, f.path, res)
	if err != nil {
		return fmt.Errorf("failed to write env file %s: %w", f.path, err)
	}
	return nil
}

// Merge overlays vars onto the current file content and writes the result.
// Later values win per key. The merged mapping is returned.
func (f *EnvFile) Merge(vars map[string]string) (map[string]string, error) {
	merged := f.ReadOrEmpty()
	for k, v := range vars {
		merged[k] = v
	}
	if err := f.Write(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Unset removes names from the file. It reports whether anything changed;
// the file is only rewritten in that case.
func (f *EnvFile) Unset(names ...string) (bool, error) {
	vars := f.ReadOrEmpty()
	changed := false
	for _, name := range names {
		if _, ok := vars[name]; ok {
			delete(vars, name)
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	return true, f.Write(vars)
}

// FormatEnv renders vars in env file form, keys sorted. Values are double
// quoted with backslash, newline, carriage return, quote and dollar
// escaped so they read back verbatim.
func FormatEnv(vars map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		if !envNamePattern.MatchString(k) {
			return nil, fmt.Errorf("invalid variable name %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(envFileHeader)
	for _, k := range keys {
		fmt.Fprintf(&b, "export %s=\"%s\"\n", k, envValueEscaper.Replace(vars[k]))
	}
	return []byte(b.String()), nil
}
