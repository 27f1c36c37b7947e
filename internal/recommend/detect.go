package recommend

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v6"
)

// markers maps a file or directory name in the project root to the tags it
// implies.
var markers = map[string][]string{
	"go.mod":              {"go"},
	"package.json":        {"javascript", "node"},
	"tsconfig.json":       {"typescript", "node"},
	"deno.json":           {"typescript", "deno"},
	"pyproject.toml":      {"python"},
	"requirements.txt":    {"python"},
	"setup.py":            {"python"},
	"Pipfile":             {"python"},
	"Cargo.toml":          {"rust"},
	"pom.xml":             {"java"},
	"build.gradle":        {"java"},
	"build.gradle.kts":    {"java", "kotlin"},
	"Gemfile":             {"ruby"},
	"composer.json":       {"php"},
	"Dockerfile":          {"docker"},
	"docker-compose.yml":  {"docker"},
	"docker-compose.yaml": {"docker"},
	"compose.yaml":        {"docker"},
	"compose.yml":         {"docker"},
	"Chart.yaml":          {"kubernetes", "helm"},
	"kustomization.yaml":  {"kubernetes"},
	"main.tf":             {"terraform"},
	"schema.prisma":       {"database", "prisma"},
	".github":             {"github"},
	".gitlab-ci.yml":      {"gitlab"},
	"mkdocs.yml":          {"docs"},
}

// DetectTags inspects projectDir and returns the sorted, de-duplicated tags
// that describe it: languages and tools from marker files, plus "git" and
// the hosting provider when the directory is a git repository.
func DetectTags(projectDir string) ([]string, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	for _, e := range entries {
		for _, tag := range markers[e.Name()] {
			set[tag] = true
		}
	}

	for _, tag := range gitTags(projectDir) {
		set[tag] = true
	}

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// gitTags opens the repository at dir and derives tags from the origin
// remote. A directory that is not a repository root yields nothing.
func gitTags(dir string) []string {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil
	}

	tags := []string{"git"}
	remote, err := repo.Remote("origin")
	if err != nil {
		return tags
	}
	for _, u := range remote.Config().URLs {
		if host := remoteHost(u); host != "" {
			tags = append(tags, host)
		}
	}
	return tags
}

// remoteHost maps a remote URL to a hosting provider tag.
func remoteHost(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "github.com"):
		return "github"
	case strings.Contains(lower, "gitlab"):
		return "gitlab"
	case strings.Contains(lower, "bitbucket.org"):
		return "bitbucket"
	}
	return ""
}

// ProjectName returns a display name for projectDir.
func ProjectName(projectDir string) string {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return filepath.Base(projectDir)
	}
	return filepath.Base(abs)
}
