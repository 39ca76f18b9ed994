package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templatesFS embed.FS

// storeDirName is the repository store directory created alongside the
// template files. Embedded templates cannot carry empty directories.
const storeDirName = ".tilevault"

// Scaffolder initializes new repositories from embedded templates.
type Scaffolder struct {
	verbose bool
}

func NewScaffolder(verbose bool) *Scaffolder {
	return &Scaffolder{verbose: verbose}
}

// CreateRepository materializes the named template into targetPath and
// creates the repository store. The target must be empty, absent, or
// hold only files tilevault itself manages.
func (s *Scaffolder) CreateRepository(repoName, templateName, targetPath string) error {
	templatePath := "templates/" + templateName
	if _, err := templatesFS.ReadDir(templatePath); err != nil {
		return fmt.Errorf("template '%s' not found: %w", templateName, err)
	}

	empty, err := safeToInitialize(targetPath)
	if err != nil {
		return fmt.Errorf("failed to check target directory: %w", err)
	}
	if !empty {
		return fmt.Errorf("target directory '%s' is not empty\n\ntilevault init requires an empty directory to avoid overwriting existing files.\n\nOptions:\n• Choose a different location\n• Remove existing files manually\n• Use a new directory name", targetPath)
	}

	if err := os.MkdirAll(targetPath, 0755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	s.logVerbose("Creating repository '%s' at %s with template '%s'", repoName, targetPath, templateName)

	if err := s.copyTemplateFiles(templatePath, targetPath, repoName); err != nil {
		return fmt.Errorf("failed to copy template files: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(targetPath, storeDirName), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	s.logVerbose("Repository created successfully")
	return nil
}

func (s *Scaffolder) copyTemplateFiles(templatePath, targetPath, repoName string) error {
	return fs.WalkDir(templatesFS, templatePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == templatePath {
			return err
		}

		relPath, err := filepath.Rel(templatePath, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(targetPath, relPath)

		if d.IsDir() {
			s.logVerbose("Creating directory: %s", relPath)
			return os.MkdirAll(dest, 0755)
		}

		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		s.logVerbose("Creating file: %s", relPath)
		if err := os.WriteFile(dest, []byte(renderTemplate(string(content), repoName)), 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", dest, err)
		}
		return nil
	})
}

// renderTemplate substitutes the repository name placeholder.
func renderTemplate(content, repoName string) string {
	return strings.ReplaceAll(content, "{{REPO_NAME}}", repoName)
}

func (s *Scaffolder) logVerbose(format string, args ...interface{}) {
	if s.verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}

// ListTemplates returns the names of the embedded templates.
func ListTemplates() ([]string, error) {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	var templates []string
	for _, entry := range entries {
		if entry.IsDir() {
			templates = append(templates, entry.Name())
		}
	}
	return templates, nil
}

// isManagedEntry reports whether a directory entry is one tilevault itself
// manages. A directory holding only managed files can be re-initialized.
func isManagedEntry(name string) bool {
	return name == "tilevault.yaml" || name == ".env"
}

// safeToInitialize reports whether targetPath can receive a new
// repository: it is absent, empty, or holds only managed files.
func safeToInitialize(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check directory: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("path exists but is not a directory")
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return false, fmt.Errorf("failed to read directory: %w", err)
	}
	for _, entry := range entries {
		if !isManagedEntry(entry.Name()) {
			return false, nil
		}
	}
	return true, nil
}

// BuildFileTree renders the directory under rootPath as an ASCII tree,
// the way `tree` would print it.
func BuildFileTree(rootPath string) (string, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		absPath = rootPath
	}

	var sb strings.Builder
	sb.WriteString(absPath + "/\n")

	if err := writeTreeLevel(&sb, rootPath, ""); err != nil {
		return "", fmt.Errorf("failed to build file tree: %w", err)
	}
	return sb.String(), nil
}

func writeTreeLevel(sb *strings.Builder, dir, indent string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for i, entry := range entries {
		last := i == len(entries)-1

		branch, childIndent := "├── ", indent+"│   "
		if last {
			branch, childIndent = "└── ", indent+"    "
		}

		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		sb.WriteString(indent + branch + name + "\n")

		if entry.IsDir() {
			if err := writeTreeLevel(sb, filepath.Join(dir, entry.Name()), childIndent); err != nil {
				return err
			}
		}
	}
	return nil
}
