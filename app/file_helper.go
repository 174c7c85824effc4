package app

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileHelper provides file operation utilities
type FileHelper struct{}

// NewFileHelper creates a new FileHelper
func NewFileHelper() *FileHelper {
	return &FileHelper{}
}

// CollectCFiles collects C source files from paths
func (h *FileHelper) CollectCFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	matcher := compileExcludeMatcher(excludePatterns)
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if h.isCFile(path) && !isExcluded(path, excludePatterns, matcher) {
				files = append(files, path)
			}
			continue
		}

		if recursive {
			err = filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}

				// Skip excluded directories early
				if info.IsDir() {
					dirName := filepath.Base(filePath)
					for _, pattern := range excludePatterns {
						if pattern == dirName {
							return filepath.SkipDir
						}
						if matched, _ := filepath.Match(pattern, dirName); matched {
							return filepath.SkipDir
						}
					}
					return nil
				}

				if h.isCFile(filePath) && !isExcluded(filePath, excludePatterns, matcher) {
					files = append(files, filePath)
				}

				return nil
			})
		} else {
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, err
			}

			for _, entry := range entries {
				if !entry.IsDir() {
					filePath := filepath.Join(path, entry.Name())
					if h.isCFile(filePath) && !isExcluded(filePath, excludePatterns, matcher) {
						files = append(files, filePath)
					}
				}
			}
		}

		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// IsValidCFile checks if a file is a C source file
func (h *FileHelper) IsValidCFile(path string) bool {
	return h.isCFile(path)
}

// FileExists checks if a file exists
func (h *FileHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// ReadFile reads file content
func (h *FileHelper) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// isCFile checks if a file is C source based on extension
func (h *FileHelper) isCFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".c" || ext == ".h"
}

// compileExcludeMatcher builds a gitignore-style matcher from exclude
// patterns. Plain directory names and glob patterns both work.
func compileExcludeMatcher(excludePatterns []string) *gitignore.GitIgnore {
	if len(excludePatterns) == 0 {
		return nil
	}
	return gitignore.CompileIgnoreLines(excludePatterns...)
}

// isExcluded checks if a path matches any exclude pattern
func isExcluded(path string, excludePatterns []string, matcher *gitignore.GitIgnore) bool {
	if matcher != nil && matcher.MatchesPath(path) {
		return true
	}
	for _, pattern := range excludePatterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}

// ResolveFilePaths resolves file paths, returning existing files directly
// or collecting files from directories
func ResolveFilePaths(
	fileHelper *FileHelper,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
) ([]string, error) {
	allFiles := true
	for _, path := range paths {
		exists, err := fileHelper.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return fileHelper.CollectCFiles(paths, recursive, includePatterns, excludePatterns)
}
