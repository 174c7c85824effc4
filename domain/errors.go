package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service and app layers
var (
	// ErrNoInputPaths is returned when a request names no files or directories
	ErrNoInputPaths = errors.New("no input paths specified")

	// ErrNoSourceFiles is returned when path collection finds nothing to analyze
	ErrNoSourceFiles = errors.New("no C source files found")

	// ErrInvalidFormat is returned for unknown output formats
	ErrInvalidFormat = errors.New("invalid output format")
)

// InvalidInputError wraps a request validation failure
type InvalidInputError struct {
	Message string
	Err     error
}

func (e *InvalidInputError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError wraps err as a request validation failure
func NewInvalidInputError(message string, err error) *InvalidInputError {
	return &InvalidInputError{Message: message, Err: err}
}

// FileNotFoundError wraps a missing input file or directory
type FileNotFoundError struct {
	Message string
	Err     error
}

func (e *FileNotFoundError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// NewFileNotFoundError wraps err as a missing file failure
func NewFileNotFoundError(message string, err error) *FileNotFoundError {
	return &FileNotFoundError{Message: message, Err: err}
}

// AnalysisError wraps a failure inside the analysis pipeline
type AnalysisError struct {
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError wraps err as an analysis failure
func NewAnalysisError(message string, err error) *AnalysisError {
	return &AnalysisError{Message: message, Err: err}
}

// ConfigError wraps a configuration loading or validation failure
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps err as a configuration failure
func NewConfigError(message string, err error) *ConfigError {
	return &ConfigError{Message: message, Err: err}
}

// ParseError wraps a syntax failure for a specific source file
type ParseError struct {
	FilePath string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.FilePath, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps err as a parse failure for filePath
func NewParseError(filePath string, err error) *ParseError {
	return &ParseError{FilePath: filePath, Err: err}
}
