package application

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"nuref/internal/domain"
)

var packageIDPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "packageID" -> "package ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"packageID":   "package ID",
		"projectPath": "project path",
		"projectName": "project name",
		"rootDir":     "root directory",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidatePackageID checks that id looks like a package identifier
func ValidatePackageID(fieldName, id string) error {
	if err := ValidateRequired(fieldName, id); err != nil {
		return err
	}
	if !packageIDPattern.MatchString(id) {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("invalid %s: %q", formatFieldName(fieldName), id),
		}
	}
	return nil
}

// ValidateProjectFile checks that path names an existing project file
func ValidateProjectFile(fieldName, path string, extensions []string) error {
	if err := ValidateRequired(fieldName, path); err != nil {
		return err
	}
	if !domain.IsProjectFile(path, extensions) {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("not a project file: %s", path),
		}
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("project file does not exist: %s", path),
		}
	}
	return nil
}
