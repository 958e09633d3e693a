package application

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nuref/internal/domain"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
	}{
		{
			name:      "valid value",
			fieldName: "packageID",
			value:     "Core",
			wantErr:   false,
		},
		{
			name:      "empty string",
			fieldName: "packageID",
			value:     "",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			fieldName: "projectPath",
			value:     "   ",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequired() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				} else if ve.Field != tt.fieldName {
					t.Errorf("Field = %q, want %q", ve.Field, tt.fieldName)
				}
			}
		})
	}
}

func TestValidateRequired_MessageUsesDisplayName(t *testing.T) {
	err := ValidateRequired("packageID", "")
	if err == nil || !strings.Contains(err.Error(), "package ID is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidatePackageID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"Core", false},
		{"Newtonsoft.Json", false},
		{"My_Company.Data-Access", false},
		{"", true},
		{"has space", true},
		{"../escape", true},
		{".leadingdot", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidatePackageID("packageID", tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateProjectFile(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "Core.csproj")
	if err := os.WriteFile(project, []byte("<Project />"), 0644); err != nil {
		t.Fatal(err)
	}
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateProjectFile("projectPath", project, domain.DefaultProjectExtensions); err != nil {
		t.Errorf("existing project should validate: %v", err)
	}
	if err := ValidateProjectFile("projectPath", text, domain.DefaultProjectExtensions); err == nil {
		t.Error("non-project file should fail")
	}
	if err := ValidateProjectFile("projectPath", filepath.Join(dir, "Gone.csproj"), domain.DefaultProjectExtensions); err == nil {
		t.Error("missing project should fail")
	}
}

func TestConversionError(t *testing.T) {
	cause := &domain.FileNotFoundError{Path: "/w/Libs/Core/Core.csproj"}
	err := error(&ConversionError{Project: "/w/App/App.csproj", PackageID: "Core", Err: cause})

	if !errors.Is(err, ErrConversionFailed) {
		t.Error("ConversionError should match ErrConversionFailed")
	}
	if !errors.Is(err, domain.ErrFileNotFound) {
		t.Error("ConversionError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "Core") || !strings.Contains(err.Error(), "App.csproj") {
		t.Errorf("unexpected message: %v", err)
	}
}
