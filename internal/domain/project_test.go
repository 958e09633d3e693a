package domain

import (
	"errors"
	"testing"
)

func TestProjectName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/w/App/App.csproj", "App"},
		{`..\Libs\Core\Core.csproj`, "Core"},
		{"Core.Data.fsproj", "Core.Data"},
		{"../mixed\\dir/Lib.vbproj", "Lib"},
		{"NoExtension", "NoExtension"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ProjectName(tt.path); got != tt.want {
				t.Errorf("ProjectName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestIsProjectFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"App.csproj", true},
		{"App.CSPROJ", true},
		{"Lib.fsproj", true},
		{"Legacy.vbproj", true},
		{"App.sln", false},
		{"csproj", false},
		{"README.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsProjectFile(tt.name, DefaultProjectExtensions); got != tt.want {
				t.Errorf("IsProjectFile(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNameKey(t *testing.T) {
	if NameKey(" Core.Data ") != NameKey("core.data") {
		t.Error("NameKey should be case-insensitive and trimmed")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &PathNotFoundError{Path: "/missing"}
	if !errors.Is(err, ErrPathNotFound) {
		t.Error("PathNotFoundError should match ErrPathNotFound")
	}
	if errors.Is(err, ErrFileNotFound) {
		t.Error("PathNotFoundError should not match ErrFileNotFound")
	}

	err = &FileNotFoundError{Path: "/w/Core.csproj"}
	if !errors.Is(err, ErrFileNotFound) {
		t.Error("FileNotFoundError should match ErrFileNotFound")
	}

	if !errors.Is(InvalidArgument("rootDir", "is required"), ErrInvalidArgument) {
		t.Error("InvalidArgument should wrap ErrInvalidArgument")
	}
}

func TestResolutionSourceString(t *testing.T) {
	tests := []struct {
		src  ResolutionSource
		want string
	}{
		{SourceNone, "none"},
		{SourceMapping, "mapping"},
		{SourceNegativeCache, "negative-cache"},
		{SourceIndex, "index"},
		{SourceFileSystem, "filesystem"},
		{SourceWorkspace, "workspace"},
	}

	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestParseResolutionSource(t *testing.T) {
	for src := SourceMapping; src <= SourceWorkspace; src++ {
		if got := ParseResolutionSource(src.String()); got != src {
			t.Errorf("ParseResolutionSource(%q) = %v, want %v", src.String(), got, src)
		}
	}
	if got := ParseResolutionSource("bogus"); got != SourceNone {
		t.Errorf("ParseResolutionSource(bogus) = %v, want none", got)
	}
}
