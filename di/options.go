package di

import (
	"fmt"
	"go/token"
	"os"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// DefaultRenditionPackage is the package clause of rendered artifacts.
const DefaultRenditionPackage = "speediocgen"

// BuildOptions is the build configuration consumed by the generator.
type BuildOptions struct {
	// ForceRegenerate ignores cached artifacts and always plans from scratch.
	ForceRegenerate bool `yaml:"forceRegenerate"`
	// CacheLocation is the directory holding persisted artifacts. Empty disables persistence.
	CacheLocation string `yaml:"cacheLocation"`
	// ArtifactIdentity names the artifact and scopes Process lifetimes.
	ArtifactIdentity string `yaml:"artifactIdentity"`
	// RetainGeneratedArtifact also writes a Go rendition of the plan.
	RetainGeneratedArtifact bool `yaml:"retainGeneratedArtifact"`
	// IncludeDiagnosticComments adds a comment block per registration to artifacts.
	IncludeDiagnosticComments bool `yaml:"includeDiagnosticComments"`
	// RenditionPackage is the package clause of the Go rendition.
	RenditionPackage string `yaml:"renditionPackage"`
}

// DefaultOptions returns options with a fresh random identity and no persistence.
func DefaultOptions() BuildOptions {
	return BuildOptions{
		ArtifactIdentity: NewIdentity(),
		RenditionPackage: DefaultRenditionPackage,
	}
}

// NewIdentity returns a random artifact identity (a UUID without dashes).
func NewIdentity() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Validate checks the options and returns the first ConfigurationError found.
func (o BuildOptions) Validate() error {
	if strings.TrimSpace(o.ArtifactIdentity) == "" {
		return ConfigurationError{Field: "ArtifactIdentity", Reason: "must not be empty"}
	}
	for _, r := range o.ArtifactIdentity {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			return ConfigurationError{
				Field:  "ArtifactIdentity",
				Reason: fmt.Sprintf("%q may only contain letters, digits, '_' and '-'", o.ArtifactIdentity),
			}
		}
	}
	if o.CacheLocation != "" {
		fi, err := os.Stat(o.CacheLocation)
		switch {
		case err != nil:
			return ConfigurationError{Field: "CacheLocation", Reason: fmt.Sprintf("%q does not exist", o.CacheLocation)}
		case !fi.IsDir():
			return ConfigurationError{Field: "CacheLocation", Reason: fmt.Sprintf("%q is not a directory", o.CacheLocation)}
		}
	}
	if o.RetainGeneratedArtifact {
		if o.CacheLocation == "" {
			return ConfigurationError{Field: "CacheLocation", Reason: "required when RetainGeneratedArtifact is set"}
		}
		if !token.IsIdentifier(o.PackageName()) {
			return ConfigurationError{Field: "RenditionPackage", Reason: fmt.Sprintf("%q is not a Go identifier", o.RenditionPackage)}
		}
	}
	return nil
}

// PackageName returns RenditionPackage, or the default when empty.
func (o BuildOptions) PackageName() string {
	if o.RenditionPackage == "" {
		return DefaultRenditionPackage
	}
	return o.RenditionPackage
}

// String dumps the options, one per line. It is embedded in error reports.
func (o BuildOptions) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ArtifactIdentity: %s\n", o.ArtifactIdentity)
	fmt.Fprintf(&sb, "CacheLocation: %s\n", o.CacheLocation)
	fmt.Fprintf(&sb, "ForceRegenerate: %t\n", o.ForceRegenerate)
	fmt.Fprintf(&sb, "RetainGeneratedArtifact: %t\n", o.RetainGeneratedArtifact)
	fmt.Fprintf(&sb, "IncludeDiagnosticComments: %t\n", o.IncludeDiagnosticComments)
	fmt.Fprintf(&sb, "RenditionPackage: %s", o.PackageName())
	return sb.String()
}
