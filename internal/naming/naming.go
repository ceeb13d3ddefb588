package naming

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"o3enc/internal/fileutil"
	"o3enc/internal/presets"
	"o3enc/internal/services"
)

const (
	// MaxVersion is the highest _vNN suffix tried before giving up.
	MaxVersion = 99
	// MaxStemLength bounds {base}_{preset}, in characters, to leave room for
	// the suffix.
	MaxStemLength = 200
	// InvalidChars may not appear in a custom base name.
	InvalidChars = `<>:"/\|?*`
)

// Resolver hands out collision-free output paths. Paths it returns stay
// claimed until released, so two presets in one run never share a name even
// before either file exists on disk.
type Resolver struct {
	dir     string
	claimed map[string]struct{}
}

// NewResolver returns a resolver rooted at dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir, claimed: make(map[string]struct{})}
}

// Dir returns the output directory.
func (r *Resolver) Dir() string {
	return r.dir
}

// Resolve returns {dir}/{base}_{preset}_vNN.{container} with the lowest NN
// that is neither on disk nor claimed, and claims it.
func (r *Resolver) Resolve(base string, preset presets.Preset) (string, error) {
	if err := ValidateBaseName(base); err != nil {
		return "", err
	}
	if strings.TrimSpace(preset.Name) == "" {
		return "", services.Wrap(services.ErrPreset, "naming", "resolve", "Preset missing required 'name' field", nil)
	}
	container := strings.TrimPrefix(strings.TrimSpace(preset.Container), ".")
	if container == "" {
		return "", services.Wrap(services.ErrPreset, "naming", "resolve", "Preset missing required 'container' field", nil)
	}

	stem := base + "_" + preset.Name
	if utf8.RuneCountInString(stem) > MaxStemLength {
		return "", services.Wrap(services.ErrPreset, "naming", "resolve", "Output filename too long", nil)
	}

	if err := fileutil.EnsureWritableDir(r.dir); err != nil {
		return "", services.Wrap(services.ErrPreset, "naming", "resolve", "Output directory is not usable", err)
	}

	for version := 0; version <= MaxVersion; version++ {
		candidate := filepath.Join(r.dir, fmt.Sprintf("%s_v%02d.%s", stem, version, container))
		if _, taken := r.claimed[candidate]; taken {
			continue
		}
		if fileutil.Exists(candidate) {
			continue
		}
		r.claimed[candidate] = struct{}{}
		return candidate, nil
	}
	return "", services.Wrap(services.ErrPreset, "naming", "resolve", "Too many versions of this output file exist", nil)
}

// Release un-claims paths so a later Resolve may hand them out again.
func (r *Resolver) Release(paths ...string) {
	for _, path := range paths {
		delete(r.claimed, path)
	}
}

// Claimed returns the currently claimed paths, sorted.
func (r *Resolver) Claimed() []string {
	out := make([]string, 0, len(r.claimed))
	for path := range r.claimed {
		out = append(out, path)
	}
	slices.Sort(out)
	return out
}

// BaseName returns the input file name without directory or extension.
func BaseName(input string) string {
	name := filepath.Base(input)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ValidateBaseName rejects empty names and names containing InvalidChars.
func ValidateBaseName(base string) error {
	if strings.TrimSpace(base) == "" {
		return services.Wrap(services.ErrPreset, "naming", "validate", "Filename cannot be empty", nil)
	}
	if strings.ContainsAny(base, InvalidChars) {
		return services.Wrap(services.ErrPreset, "naming", "validate",
			fmt.Sprintf("Filename contains invalid characters (%s)", InvalidChars), nil)
	}
	return nil
}
