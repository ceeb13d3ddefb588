package presets

import (
	"bytes"
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"o3enc/internal/services"
)

//go:embed default_presets.ini
var defaultPresets []byte

// Marker separates the free-form header of the presets file from its INI body.
const Marker = "preset_start:"

// HWAccelNone disables hardware-accelerated decoding.
const HWAccelNone = "none"

const (
	defaultContainer  = "mp4"
	defaultScaleFlags = "lanczos"
	defaultLUFS       = -18
	defaultLRA        = 7
	defaultTP         = -2
)

// unsafeNameChars cannot appear in a preset name because it is embedded in
// output file names.
const unsafeNameChars = `<>:"/\|?*`

// Preset is one named encode configuration.
type Preset struct {
	Name       string
	HWAccel    string
	Encoder    string
	Container  string
	Height     string // raw text, empty keeps the source height
	FPS        string // raw text, empty keeps the source rate
	PixFmt     string
	ScaleFlags string
	Options    string
	TargetLUFS float64
	TargetLRA  float64
	TargetTP   float64
}

// UsesHWAccel reports whether the preset requests hardware decoding.
func (p Preset) UsesHWAccel() bool {
	hw := strings.TrimSpace(p.HWAccel)
	return hw != "" && !strings.EqualFold(hw, HWAccelNone)
}

// DefaultPresets returns the built-in presets file content.
func DefaultPresets() []byte {
	return append([]byte(nil), defaultPresets...)
}

// Parse reads presets file content. Lines up to and including the marker are
// skipped; the remainder is INI with one section per preset. Any invalid
// section fails the whole file.
func Parse(data []byte) ([]Preset, error) {
	body, ok := afterMarker(data)
	if !ok {
		return nil, services.Wrap(services.ErrPreset, "presets", "parse", "No "+Marker+" marker found in presets file", nil)
	}
	if err := checkDuplicateSections(body); err != nil {
		return nil, err
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:         true,
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
	}, body)
	if err != nil {
		return nil, services.Wrap(services.ErrPreset, "presets", "parse", "Failed to process presets", err)
	}

	defaults := file.Section(ini.DefaultSection)
	var presets []Preset
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		preset, err := parseSection(section, defaults)
		if err != nil {
			return nil, err
		}
		presets = append(presets, preset)
	}
	if len(presets) == 0 {
		return nil, services.Wrap(services.ErrPreset, "presets", "parse", "No valid presets found", nil)
	}
	return presets, nil
}

func afterMarker(data []byte) ([]byte, bool) {
	rest := bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	for len(rest) > 0 {
		line, next, found := bytes.Cut(rest, []byte("\n"))
		if string(bytes.TrimSpace(line)) == Marker {
			return next, true
		}
		if !found {
			break
		}
		rest = next
	}
	return nil, false
}

func checkDuplicateSections(body []byte) error {
	seen := make(map[string]struct{})
	for _, line := range strings.Split(string(body), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
			continue
		}
		name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
		if _, dup := seen[name]; dup {
			return services.Wrap(services.ErrPreset, "presets", "parse", fmt.Sprintf("Duplicate preset %q", name), nil)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func parseSection(section, defaults *ini.Section) (Preset, error) {
	name := section.Name()
	if err := ValidateName(name); err != nil {
		return Preset{}, err
	}

	get := func(key, fallback string) string {
		if section.HasKey(key) {
			return strings.TrimSpace(section.Key(key).String())
		}
		if defaults != nil && defaults.HasKey(key) {
			return strings.TrimSpace(defaults.Key(key).String())
		}
		return fallback
	}
	getFloat := func(key string, fallback float64) (float64, error) {
		raw := get(key, "")
		if raw == "" {
			return fallback, nil
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, services.Wrap(services.ErrPreset, "presets", "parse",
				fmt.Sprintf("Error parsing preset %s: %s=%q is not a number", name, key, raw), nil)
		}
		return value, nil
	}

	preset := Preset{
		Name:       name,
		HWAccel:    get("hwaccel", HWAccelNone),
		Encoder:    get("encoder", ""),
		Container:  get("container", defaultContainer),
		Height:     get("height", ""),
		FPS:        get("fps", ""),
		PixFmt:     get("pixfmt", ""),
		ScaleFlags: get("scale_flags", defaultScaleFlags),
		Options:    get("options", ""),
	}
	if preset.HWAccel == "" {
		preset.HWAccel = HWAccelNone
	}
	if preset.Container == "" {
		preset.Container = defaultContainer
	}
	if preset.ScaleFlags == "" {
		preset.ScaleFlags = defaultScaleFlags
	}

	var err error
	if preset.TargetLUFS, err = getFloat("target_lufs", defaultLUFS); err != nil {
		return Preset{}, err
	}
	if preset.TargetLRA, err = getFloat("target_lra", defaultLRA); err != nil {
		return Preset{}, err
	}
	if preset.TargetTP, err = getFloat("target_tp", defaultTP); err != nil {
		return Preset{}, err
	}

	var missing []string
	if preset.Encoder == "" {
		missing = append(missing, "encoder")
	}
	if preset.PixFmt == "" {
		missing = append(missing, "pixfmt")
	}
	if preset.Options == "" {
		missing = append(missing, "options")
	}
	if len(missing) > 0 {
		return Preset{}, services.Wrap(services.ErrPreset, "presets", "parse",
			fmt.Sprintf("Missing required fields in preset %s: %s", name, strings.Join(missing, ", ")), nil)
	}
	return preset, nil
}

// ValidateName rejects names that cannot be embedded in a file name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name || trimmed == "." || trimmed == ".." {
		return services.Wrap(services.ErrPreset, "presets", "validate", fmt.Sprintf("Invalid preset name %q", name), nil)
	}
	if strings.ContainsAny(name, unsafeNameChars) || strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 }) {
		return services.Wrap(services.ErrPreset, "presets", "validate",
			fmt.Sprintf("Preset name %q contains characters not allowed in file names", name), nil)
	}
	return nil
}

// Store holds the loaded presets in file order.
type Store struct {
	path    string
	presets []Preset
}

// NewStore wraps already parsed presets.
func NewStore(path string, presets []Preset) *Store {
	return &Store{path: path, presets: slices.Clone(presets)}
}

// Path returns the file the presets were read from.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of presets.
func (s *Store) Len() int {
	return len(s.presets)
}

// All returns the presets in file order.
func (s *Store) All() []Preset {
	return slices.Clone(s.presets)
}

// Names returns preset names in file order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.presets))
	for _, p := range s.presets {
		names = append(names, p.Name)
	}
	return names
}

// Get looks a preset up by name.
func (s *Store) Get(name string) (Preset, bool) {
	for _, p := range s.presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// HWAccels returns the distinct hardware accelerators in use, in file order.
func (s *Store) HWAccels() []string {
	var out []string
	for _, p := range s.presets {
		if !p.UsesHWAccel() {
			continue
		}
		hw := strings.ToLower(strings.TrimSpace(p.HWAccel))
		if !slices.Contains(out, hw) {
			out = append(out, hw)
		}
	}
	return out
}
