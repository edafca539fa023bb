package animation

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ErrUnknownClip is returned when the catalog has no clip for a key.
var ErrUnknownClip = errors.New("unknown clip")

// Handedness directories.
const (
	Left  = "left"
	Right = "right"
)

// ClipKey identifies a clip asset.
type ClipKey struct {
	Directory string
	File      string
}

// KeyFor returns the asset key for a glyph signed with the given hand.
func KeyFor(glyph rune, handedness string) ClipKey {
	return ClipKey{
		Directory: strings.ToLower(handedness),
		File:      string(unicode.ToLower(glyph)) + ".anim",
	}
}

// Catalog is the set of available clips keyed by (directory, file).
type Catalog struct {
	clips map[ClipKey]Clip
}

type manifest struct {
	Clips []manifestClip `yaml:"clips"`
}

type manifestClip struct {
	Directory string                `yaml:"directory"`
	File      string                `yaml:"file"`
	Duration  float64               `yaml:"duration"`
	BlendIn   float64               `yaml:"blend_in"`
	Start     map[string][4]float64 `yaml:"start"`
	End       map[string][4]float64 `yaml:"end"`
}

// ParseCatalog decodes a YAML clip manifest.
func ParseCatalog(data []byte) (*Catalog, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse clip manifest: %w", err)
	}

	c := &Catalog{clips: make(map[ClipKey]Clip, len(m.Clips))}
	for i, mc := range m.Clips {
		if mc.Directory == "" || mc.File == "" {
			return nil, fmt.Errorf("clip %d: directory and file are required", i)
		}
		if mc.Duration <= 0 {
			return nil, fmt.Errorf("clip %s/%s: duration must be positive", mc.Directory, mc.File)
		}
		if mc.BlendIn < 0 || mc.BlendIn > mc.Duration {
			return nil, fmt.Errorf("clip %s/%s: blend_in must be within [0, duration]", mc.Directory, mc.File)
		}
		key := ClipKey{Directory: strings.ToLower(mc.Directory), File: strings.ToLower(mc.File)}
		c.clips[key] = Clip{
			Glyph:     strings.TrimSuffix(key.File, ".anim"),
			Directory: key.Directory,
			File:      key.File,
			Duration:  mc.Duration,
			BlendIn:   mc.BlendIn,
			Start:     PoseFromArray(mc.Start),
			End:       PoseFromArray(mc.End),
		}
	}
	return c, nil
}

// LoadCatalog reads a YAML clip manifest from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clip manifest: %w", err)
	}
	return ParseCatalog(data)
}

//go:embed clips.yaml
var bundledManifest []byte

// DefaultCatalog returns the bundled alphabet for both hands.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(bundledManifest)
}

// Len returns the number of clips.
func (c *Catalog) Len() int { return len(c.clips) }

// Lookup returns the clip for key.
func (c *Catalog) Lookup(key ClipKey) (Clip, error) {
	clip, ok := c.clips[key]
	if !ok {
		return Clip{}, fmt.Errorf("%s/%s: %w", key.Directory, key.File, ErrUnknownClip)
	}
	return clip, nil
}

// Sequence returns the clips spelling word with the given hand. Characters
// other than letters and digits are skipped.
func (c *Catalog) Sequence(word, handedness string) ([]Clip, error) {
	var out []Clip
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		clip, err := c.Lookup(KeyFor(r, handedness))
		if err != nil {
			return nil, err
		}
		out = append(out, clip)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no clips for %q: %w", word, ErrUnknownClip)
	}
	return out, nil
}
