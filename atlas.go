package trellis

import (
	"encoding/json"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
)

// ErrRegionNotFound is returned by Atlas.Texture for unknown names.
var ErrRegionNotFound = errors.New("trellis: atlas region not found")

// atlasRegion is one named rectangle on an atlas page.
type atlasRegion struct {
	page    int
	rect    image.Rectangle
	rotated bool
}

// Atlas holds one or more page images and a map of named regions, loaded from
// TexturePacker JSON. Each region becomes a Texture for sprites.
type Atlas struct {
	// Pages contains the page images indexed by page number.
	Pages   []*ebiten.Image
	regions map[string]atlasRegion
}

// Len returns the number of regions in the atlas.
func (a *Atlas) Len() int { return len(a.regions) }

// Texture returns the named region as a Texture. Regions packed rotated are
// rejected because sprites sample them upright.
func (a *Atlas) Texture(name string) (Texture, error) {
	r, ok := a.regions[name]
	if !ok {
		return Texture{}, errors.Wrapf(ErrRegionNotFound, "%q", name)
	}
	if r.page >= len(a.Pages) || a.Pages[r.page] == nil {
		return Texture{}, errors.Errorf("trellis: atlas region %q is on missing page %d", name, r.page)
	}
	if r.rotated {
		return Texture{}, errors.Errorf("trellis: atlas region %q is rotated", name)
	}
	tex := NewTexture(a.Pages[r.page])
	tex.SetTexelRange([2]int{r.rect.Min.X, r.rect.Min.Y}, [2]int{r.rect.Dx(), r.rect.Dy()})
	return tex, nil
}

// LoadAtlas parses TexturePacker JSON data and associates the given page
// images. Both the hash format (a single "frames" object) and the array format
// (a "textures" array with per-page frame lists) are supported.
func LoadAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	var probe struct {
		Frames   json.RawMessage `json:"frames"`
		Textures json.RawMessage `json:"textures"`
	}
	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, errors.Wrap(err, "trellis: parse atlas")
	}

	atlas := &Atlas{Pages: pages, regions: make(map[string]atlasRegion)}
	switch {
	case probe.Textures != nil:
		var textures []jsonTexturePage
		if err := json.Unmarshal(probe.Textures, &textures); err != nil {
			return nil, errors.Wrap(err, "trellis: parse atlas textures")
		}
		for i, tex := range textures {
			atlas.addFrames(tex.Frames, i)
		}
	case probe.Frames != nil:
		var frames map[string]jsonFrame
		if err := json.Unmarshal(probe.Frames, &frames); err != nil {
			return nil, errors.Wrap(err, "trellis: parse atlas frames")
		}
		atlas.addFrames(frames, 0)
	default:
		return nil, errors.New(`trellis: atlas has neither "frames" nor "textures"`)
	}
	return atlas, nil
}

func (a *Atlas) addFrames(frames map[string]jsonFrame, page int) {
	for name, f := range frames {
		a.regions[name] = atlasRegion{
			page:    page,
			rect:    image.Rect(f.Frame.X, f.Frame.Y, f.Frame.X+f.Frame.W, f.Frame.Y+f.Frame.H),
			rotated: f.Rotated,
		}
	}
}

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Frame   jsonRect `json:"frame"`
	Rotated bool     `json:"rotated"`
}

type jsonTexturePage struct {
	Image  string               `json:"image"`
	Frames map[string]jsonFrame `json:"frames"`
}
