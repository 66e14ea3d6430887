// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dacgen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/tidwall/jsonc"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/asset/ir"
)

// SourceRef names a file a definition depends on. Relative references
// resolve against the definition root, so a definition tree can move
// between machines without edits.
type SourceRef string

// Resolver maps source references to readable paths.
type Resolver struct {
	// Root is the directory relative references resolve against,
	// normally the definition source directory.
	Root string
}

// Path returns the filesystem path for ref.
func (r *Resolver) Path(ref SourceRef) string {
	path := string(ref)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.Root, path)
}

// Read returns the content of the referenced file.
func (r *Resolver) Read(ref SourceRef) ([]byte, error) {
	data, err := os.ReadFile(r.Path(ref))
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", ref, err)
	}
	return data, nil
}

// UserHeader is the authored portion of an asset header: the declared
// type, explicit dependencies, and organizational tags. The asset ID
// and checksum are derived during conversion, never authored.
type UserHeader struct {
	Type         asset.Type `json:"asset_type"`
	Dependencies []asset.ID `json:"dependencies,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}

func (h *UserHeader) deepHash(d *DeepHasher) {
	d.Tag(byte(h.Type))
	d.IDs(h.Dependencies)
	d.Strings(h.Tags)
}

// Properties is the type-specific half of an asset definition. Each
// built-in asset type has one implementation; deepHash feeds every
// declared field plus referenced file content into the build hash.
type Properties interface {
	deepHash(d *DeepHasher, r *Resolver) error
}

// UserAsset is one parsed asset definition.
type UserAsset struct {
	Header     UserHeader
	Properties Properties
}

// UserFile pairs a definition with the path it was read from. The
// path names the asset (see NormalizeName) and locates errors; it is
// never part of the deep hash, since the same definition must hash
// identically from any checkout location.
type UserFile struct {
	Path  string
	Asset UserAsset
}

func (f *UserFile) deepHash(d *DeepHasher, r *Resolver) error {
	f.Asset.Header.deepHash(d)
	return f.Asset.Properties.deepHash(d, r)
}

// ShaderOrigin supplies one shader stage's source: either inline code
// or a referenced file. Exactly one of the two fields is set.
type ShaderOrigin struct {
	Code   string    `json:"code,omitempty"`
	Source SourceRef `json:"source,omitempty"`
}

func (o *ShaderOrigin) deepHash(d *DeepHasher, r *Resolver) error {
	if o.Source != "" {
		d.Tag(1)
		return d.File(r, o.Source)
	}
	d.Tag(0)
	d.String(o.Code)
	return nil
}

// UserShader declares a shader program: compile options and one
// source per stage.
type UserShader struct {
	CompileOptions []string                       `json:"compile_options,omitempty"`
	Sources        map[ir.ShaderStage]ShaderOrigin `json:"sources"`
}

func (u *UserShader) deepHash(d *DeepHasher, r *Resolver) error {
	d.Strings(u.CompileOptions)
	stages := make([]string, 0, len(u.Sources))
	for stage := range u.Sources {
		stages = append(stages, string(stage))
	}
	sort.Strings(stages)
	d.Uint64(uint64(len(stages)))
	for _, stage := range stages {
		d.String(stage)
		origin := u.Sources[ir.ShaderStage(stage)]
		if err := origin.deepHash(d, r); err != nil {
			return err
		}
	}
	return nil
}

// UserTexture declares a 2D texture whose pixel data is shipped as
// authored: the referenced file already holds bytes in the declared
// format, the pipeline only frames them.
type UserTexture struct {
	Source      SourceRef      `json:"source"`
	Width       uint32         `json:"width"`
	Height      uint32         `json:"height"`
	PixelFormat ir.PixelFormat `json:"pixel_format"`
	UseMipmaps  bool           `json:"use_mipmaps,omitempty"`
	MinFilter   ir.Filter      `json:"min_filter,omitempty"`
	MagFilter   ir.Filter      `json:"mag_filter,omitempty"`
	WrapS       ir.Wrap        `json:"wrap_s,omitempty"`
	WrapT       ir.Wrap        `json:"wrap_t,omitempty"`
}

func (u *UserTexture) deepHash(d *DeepHasher, r *Resolver) error {
	if err := d.File(r, u.Source); err != nil {
		return err
	}
	d.Uint32(u.Width)
	d.Uint32(u.Height)
	d.String(string(u.PixelFormat))
	d.Bool(u.UseMipmaps)
	d.String(string(u.MinFilter))
	d.String(string(u.MagFilter))
	d.String(string(u.WrapS))
	d.String(string(u.WrapT))
	return nil
}

// UserTextureCube declares a cube map from six face files in
// +X, -X, +Y, -Y, +Z, -Z order.
type UserTextureCube struct {
	Faces       [6]SourceRef   `json:"faces"`
	Size        uint32         `json:"size"`
	PixelFormat ir.PixelFormat `json:"pixel_format"`
	UseMipmaps  bool           `json:"use_mipmaps,omitempty"`
	MinFilter   ir.Filter      `json:"min_filter,omitempty"`
	MagFilter   ir.Filter      `json:"mag_filter,omitempty"`
	WrapS       ir.Wrap        `json:"wrap_s,omitempty"`
	WrapT       ir.Wrap        `json:"wrap_t,omitempty"`
	WrapR       ir.Wrap        `json:"wrap_r,omitempty"`
}

func (u *UserTextureCube) deepHash(d *DeepHasher, r *Resolver) error {
	for _, face := range u.Faces {
		if err := d.File(r, face); err != nil {
			return err
		}
	}
	d.Uint32(u.Size)
	d.String(string(u.PixelFormat))
	d.Bool(u.UseMipmaps)
	d.String(string(u.MinFilter))
	d.String(string(u.MagFilter))
	d.String(string(u.WrapS))
	d.String(string(u.WrapT))
	d.String(string(u.WrapR))
	return nil
}

// UserAudio declares a sound whose referenced file holds raw
// little-endian float32 samples, interleaved by channel.
type UserAudio struct {
	Source     SourceRef `json:"source"`
	SampleRate uint32    `json:"sample_rate"`
	Channels   uint8     `json:"channels"`
}

func (u *UserAudio) deepHash(d *DeepHasher, r *Resolver) error {
	if err := d.File(r, u.Source); err != nil {
		return err
	}
	d.Uint32(u.SampleRate)
	d.Tag(u.Channels)
	return nil
}

// UserMesh declares geometry from raw interleaved vertex bytes and an
// optional raw index buffer.
type UserMesh struct {
	Vertices     SourceRef `json:"vertices"`
	Indices      SourceRef `json:"indices,omitempty"`
	VertexStride uint32    `json:"vertex_stride"`
	IndexSize    uint8     `json:"index_size,omitempty"`
	Material     asset.ID  `json:"material,omitempty"`
}

func (u *UserMesh) deepHash(d *DeepHasher, r *Resolver) error {
	if err := d.File(r, u.Vertices); err != nil {
		return err
	}
	if u.Indices != "" {
		d.Tag(1)
		if err := d.File(r, u.Indices); err != nil {
			return err
		}
	} else {
		d.Tag(0)
	}
	d.Uint32(u.VertexStride)
	d.Tag(u.IndexSize)
	d.String(string(u.Material))
	return nil
}

// UserMaterial declares a surface: scalar parameters plus references
// to texture and shader assets by ID.
type UserMaterial struct {
	BaseColor        [4]float32 `json:"base_color"`
	Metallic         float32    `json:"metallic,omitempty"`
	Roughness        float32    `json:"roughness,omitempty"`
	BaseColorTexture asset.ID   `json:"base_color_texture,omitempty"`
	NormalTexture    asset.ID   `json:"normal_texture,omitempty"`
	MetallicTexture  asset.ID   `json:"metallic_texture,omitempty"`
	Shader           asset.ID   `json:"shader,omitempty"`
}

func (u *UserMaterial) deepHash(d *DeepHasher, _ *Resolver) error {
	for _, v := range u.BaseColor {
		d.Float32(v)
	}
	d.Float32(u.Metallic)
	d.Float32(u.Roughness)
	d.String(string(u.BaseColorTexture))
	d.String(string(u.NormalTexture))
	d.String(string(u.MetallicTexture))
	d.String(string(u.Shader))
	return nil
}

// UserDictionary declares structured key/value data inline.
type UserDictionary struct {
	Entries map[string]ir.Entry `json:"entries,omitempty"`
}

func (u *UserDictionary) deepHash(d *DeepHasher, _ *Resolver) error {
	hashEntryMap(d, u.Entries)
	return nil
}

func hashEntryMap(d *DeepHasher, entries map[string]ir.Entry) {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	d.Uint64(uint64(len(keys)))
	for _, key := range keys {
		d.String(key)
		entry := entries[key]
		hashEntry(d, &entry)
	}
}

func hashEntry(d *DeepHasher, e *ir.Entry) {
	d.String(string(e.Kind))
	switch e.Kind {
	case ir.EntryString:
		d.String(e.String)
	case ir.EntryInt:
		d.Int64(e.Int)
	case ir.EntryUint:
		d.Uint64(e.Uint)
	case ir.EntryFloat:
		d.Float32(e.Float)
	case ir.EntryBool:
		d.Bool(e.Bool)
	case ir.EntryMap:
		hashEntryMap(d, e.Map)
	case ir.EntryArray:
		d.Uint64(uint64(len(e.Array)))
		for i := range e.Array {
			hashEntry(d, &e.Array[i])
		}
	default:
		// vec2/vec3/vec4/mat3/mat4 all carry their payload in Vector.
		d.Uint64(uint64(len(e.Vector)))
		for _, v := range e.Vector {
			d.Float32(v)
		}
	}
}

// UserBlob declares untyped bytes shipped as-is.
type UserBlob struct {
	Source SourceRef `json:"source"`
}

func (u *UserBlob) deepHash(d *DeepHasher, r *Resolver) error {
	return d.File(r, u.Source)
}

// UserNotes declares human-readable text, either inline or from a
// referenced file.
type UserNotes struct {
	Text   string    `json:"text,omitempty"`
	Source SourceRef `json:"source,omitempty"`
}

func (u *UserNotes) deepHash(d *DeepHasher, r *Resolver) error {
	if u.Source != "" {
		d.Tag(1)
		return d.File(r, u.Source)
	}
	d.Tag(0)
	d.String(u.Text)
	return nil
}

// definitionExtensions are the file suffixes treated as asset
// definitions when scanning a source directory. Everything else
// (referenced payload files, editor droppings) is ignored.
var definitionExtensions = map[string]bool{
	".jsonc": true,
	".json":  true,
}

// envelope is the on-disk shape of a definition file. Properties stay
// raw until the header's type selects the concrete schema.
type envelope struct {
	Header     UserHeader      `json:"header"`
	Properties json.RawMessage `json:"properties"`
}

// ParseUserFile reads one JSONC asset definition from disk. The input
// is JSON extended with // line comments, /* block comments */, and
// trailing commas.
func ParseUserFile(path string) (*UserFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	stripped := jsonc.ToJSON(data)
	var env envelope
	if err := json.Unmarshal(stripped, &env); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	properties, err := parseProperties(env.Header.Type, env.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &UserFile{
		Path: path,
		Asset: UserAsset{
			Header:     env.Header,
			Properties: properties,
		},
	}, nil
}

func parseProperties(kind asset.Type, raw json.RawMessage) (Properties, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("definition has no properties")
	}

	var properties Properties
	switch kind {
	case asset.TypeShader:
		properties = &UserShader{}
	case asset.TypeTexture:
		properties = &UserTexture{}
	case asset.TypeTextureCube:
		properties = &UserTextureCube{}
	case asset.TypeAudio:
		properties = &UserAudio{}
	case asset.TypeMesh:
		properties = &UserMesh{}
	case asset.TypeMaterial:
		properties = &UserMaterial{}
	case asset.TypeDictionary:
		properties = &UserDictionary{}
	case asset.TypeBlob:
		properties = &UserBlob{}
	case asset.TypeNotes:
		properties = &UserNotes{}
	default:
		return nil, fmt.Errorf("unsupported asset type %q", kind)
	}

	if err := json.Unmarshal(raw, properties); err != nil {
		return nil, fmt.Errorf("parsing %s properties: %w", kind, err)
	}
	return properties, nil
}

// NormalizeName derives an asset ID from a definition file path: the
// file stem lowercased, whitespace and dots replaced with
// underscores, everything else non-alphanumeric dropped.
func NormalizeName(path string) asset.ID {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.ToLower(stem)

	var builder strings.Builder
	for _, r := range stem {
		switch {
		case r == '.' || r == ' ':
			builder.WriteRune('_')
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		}
	}
	if builder.Len() == 0 {
		return "unknown"
	}
	return asset.ID(builder.String())
}
