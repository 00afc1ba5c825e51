// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: glint/resources.go
// Summary: Font, image and GL-texture caches with epoch-gated garbage
//          collection. Deletions are computed by diffing the new frame's
//          live set against the previous registrations and emitted as
//          ResourceUpdates for the renderer.
// Usage: One ResourceCache per window; GC runs at the end of each frame,
//        after the new layout results are known and before the epoch bump.

package glint

import (
	"sync"
	"sync/atomic"

	"github.com/mattn/go-runewidth"
)

// ImageRefHash is a content hash identifying image bytes.
type ImageRefHash uint64

// ImageKey is the renderer-side key of a registered image.
type ImageKey struct {
	Namespace IdNamespace
	Key       uint32
}

// FontKey is the renderer-side key of a registered font.
type FontKey struct {
	Namespace IdNamespace
	Key       uint32
}

// FontInstanceKey is a font at a concrete size.
type FontInstanceKey struct {
	Namespace IdNamespace
	Key       uint32
}

// ExternalImageId references a texture owned outside the renderer.
type ExternalImageId uint64

var externalImageCounter atomic.Uint64

// NewExternalImageId allocates a process-unique external image id.
func NewExternalImageId() ExternalImageId {
	return ExternalImageId(externalImageCounter.Add(1))
}

// ImageDescriptor is the renderer-facing shape of an image.
type ImageDescriptor struct {
	Width    int
	Height   int
	HasAlpha bool
}

// ImageRefKind tags the ImageRef union.
type ImageRefKind uint8

const (
	// ImageRefNull is a placeholder that renders nothing.
	ImageRefNull ImageRefKind = iota
	// ImageRefRaw carries decoded pixels.
	ImageRefRaw
	// ImageRefGl carries an already-uploaded texture.
	ImageRefGl
	// ImageRefCallback nests another render callback; ignored recursively.
	ImageRefCallback
)

// ImageRef is what user code hands the runtime when a node shows an image.
type ImageRef struct {
	Kind       ImageRefKind
	Descriptor ImageDescriptor
	Pixels     []byte
	TextureId  uint32
	Hash       ImageRefHash
}

// ImageMask clips a node against an image's alpha channel.
type ImageMask struct {
	Image  ImageRefHash
	Rect   LogicalRect
	Repeat bool
}

// ImageCache is the shared, read-only-during-callbacks image store.
type ImageCache struct {
	entries map[ImageRefHash]ImageRef
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{entries: make(map[ImageRefHash]ImageRef)}
}

// Add registers image bytes under their content hash.
func (c *ImageCache) Add(ref ImageRef) { c.entries[ref.Hash] = ref }

// Get looks an image up by hash.
func (c *ImageCache) Get(hash ImageRefHash) (ImageRef, bool) {
	ref, ok := c.entries[hash]
	return ref, ok
}

// Remove drops an image from the cache.
func (c *ImageCache) Remove(hash ImageRefHash) { delete(c.entries, hash) }

// Len returns the number of cached images.
func (c *ImageCache) Len() int { return len(c.entries) }

// FontRef is a loaded font family plus its bytes, shared by refcount.
type FontRef struct {
	Family string
	Bytes  []byte
}

// FontCache is the shared font store handed to layout callbacks.
type FontCache struct {
	fonts map[string]FontRef
}

// NewFontCache creates an empty font cache.
func NewFontCache() *FontCache { return &FontCache{fonts: make(map[string]FontRef)} }

// Add registers a font family.
func (c *FontCache) Add(ref FontRef) { c.fonts[ref.Family] = ref }

// Get looks a family up.
func (c *FontCache) Get(family string) (FontRef, bool) {
	ref, ok := c.fonts[family]
	return ref, ok
}

// GlContextPtr is the shared GL context handle. Callbacks may read it but
// must not change which context is current; the frame loop re-asserts
// currency at the top of the produce and present phases.
type GlContextPtr struct {
	Ptr     uintptr
	current bool
}

// MakeCurrent marks the context current for the frame thread.
func (g *GlContextPtr) MakeCurrent() {
	if g != nil {
		g.current = true
	}
}

// IsCurrent reports whether MakeCurrent ran since construction.
func (g *GlContextPtr) IsCurrent() bool { return g != nil && g.current }

// RenderImageCallbackInfo is handed to render-image callbacks.
type RenderImageCallbackInfo struct {
	Bounds          LogicalRect
	GlContext       *GlContextPtr
	ImageCache      *ImageCache
	FontCache       *FontCache
	NodeHierarchy   *StyledDom
	PositionedRects []PositionedRectangle
	CallbackNode    NodeId
}

// RenderImageCallback draws a node's texture content on demand.
type RenderImageCallback func(data *RefAny, info *RenderImageCallbackInfo) ImageRef

// ResourceUpdateKind tags one renderer transaction record.
type ResourceUpdateKind uint8

const (
	AddImageMsg ResourceUpdateKind = iota
	UpdateImageMsg
	DeleteImageMsg
	AddFontMsg
	AddFontInstanceMsg
	DeleteFontMsg
	DeleteFontInstanceMsg
)

// ResourceUpdate is one record in the transaction sent to the renderer
// between frames.
type ResourceUpdate struct {
	Kind         ResourceUpdateKind
	ImageKey     ImageKey
	ImageHash    ImageRefHash
	Descriptor   ImageDescriptor
	FontKey      FontKey
	InstanceKey  FontInstanceKey
	InstanceSize Au
	Family       string
}

// registeredFont tracks one font and its per-size instances.
type registeredFont struct {
	Ref       FontRef
	Instances map[Au]FontInstanceKey
}

// registeredImage tracks one renderer-registered image.
type registeredImage struct {
	Key        ImageKey
	Descriptor ImageDescriptor
}

// ResourceCache owns the per-window renderer resources and computes the
// add/delete transactions between frames.
type ResourceCache struct {
	Namespace IdNamespace

	currentlyRegisteredFonts map[FontKey]*registeredFont
	lastFrameRegisteredFonts map[FontKey]map[Au]FontInstanceKey
	currentlyRegisteredImages map[ImageRefHash]registeredImage

	fontFamilyRefs map[string]int
	familyToKey    map[string]FontKey

	nextImageKey uint32
	nextFontKey  uint32

	wordWidths map[string]int
}

// NewResourceCache creates an empty cache for one window.
func NewResourceCache(ns IdNamespace) *ResourceCache {
	return &ResourceCache{
		Namespace:                 ns,
		currentlyRegisteredFonts:  make(map[FontKey]*registeredFont),
		lastFrameRegisteredFonts:  make(map[FontKey]map[Au]FontInstanceKey),
		currentlyRegisteredImages: make(map[ImageRefHash]registeredImage),
		fontFamilyRefs:            make(map[string]int),
		familyToKey:               make(map[string]FontKey),
		wordWidths:                make(map[string]int),
	}
}

// WordWidth measures the display width of a word in terminal cells,
// memoized. Used by the words-changed incremental relayout path.
func (c *ResourceCache) WordWidth(word string) int {
	if w, ok := c.wordWidths[word]; ok {
		return w
	}
	w := runewidth.StringWidth(word)
	c.wordWidths[word] = w
	return w
}

// RegisterImage registers an image hash lazily, returning its key and the
// AddImage update when it was new.
func (c *ResourceCache) RegisterImage(hash ImageRefHash, desc ImageDescriptor) (ImageKey, *ResourceUpdate) {
	if img, ok := c.currentlyRegisteredImages[hash]; ok {
		return img.Key, nil
	}
	c.nextImageKey++
	key := ImageKey{Namespace: c.Namespace, Key: c.nextImageKey}
	c.currentlyRegisteredImages[hash] = registeredImage{Key: key, Descriptor: desc}
	return key, &ResourceUpdate{Kind: AddImageMsg, ImageKey: key, ImageHash: hash, Descriptor: desc}
}

// ImageKeyFor returns the renderer key of a registered hash.
func (c *ResourceCache) ImageKeyFor(hash ImageRefHash) (ImageKey, bool) {
	img, ok := c.currentlyRegisteredImages[hash]
	return img.Key, ok
}

// RegisterFontInstance registers a font at a size, adding the font itself
// on first use. Returned updates are in add order (font before instance).
func (c *ResourceCache) RegisterFontInstance(ref FontRef, size Au) (FontInstanceKey, []ResourceUpdate) {
	var updates []ResourceUpdate
	key, ok := c.familyToKey[ref.Family]
	if !ok {
		c.nextFontKey++
		key = FontKey{Namespace: c.Namespace, Key: c.nextFontKey}
		c.familyToKey[ref.Family] = key
		c.currentlyRegisteredFonts[key] = &registeredFont{
			Ref:       ref,
			Instances: make(map[Au]FontInstanceKey),
		}
		updates = append(updates, ResourceUpdate{Kind: AddFontMsg, FontKey: key, Family: ref.Family})
	}
	font := c.currentlyRegisteredFonts[key]
	if inst, ok := font.Instances[size]; ok {
		return inst, updates
	}
	c.nextFontKey++
	inst := FontInstanceKey{Namespace: c.Namespace, Key: c.nextFontKey}
	font.Instances[size] = inst
	c.fontFamilyRefs[ref.Family]++
	updates = append(updates, ResourceUpdate{
		Kind: AddFontInstanceMsg, FontKey: key, InstanceKey: inst, InstanceSize: size, Family: ref.Family,
	})
	return inst, updates
}

// HasImage reports whether a hash is currently registered.
func (c *ResourceCache) HasImage(hash ImageRefHash) bool {
	_, ok := c.currentlyRegisteredImages[hash]
	return ok
}

// liveImageHashes scans the new DOMs and the texture cache for every image
// hash the next frame still references.
func liveImageHashes(layoutResults []*LayoutResult, textures *GlTextureCache) map[ImageRefHash]bool {
	live := make(map[ImageRefHash]bool)
	for _, lr := range layoutResults {
		if lr == nil || lr.StyledDom.IsEmpty() {
			continue
		}
		for i := range lr.StyledDom.NodeData {
			nd := &lr.StyledDom.NodeData[i]
			if nd.ImageHash != 0 {
				live[nd.ImageHash] = true
			}
			if nd.BackgroundImageHash != 0 {
				live[nd.BackgroundImageHash] = true
			}
		}
	}
	if textures != nil {
		for _, hash := range textures.Hashes {
			live[hash] = true
		}
	}
	return live
}

// GarbageCollect computes the deletion transaction for one frame:
//  1. image hashes referenced by the new DOMs form the live set,
//  2. plus every hash the texture cache still solves,
//  3. fonts whose instance set shrank emit instance deletions first, then
//     the font deletion once no instance remains,
//  4. unreferenced images are deleted and dropped from the registry,
//  5. the last-frame font snapshot is replaced,
//  6. font families whose refcount reached zero are dropped.
func (c *ResourceCache) GarbageCollect(layoutResults []*LayoutResult, textures *GlTextureCache) []ResourceUpdate {
	live := liveImageHashes(layoutResults, textures)
	var updates []ResourceUpdate

	for key, lastInstances := range c.lastFrameRegisteredFonts {
		cur := c.currentlyRegisteredFonts[key]
		var family string
		if cur != nil {
			family = cur.Ref.Family
		}
		for size, inst := range lastInstances {
			stillThere := false
			if cur != nil {
				_, stillThere = cur.Instances[size]
			}
			if !stillThere {
				updates = append(updates, ResourceUpdate{
					Kind: DeleteFontInstanceMsg, FontKey: key, InstanceKey: inst, InstanceSize: size,
				})
				if family != "" {
					c.fontFamilyRefs[family]--
				}
			}
		}
		if cur == nil || len(cur.Instances) == 0 {
			updates = append(updates, ResourceUpdate{Kind: DeleteFontMsg, FontKey: key, Family: family})
			if cur != nil {
				delete(c.currentlyRegisteredFonts, key)
				delete(c.familyToKey, family)
			}
		}
	}

	for hash, img := range c.currentlyRegisteredImages {
		if live[hash] {
			continue
		}
		updates = append(updates, ResourceUpdate{Kind: DeleteImageMsg, ImageKey: img.Key, ImageHash: hash})
		delete(c.currentlyRegisteredImages, hash)
	}

	snapshot := make(map[FontKey]map[Au]FontInstanceKey, len(c.currentlyRegisteredFonts))
	for key, font := range c.currentlyRegisteredFonts {
		instances := make(map[Au]FontInstanceKey, len(font.Instances))
		for size, inst := range font.Instances {
			instances[size] = inst
		}
		snapshot[key] = instances
	}
	c.lastFrameRegisteredFonts = snapshot

	for family, refs := range c.fontFamilyRefs {
		if refs <= 0 {
			delete(c.fontFamilyRefs, family)
		}
	}
	return updates
}

// texHashKey keys the texture cache's callback-hash table.
type texHashKey struct {
	Dom          DomId
	Node         NodeId
	CallbackHash uint64
}

// solvedTexture is one active GPU texture of a render-image node.
type solvedTexture struct {
	Key        ImageKey
	Descriptor ImageDescriptor
	External   ExternalImageId
}

// GlTextureCache tracks textures produced by render-image callbacks, keyed
// by the node that drew them.
type GlTextureCache struct {
	SolvedTextures map[DomNodeId]solvedTexture
	Hashes         map[texHashKey]ImageRefHash
}

// NewGlTextureCache creates an empty texture cache.
func NewGlTextureCache() *GlTextureCache {
	return &GlTextureCache{
		SolvedTextures: make(map[DomNodeId]solvedTexture),
		Hashes:         make(map[texHashKey]ImageRefHash),
	}
}

// Insert registers a freshly rendered texture for a node.
func (g *GlTextureCache) Insert(id DomNodeId, key ImageKey, desc ImageDescriptor, external ExternalImageId,
	doc DocumentId, epoch Epoch) {
	g.SolvedTextures[id] = solvedTexture{Key: key, Descriptor: desc, External: external}
	registerActiveTexture(doc, epoch, external)
}

// TextureFor returns the active texture of a node.
func (g *GlTextureCache) TextureFor(id DomNodeId) (ImageKey, ExternalImageId, bool) {
	t, ok := g.SolvedTextures[id]
	return t.Key, t.External, ok
}

// RerenderImage swaps the external image behind a node's texture while
// keeping the ImageKey stable, so the display list needs no rebuild. The
// old external id leaves the active table before the new one enters.
func (g *GlTextureCache) RerenderImage(id DomNodeId, external ExternalImageId, doc DocumentId, epoch Epoch) bool {
	t, ok := g.SolvedTextures[id]
	if !ok {
		return false
	}
	unregisterActiveTexture(doc, t.External)
	t.External = external
	g.SolvedTextures[id] = t
	registerActiveTexture(doc, epoch, external)
	return true
}

// Remove drops a node's texture (node disappeared from the DOM).
func (g *GlTextureCache) Remove(id DomNodeId, doc DocumentId) {
	if t, ok := g.SolvedTextures[id]; ok {
		unregisterActiveTexture(doc, t.External)
		delete(g.SolvedTextures, id)
	}
	for k := range g.Hashes {
		if k.Dom == id.Dom && k.Node == id.Node {
			delete(g.Hashes, k)
		}
	}
}

// Process-wide active-texture table: the renderer may still sample textures
// of an epoch that has not been presented, so deletion is gated on epoch.
var (
	activeTexturesMu sync.Mutex
	activeTextures   = map[DocumentId]map[Epoch]map[ExternalImageId]bool{}
)

func registerActiveTexture(doc DocumentId, epoch Epoch, id ExternalImageId) {
	activeTexturesMu.Lock()
	defer activeTexturesMu.Unlock()
	byEpoch := activeTextures[doc]
	if byEpoch == nil {
		byEpoch = map[Epoch]map[ExternalImageId]bool{}
		activeTextures[doc] = byEpoch
	}
	ids := byEpoch[epoch]
	if ids == nil {
		ids = map[ExternalImageId]bool{}
		byEpoch[epoch] = ids
	}
	ids[id] = true
}

func unregisterActiveTexture(doc DocumentId, id ExternalImageId) {
	activeTexturesMu.Lock()
	defer activeTexturesMu.Unlock()
	for _, ids := range activeTextures[doc] {
		delete(ids, id)
	}
}

// GlTexturesRemoveEpochsFromPipeline releases every texture belonging to
// epochs at or before the given one. Must run before the epoch increment.
// Epochs wrap, so "at or before" is the signed distance, not plain <=.
func GlTexturesRemoveEpochsFromPipeline(doc DocumentId, epoch Epoch) {
	activeTexturesMu.Lock()
	defer activeTexturesMu.Unlock()
	byEpoch := activeTextures[doc]
	for e := range byEpoch {
		if int32(e-epoch) <= 0 {
			delete(byEpoch, e)
		}
	}
	if len(byEpoch) == 0 {
		delete(activeTextures, doc)
	}
}

// ActiveTextureCount reports how many textures the document still holds.
func ActiveTextureCount(doc DocumentId) int {
	activeTexturesMu.Lock()
	defer activeTexturesMu.Unlock()
	n := 0
	for _, ids := range activeTextures[doc] {
		n += len(ids)
	}
	return n
}
