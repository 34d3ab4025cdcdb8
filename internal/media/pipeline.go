package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"creator-messaging/internal/models"
	"creator-messaging/internal/observability"
	"creator-messaging/internal/storage"
)

// Normalized derivatives are capped at this bounding box.
const derivativeMaxDim = 2048

var kindByExtension = map[string]models.MediaKind{
	"jpg":  models.MediaKindImage,
	"jpeg": models.MediaKindImage,
	"png":  models.MediaKindImage,
	"gif":  models.MediaKindImage,
	"webp": models.MediaKindImage,
	"mp4":  models.MediaKindVideo,
	"mov":  models.MediaKindVideo,
	"webm": models.MediaKindVideo,
	"mp3":  models.MediaKindAudio,
	"wav":  models.MediaKindAudio,
	"ogg":  models.MediaKindAudio,
	"m4a":  models.MediaKindAudio,
	"pdf":  models.MediaKindFile,
	"zip":  models.MediaKindFile,
	"txt":  models.MediaKindFile,
}

var contentTypeByExtension = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"txt":  "text/plain",
}

// Item is one processed attachment: the permanent original key, the
// normalized derivative key for images, and the row metadata.
type Item struct {
	OriginalKey  string
	ConvertedKey string
	Kind         models.MediaKind
	Size         int64
}

// Result is the set of objects a Process call wrote to permanent storage.
type Result struct {
	Items []Item
}

// OriginalKeys lists the permanent original keys.
func (r Result) OriginalKeys() []string {
	keys := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		keys = append(keys, item.OriginalKey)
	}
	return keys
}

// ConvertedKeys lists the derivative keys that exist.
func (r Result) ConvertedKeys() []string {
	var keys []string
	for _, item := range r.Items {
		if item.ConvertedKey != "" {
			keys = append(keys, item.ConvertedKey)
		}
	}
	return keys
}

// Empty reports whether nothing was written.
func (r Result) Empty() bool {
	return len(r.Items) == 0
}

// ProcessError carries the partial result so callers can compensate.
type ProcessError struct {
	Key     string
	Written Result
	Err     error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process %s: %v", e.Key, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// ExtensionOf returns the lowercase extension of a key, without the dot.
func ExtensionOf(key string) string {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	return strings.ToLower(ext)
}

// KindForKey classifies a staged key by extension.
func KindForKey(key string) (models.MediaKind, error) {
	kind, ok := kindByExtension[ExtensionOf(key)]
	if !ok {
		return "", fmt.Errorf("unsupported media type %q", ExtensionOf(key))
	}
	return kind, nil
}

// Pipeline moves staged uploads into the permanent namespace, producing a
// normalized JPEG derivative for images.
type Pipeline struct {
	store     storage.ObjectStore
	namespace string
}

// NewPipeline constructs a Pipeline writing under namespace.
func NewPipeline(store storage.ObjectStore, namespace string) *Pipeline {
	return &Pipeline{store: store, namespace: namespace}
}

// Process handles each staged key in order. With continueOnError false the
// first failure aborts and the returned *ProcessError carries everything
// written so far; with continueOnError true failing items are skipped and
// only the successful subset is returned.
func (p *Pipeline) Process(ctx context.Context, stagedKeys []string, continueOnError bool) (Result, error) {
	var written Result
	for _, key := range stagedKeys {
		item, err := p.processOne(ctx, key)
		if err != nil {
			observability.IncMediaFailure()
			if continueOnError {
				// Skipped items must not leak half-written objects into the
				// returned subset.
				if item.OriginalKey != "" {
					p.Cleanup(ctx, Result{Items: []Item{item}})
				}
				log.Printf("media: skipping %s: %v", key, err)
				continue
			}
			if item.OriginalKey != "" {
				// The original went up before the item failed; it still needs
				// compensating.
				written.Items = append(written.Items, item)
			}
			return written, &ProcessError{Key: key, Written: written, Err: err}
		}
		observability.IncMediaProcessed()
		written.Items = append(written.Items, item)
	}
	return written, nil
}

func (p *Pipeline) processOne(ctx context.Context, key string) (Item, error) {
	kind, err := KindForKey(key)
	if err != nil {
		return Item{}, err
	}

	data, err := p.store.Get(ctx, key)
	if err != nil {
		return Item{}, err
	}

	ext := ExtensionOf(key)
	destKey := path.Join(p.namespace, path.Base(key))
	if err := p.store.Put(ctx, destKey, data, contentTypeByExtension[ext]); err != nil {
		return Item{}, err
	}

	item := Item{OriginalKey: destKey, Kind: kind, Size: int64(len(data))}
	if kind != models.MediaKindImage {
		return item, nil
	}

	derivative, err := normalizeImage(data)
	if err != nil {
		return item, fmt.Errorf("normalize image: %w", err)
	}

	convertedKey := derivativeKey(destKey)
	if err := p.store.Put(ctx, convertedKey, derivative, "image/jpeg"); err != nil {
		return item, err
	}
	item.ConvertedKey = convertedKey
	return item, nil
}

// Cleanup deletes the written objects best-effort. Failures are logged and
// counted, never returned: cleanup must not stack a second failure mode on
// top of the one being compensated.
func (p *Pipeline) Cleanup(ctx context.Context, res Result) {
	keys := append(res.OriginalKeys(), res.ConvertedKeys()...)
	for _, key := range keys {
		if err := p.store.Delete(ctx, key); err != nil {
			observability.IncCleanupFailure()
			log.Printf("media: cleanup of %s failed: %v", key, err)
		}
	}
}

func normalizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > derivativeMaxDim || bounds.Dy() > derivativeMaxDim {
		img = imaging.Fit(img, derivativeMaxDim, derivativeMaxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func derivativeKey(originalKey string) string {
	ext := path.Ext(originalKey)
	return strings.TrimSuffix(originalKey, ext) + "_converted.jpg"
}
