// Package storage implements the content-addressed disk store backing
// uploaded media. Each accepted upload is normalized into a master JPEG
// and a WebP preview, written under a directory named by the SHA-256 of
// the original bytes.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"glimpse/internal/models"
	"glimpse/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	MasterMaxSize  = 2048
	PreviewMaxSize = 640
	JPEGQuality    = 82
	WebPQuality    = 70

	masterName  = "master.jpg"
	previewName = "preview.webp"
)

// StoredFile describes the blobs written for one accepted upload.
type StoredFile struct {
	Hash        string
	MimeType    string
	SizeBytes   int64
	Width       int
	Height      int
	MasterPath  string // relative to the media dir
	PreviewPath string
}

// DiskStore writes media blobs under a single root directory.
type DiskStore struct {
	root         string
	maxSizeBytes int64
}

// NewDiskStore returns a DiskStore rooted at dir with the given upload
// size cap in megabytes.
func NewDiskStore(dir string, maxUploadSizeMB int) *DiskStore {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = 10
	}
	return &DiskStore{
		root:         dir,
		maxSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Save validates, normalizes and persists an uploaded image. On partial
// failure any blobs already written for this upload are removed before
// the error is returned.
func (s *DiskStore) Save(ctx context.Context, filename, contentType string, content []byte) (stored *StoredFile, err error) {
	defer func() { observability.RecordStorageOp("save", err) }()
	_, span := observability.TraceStorageOperation(ctx, "save")
	defer span.End()

	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") &&
		!isMatchingContentType(provided, detectedType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	decoded, format, decodeErr := image.Decode(bytes.NewReader(content))
	if decodeErr != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	hash := contentHash(content)

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	masterJPG, encErr := encodeJPEG(master, JPEGQuality)
	if encErr != nil {
		return nil, models.NewInternalError(encErr)
	}
	preview := resizeToFit(decoded, PreviewMaxSize, PreviewMaxSize)
	previewWebP, encErr := encodeWebP(preview, WebPQuality)
	if encErr != nil {
		return nil, models.NewInternalError(encErr)
	}

	masterRel := filepath.ToSlash(filepath.Join(hash, masterName))
	previewRel := filepath.ToSlash(filepath.Join(hash, previewName))
	masterAbs := filepath.Join(s.root, hash, masterName)
	previewAbs := filepath.Join(s.root, hash, previewName)

	if writeErr := writeBytesToFile(masterAbs, masterJPG); writeErr != nil {
		return nil, models.NewInternalError(writeErr)
	}
	if writeErr := writeBytesToFile(previewAbs, previewWebP); writeErr != nil {
		_ = os.RemoveAll(filepath.Join(s.root, hash))
		return nil, models.NewInternalError(writeErr)
	}

	mb := master.Bounds()
	return &StoredFile{
		Hash:        hash,
		MimeType:    "image/jpeg",
		SizeBytes:   int64(len(masterJPG)),
		Width:       mb.Dx(),
		Height:      mb.Dy(),
		MasterPath:  masterRel,
		PreviewPath: previewRel,
	}, nil
}

// Delete removes all blobs stored under hash. Deleting an absent hash
// is not an error.
func (s *DiskStore) Delete(ctx context.Context, hash string) (err error) {
	defer func() { observability.RecordStorageOp("delete", err) }()
	_, span := observability.TraceStorageOperation(ctx, "delete")
	defer span.End()

	if !isValidHash(hash) {
		return models.NewValidationError("Invalid file hash")
	}
	if removeErr := os.RemoveAll(filepath.Join(s.root, hash)); removeErr != nil {
		return models.NewInternalError(removeErr)
	}
	return nil
}

// PreviewURL returns the public URL of the preview blob for hash.
func (s *DiskStore) PreviewURL(hash string) string {
	return fmt.Sprintf("/media/f/%s/%s", hash, previewName)
}

// OriginalURL returns the public URL of the master blob for hash.
func (s *DiskStore) OriginalURL(hash string) string {
	return fmt.Sprintf("/media/f/%s/%s", hash, masterName)
}

// Resolve maps a hash and blob name from a media URL to the absolute
// path on disk. Both components are validated against traversal.
func (s *DiskStore) Resolve(hash, name string) (string, error) {
	if !isValidHash(hash) {
		return "", models.NewValidationError("Invalid file hash")
	}
	if name != masterName && name != previewName {
		return "", models.NewNotFoundError("File", name)
	}
	full := filepath.Join(s.root, hash, name)
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("File", hash)
		}
		return "", models.NewInternalError(err)
	}
	return full, nil
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// isValidHash checks that the hash is strictly lowercase hex. This
// prevents path traversal via crafted hash parameters.
func isValidHash(hash string) bool {
	if len(hash) == 0 || len(hash) > 128 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
