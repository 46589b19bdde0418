package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"threadboard/internal/middleware"
	"threadboard/internal/models"
	"threadboard/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	AvatarSize        = 256
	AvatarWebPQuality = 82
	AvatarURLPrefix   = "/media/avatars/"

	DefaultAvatarMaxUploadSizeMB = 5
)

// AvatarService normalizes uploaded profile pictures to square WebP files.
type AvatarService struct {
	users    repository.UserRepository
	dir      string
	maxBytes int64
}

type AvatarInput struct {
	UserID      uint
	ContentType string
	Content     []byte
}

// NewAvatarService stores avatars under dir. maxUploadMB <= 0 falls back to the default cap.
func NewAvatarService(users repository.UserRepository, dir string, maxUploadMB int) *AvatarService {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultAvatarMaxUploadSizeMB
	}
	return &AvatarService{users: users, dir: dir, maxBytes: int64(maxUploadMB) * 1024 * 1024}
}

// MaxBytes is the largest accepted upload.
func (s *AvatarService) MaxBytes() int64 { return s.maxBytes }

// Upload replaces the user's avatar and returns the updated user.
func (s *AvatarService) Upload(ctx context.Context, in AvatarInput) (*models.User, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && provided != "image/"+format {
		if !(format == "jpeg" && provided == "image/jpg") {
			return nil, models.NewValidationError("Image content type mismatch")
		}
	}

	encoded, err := encodeWebP(resizeToFit(cropToSquare(decoded), AvatarSize), AvatarWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := avatarFileName(in.UserID, encoded)
	path := filepath.Join(s.dir, name)
	if err := writeBytesToFile(path, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.users.SetAvatar(ctx, in.UserID, AvatarURLPrefix+name); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "avatar updated",
		slog.Uint64("user_id", uint64(in.UserID)),
		slog.String("source_format", format),
		slog.Int("bytes", len(encoded)),
	)
	return s.users.GetByID(ctx, in.UserID)
}

// Resolve maps a public avatar file name to its path on disk.
// Names other than <sha256 hex>.webp are rejected.
func (s *AvatarService) Resolve(name string) (string, error) {
	hash, ok := strings.CutSuffix(name, ".webp")
	if !ok || !isHexDigest(hash) {
		return "", models.NewNotFoundError("Avatar", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", models.NewNotFoundError("Avatar", name)
	}
	return path, nil
}

func isHexDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, ch := range s {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return false
		}
	}
	return true
}

func avatarFileName(userID uint, encoded []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil)) + ".webp"
}

// cropToSquare keeps the centered square of src.
func cropToSquare(src image.Image) image.Image {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	if side <= 0 || b.Dx() == b.Dy() {
		return src
	}
	origin := image.Point{X: b.Min.X + (b.Dx()-side)/2, Y: b.Min.Y + (b.Dy()-side)/2}
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, origin, draw.Src)
	return dst
}

// resizeToFit scales src down so neither edge exceeds maxEdge. Smaller images are left alone.
func resizeToFit(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || (w <= maxEdge && h <= maxEdge) {
		return src
	}
	scale := min(float64(maxEdge)/float64(w), float64(maxEdge)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
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
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
