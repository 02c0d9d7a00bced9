package siteserver

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// Image describes a processed upload. The URL is what goes into a section
// document's image field.
type Image struct {
	Filename     string `json:"filename"`
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
	UploadedAt   string `json:"uploaded_at"`
}

// processImage decodes an image from src, downscales it to maxImageWidth if
// wider, and encodes it as JPEG. Returns metadata and the encoded bytes.
func processImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	filename := slugifyFilename(originalName) + ".jpg"

	return Image{
		Filename:     filename,
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	slug := slugify(base)
	if slug == "" {
		slug = "image"
	}
	return slug
}

// ensureUniqueFilename appends a counter while the name is already taken.
func (a *App) ensureUniqueFilename(filename string) string {
	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	counter := 1
	for {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = base + "-" + strconv.Itoa(counter) + ".jpg"
		counter++
	}
}

// handleImageUpload serves POST /api/images. Uploads land under
// <static>/uploads and are referenced from section documents by URL.
func (a *App) handleImageUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Missing image file")
	}
	if fileHeader.Size > maxUploadSize {
		return errorJSON(c, http.StatusRequestEntityTooLarge, "Image exceeds 10MB limit")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(io.LimitReader(src, maxUploadSize), fileHeader.Filename)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Unsupported or corrupt image")
	}

	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	img.Filename = a.ensureUniqueFilename(img.Filename)
	if err := os.WriteFile(filepath.Join(dir, img.Filename), data, 0o644); err != nil {
		return err
	}
	img.URL = "/public/" + uploadsSubdir + "/" + img.Filename

	c.Logger().Infof("image upload: %s (%dx%d, %d bytes)", img.Filename, img.Width, img.Height, img.Size)
	return c.JSON(http.StatusOK, img)
}
