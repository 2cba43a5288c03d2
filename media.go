package inkpress

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/inkpress/views"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxUploadSize = 50 << 20 // 50MB, large enough for short clips
)

// uploadKinds maps accepted file extensions to their stored kind. Anything
// else is rejected at the handler.
var uploadKinds = map[string]string{
	".jpg": "image", ".jpeg": "image", ".png": "image", ".gif": "image",
	".mp4": "video", ".webm": "video", ".ogg": "video",
	".pdf": "pdf",
}

func (a *App) handleUploads(c echo.Context) error {
	return a.renderUploads(c, c.QueryParam("msg"))
}

func (a *App) renderUploads(c echo.Context, msg string) error {
	uploads, err := a.Store.ListUploads("")
	if err != nil {
		return err
	}
	items := make([]views.UploadItem, 0, len(uploads))
	for _, u := range uploads {
		items = append(items, views.UploadItem{
			Filename: u.Filename,
			Original: u.OriginalName,
			Kind:     u.Kind,
			URL:      "/uploads/" + u.Filename,
			Size:     formatSize(u.Size),
			Date:     u.UploadedAt.Format("2006-01-02"),
		})
	}
	return Render(c, views.UploadsPage(a.viewConfig(), items, msg, CurrentUsername(c), CsrfToken(c)))
}

func (a *App) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return a.renderUploads(c, "No file provided.")
	}
	if file.Size > maxUploadSize {
		return a.renderUploads(c, "File too large (max 50MB).")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	kind, ok := uploadKinds[ext]
	if !ok {
		return a.renderUploads(c, "Unsupported file type "+ext+". Allowed: images, mp4, webm, ogg, pdf.")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	var upload Upload
	var data []byte
	if kind == "image" {
		upload, data, err = processImage(src, file.Filename)
		if err != nil {
			return a.renderUploads(c, "Invalid image: "+err.Error())
		}
	} else {
		data, err = io.ReadAll(src)
		if err != nil {
			return err
		}
		upload = Upload{
			Filename:     slugifyFilename(file.Filename) + ext,
			OriginalName: file.Filename,
			Kind:         kind,
			Size:         len(data),
		}
	}

	if err := a.ensureUniqueFilename(&upload); err != nil {
		return err
	}
	if err := os.MkdirAll(a.Config.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.Config.UploadsDir, upload.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	if err := a.Store.SaveUpload(&upload); err != nil {
		return err
	}

	msg := "Uploaded /uploads/" + upload.Filename
	if kind != "image" {
		msg += ". Attach it to a post as a " + kind + " widget from the editor."
	}
	return c.Redirect(http.StatusSeeOther, "/admin/uploads/?msg="+url.QueryEscape(msg))
}

func (a *App) handleUploadDelete(c echo.Context) error {
	filename := c.Param("filename")
	if filename == "" || filename != filepath.Base(filename) {
		return echo.NewHTTPError(http.StatusBadRequest, "filename required")
	}

	upload, err := a.Store.DeleteUpload(filename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	// Row first, then disk; a leftover file is harmless, a dangling row is a
	// broken link on the uploads page.
	_ = os.Remove(filepath.Join(a.Config.UploadsDir, upload.Filename))
	return c.Redirect(http.StatusSeeOther, "/admin/uploads/?msg=Deleted.")
}

// processImage decodes an image, scales it down to maxImageWidth if it is
// wider, and re-encodes it as JPEG.
func processImage(src io.Reader, originalName string) (Upload, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Upload{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Upload{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return Upload{
		Filename:     slugifyFilename(originalName) + ".jpg",
		OriginalName: originalName,
		Kind:         "image",
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe stem.
func slugifyFilename(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	slug := Slugify(stem)
	if slug == "" {
		slug = "upload"
	}
	return slug
}

// ensureUniqueFilename appends a counter until the name collides with neither
// the uploads table nor the directory.
func (a *App) ensureUniqueFilename(u *Upload) error {
	ext := filepath.Ext(u.Filename)
	stem := strings.TrimSuffix(u.Filename, ext)
	candidate := u.Filename
	for counter := 2; ; counter++ {
		_, dbErr := a.Store.GetUpload(candidate)
		if dbErr != nil && !errors.Is(dbErr, sql.ErrNoRows) {
			return dbErr
		}
		_, fsErr := os.Stat(filepath.Join(a.Config.UploadsDir, candidate))
		if errors.Is(dbErr, sql.ErrNoRows) && os.IsNotExist(fsErr) {
			u.Filename = candidate
			return nil
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, counter, ext)
	}
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
