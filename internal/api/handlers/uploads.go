// uploads.go — обработчики загрузки изображений для вопросов.
// Файлы хранятся на диске (FC_UPLOAD_DIR), раздаются статикой /uploads/*.
package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
)

// Допустимые расширения загружаемых изображений.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// uploadResponse — результат загрузки изображения.
type uploadResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// imageInfo — элемент списка загруженных изображений.
type imageInfo struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// UploadImage — POST /api/upload/image.
// Принимает multipart-поле "image", сохраняет под UUID-именем.
func (h *APIHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.UploadMaxSize)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.ValidationError(w, "Файл превышает допустимый размер")
			return
		}
		apierrors.ValidationError(w, "Отсутствует поле image в multipart-запросе")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		apierrors.ValidationError(w, "Недопустимый тип файла: "+ext)
		return
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		h.logger.Error("Ошибка создания каталога загрузок", slog.Any("error", err))
		apierrors.InternalError(w, "Ошибка сохранения файла")
		return
	}

	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(h.cfg.UploadDir, filename))
	if err != nil {
		h.logger.Error("Ошибка создания файла", slog.Any("error", err))
		apierrors.InternalError(w, "Ошибка сохранения файла")
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		_ = os.Remove(dst.Name())
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.ValidationError(w, "Файл превышает допустимый размер")
			return
		}
		h.logger.Error("Ошибка записи файла", slog.Any("error", err))
		apierrors.InternalError(w, "Ошибка сохранения файла")
		return
	}

	h.logger.Info("Изображение загружено",
		slog.String("filename", filename),
		slog.Int64("size", size),
	)

	writeJSON(w, http.StatusCreated, uploadResponse{
		Filename: filename,
		URL:      "/uploads/" + filename,
		Size:     size,
	})
}

// ListImages — GET /api/upload/images.
// Список загруженных изображений.
func (h *APIHandler) ListImages(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(h.cfg.UploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, []imageInfo{})
			return
		}
		h.logger.Error("Ошибка чтения каталога загрузок", slog.Any("error", err))
		apierrors.InternalError(w, "Ошибка чтения каталога загрузок")
		return
	}

	images := make([]imageInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !allowedImageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		images = append(images, imageInfo{
			Filename:   entry.Name(),
			URL:        "/uploads/" + entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	writeJSON(w, http.StatusOK, images)
}

// DeleteImage — DELETE /api/upload/images/{filename}.
func (h *APIHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	// Имя без путевых компонент: защита от обхода каталога
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		apierrors.ValidationError(w, "Некорректное имя файла")
		return
	}

	if err := os.Remove(filepath.Join(h.cfg.UploadDir, filename)); err != nil {
		if os.IsNotExist(err) {
			apierrors.NotFound(w, "Файл не найден: "+filename)
			return
		}
		h.logger.Error("Ошибка удаления файла", slog.Any("error", err))
		apierrors.InternalError(w, "Ошибка удаления файла")
		return
	}

	h.logger.Info("Изображение удалено", slog.String("filename", filename))
	w.WriteHeader(http.StatusNoContent)
}
