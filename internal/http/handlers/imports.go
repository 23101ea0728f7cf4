package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"speechable/internal/domain"
	"speechable/internal/ocr"
	"speechable/internal/pdfimport"
)

const multipartMemory = 8 << 20

// ExtractPDF imports an uploaded PDF from the multipart field "file".
func (a *App) ExtractPDF(w http.ResponseWriter, r *http.Request) {
	if a.requireUser(w, r) == "" {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, pdfimport.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		a.multipartError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file is required")
		return
	}
	defer file.Close()
	if header.Size > pdfimport.MaxFileSize {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "file too large")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read file")
		return
	}

	start := time.Now()
	doc, err := pdfimport.Parse(data, header.Filename)
	a.recordUsage(r, domain.UsageExtractPDF, start, err, map[string]any{"filename": header.Filename, "bytes": len(data)})
	if err != nil {
		if errors.Is(err, domain.ErrNoContent) {
			a.error(w, http.StatusBadRequest, "no_content", "no text found in PDF, it may be scanned")
			return
		}
		a.writeImportError(w, r, err, "failed to read PDF")
		return
	}

	a.json(w, http.StatusOK, newExtractResponse(
		doc.Title, doc.Author, doc.Text, "", "", "", doc.Sections, "",
	))
}

// OCR recognizes text in uploaded images. Every multipart file field whose
// name starts with "image" is processed, in field name order.
func (a *App) OCR(w http.ResponseWriter, r *http.Request) {
	if a.requireUser(w, r) == "" {
		return
	}
	if a.Recognizer == nil {
		a.error(w, http.StatusInternalServerError, "not_configured", "Service not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, ocr.MaxImages*ocr.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		a.multipartError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	images, err := collectImages(r.MultipartForm)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	start := time.Now()
	res, err := a.Recognizer.Process(r.Context(), images)
	a.recordUsage(r, domain.UsageOCR, start, err, map[string]any{"images": len(images)})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		a.internal(w, r, err, "failed to process images")
		return
	}
	a.json(w, http.StatusOK, res)
}

func collectImages(form *multipart.Form) ([]ocr.Image, error) {
	keys := make([]string, 0, len(form.File))
	for key := range form.File {
		if strings.HasPrefix(key, "image") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var images []ocr.Image
	for _, key := range keys {
		for _, fh := range form.File[key] {
			if len(images) == ocr.MaxImages {
				return nil, errors.New("too many images")
			}
			if fh.Size > ocr.MaxImageSize {
				return nil, errors.New(fh.Filename + ": image too large")
			}
			data, err := readFileHeader(fh)
			if err != nil {
				return nil, err
			}
			images = append(images, ocr.Image{Filename: fh.Filename, Data: data})
		}
	}
	if len(images) == 0 {
		return nil, errors.New("no images provided")
	}
	return images, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (a *App) multipartError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload too large")
		return
	}
	a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
}
