package io

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"sync"

	"boundedvote/pkg/config"
	"boundedvote/pkg/context"
	"boundedvote/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode/decoder"
	"golang.org/x/xerrors"
)

const (
	qrCodeSize     = 512
	pdfPointsPerMM = 2.8346
)

// MemoryStore backs the Core hardware: serialized codes keyed by their bytes.
type MemoryStore struct {
	mu    sync.RWMutex
	codes map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string][]byte)}
}

// --- CoreWriter (In-Memory) ---

// CoreWriter keeps the serialized code in memory instead of rendering it.
type CoreWriter struct {
	store *MemoryStore
}

func NewCoreWriter(store *MemoryStore) *CoreWriter {
	return &CoreWriter{store: store}
}

// Write serializes code and records its key in storage.
func (w *CoreWriter) Write(ctx *context.OperationContext, storage CodeStorage, code Code) error {
	data, err := code.Serialize()
	if err != nil {
		return xerrors.Errorf("failed to serialize code type %v: %w", code.Type(), err)
	}
	key := uuid.NewString()
	w.store.mu.Lock()
	w.store.codes[key] = data
	w.store.mu.Unlock()
	storage.Save(code.Type(), key)
	return nil
}

// --- SaveWriter (Writes to file) ---

// SaveWriter renders a code as a QR image, wraps it in a PDF and saves it.
type SaveWriter struct {
	cfg *config.Config
}

func NewSaveWriter(cfg *config.Config) *SaveWriter {
	return &SaveWriter{cfg: cfg}
}

// Write records the file path in storage once the PDF is on disk.
func (w *SaveWriter) Write(ctx *context.OperationContext, storage CodeStorage, code Code) error {
	return ctx.Recorder.Record("SaveFile_"+code.Type().String(), metrics.MDiskWrite, func() error {
		img, err := GenerateQRImage(code)
		if err != nil {
			return err
		}

		filePath := filepath.Join(w.cfg.PicturePath, fmt.Sprintf("code_%s_%s.pdf", code.Type(), uuid.NewString()))
		file, err := os.Create(filePath)
		if err != nil {
			return xerrors.Errorf("failed to create file %s: %w", filePath, err)
		}
		defer file.Close()

		if err := WriteImageToPDF(img, file); err != nil {
			return xerrors.Errorf("failed to write image to PDF %s: %w", filePath, err)
		}
		storage.Save(code.Type(), filePath)
		return nil
	})
}

// GenerateQRImage renders the Base64 form of the serialized code as a QR code.
func GenerateQRImage(code Code) (image.Image, error) {
	data, err := code.Serialize()
	if err != nil {
		return nil, xerrors.Errorf("failed to serialize code type %v: %w", code.Type(), err)
	}
	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_ERROR_CORRECTION: decoder.ErrorCorrectionLevel_M,
	}
	return qrcode.NewQRCodeWriter().Encode(base64.StdEncoding.EncodeToString(data),
		gozxing.BarcodeFormat_QR_CODE, qrCodeSize, qrCodeSize, hints)
}

// --- PDF Utility ---

// WriteImageToPDF embeds img as a JPEG filling a single page.
func WriteImageToPDF(img image.Image, w io.Writer) error {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return xerrors.Errorf("jpeg encoding failed: %w", err)
	}

	widthMM := float64(img.Bounds().Dx()) / pdfPointsPerMM
	heightMM := float64(img.Bounds().Dy()) / pdfPointsPerMM
	pageSize := gofpdf.SizeType{Wd: widthMM, Ht: heightMM}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    pageSize,
	})
	pdf.AddPageFormat("P", pageSize)

	options := gofpdf.ImageOptions{ImageType: "JPEG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("code.jpg", options, buf)
	pdf.ImageOptions("code.jpg", 0, 0, widthMM, heightMM, false, options, 0, "")

	return pdf.Output(w)
}
