package io

import (
	"encoding/base64"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"

	"boundedvote/pkg/context"
	"boundedvote/pkg/metrics"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/xerrors"
)

// --- CoreReader (In-Memory) ---

// CoreReader decodes codes written by a CoreWriter sharing the same store.
type CoreReader struct {
	store *MemoryStore
}

func NewCoreReader(store *MemoryStore) *CoreReader {
	return &CoreReader{store: store}
}

// Read decodes the code saved under storage's key. Each key is read once.
func (r *CoreReader) Read(ctx *context.OperationContext, storage CodeStorage, codeType CodeType) (Code, error) {
	key := storage.Load(codeType)
	if key == "" {
		return nil, xerrors.Errorf("no key found in storage for code type %v", codeType)
	}
	r.store.mu.Lock()
	data, ok := r.store.codes[key]
	delete(r.store.codes, key)
	r.store.mu.Unlock()
	if !ok {
		return nil, xerrors.Errorf("no %v code stored under %s", codeType, key)
	}
	return deserializeCode(data, codeType)
}

// --- PicReader (Reads from file) ---

// PicReader opens a PDF written by SaveWriter, extracts the embedded image
// and decodes the QR code in it.
type PicReader struct{}

func NewPicReader() *PicReader {
	return &PicReader{}
}

func (r *PicReader) Read(ctx *context.OperationContext, storage CodeStorage, codeType CodeType) (Code, error) {
	var code Code
	err := ctx.Recorder.Record("ReadFile_"+codeType.String(), metrics.MDiskRead, func() error {
		filePath := storage.Load(codeType)
		if filePath == "" {
			return xerrors.Errorf("no file path found in storage for code type %v", codeType)
		}
		text, err := readCodeFromFile(filePath)
		if err != nil {
			return xerrors.Errorf("failed to read code from file %s: %w", filePath, err)
		}
		raw, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return xerrors.Errorf("failed to base64-decode QR code data: %w", err)
		}
		code, err = deserializeCode(raw, codeType)
		return err
	})
	return code, err
}

// readCodeFromFile returns the text of the first decodable QR image in the PDF.
func readCodeFromFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", xerrors.Errorf("could not open file %s: %w", filePath, err)
	}
	defer file.Close()

	pages, err := api.ExtractImagesRaw(file, nil, nil)
	if err != nil {
		return "", xerrors.Errorf("could not extract images from PDF %s: %w", filePath, err)
	}

	var lastErr error
	for _, imgs := range pages {
		for _, img := range imgs {
			result, err := DecodeQRImage(img)
			if err == nil {
				return result, nil
			}
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", xerrors.Errorf("no images found in %s", filePath)
}

// DecodeQRImage finds and decodes a QR code in an encoded image.
func DecodeQRImage(reader io.Reader) (string, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return "", xerrors.Errorf("image.Decode failed: %w", err)
	}
	return decodeQR(img)
}

func decodeQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", xerrors.Errorf("gozxing.NewBinaryBitmapFromImage failed: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_PURE_BARCODE: true,
		gozxing.DecodeHintType_TRY_HARDER:   true,
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", xerrors.Errorf("QR decode failed: %w", err)
	}
	return result.GetText(), nil
}

// deserializeCode builds the Code of the expected type from its serialization.
func deserializeCode(data []byte, codeType CodeType) (Code, error) {
	code, err := newCode(codeType)
	if err != nil {
		return nil, err
	}
	if err := code.Deserialize(data); err != nil {
		return nil, xerrors.Errorf("failed to deserialize data for code type %v: %w", codeType, err)
	}
	return code, nil
}
