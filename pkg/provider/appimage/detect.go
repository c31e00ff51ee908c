package appimage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the AppImage image format.
type Kind int

const (
	KindNone Kind = iota
	// KindISO is the legacy ISO 9660 format, which cannot be extracted.
	KindISO
	// KindSquashFS is the current format.
	KindSquashFS
)

// magic is stored at offset 8 of the ELF header, followed by the format version.
var magic = []byte("AI")

// Detect inspects the file at path.
func Detect(path string) (Kind, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return KindNone, err
	}
	if !isELF(mt) {
		return KindNone, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return KindNone, err
	}
	defer f.Close()

	header := make([]byte, 11)
	if _, err := io.ReadFull(f, header); err != nil {
		return KindNone, nil
	}
	if !bytes.Equal(header[8:10], magic) {
		return KindNone, nil
	}
	switch header[10] {
	case 1:
		return KindISO, nil
	case 2:
		return KindSquashFS, nil
	}
	return KindNone, nil
}

func isELF(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/x-elf") {
			return true
		}
	}
	return false
}

func hasAppImageExt(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".appimage")
}
