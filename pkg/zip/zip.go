package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"mime"
	"path"
	"sort"
	"strings"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets packs assets into an in-memory zip archive.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}

// ExtractAssets unpacks regular files from a zip archive in natural name
// order, so slide2.png sorts before slide10.png. Each entry is capped at
// maxEntryBytes when the limit is positive.
func ExtractAssets(data []byte, maxEntryBytes int64) ([]Asset, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip: open archive: %w", err)
	}
	var assets []Asset
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(path.Base(f.Name), ".") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("zip: open %s: %w", f.Name, err)
		}
		var r io.Reader = rc
		if maxEntryBytes > 0 {
			r = io.LimitReader(rc, maxEntryBytes+1)
		}
		body, err := io.ReadAll(r)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zip: read %s: %w", f.Name, err)
		}
		if maxEntryBytes > 0 && int64(len(body)) > maxEntryBytes {
			return nil, fmt.Errorf("zip: %s exceeds %d bytes", f.Name, maxEntryBytes)
		}
		name := path.Base(f.Name)
		assets = append(assets, Asset{
			Filename: name,
			MIME:     mime.TypeByExtension(path.Ext(name)),
			Data:     body,
		})
	}
	sort.SliceStable(assets, func(i, j int) bool { return NaturalLess(assets[i].Filename, assets[j].Filename) })
	return assets, nil
}

// NaturalLess orders names with digit runs compared by numeric value.
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			var na, nb string
			na, a = splitDigits(a)
			nb, b = splitDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
