package inspect

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/writer"
)

// Load walks root and reads every entity file written with codec. Other
// regular files are listed in Data.Assets. Temp files left by an
// interrupted atomic write are ignored.
func Load(root string, codec writer.Codec, validator entity.Validator) (Data, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Data{}, fmt.Errorf("cannot read documentation root: %w", err)
	}
	if !info.IsDir() {
		return Data{}, fmt.Errorf("documentation root %s is not a directory", root)
	}

	data := Data{
		Codec:     codec,
		Validator: validator,
		Files:     make(map[string][]byte),
		Assets:    make(map[string]bool),
	}
	ext := "." + codec.Ext()
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasSuffix(name, ext) {
			data.Assets[rel] = true
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		data.Files[rel] = content
		return nil
	})
	if err != nil {
		return Data{}, fmt.Errorf("walking %s: %w", root, err)
	}
	return data, nil
}
