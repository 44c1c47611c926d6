package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/dotlnx-dev/dotlnx/internal/application/errors"
)

// FileName is the config file expected at every bundle root.
const FileName = "config.toml"

// Load reads and parses config.toml from a bundle root directory.
// A missing file is a layout error; a present-but-broken file is a parse
// error carrying the decoder position.
func Load(bundleRoot string) (*Bundle, error) {
	path := filepath.Join(bundleRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewBundleLayoutError(bundleRoot, "missing "+FileName, err)
		}
		return nil, apperrors.NewIoError("read", path, err)
	}
	return Parse(data, path)
}

// Parse decodes config.toml bytes. Unknown keys are rejected so a typo in a
// bundle config surfaces instead of silently applying defaults.
func Parse(data []byte, path string) (*Bundle, error) {
	var b Bundle

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&b); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, apperrors.NewConfigParseError(path, fmt.Sprintf("line %d column %d", row, col), err)
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return nil, apperrors.NewConfigParseError(path, "", errors.New(serr.String()))
		}
		return nil, apperrors.NewConfigParseError(path, "", err)
	}
	return &b, nil
}
