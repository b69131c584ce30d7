// Package iofs creates the directories and default files gnotu needs in
// the user's home directory.
package iofs

import (
	_ "embed"
	"os"

	"github.com/gnames/gnotu/pkg/config"
	"github.com/gnames/gnsys"
)

//go:embed config.yaml
var ConfigYAML string

//go:embed fields.yaml
var FieldsYAML string

func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := gnsys.MakeDir(v); err != nil {
			return CreateDirError(v, err)
		}
	}
	return nil
}

func EnsureConfigFile(homeDir string) error {
	return ensureFile(config.ConfigFilePath(homeDir), ConfigYAML)
}

// EnsureFieldsFile writes the default field registry unless path
// exists.
func EnsureFieldsFile(path string) error {
	return ensureFile(path, FieldsYAML)
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return CopyFileError(path, err)
	}
	return nil
}
