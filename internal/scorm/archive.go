package scorm

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const ManifestFileName = "imsmanifest.xml"

// FindManifest 在归档根目录定位 imsmanifest.xml
func FindManifest(zr *zip.Reader) *zip.File {
	for _, f := range zr.File {
		if f.Name == ManifestFileName {
			return f
		}
	}
	return nil
}

// ReadManifest 读取归档内的 imsmanifest.xml 原文
func ReadManifest(zr *zip.Reader) ([]byte, error) {
	mf := FindManifest(zr)
	if mf == nil {
		return nil, fmt.Errorf("%s not found in archive", ManifestFileName)
	}
	rc, err := mf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ExtractAll 将归档全部解压到 dst，逐条防护 zip-slip 路径穿越
func ExtractAll(zr *zip.Reader, dst string) error {
	cleanDst := filepath.Clean(dst)
	for _, f := range zr.File {
		target, err := sanitizePath(cleanDst, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// sanitizePath 拒绝逃出目标目录的归档条目（../、绝对路径）
func sanitizePath(dst, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("illegal archive entry path %q", name)
	}
	target := filepath.Join(dst, filepath.FromSlash(name))
	if target != dst && !strings.HasPrefix(target, dst+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal archive entry path %q", name)
	}
	return target, nil
}
