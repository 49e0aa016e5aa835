package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 按MIME类型决定落盘扩展名，白名单之外一律拒绝
var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalStore 本地磁盘存储实现
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore 创建本地存储，目录不存在时自动创建
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save 以随机文件名写入内容，返回公开URL
func (s *LocalStore) Save(filename string, contentType string, r io.Reader) (string, error) {
	ext, ok := extByContentType[contentType]
	if !ok {
		// 回退到原始文件名的扩展名，仅限白名单内的类型
		ext = strings.ToLower(filepath.Ext(filename))
		if !allowedExt(ext) {
			return "", ErrUnsupportedType
		}
	}

	storedName := uuid.New().String() + ext
	path := filepath.Join(s.dir, storedName)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file %s: %w", path, err)
	}

	return s.baseURL + "/" + storedName, nil
}

// Delete 删除存储文件，文件缺失视为成功
func (s *LocalStore) Delete(storedName string) error {
	// 只允许纯文件名，防止路径穿越
	if storedName != filepath.Base(storedName) {
		return fmt.Errorf("invalid stored name: %s", storedName)
	}
	err := os.Remove(filepath.Join(s.dir, storedName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file %s: %w", storedName, err)
	}
	return nil
}

func allowedExt(ext string) bool {
	for _, v := range extByContentType {
		if v == ext {
			return true
		}
	}
	return ext == ".jpeg"
}
