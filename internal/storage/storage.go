// Package storage 提供商品图片等二进制文件的存储抽象
package storage

import (
	"errors"
	"io"
)

// ErrUnsupportedType 不支持的文件类型
var ErrUnsupportedType = errors.New("unsupported file type")

// BlobStore 文件存储接口
type BlobStore interface {
	// Save 写入文件内容，返回可公开访问的URL
	Save(filename string, contentType string, r io.Reader) (string, error)

	// Delete 按存储文件名删除，文件不存在时不报错
	Delete(storedName string) error
}
