// Package storage keeps uploaded product and blog images.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrUnsupportedImage = errors.New("圖片檔案格式錯誤")

var allowExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

type ImageStore interface {
	// Save儲存圖片並回傳可公開存取的網址
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

func IsValidImageExtension(filename string) bool {
	fileExt := strings.ToLower(filepath.Ext(filename))
	for _, allowExt := range allowExtensions {
		if fileExt == allowExt {
			return true
		}
	}
	return false
}

// 產生<原檔名>_<uuid><副檔名>，去除路徑避免寫到資料夾以外
func UniqueFileName(filename string) string {
	filename = filepath.Base(filepath.Clean("/" + filename))
	fileExt := strings.ToLower(filepath.Ext(filename))
	fileBase := strings.TrimSuffix(filename, filepath.Ext(filename))
	fileBase = strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, fileBase)
	return fmt.Sprintf("%s_%s%s", fileBase, uuid.NewString(), fileExt)
}

// LocalStore將圖片存在本機資料夾，由/uploads提供靜態檔案
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, publicBaseURL string) *LocalStore {
	return &LocalStore{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(publicBaseURL, "/") + "/uploads",
	}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if !IsValidImageExtension(filename) {
		return "", ErrUnsupportedImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	//檢查uploads資料夾是否存在，如不存在則創建
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", errors.Wrap(err, "建立uploads資料夾失敗")
	}

	imageName := UniqueFileName(filename)
	file, err := os.Create(filepath.Join(s.dir, imageName))
	if err != nil {
		return "", errors.Wrap(err, "儲存圖片失敗")
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return "", errors.Wrap(err, "儲存圖片失敗")
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrap(err, "儲存圖片失敗")
	}

	return s.urlPrefix + "/" + imageName, nil
}
