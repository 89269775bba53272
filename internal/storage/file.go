package storage

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

// ErrNoCertificate 本地没有证书
var ErrNoCertificate = errors.New("本地没有证书")

// Certificate 证书内容 (PEM格式)
type Certificate struct {
	Certificate []byte // 叶子证书
	PrivateKey  []byte // 私钥
	Issuer      []byte // 签发者证书
}

// FileStorage 文件存储
type FileStorage struct {
	fs      afero.Fs
	baseDir string
	log     logr.Logger
}

// NewFileStorage 创建文件存储
func NewFileStorage(fs afero.Fs, baseDir string, log logr.Logger) *FileStorage {
	return &FileStorage{fs: fs, baseDir: baseDir, log: log.WithName("storage")}
}

// SaveCertificate 保存证书到文件
func (s *FileStorage) SaveCertificate(domain string, cert *Certificate) error {
	outputDir := s.GetCertDir(domain)

	if err := s.fs.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	if err := afero.WriteFile(s.fs, s.GetCertPath(domain), cert.Certificate, 0644); err != nil {
		return fmt.Errorf("保存证书失败: %w", err)
	}

	if len(cert.PrivateKey) > 0 {
		if err := afero.WriteFile(s.fs, s.GetKeyPath(domain), cert.PrivateKey, 0600); err != nil {
			return fmt.Errorf("保存私钥失败: %w", err)
		}
	} else {
		s.log.Info("警告: 私钥不可用", "domain", domain)
	}

	if len(cert.Issuer) > 0 {
		if err := afero.WriteFile(s.fs, filepath.Join(outputDir, "issuer.pem"), cert.Issuer, 0644); err != nil {
			return fmt.Errorf("保存签发者证书失败: %w", err)
		}
	}

	fullchain := append(append([]byte{}, cert.Certificate...), cert.Issuer...)
	if err := afero.WriteFile(s.fs, s.GetFullchainPath(domain), fullchain, 0644); err != nil {
		return fmt.Errorf("保存证书链失败: %w", err)
	}

	s.log.Info("证书已保存", "dir", outputDir)
	return nil
}

// LoadCertificate 读取本地叶子证书
func (s *FileStorage) LoadCertificate(domain string) (*x509.Certificate, error) {
	data, err := afero.ReadFile(s.fs, s.GetCertPath(domain))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCertificate
		}
		return nil, fmt.Errorf("读取证书失败: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("证书文件 %s 不是有效的PEM证书", s.GetCertPath(domain))
	}
	return x509.ParseCertificate(block.Bytes)
}

// AccountKey 读取ACME账号私钥，不存在时生成并保存
func (s *FileStorage) AccountKey(email string) (crypto.PrivateKey, error) {
	path := filepath.Join(s.baseDir, "accounts", sanitize(email)+".key")

	data, err := afero.ReadFile(s.fs, path)
	if err == nil {
		block, _ := pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("账号私钥 %s 格式错误", path)
		}
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("解析账号私钥失败: %w", err)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取账号私钥失败: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("生成账号私钥失败: %w", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("编码账号私钥失败: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	if err := afero.WriteFile(s.fs, path, keyPEM, 0600); err != nil {
		return nil, fmt.Errorf("保存账号私钥失败: %w", err)
	}

	s.log.Info("已生成新的ACME账号私钥", "path", path)
	return key, nil
}

// GetCertDir 获取证书目录
func (s *FileStorage) GetCertDir(domain string) string {
	return filepath.Join(s.baseDir, sanitize(domain))
}

// GetCertPath 获取证书路径
func (s *FileStorage) GetCertPath(domain string) string {
	return filepath.Join(s.GetCertDir(domain), "cert.pem")
}

// GetKeyPath 获取私钥路径
func (s *FileStorage) GetKeyPath(domain string) string {
	return filepath.Join(s.GetCertDir(domain), "key.pem")
}

// GetFullchainPath 获取完整证书链路径
func (s *FileStorage) GetFullchainPath(domain string) string {
	return filepath.Join(s.GetCertDir(domain), "fullchain.pem")
}

// sanitize 通配符和路径分隔符不能出现在文件名中
func sanitize(name string) string {
	return strings.NewReplacer("*", "_", "/", "_", `\`, "_").Replace(name)
}
