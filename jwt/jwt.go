package jwt

import (
	"context"
	"crypto/rsa"
	"os"
	"time"

	"storefront/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrTokenRevoked = errors.New("token已登出或不存在")

type Claims struct {
	UserID uint   `json:"userID"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Manager負責簽發與驗證JWT，並以login_tokens資料表記錄有效的Token
type Manager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	ttl        time.Duration
	db         *gorm.DB
}

func NewManager(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, ttl time.Duration, db *gorm.DB) *Manager {
	return &Manager{
		privateKey: privateKey,
		publicKey:  publicKey,
		ttl:        ttl,
		db:         db,
	}
}

// 從PEM檔讀取金鑰並建立Manager
func NewManagerFromFiles(privateKeyPath, publicKeyPath string, ttl time.Duration, db *gorm.DB) (*Manager, error) {
	privateKey, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, err
	}
	publicKey, err := loadPublicKey(publicKeyPath)
	if err != nil {
		return nil, err
	}
	return NewManager(privateKey, publicKey, ttl, db), nil
}

// 讀取私鑰
func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
	if err != nil {
		return nil, err
	}

	return key, nil
}

// 讀取公鑰
func loadPublicKey(path string) (*rsa.PublicKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(keyBytes)
	if err != nil {
		return nil, err
	}

	return key, nil
}

// 生成JWT Token並儲存LoginToken
func (m *Manager) IssueToken(ctx context.Context, userID uint, role string) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	})

	tokenString, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", time.Time{}, err
	}

	loginToken := models.LoginToken{
		Token:          tokenString,
		ExpirationTime: expiresAt,
		UserID:         userID,
		Role:           role,
	}
	if err := m.db.WithContext(ctx).Create(&loginToken).Error; err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// 驗證JWT Token並回傳Claims
func (m *Manager) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return m.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	//從資料庫檢查Token是否刪除
	var loginToken models.LoginToken
	err = m.db.WithContext(ctx).Where("token = ?", tokenString).First(&loginToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, err
	}

	return &claims, nil
}

// 刪除LoginToken
func (m *Manager) RevokeToken(ctx context.Context, tokenString string) error {
	result := m.db.WithContext(ctx).Unscoped().Where("token = ?", tokenString).Delete(&models.LoginToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenRevoked
	}
	return nil
}

// 清除過期的LoginToken
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	result := m.db.WithContext(ctx).Unscoped().Where("expiration_time < ?", time.Now()).Delete(&models.LoginToken{})
	return result.RowsAffected, result.Error
}
