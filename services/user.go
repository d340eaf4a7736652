package services

import (
	"context"
	"regexp"
	"unicode"

	"storefront/jwt"
	"storefront/models"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	usernamePattern = regexp.MustCompile("^[a-zA-Z0-9_-]+$")
	emailPattern    = regexp.MustCompile("^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\\.[a-zA-Z0-9-.]+$")
)

// 檢查使用者名稱是否合法
func ValidateUsername(username string) bool {
	if len(username) < 8 || len(username) > 20 {
		return false
	}
	return usernamePattern.MatchString(username)
}

// 檢查信箱是否合法
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// 檢查密碼是否合法
func ValidatePassword(password string) bool {
	if len(password) < 8 || len(password) > 50 {
		return false
	}

	var (
		isUpper   = false
		isLower   = false
		isNumber  = false
		isSpecial = false
		isSpace   = false
	)

	for _, s := range password {
		switch {
		case unicode.IsSpace(s):
			isSpace = true
		case unicode.IsUpper(s):
			isUpper = true
		case unicode.IsLower(s):
			isLower = true
		case unicode.IsDigit(s):
			isNumber = true
		case unicode.IsPunct(s) || unicode.IsSymbol(s):
			isSpecial = true
		default:
		}
	}

	return isUpper && isLower && isNumber && isSpecial && !isSpace
}

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// nil代表不修改
type ProfileUpdate struct {
	Email       string  `json:"email"`
	OldPassword string  `json:"oldPassword" binding:"required"`
	NewPassword string  `json:"newPassword"`
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
}

type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt int64
}

type UserService struct {
	db     *gorm.DB
	tokens *jwt.Manager
}

func NewUserService(db *gorm.DB, tokens *jwt.Manager) *UserService {
	return &UserService{db: db, tokens: tokens}
}

// 檢查欄位是否重複
func (s *UserService) exists(ctx context.Context, column, value string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where(column+" = ?", value).Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "檢查%s失敗", column)
	}
	return count > 0, nil
}

// 註冊使用者帳戶
func (s *UserService) Register(ctx context.Context, in RegisterInput, role string) (*models.User, error) {
	if !ValidateUsername(in.Username) {
		return nil, ErrInvalidUsername
	}
	if !ValidateEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	if !ValidatePassword(in.Password) {
		return nil, ErrInvalidPassword
	}

	taken, err := s.exists(ctx, "username", in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = s.exists(ctx, "email", in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "無法生成Hashed密碼")
	}

	if role == "" {
		role = models.RoleUser
	}
	user := models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashedPassword),
		Name:     in.Name,
		Phone:    in.Phone,
		Role:     role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "無法儲存使用者資料至資料庫")
	}

	return &user, nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "查詢使用者失敗")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.IssueToken(ctx, user.ID, user.Role)
	if err != nil {
		return nil, errors.Wrap(err, "生成JWT Token錯誤")
	}

	return &LoginResult{User: &user, Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.tokens.RevokeToken(ctx, token)
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "無法取得使用者資料")
	}
	return &user, nil
}

// 變更使用者資料，回傳是否有資料變更
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (bool, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)); err != nil {
		return false, ErrWrongPassword
	}

	updates := map[string]interface{}{}
	if in.NewPassword != "" {
		if !ValidatePassword(in.NewPassword) {
			return false, ErrInvalidPassword
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return false, errors.Wrap(err, "無法生成Hashed密碼")
		}
		updates["password"] = string(hashedPassword)
	}

	if in.Email != "" && in.Email != user.Email {
		if !ValidateEmail(in.Email) {
			return false, ErrInvalidEmail
		}
		taken, err := s.exists(ctx, "email", in.Email)
		if err != nil {
			return false, err
		}
		if taken {
			return false, ErrEmailTaken
		}
		updates["email"] = in.Email
	}

	//如果使用者有提供資料則覆蓋(包含空字串)
	if in.Name != nil && *in.Name != user.Name {
		updates["name"] = *in.Name
	}
	if in.Phone != nil && *in.Phone != user.Phone {
		updates["phone"] = *in.Phone
	}

	if len(updates) == 0 {
		return false, nil
	}

	err = s.db.WithContext(ctx).Model(user).Updates(updates).Error
	if err != nil {
		return false, errors.Wrap(err, "更新使用者資料失敗")
	}
	return true, nil
}

type UserSummary struct {
	ID       uint
	Username string
	Email    string
	Role     string
}

// 查詢使用者列表
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]UserSummary, int64, error) {
	limit, offset = paginate(limit, offset)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "無法獲取使用者數量")
	}

	var users []UserSummary
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username", "email", "role").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&users).
		Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "無法獲取使用者列表")
	}
	return users, total, nil
}
