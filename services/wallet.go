package services

import (
	"context"
	"math"
	"math/big"
	"strings"

	"storefront/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const rateScale = 1_000_000

type ConversionResult struct {
	From     models.WalletBalance `json:"from"`
	To       models.WalletBalance `json:"to"`
	Debited  int64                `json:"debited"`
	Credited int64                `json:"credited"`
}

type WalletService struct {
	db           *gorm.DB
	baseCurrency string
}

func NewWalletService(db *gorm.DB, baseCurrency string) *WalletService {
	return &WalletService{db: db, baseCurrency: normalizeCurrency(baseCurrency)}
}

func normalizeCurrency(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

func rateToMicros(rate float64) int64 {
	return int64(math.Round(rate * rateScale))
}

// ConvertAmount以兩個匯率換算金額並四捨五入至最小貨幣單位，結果超出int64時回傳ErrAmountOverflow
func ConvertAmount(amount, fromMicros, toMicros int64) (int64, error) {
	numerator := new(big.Int).Mul(big.NewInt(amount), big.NewInt(toMicros))
	denominator := big.NewInt(fromMicros)

	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if new(big.Int).Lsh(remainder, 1).Cmp(denominator) >= 0 {
		quotient.Add(quotient, big.NewInt(1))
	}
	if !quotient.IsInt64() {
		return 0, ErrAmountOverflow
	}
	return quotient.Int64(), nil
}

// 寫入設定檔中的匯率，已存在的匯率不覆蓋
func (s *WalletService) SeedRates(ctx context.Context, rates map[string]float64) error {
	seed := make(map[string]int64, len(rates)+1)
	for currency, rate := range rates {
		seed[normalizeCurrency(currency)] = rateToMicros(rate)
	}
	if _, ok := seed[s.baseCurrency]; !ok && s.baseCurrency != "" {
		seed[s.baseCurrency] = rateScale
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for currency, micros := range seed {
			var rate models.ExchangeRate
			err := tx.
				Where(models.ExchangeRate{Currency: currency}).
				Attrs(models.ExchangeRate{RateMicros: micros}).
				FirstOrCreate(&rate).
				Error
			if err != nil {
				return errors.Wrapf(err, "寫入%s匯率失敗", currency)
			}
		}
		return nil
	})
}

func (s *WalletService) SetRate(ctx context.Context, currency string, rate float64) (*models.ExchangeRate, error) {
	currency = normalizeCurrency(currency)
	if len(currency) != 3 {
		return nil, ErrUnknownCurrency
	}
	micros := rateToMicros(rate)
	if micros <= 0 {
		return nil, ErrInvalidAmount
	}

	var exchangeRate models.ExchangeRate
	err := s.db.WithContext(ctx).
		Where(models.ExchangeRate{Currency: currency}).
		Assign(models.ExchangeRate{RateMicros: micros}).
		FirstOrCreate(&exchangeRate).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "更新匯率失敗")
	}
	return &exchangeRate, nil
}

func (s *WalletService) Rates(ctx context.Context) ([]models.ExchangeRate, error) {
	var rates []models.ExchangeRate
	if err := s.db.WithContext(ctx).Order("currency").Find(&rates).Error; err != nil {
		return nil, errors.Wrap(err, "無法讀取匯率")
	}
	return rates, nil
}

func findRate(tx *gorm.DB, currency string) (int64, error) {
	var rate models.ExchangeRate
	err := tx.Where("currency = ?", currency).First(&rate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUnknownCurrency
		}
		return 0, errors.Wrap(err, "查詢匯率失敗")
	}
	return rate.RateMicros, nil
}

func (s *WalletService) Balances(ctx context.Context, userID uint) ([]models.WalletBalance, error) {
	var balances []models.WalletBalance
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("currency").
		Find(&balances).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "無法讀取錢包餘額")
	}
	return balances, nil
}

// 儲值至錢包
func (s *WalletService) Deposit(ctx context.Context, userID uint, currency string, amount int64, reference string) (*models.WalletBalance, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	currency = normalizeCurrency(currency)

	var balance *models.WalletBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findRate(tx, currency); err != nil {
			return err
		}
		var err error
		balance, err = creditBalance(tx, userID, currency, amount, models.WalletTxDeposit, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// Convert在同一個交易內扣除來源幣別並存入目標幣別
func (s *WalletService) Convert(ctx context.Context, userID uint, from, to string, amount int64) (*ConversionResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	from = normalizeCurrency(from)
	to = normalizeCurrency(to)
	if from == to {
		return nil, ErrSameCurrency
	}

	var result ConversionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fromMicros, err := findRate(tx, from)
		if err != nil {
			return err
		}
		toMicros, err := findRate(tx, to)
		if err != nil {
			return err
		}

		credited, err := ConvertAmount(amount, fromMicros, toMicros)
		if err != nil {
			return err
		}
		if credited <= 0 {
			return ErrInvalidAmount
		}

		reference := "convert:" + from + ":" + to
		source, err := debitBalance(tx, userID, from, amount, models.WalletTxConvertOut, reference)
		if err != nil {
			return err
		}
		target, err := creditBalance(tx, userID, to, credited, models.WalletTxConvertIn, reference)
		if err != nil {
			return err
		}

		result = ConversionResult{From: *source, To: *target, Debited: amount, Credited: credited}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func recordTransaction(tx *gorm.DB, userID uint, currency string, amount int64, txType, reference string) error {
	entry := models.WalletTransaction{
		UserID:    userID,
		Currency:  currency,
		Amount:    amount,
		Type:      txType,
		Reference: reference,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return errors.Wrap(err, "寫入錢包交易紀錄失敗")
	}
	return nil
}

// 扣款，ledger中的金額為負數
func debitBalance(tx *gorm.DB, userID uint, currency string, amount int64, txType, reference string) (*models.WalletBalance, error) {
	var balance models.WalletBalance
	err := lockForUpdate(tx).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&balance).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsufficientFunds
		}
		return nil, errors.Wrap(err, "查詢錢包餘額失敗")
	}
	if balance.Amount < amount {
		return nil, ErrInsufficientFunds
	}

	balance.Amount -= amount
	err = tx.Model(&models.WalletBalance{}).
		Where("id = ?", balance.ID).
		Update("amount", balance.Amount).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "扣除錢包餘額失敗")
	}

	if err := recordTransaction(tx, userID, currency, -amount, txType, reference); err != nil {
		return nil, err
	}
	return &balance, nil
}

func creditBalance(tx *gorm.DB, userID uint, currency string, amount int64, txType, reference string) (*models.WalletBalance, error) {
	var balance models.WalletBalance
	err := lockForUpdate(tx).
		Where(models.WalletBalance{UserID: userID, Currency: currency}).
		FirstOrCreate(&balance).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "查詢錢包餘額失敗")
	}

	if balance.Amount > math.MaxInt64-amount {
		return nil, ErrAmountOverflow
	}
	balance.Amount += amount
	err = tx.Model(&models.WalletBalance{}).
		Where("id = ?", balance.ID).
		Update("amount", balance.Amount).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "存入錢包餘額失敗")
	}

	if err := recordTransaction(tx, userID, currency, amount, txType, reference); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID uint, limit, offset int) ([]models.WalletTransaction, error) {
	limit, offset = paginate(limit, offset)

	var entries []models.WalletTransaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "無法讀取錢包交易紀錄")
	}
	return entries, nil
}
