package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/payment"
	"storefront/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", services.ErrProductNotFound, http.StatusNotFound},
		{"wrapped conflict", errors.Wrapf(services.ErrInsufficientStock, "%s", "mug"), http.StatusConflict},
		{"funds", services.ErrInsufficientFunds, http.StatusPaymentRequired},
		{"gateway down", errors.Wrap(payment.ErrUnavailable, "checkout"), http.StatusServiceUnavailable},
		{"bad signature", payment.ErrInvalidSignature, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestRespondError(t *testing.T) {
	t.Run("known error uses its own message", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondError(c, "提交訂單失敗", errors.Wrapf(services.ErrInsufficientStock, "%s", "mug"))

		assert.Equal(t, http.StatusConflict, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, services.ErrInsufficientStock.Error(), body["message"])
		assert.Len(t, c.Errors, 1)
	})

	t.Run("unknown error keeps the caller message", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondError(c, "提交訂單失敗", errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "提交訂單失敗", body["message"])
	})
}

func TestParamID(t *testing.T) {
	tests := []struct {
		value  string
		wantID uint
		wantOK bool
	}{
		{"12", 12, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "orderID", Value: tt.value}}

			id, ok := paramID(c, "orderID")
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/products?limit=5&offset=10", nil)

	limit, offset, ok := pagination(c)
	require.True(t, ok)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10, offset)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/products?limit=many", nil)

	_, _, ok = pagination(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
