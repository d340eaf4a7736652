package middleware

import (
	"net"
	"net/http"
	"strings"

	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const TenantHeader = "X-Tenant"

// 網域第一段，例如shop.example.com的shop，IP或單段網域回傳空字串
func hostTenant(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return labels[0]
}

// 依序以X-Tenant標頭、網域、預設商店決定目前的商店
func TenantMiddleware(tenants *services.TenantService, defaultSlug string, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			tenant *models.Tenant
			err    error
		)
		if slug := c.GetHeader(TenantHeader); slug != "" {
			tenant, err = tenants.FindBySlug(ctx, slug)
		} else {
			err = services.ErrTenantNotFound
			if slug := hostTenant(c.Request.Host); slug != "" {
				tenant, err = tenants.FindBySlug(ctx, slug)
			}
			if errors.Is(err, services.ErrTenantNotFound) {
				tenant, err = tenants.FindBySlug(ctx, defaultSlug)
			}
		}

		if err != nil {
			if errors.Is(err, services.ErrTenantNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"message": "找不到商店",
				})
				return
			}
			log.WithError(err).Error("查詢商店失敗")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": "查詢商店失敗",
				"error":   err.Error(),
			})
			return
		}

		c.Set(KeyTenantID, tenant.ID)
		c.Set(KeyTenant, tenant)
		c.Next()
	}
}
