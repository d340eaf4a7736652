package handlers

import (
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

// 查詢已發布的文章列表
func GetPostListHandler(c *gin.Context, blog *services.BlogService) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	posts, total, err := blog.ListPublished(c.Request.Context(), currentTenantID(c), limit, offset)
	if err != nil {
		respondError(c, "查詢文章列表失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功查詢文章列表",
		"posts":      posts,
		"totalCount": total,
	})
}

func GetPostHandler(c *gin.Context, blog *services.BlogService) {
	post, err := blog.GetPublished(c.Request.Context(), currentTenantID(c), c.Param("slug"))
	if err != nil {
		respondError(c, "查詢文章失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功查詢文章",
		"post":    post,
	})
}

// 管理員查詢所有文章(包含草稿)
func GetAdminPostListHandler(c *gin.Context, blog *services.BlogService) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}

	posts, total, err := blog.ListAll(c.Request.Context(), currentTenantID(c), limit, offset)
	if err != nil {
		respondError(c, "查詢文章列表失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "成功查詢文章列表",
		"posts":      posts,
		"totalCount": total,
	})
}

func CreatePostHandler(c *gin.Context, blog *services.BlogService) {
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	post, err := blog.Create(c.Request.Context(), currentTenantID(c), currentUserID(c), req)
	if err != nil {
		respondError(c, "新增文章失敗", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "成功新增文章",
		"post":    post,
	})
}

func UpdatePostHandler(c *gin.Context, blog *services.BlogService) {
	postID, ok := paramID(c, "postID")
	if !ok {
		return
	}

	var req services.PostPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "綁定請求資料錯誤", err)
		return
	}

	post, err := blog.Update(c.Request.Context(), currentTenantID(c), postID, req)
	if err != nil {
		respondError(c, "修改文章失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功修改文章",
		"post":    post,
	})
}

func PublishPostHandler(c *gin.Context, blog *services.BlogService) {
	postID, ok := paramID(c, "postID")
	if !ok {
		return
	}

	post, err := blog.Publish(c.Request.Context(), currentTenantID(c), postID)
	if err != nil {
		respondError(c, "發布文章失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功發布文章",
		"post":    post,
	})
}

func DeletePostHandler(c *gin.Context, blog *services.BlogService) {
	postID, ok := paramID(c, "postID")
	if !ok {
		return
	}

	if err := blog.Delete(c.Request.Context(), currentTenantID(c), postID); err != nil {
		respondError(c, "刪除文章失敗", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "成功刪除文章",
	})
}
