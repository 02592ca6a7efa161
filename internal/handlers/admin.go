package handlers

import (
	"os"
	"path/filepath"

	"safc/internal/apperr"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler 管理接口，只在 sqlite 部署下注册
type AdminHandler struct {
	db     *gorm.DB
	dbPath string
}

func NewAdminHandler(db *gorm.DB, dbPath string) *AdminHandler {
	return &AdminHandler{db: db, dbPath: dbPath}
}

// DownloadDB GET /api/download/db 下载数据库文件
func (h *AdminHandler) DownloadDB(c *gin.Context) {
	// 先把 WAL 合并回主文件
	if err := h.db.WithContext(c.Request.Context()).Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		respondError(c, apperr.Storage("checkpoint", err))
		return
	}
	if _, err := os.Stat(h.dbPath); err != nil {
		respondError(c, apperr.Storage("stat database file", err))
		return
	}
	c.FileAttachment(h.dbPath, filepath.Base(h.dbPath))
}
