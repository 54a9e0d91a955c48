package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"edtech/internal/api/middleware"
	"edtech/internal/database"
)

// AdminHandler 提供账号管理接口，仅管理员可访问。
type AdminHandler struct {
	accounts *database.AccountStore
}

func NewAdminHandler(accounts *database.AccountStore) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

func (h *AdminHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.ListAccounts(c.Request.Context())
	if err != nil {
		Internal(c, "failed to list accounts")
		return
	}
	items := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, newAccountResponse(&accounts[i]))
	}
	c.JSON(http.StatusOK, items)
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateRole 修改账号角色，角色必须是 student、instructor 或 admin。
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		BadRequest(c, "invalid account id")
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !database.ValidRole(req.Role) {
		BadRequest(c, "invalid role")
		return
	}

	account, err := h.accounts.UpdateAccountRole(c.Request.Context(), id, req.Role)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			NotFound(c, "account not found")
			return
		}
		Internal(c, "failed to update role")
		return
	}

	middleware.LoggerFromContext(c).Info("account role updated",
		slog.Uint64("target_account_id", uint64(account.ID)),
		slog.String("role", account.Role),
	)
	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated for " + account.Username + " to " + account.Role,
		"account": newAccountResponse(account),
	})
}
