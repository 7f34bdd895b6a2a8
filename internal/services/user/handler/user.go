package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wms-system/config"
	"wms-system/internal/database/models"
	"wms-system/internal/utils"
)

const (
	ROLE_CACHE_KEY      = "roles:all"
	ROLE_CACHE_DURATION = 10 * time.Minute

	TOKEN_TTL = 24 * time.Hour
)

type UserHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewUserHandler(db *gorm.DB, redisClient *redis.Client) *UserHandler {
	return &UserHandler{
		db:    db,
		redis: redisClient,
	}
}

func (s *UserHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *UserHandler) created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *UserHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

type userResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Firstname string     `json:"firstname"`
	Lastname  string     `json:"lastname"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Role:      u.Role.RoleName,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
	}
}

// -- Auth --

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	RoleID    int32  `json:"role_id" binding:"required"`
}

func (s *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var existing models.User
	err := s.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		s.error(c, http.StatusBadRequest, "Username or email already taken")
		return
	} else if err != gorm.ErrRecordNotFound {
		config.LogError(config.GetLogger(), "user", "Register", "check existing user", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var role models.Role
	if err := s.db.Where("id = ?", req.RoleID).First(&role).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusBadRequest, "Unknown role")
			return
		}
		config.LogError(config.GetLogger(), "user", "Register", "load role", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.LogError(config.GetLogger(), "user", "Register", "hash password", err)
		s.error(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashed),
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		RoleID:    req.RoleID,
		IsActive:  true,
	}

	if err := s.db.Create(&user).Error; err != nil {
		config.LogError(config.GetLogger(), "user", "Register", "create user", err)
		s.error(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user.Role = role
	s.created(c, toUserResponse(&user))
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var user models.User
	if err := s.db.Preload("Role").Where("username = ?", req.Username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		config.LogError(config.GetLogger(), "user", "Login", "load user", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if !user.IsActive {
		s.error(c, http.StatusUnauthorized, "Account is inactive")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.error(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, exp, err := utils.GenerateToken(user.ID, user.Username, user.Role.RoleName, TOKEN_TTL)
	if err != nil {
		config.LogError(config.GetLogger(), "user", "Login", "generate token", err)
		s.error(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		config.LogError(config.GetLogger(), "user", "Login", "update last_login", err)
	}
	user.LastLogin = &now

	s.success(c, gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       toUserResponse(&user),
	})
}

// -- Users --

func (s *UserHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Preload("Role").Order("username ASC").Find(&users).Error; err != nil {
		config.LogError(config.GetLogger(), "user", "ListUsers", "list users", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	s.success(c, out)
}

func (s *UserHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var user models.User
	if err := s.db.Preload("Role").Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "User not found")
			return
		}
		config.LogError(config.GetLogger(), "user", "GetUser", "load user", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	s.success(c, toUserResponse(&user))
}

type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty"`
	Firstname *string `json:"firstname,omitempty"`
	Lastname  *string `json:"lastname,omitempty"`
	RoleID    *int32  `json:"role_id,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (s *UserHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.error(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s.error(c, http.StatusNotFound, "User not found")
			return
		}
		config.LogError(config.GetLogger(), "user", "UpdateUser", "load user", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Firstname != nil {
		user.Firstname = *req.Firstname
	}
	if req.Lastname != nil {
		user.Lastname = *req.Lastname
	}
	if req.RoleID != nil {
		var role models.Role
		if err := s.db.Where("id = ?", *req.RoleID).First(&role).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				s.error(c, http.StatusBadRequest, "Unknown role")
				return
			}
			config.LogError(config.GetLogger(), "user", "UpdateUser", "load role", err)
			s.error(c, http.StatusInternalServerError, "database error")
			return
		}
		user.RoleID = *req.RoleID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.db.Save(&user).Error; err != nil {
		config.LogError(config.GetLogger(), "user", "UpdateUser", "save user", err)
		s.error(c, http.StatusInternalServerError, "Failed to update user")
		return
	}

	if err := s.db.Preload("Role").Where("id = ?", user.ID).First(&user).Error; err != nil {
		config.LogError(config.GetLogger(), "user", "UpdateUser", "reload user", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}
	s.success(c, toUserResponse(&user))
}

// -- Roles --

type CreateRoleRequest struct {
	RoleName    string `json:"role_name" binding:"required"`
	AccessLevel int32  `json:"access_level" binding:"required"`
	Permissions string `json:"permissions"`
}

func (s *UserHandler) CreateRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	role := models.Role{
		RoleName:    req.RoleName,
		AccessLevel: req.AccessLevel,
		Permissions: req.Permissions,
	}

	if err := s.db.Create(&role).Error; err != nil {
		config.LogError(config.GetLogger(), "user", "CreateRole", "create role", err)
		s.error(c, http.StatusInternalServerError, "Failed to create role")
		return
	}

	s.invalidateRoleCache(c.Request.Context())
	s.created(c, role)
}

func (s *UserHandler) ListRoles(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := s.redis.Get(ctx, ROLE_CACHE_KEY).Result(); err == nil {
		var roles []models.Role
		if err := json.Unmarshal([]byte(cached), &roles); err == nil {
			s.success(c, roles)
			return
		}
	}

	var roles []models.Role
	if err := s.db.Order("access_level DESC").Find(&roles).Error; err != nil {
		config.LogError(config.GetLogger(), "user", "ListRoles", "list roles", err)
		s.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if encoded, err := json.Marshal(roles); err == nil {
		_ = s.redis.Set(ctx, ROLE_CACHE_KEY, encoded, ROLE_CACHE_DURATION)
	}

	s.success(c, roles)
}

func (s *UserHandler) invalidateRoleCache(ctx context.Context) {
	_ = s.redis.Del(ctx, ROLE_CACHE_KEY)
}
