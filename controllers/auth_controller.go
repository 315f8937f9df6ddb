package controllers

import (
	"net/http"

	"backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthController struct {
	jwtSecret string
}

func NewAuthController(jwtSecret string) *AuthController {
	return &AuthController{jwtSecret: jwtSecret}
}

// CreateSession establishes an anonymous identity: a fresh user id wrapped
// in a signed token. The id scopes every record the user goes on to create.
func (ac *AuthController) CreateSession(c *gin.Context) {
	userID := uuid.New().String()

	token, err := utils.GenerateJWT(ac.jwtSecret, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": userID})
}
