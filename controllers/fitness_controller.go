package controllers

import (
	"errors"
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type FitnessController struct {
	Fitness *services.FitnessService
}

func NewFitnessController(fs *services.FitnessService) *FitnessController {
	return &FitnessController{Fitness: fs}
}

// Connect returns the provider authorization URL the client should redirect
// the browser to.
func (fc *FitnessController) Connect(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"auth_url": fc.Fitness.AuthURL()})
}

type CallbackInput struct {
	Fragment string `json:"fragment" binding:"required"`
}

// Callback receives the redirect fragment the client captured and stores
// the token it carries. A wrong or missing state leaves the token unset.
func (fc *FitnessController) Callback(c *gin.Context) {
	uid := c.GetString("userID")

	var input CallbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := fc.Fitness.Connect(uid, input.Fragment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid redirect fragment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected": true})
}

func (fc *FitnessController) Steps(c *gin.Context) {
	uid := c.GetString("userID")

	sc, err := fc.Fitness.FetchYesterdaySteps(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, services.ErrNotConnected) || errors.Is(err, services.ErrTokenExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Fitness connection expired, please reconnect"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch step data"})
		return
	}

	c.JSON(http.StatusOK, sc)
}
