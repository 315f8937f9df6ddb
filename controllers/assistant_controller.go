package controllers

import (
	"errors"
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type AssistantController struct {
	Assistant *services.AssistantService
	Fitness   *services.FitnessService
}

func NewAssistantController(as *services.AssistantService, fs *services.FitnessService) *AssistantController {
	return &AssistantController{Assistant: as, Fitness: fs}
}

type ChatInput struct {
	Message string `json:"message" binding:"required"`
}

func (ac *AssistantController) Chat(c *gin.Context) {
	uid := c.GetString("userID")

	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := ac.Assistant.Ask(c.Request.Context(), uid, input.Message, false)
	if err != nil {
		if errors.Is(err, services.ErrAssistantBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "A reply is still pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get a reply"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// AssessSteps turns the last fetched step count into a synthetic prompt and
// asks the model for coaching feedback on it.
func (ac *AssistantController) AssessSteps(c *gin.Context) {
	uid := c.GetString("userID")

	sc, ok := ac.Fitness.LastSteps(uid)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No step data yet, fetch steps first"})
		return
	}

	reply, err := ac.Assistant.Ask(c.Request.Context(), uid, services.StepPrompt(sc), true)
	if err != nil {
		if errors.Is(err, services.ErrAssistantBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "A reply is still pending"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get a reply"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (ac *AssistantController) Transcript(c *gin.Context) {
	uid := c.GetString("userID")
	c.JSON(http.StatusOK, gin.H{"messages": ac.Assistant.Transcript(uid)})
}
