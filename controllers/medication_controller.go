package controllers

import (
	"errors"
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type MedicationController struct {
	Meds *services.MedicationService
}

func NewMedicationController(ms *services.MedicationService) *MedicationController {
	return &MedicationController{Meds: ms}
}

func (mc *MedicationController) List(c *gin.Context) {
	uid := c.GetString("userID")

	meds, err := mc.Meds.List(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load medications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medications": meds})
}

type CreateMedicationInput struct {
	Name string `json:"name"`
	Dose string `json:"dose"`
	Time string `json:"time"`
}

func (mc *MedicationController) Create(c *gin.Context) {
	uid := c.GetString("userID")

	var input CreateMedicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	med, err := mc.Meds.Create(c.Request.Context(), uid, input.Name, input.Dose, input.Time)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save medication"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"medication": med})
}

func (mc *MedicationController) ToggleTaken(c *gin.Context) {
	uid := c.GetString("userID")
	id := c.Param("id")

	if err := mc.Meds.ToggleTaken(c.Request.Context(), uid, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update medication"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (mc *MedicationController) Delete(c *gin.Context) {
	uid := c.GetString("userID")
	id := c.Param("id")

	if err := mc.Meds.Delete(c.Request.Context(), uid, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete medication"})
		return
	}

	c.Status(http.StatusNoContent)
}
