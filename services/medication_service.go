package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"backend/models"

	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("name, dose and time are required")
	ErrNotFound   = errors.New("medication not found")
)

// MedicationService owns the medication list for each user scope: create,
// toggle-taken, delete, and the live snapshot published after every
// confirmed change. Mutations are fire-and-forget — a failure raises a
// notice and the operation is abandoned, no retry.
type MedicationService struct {
	store   MedicationStore
	hub     *RealtimeHub
	notices *NoticeBus
	appTag  string
}

func NewMedicationService(store MedicationStore, hub *RealtimeHub, notices *NoticeBus, appTag string) *MedicationService {
	return &MedicationService{store: store, hub: hub, notices: notices, appTag: appTag}
}

func (s *MedicationService) scope(userID string) string {
	return s.appTag + "#" + userID
}

func (s *MedicationService) List(ctx context.Context, userID string) ([]models.Medication, error) {
	return s.store.List(ctx, s.scope(userID))
}

func (s *MedicationService) Create(ctx context.Context, userID, name, dose, timeOfDay string) (*models.Medication, error) {
	name = strings.TrimSpace(name)
	dose = strings.TrimSpace(dose)
	timeOfDay = strings.TrimSpace(timeOfDay)
	if name == "" || dose == "" || timeOfDay == "" {
		s.notices.Emit(ctx, userID, "warning", "Please fill in medication name, dose and time.")
		return nil, ErrValidation
	}

	med := models.Medication{
		ID:        uuid.New().String(),
		Name:      name,
		Dose:      dose,
		Time:      timeOfDay,
		IsTaken:   false,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.Put(ctx, s.scope(userID), med); err != nil {
		log.Printf("Error saving medication: %v", err)
		s.notices.Emit(ctx, userID, "warning", "Could not save the medication. Please try again.")
		return nil, err
	}

	s.publish(ctx, userID)
	return &med, nil
}

func (s *MedicationService) ToggleTaken(ctx context.Context, userID, id string) error {
	med, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.SetTaken(ctx, s.scope(userID), med.CreatedAt, !med.IsTaken); err != nil {
		log.Printf("Error toggling medication %s: %v", id, err)
		s.notices.Emit(ctx, userID, "warning", "Could not update the medication. Please try again.")
		return err
	}

	s.publish(ctx, userID)
	return nil
}

func (s *MedicationService) Delete(ctx context.Context, userID, id string) error {
	med, err := s.find(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, s.scope(userID), med.CreatedAt); err != nil {
		log.Printf("Error deleting medication %s: %v", id, err)
		s.notices.Emit(ctx, userID, "warning", "Could not delete the medication. Please try again.")
		return err
	}

	s.publish(ctx, userID)
	return nil
}

func (s *MedicationService) find(ctx context.Context, userID, id string) (models.Medication, error) {
	meds, err := s.store.List(ctx, s.scope(userID))
	if err != nil {
		s.notices.Emit(ctx, userID, "warning", "Could not load medications. Please try again.")
		return models.Medication{}, err
	}
	for _, m := range meds {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Medication{}, ErrNotFound
}

// publish pushes a fresh full snapshot to every subscriber of the user.
// The view only ever updates from confirmed store state.
func (s *MedicationService) publish(ctx context.Context, userID string) {
	meds, err := s.store.List(ctx, s.scope(userID))
	if err != nil {
		log.Printf("Error loading snapshot for %s: %v", userID, err)
		return
	}
	s.hub.Publish(userID, Event{Kind: EventMedicationSnapshot, Payload: meds})
}
