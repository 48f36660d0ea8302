package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"practicehub/internal/platform/querier"
)

const ActionCarryoverRun = "leave.carryover.run"

type Event struct {
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	Details    any
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Record stores one audit event. Details are marshalled to JSON when set.
func (s *Service) Record(ctx context.Context, event Event) error {
	var detailsJSON []byte
	if event.Details != nil {
		payload, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		detailsJSON = payload
	}

	var actor any
	if event.ActorID != "" {
		actor = event.ActorID
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, details_json, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, event.TenantID, actor, event.Action, event.EntityType, event.EntityID, detailsJSON, event.RequestID)
	return err
}
