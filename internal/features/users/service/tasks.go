package service

import (
	"context"
	"encoding/json"
	"fmt"

	"parcel-tracker/internal/core/identity"
)

func (s *Service) handleSendWelcome(ctx context.Context, payload []byte) error {
	var to identity.Contact
	if err := json.Unmarshal(payload, &to); err != nil {
		return fmt.Errorf("decode welcome task: %w", err)
	}
	if to.Email == "" {
		return nil
	}
	return s.welcomer.Welcome(ctx, to)
}
