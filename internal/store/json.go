package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON decodes the blob stored under key into dest.
func GetJSON(ctx context.Context, s Storage, key string, dest any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, s Storage, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.Set(ctx, key, data)
}
