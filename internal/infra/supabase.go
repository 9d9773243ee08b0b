package infra

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// NewSupabaseClient builds a Supabase client from the configured project URL and key.
func NewSupabaseClient(cfg *Config) (*supabase.Client, error) {
	if !cfg.SupabaseConfigured() {
		return nil, fmt.Errorf("supabase is not configured")
	}
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}
	return client, nil
}
