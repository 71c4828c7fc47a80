package policy

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/linkguard/internal/core"
)

// record is the stored form of a tenant policy. Categories are kept by
// name so that the bit layout of CategorySet never leaks into storage.
type record struct {
	TenantID   string    `json:"tenant_id"`
	Mode       string    `json:"mode"`
	Categories []string  `json:"categories"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toRecord(p *core.TenantPolicy) record {
	return record{
		TenantID:   p.TenantID,
		Mode:       p.Mode.String(),
		Categories: p.Categories.Names(),
		UpdatedAt:  p.UpdatedAt.UTC(),
	}
}

func (r record) policy() (*core.TenantPolicy, error) {
	mode, err := core.ParseMode(r.Mode)
	if err != nil {
		return nil, fmt.Errorf("stored policy for %s: %w", r.TenantID, err)
	}
	categories, err := core.ParseCategorySet(r.Categories)
	if err != nil {
		return nil, fmt.Errorf("stored policy for %s: %w", r.TenantID, err)
	}
	return &core.TenantPolicy{
		TenantID:   r.TenantID,
		Mode:       mode,
		Categories: categories,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

// joinCategories and splitCategories give the SQL stores a flat column
func joinCategories(names []string) string {
	return strings.Join(names, ",")
}

func splitCategories(column string) []string {
	if column == "" {
		return nil
	}
	return strings.Split(column, ",")
}

func marshalRecord(p *core.TenantPolicy) ([]byte, error) {
	data, err := json.Marshal(toRecord(p))
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy: %w", err)
	}
	return data, nil
}

func unmarshalRecord(data []byte) (*core.TenantPolicy, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}
	return r.policy()
}
