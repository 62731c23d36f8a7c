// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/base64"
	"time"

	auditDomain "github.com/MCPTrustFramework/mcpf/internal/audit/domain"
)

// EntryResponse represents an audit entry in API responses.
type EntryResponse struct {
	ID          string         `json:"id"`
	Sequence    int64          `json:"sequence"`
	Kind        string         `json:"kind"`
	SubjectDIDs []string       `json:"subject_dids"`
	Outcome     string         `json:"outcome"`
	ReasonCode  string         `json:"reason_code,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Signature   string         `json:"signature"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MapEntryToResponse converts a domain audit entry to an API response.
func MapEntryToResponse(entry *auditDomain.Entry) EntryResponse {
	return EntryResponse{
		ID:          entry.ID.String(),
		Sequence:    entry.Sequence,
		Kind:        string(entry.Kind),
		SubjectDIDs: entry.SubjectDIDs,
		Outcome:     entry.Outcome,
		ReasonCode:  entry.ReasonCode,
		Metadata:    entry.Metadata,
		Signature:   base64.StdEncoding.EncodeToString(entry.Signature),
		CreatedAt:   entry.CreatedAt,
	}
}

// ListEntriesResponse represents a paginated slice of the audit trail.
type ListEntriesResponse struct {
	Data []EntryResponse `json:"data"`
}

// MapEntriesToListResponse converts domain audit entries to a list API response.
func MapEntriesToListResponse(entries []*auditDomain.Entry) ListEntriesResponse {
	entryResponses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		entryResponses = append(entryResponses, MapEntryToResponse(entry))
	}
	return ListEntriesResponse{
		Data: entryResponses,
	}
}
