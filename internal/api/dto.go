package api

import (
	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/session"
)

type createSessionRequest struct {
	Suits []string `json:"suits"`
}

type setSuitsRequest struct {
	Suits []string `json:"suits"`
}

type simulateRequest struct {
	BatchSize int `json:"batch_size"`
}

type SessionResponse struct {
	session.View
	Links LinksResponse `json:"links"`
}

type LinksResponse struct {
	Self string `json:"self"`
	QR   string `json:"qr"`
	Feed string `json:"feed"`
}

type SuitsResponse struct {
	Suits []string `json:"suits"`
}

type HistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
}

type HistoryEntryResponse struct {
	domain.HistoryEntry
	Line string `json:"line"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func toHistoryResponse(entries []domain.HistoryEntry) HistoryResponse {
	out := HistoryResponse{Entries: make([]HistoryEntryResponse, len(entries))}
	for i, entry := range entries {
		out.Entries[i] = HistoryEntryResponse{HistoryEntry: entry, Line: entry.Line()}
	}
	return out
}
