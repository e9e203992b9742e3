// Package fopbridge provides the response envelopes shared by the bridges.
package fopbridge

import (
	"encoding/json"

	"github.com/jrazmi/taskdeck/core/scaffolding/fop"
)

// CodeResponse provides a standard response with code and message
type CodeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewCodeResponse(code, message string) CodeResponse {
	return CodeResponse{Code: code, Message: message}
}

func (c CodeResponse) Encode() ([]byte, string, error) {
	data, err := json.Marshal(c)
	return data, "application/json", err
}

// RecordResponse wraps a single record
type RecordResponse[T any] struct {
	Record T `json:"record"`
}

func NewRecordResponse[T any](record T) RecordResponse[T] {
	return RecordResponse[T]{Record: record}
}

func (r RecordResponse[T]) Encode() ([]byte, string, error) {
	data, err := json.Marshal(r)
	return data, "application/json", err
}

// PaginatedResponse is one page of records.
type PaginatedResponse[T any, C comparable] struct {
	Records  []T         `json:"records"`
	PageInfo PageInfo[C] `json:"pageInfo"`
}

// PageInfo describes where a page sits in the full result.
type PageInfo[C comparable] struct {
	HasPrev        bool `json:"hasPrev,omitempty"`
	HasNext        bool `json:"hasNext,omitempty"`
	Limit          int  `json:"limit,omitempty"`
	PreviousCursor *C   `json:"previousCursor,omitempty"`
	NextCursor     *C   `json:"nextCursor,omitempty"`
	PageTotal      int  `json:"pageTotal,omitempty"`
}

func (p PaginatedResponse[T, C]) Encode() ([]byte, string, error) {
	data, err := json.Marshal(p)
	return data, "application/json", err
}

// NewPaginatedResultStringCursor builds a page from string cursor page info.
// Records is never encoded as null.
func NewPaginatedResultStringCursor[T any](records []T, info fop.PageInfoStringCursor) PaginatedResponse[T, string] {
	if records == nil {
		records = []T{}
	}
	return PaginatedResponse[T, string]{
		Records: records,
		PageInfo: PageInfo[string]{
			HasPrev:        info.HasPrev,
			HasNext:        info.HasNext,
			Limit:          info.Limit,
			PreviousCursor: nonEmpty(info.PreviousCursor),
			NextCursor:     nonEmpty(info.NextCursor),
			PageTotal:      info.PageTotal,
		},
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
