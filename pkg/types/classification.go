package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tells which classification rule produced a result
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindApplication Kind = "application"
	KindFolder      Kind = "folder"
	KindFile        Kind = "file"
)

// ClassificationResult describes what a dropped path is.
// Field names follow the helper's wire format.
type ClassificationResult struct {
	FileName      string `json:"fileName"`
	Description   string `json:"description"`
	IsFileType    bool   `json:"isFileType"`
	FilePath      string `json:"filePath"`
	FileExtension string `json:"fileExtension"`
	Kind          Kind   `json:"-"`
}

// ToJSON converts the result to a JSON string
func (r *ClassificationResult) ToJSON() string {
	jsonBytes, _ := json.Marshal(r)
	return string(jsonBytes)
}

// String returns a human-readable representation
func (r *ClassificationResult) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name: %s\n", r.FileName))
	sb.WriteString(fmt.Sprintf("Path: %s\n", r.FilePath))
	sb.WriteString(fmt.Sprintf("Type: %s\n", r.Description))
	if r.FileExtension != "" {
		sb.WriteString(fmt.Sprintf("Extension: %s\n", r.FileExtension))
	}
	return sb.String()
}
