// Package dto contains data transfer objects for the media domain
package dto

import "time"

// StartCommandRequest represents a request to handle /start command
type StartCommandRequest struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// LinkRequest represents a plain-text message that may carry a media URL
type LinkRequest struct {
	ChatID int64  `json:"chatId"`
	UserID int64  `json:"userId"`
	Text   string `json:"text"`
}

// CommandResponse represents a response for bot commands
type CommandResponse struct {
	Message string `json:"message"`
}

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is served on the ops /health endpoint
type HealthResponse struct {
	Status         string            `json:"status"`
	Service        string            `json:"service"`
	Timestamp      time.Time         `json:"timestamp"`
	MaxConcurrent  int               `json:"maxConcurrent"`
	InFlight       int               `json:"inFlight"`
	TotalCompleted int64             `json:"totalCompleted"`
	Components     []ComponentHealth `json:"components"`
}
