package handler

import (
	"time"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// RegisterRequest represents the sign-up request body.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required" example:"ana@example.com"`
	Password string `json:"password" binding:"required" example:"secreto123"`
	FullName string `json:"full_name" example:"Ana López"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"ana@example.com"`
	Password string `json:"password" binding:"required" example:"secreto123"`
}

// RefreshRequest represents the token refresh request body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ProcessTextRequest is the body of the stateless extraction endpoint.
type ProcessTextRequest struct {
	Text string `json:"text" binding:"required" example:"CFE Suministrador de Servicios Básicos\nTotal a pagar $850.00"`
}

// ProcessRequest optionally carries corrected text for an invoice.
type ProcessRequest struct {
	Text string `json:"text" example:"Telmex ... Total $499.00"`
}

// --- Response Types ---

// TokenResponse represents the authentication token response.
type TokenResponse struct {
	AccessToken  string    `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string    `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt    time.Time `json:"expires_at" example:"2025-01-15T10:30:00Z"`
}

// CooldownResponse reports the extraction pause caused by provider rate limits.
type CooldownResponse struct {
	Active        bool       `json:"active" example:"true"`
	RetryUntil    *time.Time `json:"retry_until,omitempty" example:"2025-01-15T10:31:00Z"`
	RemainingSecs int        `json:"remaining_secs" example:"42"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status               string     `json:"status" example:"ok"`
	Error                string     `json:"error,omitempty" example:"database not reachable"`
	Extraction           string     `json:"extraction,omitempty" example:"ready" enums:"ready,paused"`
	ExtractionRetryUntil *time.Time `json:"extraction_retry_until,omitempty" example:"2025-01-15T10:31:00Z"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"invoice deleted"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
