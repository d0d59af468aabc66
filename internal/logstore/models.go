package logstore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog is one request-level audit entry. Request and response payloads
// are stored as free-form documents after redaction; an oversized response
// body is replaced with a size marker before it reaches this struct.
type AuditLog struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Action       string                 `bson:"action" json:"action"`
	ActionType   string                 `bson:"action_type" json:"actionType"`
	Resource     string                 `bson:"resource" json:"resource"`
	ResourceID   string                 `bson:"resource_id,omitempty" json:"resourceId,omitempty"`
	UserID       string                 `bson:"user_id,omitempty" json:"userId,omitempty"`
	UserRole     string                 `bson:"user_role" json:"userRole"`
	IPAddress    string                 `bson:"ip_address" json:"ipAddress"`
	UserAgent    string                 `bson:"user_agent" json:"userAgent"`
	Method       string                 `bson:"method" json:"method"`
	Endpoint     string                 `bson:"endpoint" json:"endpoint"`
	Success      bool                   `bson:"success" json:"success"`
	RequestData  map[string]interface{} `bson:"request_data,omitempty" json:"requestData,omitempty"`
	ResponseData map[string]interface{} `bson:"response_data,omitempty" json:"responseData,omitempty"`
	ErrorMessage string                 `bson:"error_message,omitempty" json:"errorMessage,omitempty"`
	ErrorCode    string                 `bson:"error_code,omitempty" json:"errorCode,omitempty"`
	DurationMS   int64                  `bson:"duration_ms" json:"durationMs"`
	Timestamp    time.Time              `bson:"timestamp" json:"timestamp"`
}

// ActionLog is one business-level action entry. Actor fields are denormalized
// at write time so the log stays readable even after the account changes or
// is removed.
type ActionLog struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	ActionType   string                 `bson:"action_type" json:"actionType"`
	UserID       string                 `bson:"user_id,omitempty" json:"userId,omitempty"`
	Username     string                 `bson:"username" json:"username"`
	FirstName    string                 `bson:"first_name,omitempty" json:"firstName,omitempty"`
	LastName     string                 `bson:"last_name,omitempty" json:"lastName,omitempty"`
	UserRole     string                 `bson:"user_role" json:"userRole"`
	ResourceType string                 `bson:"resource_type,omitempty" json:"resourceType,omitempty"`
	ResourceID   string                 `bson:"resource_id,omitempty" json:"resourceId,omitempty"`
	IPAddress    string                 `bson:"ip_address" json:"ipAddress"`
	UserAgent    string                 `bson:"user_agent" json:"userAgent"`
	Success      bool                   `bson:"success" json:"success"`
	InputData    map[string]interface{} `bson:"input_data,omitempty" json:"inputData,omitempty"`
	OutputData   map[string]interface{} `bson:"output_data,omitempty" json:"outputData,omitempty"`
	ErrorMessage string                 `bson:"error_message,omitempty" json:"errorMessage,omitempty"`
	Timestamp    time.Time              `bson:"timestamp" json:"timestamp"`
}
