package entity

import (
	"time"

	"github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// User is an actor known to the engine. Identity itself is resolved upstream.
type User struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email,omitempty"`
	Role        workflow.Role `json:"role"`
	LarkOpenID  string        `json:"lark_open_id,omitempty"`
	SlackUserID string        `json:"slack_user_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Project groups requests; validators and deliverers must be members
type Project struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Actor is the authenticated caller of an action
type Actor struct {
	ID   string        `json:"id"`
	Role workflow.Role `json:"role"`
}
