package domain

import "time"

type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

type ChatMessage struct {
	Role ChatRole
	Text string
	At   time.Time
}

// DefaultChatInstruction frames every conversation with the assistant.
const DefaultChatInstruction = "You are the assistant of a volunteering marketplace. " +
	"Help users find volunteer opportunities, write posts about their impact and " +
	"understand how applying, rating and the impact feed work. Answer briefly."
