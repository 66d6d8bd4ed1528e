package ideas

import (
	"encoding/json"
	"time"
)

// ChatTurn is one message of an idea's conversation with the assistant.
// Clients may store further string keys on a turn; they are kept in Extra
// and written back beside role and content.
type ChatTurn struct {
	Role    string
	Content string
	Extra   map[string]string
}

func (c ChatTurn) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(c.Extra)+2)
	for k, v := range c.Extra {
		m[k] = v
	}
	m["role"] = c.Role
	m["content"] = c.Content
	return json.Marshal(m)
}

func (c *ChatTurn) UnmarshalJSON(b []byte) error {
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	turn := ChatTurn{Role: m["role"], Content: m["content"]}
	delete(m, "role")
	delete(m, "content")
	if len(m) > 0 {
		turn.Extra = m
	}
	*c = turn
	return nil
}

type Idea struct {
	ID                     int64      `json:"id"`
	Text                   string     `json:"text"`
	Domain                 *string    `json:"domain"`
	Recommendations        *string    `json:"recommendations"`
	AIFeedback             *string    `json:"ai_feedback"`
	FeatureList            *string    `json:"feature_list"`
	ChatHistory            []ChatTurn `json:"chat_history"`
	CreatedBy              *string    `json:"created_by"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              *time.Time `json:"updated_at"`
	FeatureListGeneratedAt *time.Time `json:"feature_list_generated_at"`
}

// IdeaInput is the body of POST /api/ideas.
type IdeaInput struct {
	ID        *int64  `json:"id"`
	Text      *string `json:"text"`
	Domain    *string `json:"domain"`
	CreatedBy *string `json:"created_by"`
}

// NewIdea holds the columns set on insert; chat history always starts empty.
type NewIdea struct {
	Text      string
	Domain    *string
	CreatedBy *string
}
