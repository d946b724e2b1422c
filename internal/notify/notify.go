// Package notify builds the operator-facing toasts and confirmation prompts
// returned alongside admin API responses.
package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Level is the severity of a toast
type Level string

// Toast levels
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// DefaultTTL is how long a toast stays on screen.
const DefaultTTL = 3 * time.Second

// Toast is a transient message for the operator.
type Toast struct {
	Level   Level
	Message string
	TTL     time.Duration
}

type toastJSON struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	TTLMs   int64  `json:"ttl_ms"`
}

// MarshalJSON sends the TTL in milliseconds.
func (t Toast) MarshalJSON() ([]byte, error) {
	return json.Marshal(toastJSON{Level: t.Level, Message: t.Message, TTLMs: t.TTL.Milliseconds()})
}

// UnmarshalJSON reads the millisecond TTL form.
func (t *Toast) UnmarshalJSON(data []byte) error {
	var raw toastJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Level = raw.Level
	t.Message = raw.Message
	t.TTL = time.Duration(raw.TTLMs) * time.Millisecond
	return nil
}

// Info creates an info toast
func Info(format string, args ...any) Toast {
	return Toast{Level: LevelInfo, Message: fmt.Sprintf(format, args...), TTL: DefaultTTL}
}

// Success creates a success toast
func Success(format string, args ...any) Toast {
	return Toast{Level: LevelSuccess, Message: fmt.Sprintf(format, args...), TTL: DefaultTTL}
}

// Error creates an error toast
func Error(format string, args ...any) Toast {
	return Toast{Level: LevelError, Message: fmt.Sprintf(format, args...), TTL: DefaultTTL}
}

// Option is one choice of a confirmation.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Destructive bool   `json:"destructive"`
}

// Confirmation asks the operator to choose before a destructive action.
type Confirmation struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Options []Option `json:"options"`
}

// Delete scopes offered by DeleteConfirmation
const (
	ScopeInstance = "instance"
	ScopeCampaign = "campaign"
)

// DeleteConfirmation offers deleting one instance or the whole campaign.
// A campaign of one only offers the instance option.
func DeleteConfirmation(title string, campaignSize int) Confirmation {
	c := Confirmation{
		Title: "Delete entry",
		Options: []Option{
			{Value: ScopeInstance, Label: "Delete only this instance", Destructive: true},
		},
	}
	if campaignSize <= 1 {
		c.Message = fmt.Sprintf("Delete %q?", title)
		return c
	}
	c.Message = fmt.Sprintf("%q is scheduled %d times. Delete only this instance or the whole campaign?", title, campaignSize)
	c.Options = append(c.Options, Option{
		Value:       ScopeCampaign,
		Label:       fmt.Sprintf("Delete all %d instances", campaignSize),
		Destructive: true,
	})
	return c
}
