package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnclosedQuote = errors.New("unclosed quote in command string")
	ErrNotConnected  = errors.New("client is not connected")
	ErrStoreClosed   = errors.New("wrapper registry is closed")
)

// ServerNotFoundError reports a server name absent from configuration.
type ServerNotFoundError struct {
	Server string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("Server '%s' not found", e.Server)
}

// ToolNotFoundError reports a tool name a connected server does not expose.
type ToolNotFoundError struct {
	Tool   string
	Server string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("Tool '%s' not found on server '%s'", e.Tool, e.Server)
}

// SkillToolNotFoundError reports a tool name no script in the skill declares.
type SkillToolNotFoundError struct {
	Tool  string
	Skill string
}

func (e *SkillToolNotFoundError) Error() string {
	return fmt.Sprintf("Tool '%s' not found in skill '%s'", e.Tool, e.Skill)
}

// SkillNotFoundError reports a skill directory with no usable scripts.
type SkillNotFoundError struct {
	Skill string
}

func (e *SkillNotFoundError) Error() string {
	return fmt.Sprintf("Skill '%s' has no scripts", e.Skill)
}
