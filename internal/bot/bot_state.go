package bot

import (
	"time"
)

type BotState int

const (
	StateDefault BotState = iota

	// Adding a class step by step
	StateEnteringClassName
	StateEnteringClassStart
	StateSelectingClassDuration
	StateConfirmingClass
)

type UserSession struct {
	State            BotState
	ClassName        string
	ClassStart       time.Time
	SelectedDuration time.Duration
}
