package services

import (
	"gatebot/internal/models"
	"sync"
)

// Conversations holds at most one pending input flow per user.
type Conversations struct {
	mu    sync.Mutex
	slots map[int64]models.ConversationState
}

func NewConversations() *Conversations {
	return &Conversations{slots: make(map[int64]models.ConversationState)}
}

func (c *Conversations) Begin(userID int64, state models.ConversationState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.slots[userID]; busy {
		return ErrFlowActive
	}
	c.slots[userID] = state
	return nil
}

// Consume reads and clears the slot in one step, so a flow completes once
// even when two inputs race.
func (c *Conversations) Consume(userID int64) (models.ConversationState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.slots[userID]
	if ok {
		delete(c.slots, userID)
	}
	return state, ok
}

func (c *Conversations) Active(userID int64) (models.ConversationState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.slots[userID]
	return state, ok
}

func (c *Conversations) IsActive(userID int64) bool {
	_, ok := c.Active(userID)
	return ok
}

func (c *Conversations) Cancel(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.slots[userID]
	delete(c.slots, userID)
	return ok
}
