package store

import (
	"rcord/internal/metrics"
	"rcord/internal/models"
)

// AddMessage appends a message to the history keyed by target, stamping
// the sender and server-side timestamp. The stored message is returned.
func (s *Store) AddMessage(target, sender string, msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.Sender = sender
	msg.TS = models.Stamp(s.now())
	s.data.Messages[target] = append(s.data.Messages[target], msg)
	if err := s.persistLocked(); err != nil {
		return models.Message{}, err
	}
	metrics.MessagesStored.Inc()
	return msg, nil
}

// Messages returns the history for target. A nil or non-positive limit
// yields the full history; otherwise the most recent limit entries.
func (s *Store) Messages(target string, limit *int) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.data.Messages[target]
	start := 0
	if limit != nil && *limit > 0 && *limit < len(history) {
		start = len(history) - *limit
	}
	out := make([]models.Message, len(history)-start)
	copy(out, history[start:])
	return out
}
