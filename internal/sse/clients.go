// Package sse tracks Server-Sent Events subscribers per assignment.
package sse

import (
	"sync"
)

type Client struct {
	Msg          chan string
	AssignmentID string
}

func NewClient(assignmentID string) *Client {
	return &Client{
		Msg:          make(chan string, 1),
		AssignmentID: assignmentID,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

// Len is the number of connected clients.
func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends msg to every client watching assignmentID. Clients that
// are not ready to receive miss the message.
func (s *SSEClients) Broadcast(assignmentID string, msg string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sent := 0
	for client := range s.clients {
		if client.AssignmentID == assignmentID {
			select {
			case client.Msg <- msg:
				sent++
			default:
			}
		}
	}
	return sent
}
