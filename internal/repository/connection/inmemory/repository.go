package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ramazansancar/keyiflerolsun-KekikParty/internal/repository/connection"
)

type repo struct {
	byConn     map[*websocket.Conn]string
	byMemberId map[string]*websocket.Conn
	mu         sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		byConn:     make(map[*websocket.Conn]string),
		byMemberId: make(map[string]*websocket.Conn),
	}
}

func (r *repo) Add(conn *websocket.Conn, memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byConn[conn] != "" || r.byMemberId[memberId] != nil {
		return connection.ErrAlreadyExists
	}

	r.byConn[conn] = memberId
	r.byMemberId[memberId] = conn

	slog.Debug("connection added", "member_id", memberId)
	return nil
}

// RemoveByConn unregisters a connection and returns the member id it was
// bound to.
func (r *repo) RemoveByConn(conn *websocket.Conn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memberId, ok := r.byConn[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	delete(r.byConn, conn)
	delete(r.byMemberId, memberId)

	slog.Debug("connection removed", "member_id", memberId)
	return memberId, nil
}

func (r *repo) RemoveByMemberId(memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byMemberId[memberId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.byConn, conn)
	delete(r.byMemberId, memberId)

	return nil
}

func (r *repo) GetMemberId(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberId, ok := r.byConn[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return memberId, nil
}

func (r *repo) GetConn(memberId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byMemberId[memberId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
