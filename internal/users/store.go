package users

import (
	"context"

	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/store"
)

const usersCollection = "users"

// Store encapsulates operations on the users table.
type Store struct {
	table         *store.Table[User]
	usernameIndex string
	seq           *store.Sequence
}

func NewStore(client aws.DynamoDBAPI, tableName, usernameIndex string, seq *store.Sequence) *Store {
	return &Store{
		table:         store.NewTable[User](client, tableName, "user_id"),
		usernameIndex: usernameIndex,
		seq:           seq,
	}
}

func (s *Store) NextID(ctx context.Context) (int64, error) {
	return s.seq.Next(ctx, usersCollection)
}

// Get fetches a user. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, id int64) (*User, error) {
	return s.table.Get(ctx, id)
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	return s.table.Scan(ctx, nil)
}

// FindByUsername looks the user up through the username index.
func (s *Store) FindByUsername(ctx context.Context, username string) (*User, error) {
	found, err := s.table.QueryIndex(ctx, s.usernameIndex, "username", store.S(username))
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

func (s *Store) Create(ctx context.Context, u User) error {
	return s.table.Create(ctx, u)
}

func (s *Store) Update(ctx context.Context, id int64, fields map[string]interface{}) (*User, error) {
	u, err := store.SetFields(fields)
	if err != nil {
		return nil, err
	}
	return s.table.Update(ctx, id, u)
}

func (s *Store) Delete(ctx context.Context, id int64) (*User, error) {
	return s.table.Delete(ctx, id)
}

func (s *Store) ToggleStatus(ctx context.Context, id int64) (*User, error) {
	return s.table.ToggleBool(ctx, id, "status")
}
