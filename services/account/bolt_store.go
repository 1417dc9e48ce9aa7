package account

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketAccounts      = []byte("accounts")
	bucketByUsername    = []byte("accounts_by_username")
	bucketByEmail       = []byte("accounts_by_email")
	bucketSessionTokens = []byte("session_tokens")
)

// BoltStore keeps each account as one JSON document holding its session list,
// plus index buckets for username, email and refresh-token hash. Index and
// document are written in the same transaction.
type BoltStore struct {
	db *bbolt.DB
}

type accountDocument struct {
	ID           uint              `json:"id"`
	UserID       string            `json:"userID"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"password"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Sessions     []sessionDocument `json:"sessions"`
}

type sessionDocument struct {
	PublicID  string    `json:"id"`
	TokenHash string    `json:"token"`
	IP        string    `json:"ip"`
	LastLogin time.Time `json:"lastLogin"`
	Metadata  Metadata  `json:"device,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewBoltStore(db *bbolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketAccounts, bucketByUsername, bucketByEmail, bucketSessionTokens} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) CreateUser(ctx context.Context, user *User) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if exists(tx, user.Username, user.Email) {
			return ErrAccountExists
		}

		accounts := tx.Bucket(bucketAccounts)
		seq, err := accounts.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate account id: %w", err)
		}

		now := time.Now()
		user.ID = uint(seq)
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}
		user.UpdatedAt = now

		doc := accountDocument{
			ID:           user.ID,
			UserID:       user.UserID,
			Username:     user.Username,
			Email:        user.Email,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
			UpdatedAt:    user.UpdatedAt,
			Sessions:     []sessionDocument{},
		}
		if err := putDocument(tx, &doc); err != nil {
			return err
		}

		if err := tx.Bucket(bucketByUsername).Put([]byte(user.Username), []byte(user.UserID)); err != nil {
			return fmt.Errorf("failed to index username: %w", err)
		}
		if err := tx.Bucket(bucketByEmail).Put([]byte(user.Email), []byte(user.UserID)); err != nil {
			return fmt.Errorf("failed to index email: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) GetByID(ctx context.Context, userID string) (*User, error) {
	var user *User
	err := s.db.View(func(tx *bbolt.Tx) error {
		doc, err := getDocument(tx, userID)
		if err != nil {
			return err
		}
		user = doc.user()
		return nil
	})
	return user, err
}

func (s *BoltStore) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	var user *User
	err := s.db.View(func(tx *bbolt.Tx) error {
		userID := tx.Bucket(bucketByUsername).Get([]byte(identifier))
		if userID == nil {
			userID = tx.Bucket(bucketByEmail).Get([]byte(identifier))
		}
		if userID == nil {
			return ErrNotFound
		}

		doc, err := getDocument(tx, string(userID))
		if err != nil {
			return err
		}
		user = doc.user()
		return nil
	})
	return user, err
}

func (s *BoltStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = exists(tx, username, email)
		return nil
	})
	return found, err
}

func (s *BoltStore) AppendSession(ctx context.Context, userID string, session *DeviceSession, maxSessions int) (int, error) {
	evicted := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		doc, err := getDocument(tx, userID)
		if err != nil {
			return err
		}

		session.UserID = userID
		if session.CreatedAt.IsZero() {
			session.CreatedAt = time.Now()
		}
		doc.Sessions = append(doc.Sessions, sessionDocument{
			PublicID:  session.PublicID,
			TokenHash: session.TokenHash,
			IP:        session.IP,
			LastLogin: session.LastLogin,
			Metadata:  session.Metadata,
			CreatedAt: session.CreatedAt,
		})

		tokens := tx.Bucket(bucketSessionTokens)
		if err := tokens.Put([]byte(session.TokenHash), []byte(userID)); err != nil {
			return fmt.Errorf("failed to index session: %w", err)
		}

		if maxSessions > 0 && len(doc.Sessions) > maxSessions {
			drop := doc.Sessions[:len(doc.Sessions)-maxSessions]
			for _, old := range drop {
				if err := tokens.Delete([]byte(old.TokenHash)); err != nil {
					return fmt.Errorf("failed to unindex session: %w", err)
				}
			}
			evicted = len(drop)
			doc.Sessions = append([]sessionDocument(nil), doc.Sessions[len(drop):]...)
		}

		return putDocument(tx, doc)
	})

	return evicted, err
}

func (s *BoltStore) FindByRefreshToken(ctx context.Context, token string) (*User, *DeviceSession, error) {
	var (
		user    *User
		session *DeviceSession
	)

	hash := HashToken(token)
	err := s.db.View(func(tx *bbolt.Tx) error {
		userID := tx.Bucket(bucketSessionTokens).Get([]byte(hash))
		if userID == nil {
			return ErrNotFound
		}

		doc, err := getDocument(tx, string(userID))
		if err != nil {
			return err
		}

		idx := doc.sessionIndex(hash)
		if idx < 0 {
			return ErrNotFound
		}

		user = doc.user()
		session = doc.session(idx)
		return nil
	})

	return user, session, err
}

func (s *BoltStore) HasSession(ctx context.Context, userID, token string) (bool, error) {
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		doc, err := getDocument(tx, userID)
		if err == ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = doc.sessionIndex(HashToken(token)) >= 0
		return nil
	})
	return found, err
}

func (s *BoltStore) ReplaceSessionToken(ctx context.Context, userID, oldToken, newToken string, at time.Time) (bool, error) {
	replaced := false
	oldHash, newHash := HashToken(oldToken), HashToken(newToken)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		doc, err := getDocument(tx, userID)
		if err == ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		idx := doc.sessionIndex(oldHash)
		if idx < 0 {
			return nil
		}

		doc.Sessions[idx].TokenHash = newHash
		doc.Sessions[idx].LastLogin = at

		tokens := tx.Bucket(bucketSessionTokens)
		if err := tokens.Delete([]byte(oldHash)); err != nil {
			return fmt.Errorf("failed to unindex session: %w", err)
		}
		if err := tokens.Put([]byte(newHash), []byte(userID)); err != nil {
			return fmt.Errorf("failed to index session: %w", err)
		}

		replaced = true
		return putDocument(tx, doc)
	})

	return replaced, err
}

func (s *BoltStore) RemoveSessionByToken(ctx context.Context, userID, token string) (bool, error) {
	removed := false
	hash := HashToken(token)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		owner := tx.Bucket(bucketSessionTokens).Get([]byte(hash))
		if owner == nil || (userID != "" && string(owner) != userID) {
			return nil
		}

		doc, err := getDocument(tx, string(owner))
		if err != nil {
			return err
		}

		removed, err = removeSession(tx, doc, doc.sessionIndex(hash))
		return err
	})

	return removed, err
}

func (s *BoltStore) RemoveSessionByID(ctx context.Context, userID, publicID string) (bool, error) {
	removed := false

	err := s.db.Update(func(tx *bbolt.Tx) error {
		doc, err := getDocument(tx, userID)
		if err == ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		idx := -1
		for i, session := range doc.Sessions {
			if session.PublicID == publicID {
				idx = i
				break
			}
		}

		removed, err = removeSession(tx, doc, idx)
		return err
	})

	return removed, err
}

func (s *BoltStore) ListSessions(ctx context.Context, userID string) ([]DeviceSession, error) {
	var sessions []DeviceSession

	err := s.db.View(func(tx *bbolt.Tx) error {
		doc, err := getDocument(tx, userID)
		if err == ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		for i := range doc.Sessions {
			sessions = append(sessions, *doc.session(i))
		}
		return nil
	})

	return sessions, err
}

func (s *BoltStore) RemoveSessionsIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64

	err := s.db.Update(func(tx *bbolt.Tx) error {
		accounts := tx.Bucket(bucketAccounts)
		tokens := tx.Bucket(bucketSessionTokens)

		var changed []*accountDocument
		err := accounts.ForEach(func(_, value []byte) error {
			var doc accountDocument
			if err := json.Unmarshal(value, &doc); err != nil {
				return fmt.Errorf("failed to decode account: %w", err)
			}

			kept := doc.Sessions[:0]
			for _, session := range doc.Sessions {
				if session.LastLogin.Before(cutoff) {
					if err := tokens.Delete([]byte(session.TokenHash)); err != nil {
						return err
					}
					removed++
					continue
				}
				kept = append(kept, session)
			}

			if len(kept) != len(doc.Sessions) {
				doc.Sessions = kept
				changed = append(changed, &doc)
			}
			return nil
		})
		if err != nil {
			return err
		}

		// Writing inside ForEach is not allowed.
		for _, doc := range changed {
			if err := putDocument(tx, doc); err != nil {
				return err
			}
		}
		return nil
	})

	return removed, err
}

func exists(tx *bbolt.Tx, username, email string) bool {
	return tx.Bucket(bucketByUsername).Get([]byte(username)) != nil ||
		tx.Bucket(bucketByEmail).Get([]byte(email)) != nil
}

func getDocument(tx *bbolt.Tx, userID string) (*accountDocument, error) {
	data := tx.Bucket(bucketAccounts).Get([]byte(userID))
	if data == nil {
		return nil, ErrNotFound
	}

	var doc accountDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode account: %w", err)
	}
	return &doc, nil
}

func putDocument(tx *bbolt.Tx, doc *accountDocument) error {
	doc.UpdatedAt = time.Now()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}
	if err := tx.Bucket(bucketAccounts).Put([]byte(doc.UserID), data); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func removeSession(tx *bbolt.Tx, doc *accountDocument, idx int) (bool, error) {
	if idx < 0 {
		return false, nil
	}

	if err := tx.Bucket(bucketSessionTokens).Delete([]byte(doc.Sessions[idx].TokenHash)); err != nil {
		return false, fmt.Errorf("failed to unindex session: %w", err)
	}
	doc.Sessions = append(doc.Sessions[:idx], doc.Sessions[idx+1:]...)

	if err := putDocument(tx, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (d *accountDocument) user() *User {
	return &User{
		ID:           d.ID,
		UserID:       d.UserID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (d *accountDocument) sessionIndex(hash string) int {
	for i, session := range d.Sessions {
		if session.TokenHash == hash {
			return i
		}
	}
	return -1
}

func (d *accountDocument) session(idx int) *DeviceSession {
	s := d.Sessions[idx]
	return &DeviceSession{
		ID:        uint(idx + 1),
		PublicID:  s.PublicID,
		UserID:    d.UserID,
		TokenHash: s.TokenHash,
		IP:        s.IP,
		LastLogin: s.LastLogin,
		Metadata:  s.Metadata,
		CreatedAt: s.CreatedAt,
	}
}
