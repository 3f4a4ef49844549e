// Package localstore is the student client's on-disk cache. It remembers
// the last used identity details so they can be pre-filled; the server
// stays authoritative for everything it holds.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketProfile = []byte("Profile")
	bucketHistory = []byte("History")

	keyProfile = []byte("current")
)

// maxHistory bounds the remembered submissions.
const maxHistory = 50

// historyKeyLayout is fixed width so history keys sort chronologically.
const historyKeyLayout = "2006-01-02T15:04:05.000000000Z"

// Profile holds the defaults offered on the next run.
type Profile struct {
	Server        string `json:"server"`
	Email         string `json:"email"`
	StudentName   string `json:"student_name"`
	StudentNumber string `json:"student_number"`
	Token         string `json:"token,omitempty"`
}

// Submission is a locally remembered upload.
type Submission struct {
	WorkID    string    `json:"work_id"`
	TaskTitle string    `json:"task_title"`
	Images    int       `json:"images"`
	SentAt    time.Time `json:"sent_at"`
}

// Store wraps a bbolt file.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the cache file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketProfile, bucketHistory} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Profile returns the saved profile, or a zero Profile if none was saved.
func (s *Store) Profile() (Profile, error) {
	var p Profile
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProfile).Get(keyProfile)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &p)
	})
	return p, err
}

// SaveProfile replaces the saved profile.
func (s *Store) SaveProfile(p Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProfile).Put(keyProfile, data)
	})
}

// ClearToken forgets the session token but keeps the other defaults.
func (s *Store) ClearToken() error {
	p, err := s.Profile()
	if err != nil {
		return err
	}
	p.Token = ""
	return s.SaveProfile(p)
}

// Remember appends sub to the history, trimming the oldest entries.
func (s *Store) Remember(sub Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		key := []byte(sub.SentAt.UTC().Format(historyKeyLayout) + "/" + sub.WorkID)
		if err := b.Put(key, data); err != nil {
			return err
		}
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for len(keys) > maxHistory {
			if err := b.Delete(keys[0]); err != nil {
				return err
			}
			keys = keys[1:]
		}
		return nil
	})
}

// History returns remembered submissions, newest first.
func (s *Store) History() ([]Submission, error) {
	var out []Submission
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketHistory).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var sub Submission
			if err := json.Unmarshal(v, &sub); err != nil {
				return err
			}
			out = append(out, sub)
		}
		return nil
	})
	return out, err
}
