// Package store persists the panel's local state in a single bbolt file.
//
// Each logical collection (combos, orders, cart) plus the session record
// lives under its own key as one JSON blob, mirroring the browser panel's
// localStorage layout. The store does no validation; it is a pure get/set
// layer. Reads always decode into fresh values, so callers never alias the
// persisted state.
package store

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

const bucketName = "panel"

// Logical keys inside the panel bucket.
const (
	keyCombos  = "combos"
	keyOrders  = "orders"
	keyCart    = "cart"
	keySession = "session"
)

// Store is a bolt-backed key-value store for the panel's durable state.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bolt file at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a typed view over one bolt transaction. Writes made through an
// update Tx are committed together, which is what makes the order
// repository's stock-decrement-plus-order-append atomic.
type Tx struct {
	bucket *bolt.Bucket
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&Tx{bucket: btx.Bucket([]byte(bucketName))})
	})
}

// Update runs fn in a read-write transaction. Either every write in fn is
// persisted or none is.
func (s *Store) Update(fn func(tx *Tx) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&Tx{bucket: btx.Bucket([]byte(bucketName))})
	})
}

func getJSON(tx *Tx, key string, out interface{}) error {
	raw := tx.bucket.Get([]byte(key))
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func putJSON(tx *Tx, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return tx.bucket.Put([]byte(key), raw)
}

// Combos returns the combo collection in insertion order. Missing key means
// an empty collection, never an error.
func (tx *Tx) Combos() ([]Combo, error) {
	var combos []Combo
	if err := getJSON(tx, keyCombos, &combos); err != nil {
		return nil, err
	}
	return combos, nil
}

// PutCombos replaces the entire combo collection (last-writer-wins).
func (tx *Tx) PutCombos(combos []Combo) error {
	if combos == nil {
		combos = []Combo{}
	}
	return putJSON(tx, keyCombos, combos)
}

// Orders returns the order collection in insertion order.
func (tx *Tx) Orders() ([]Order, error) {
	var orders []Order
	if err := getJSON(tx, keyOrders, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// PutOrders replaces the entire order collection.
func (tx *Tx) PutOrders(orders []Order) error {
	if orders == nil {
		orders = []Order{}
	}
	return putJSON(tx, keyOrders, orders)
}

// Cart returns the pending cart lines.
func (tx *Tx) Cart() ([]CartLine, error) {
	var lines []CartLine
	if err := getJSON(tx, keyCart, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// PutCart replaces the cart collection.
func (tx *Tx) PutCart(lines []CartLine) error {
	if lines == nil {
		lines = []CartLine{}
	}
	return putJSON(tx, keyCart, lines)
}

// Session returns the stored session user, or nil if nobody is signed in.
func (tx *Tx) Session() (*Session, error) {
	var sess *Session
	if err := getJSON(tx, keySession, &sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// PutSession stores the session user. A nil session clears it.
func (tx *Tx) PutSession(sess *Session) error {
	if sess == nil {
		return tx.bucket.Delete([]byte(keySession))
	}
	return putJSON(tx, keySession, sess)
}

// --- Single-call conveniences ---

// Combos reads the combo collection in its own transaction.
func (s *Store) Combos() ([]Combo, error) {
	var combos []Combo
	err := s.View(func(tx *Tx) error {
		var err error
		combos, err = tx.Combos()
		return err
	})
	return combos, err
}

// PutCombos replaces the combo collection in its own transaction.
func (s *Store) PutCombos(combos []Combo) error {
	return s.Update(func(tx *Tx) error { return tx.PutCombos(combos) })
}

// Orders reads the order collection in its own transaction.
func (s *Store) Orders() ([]Order, error) {
	var orders []Order
	err := s.View(func(tx *Tx) error {
		var err error
		orders, err = tx.Orders()
		return err
	})
	return orders, err
}

// PutOrders replaces the order collection in its own transaction.
func (s *Store) PutOrders(orders []Order) error {
	return s.Update(func(tx *Tx) error { return tx.PutOrders(orders) })
}

// Cart reads the cart lines in their own transaction.
func (s *Store) Cart() ([]CartLine, error) {
	var lines []CartLine
	err := s.View(func(tx *Tx) error {
		var err error
		lines, err = tx.Cart()
		return err
	})
	return lines, err
}

// PutCart replaces the cart lines in their own transaction.
func (s *Store) PutCart(lines []CartLine) error {
	return s.Update(func(tx *Tx) error { return tx.PutCart(lines) })
}

// Session reads the stored session user.
func (s *Store) Session() (*Session, error) {
	var sess *Session
	err := s.View(func(tx *Tx) error {
		var err error
		sess, err = tx.Session()
		return err
	})
	return sess, err
}

// PutSession stores (or clears, when nil) the session user.
func (s *Store) PutSession(sess *Session) error {
	return s.Update(func(tx *Tx) error { return tx.PutSession(sess) })
}
