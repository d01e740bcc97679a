package bill

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const extractionBucketName = "extractions"

// ExtractionRecord is one completed extraction kept for later inspection.
// The pipeline itself is stateless; history is a convenience for auditing
// what the service returned for a document.
type ExtractionRecord struct {
	ID          string    `json:"id"`
	DocumentRef string    `json:"document_ref"`
	Response    *Response `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
}

// DB defines the interface for extraction history operations.
type DB interface {
	// SaveExtraction stores a completed extraction record
	SaveExtraction(record *ExtractionRecord) error

	// GetExtraction retrieves a record by ID
	GetExtraction(id string) (*ExtractionRecord, error)

	// ListExtractions returns all stored records
	ListExtractions() ([]*ExtractionRecord, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(extractionBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveExtraction stores a completed extraction record.
func (b *BoltDB) SaveExtraction(record *ExtractionRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(extractionBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetExtraction retrieves a record by ID.
func (b *BoltDB) GetExtraction(id string) (*ExtractionRecord, error) {
	var record *ExtractionRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(extractionBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("extraction not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListExtractions returns all stored records.
func (b *BoltDB) ListExtractions() ([]*ExtractionRecord, error) {
	records := make([]*ExtractionRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(extractionBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record ExtractionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the database connection.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
