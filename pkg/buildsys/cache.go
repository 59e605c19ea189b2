package buildsys

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/scriptisto/scriptisto/pkg/buildspec"
)

// MetadataFile is created inside every cache directory
const MetadataFile = ".scriptisto.db"

var (
	metaBucket = []byte("build")
	metaKey    = []byte("meta")
)

// Metadata is persisted in the cache directory after every successful build
type Metadata struct {
	ScriptPath   string
	BuiltAt      time.Time
	BuildOnceCmd string
	BuildOnceAt  time.Time
	DockerImage  string
	// ConfigHash identifies the embedded configuration the artifact was built with
	ConfigHash   string
}

func init() {
	gob.Register(Metadata{})
}

// ConfigHash returns the value stored in Metadata.ConfigHash for the given spec.
func ConfigHash(spec *buildspec.BuildSpec) string {
	sum := sha256.Sum256([]byte(spec.Config))
	return hex.EncodeToString(sum[:])
}

// CachePath returns the cache directory for the given absolute script path.
func CachePath(cacheRoot, absScript string) string {
	rel := strings.TrimPrefix(absScript, filepath.VolumeName(absScript))
	rel = strings.TrimLeft(rel, `/\`)
	if vol := filepath.VolumeName(absScript); vol != "" {
		rel = filepath.Join(strings.Trim(vol, `:\/`), rel)
	}

	return filepath.Join(cacheRoot, "bin", rel)
}

// Store wraps the metadata database of a single cache directory
type Store struct {
	db *bolt.DB
}

// storeLockTimeout is how long OpenStore waits for the database lock before it reports that
// another build is running.
var storeLockTimeout = 1 * time.Second

// OpenStore opens (or creates) the metadata database in the given cache directory. The database
// stays locked until Close, so concurrent builds of the same script wait for each other.
func OpenStore(ctx context.Context, cacheDir string) (*Store, error) {
	dbPath := filepath.Join(cacheDir, MetadataFile)
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{
		Timeout: storeLockTimeout,
	})
	if eris.Is(err, berrors.ErrTimeout) {
		log(ctx).Info().Str("cache", cacheDir).Msg("waiting for another build of this script")
		db, err = bolt.Open(dbPath, 0o600, &bolt.Options{})
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open metadata database %s", dbPath)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "failed to initialize metadata database %s", dbPath)
	}

	return &Store{db: db}, nil
}

// ReadMetadata loads the metadata of a cache directory without creating anything. A missing
// directory or database results in empty metadata.
func ReadMetadata(cacheDir string) (Metadata, error) {
	dbPath := filepath.Join(cacheDir, MetadataFile)
	_, err := os.Stat(dbPath)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return Metadata{}, nil
		}
		return Metadata{}, eris.Wrapf(err, "failed to check %s", dbPath)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{
		Timeout:  5 * time.Second,
		ReadOnly: true,
	})
	if err != nil {
		return Metadata{}, eris.Wrapf(err, "failed to open metadata database %s", dbPath)
	}
	defer db.Close()

	return (&Store{db: db}).Load()
}

// Load returns the stored metadata or an empty record if nothing was stored, yet.
func (s *Store) Load() (Metadata, error) {
	var meta Metadata
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(metaBucket)
		if bucket == nil {
			return nil
		}

		item := bucket.Get(metaKey)
		if item == nil {
			return nil
		}

		return gob.NewDecoder(bytes.NewReader(item)).Decode(&meta)
	})
	if err != nil {
		return Metadata{}, eris.Wrap(err, "failed to read build metadata")
	}

	return meta, nil
}

// Save replaces the stored metadata.
func (s *Store) Save(meta Metadata) error {
	var buffer bytes.Buffer
	err := gob.NewEncoder(&buffer).Encode(meta)
	if err != nil {
		return eris.Wrap(err, "failed to encode build metadata")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(metaKey, buffer.Bytes())
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
