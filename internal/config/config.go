package config

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nicolagi/memo/internal/clock"
)

var (
	// DefaultBaseDirectoryPath is where a replica stores configuration and data.
	// It defaults to $MEMO_BASE if it is set, otherwise it defaults to $HOME/lib/memo.
	DefaultBaseDirectoryPath string

	// DO NOT CHANGE.
	//
	// I had to back out changes to make the block size configurable. That
	// knob turned out to be a problem: If a file system has blocks of a
	// variety of different sizes, contents can't be compared for equality
	// just by looking at the list of block hashes. I don't want this
	// package to read up large files to determine if they're equal or
	// not, as that would make the merge operation slow.
	//
	// The block size could still be configurable per file system, but that
	// configuration should be written _once_ and never changed (in
	// conventional file systems, in the superblocks). Since we've no
	// superblocks (for now?) I decided to remove the configuration knob
	// entirely.
	BlockSize uint32 = 1024 * 1024
)

func init() {
	if base := os.Getenv("MEMO_BASE"); base != "" {
		DefaultBaseDirectoryPath = base
	} else {
		// The portable way of doing this is by using the os/user package,
		// but I only intend to run this on Linux or NetBSD.
		DefaultBaseDirectoryPath = os.ExpandEnv("$HOME/lib/memo")
	}
}

type C struct {
	// ReplicaID identifies this replica in every Lamport timestamp and
	// FileID it mints; 32 hex digits, generated once by Initialize and
	// never changed thereafter (changing it after data has been written
	// would let two replicas mint colliding New(FileID) values).
	ReplicaID string

	// GitRemote is the remote this replica's GitProvider fetches baseline
	// commits from.
	GitRemote string

	// 64 hex digits - do not lose this or you lose access to all
	// data.
	EncryptionKey string

	// Path to cache. Defaults to $HOME/lib/memo/cache.
	CacheDirectory string

	// Permanent storage type - can be "disk", "s3", "rpc" or "null" at present.
	Storage string

	// These only make sense if the storage type is "s3".
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	// These only make sense if the storage type is "disk".
	// If the path is relative, it will be assumed relative to the base dir.
	DiskStoreDir string

	// Only makes sense if the storage type is "rpc": the address of a peer
	// replica's storage.StoreService to dial over net/rpc.
	RPCAddress string

	// Directory holding the config file and other files.
	// Other directories and files are derived from this.
	base string

	// Computed from the corresponding string at load time.
	encryptionKey []byte

	// Computed from ReplicaID at load time.
	replica clock.ReplicaID
}

// Replica returns the parsed replica identity, for constructing the
// work tree's clocks.
func (c *C) Replica() clock.ReplicaID {
	return c.replica
}

// Load loads the configuration from the file called "config" in the provided base
// directory.
func Load(base string) (*C, error) {
	filename := filepath.Join(base, "config")
	if fi, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	} else if fi.Mode()&0077 != 0 {
		return nil, fmt.Errorf("config.Load %q: mode is %#o, want at most %#o",
			filename, fi.Mode()&0777, fi.Mode()&0700)
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Ignore error closing file opened only for reading.
		_ = f.Close()
	}()
	c, err := load(f)
	if err == nil {
		c.base = base
	}
	c.encryptionKey, err = hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, errorf("Load", "%q: %v", c.EncryptionKey, err)
	}
	c.replica, err = clock.ReplicaIDFromHex(c.ReplicaID)
	if err != nil {
		return nil, errorf("Load", "%v", err)
	}
	if c.DiskStoreDir != "" && !filepath.IsAbs(c.DiskStoreDir) {
		c.DiskStoreDir = filepath.Clean(filepath.Join(c.base, c.DiskStoreDir))
	}
	return c, err
}

func load(f io.Reader) (*C, error) {
	c := C{}
	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		i := strings.IndexAny(line, " 	")
		if i == -1 {
			return nil, fmt.Errorf("load: no separator in %q", line)
		}
		switch key, val := line[:i], strings.TrimSpace(line[i:]); key {
		case "cache-directory":
			c.CacheDirectory = val
		case "disk-store-dir":
			c.DiskStoreDir = val
		case "encryption-key":
			c.EncryptionKey = val
		case "replica-id":
			c.ReplicaID = val
		case "git-remote":
			c.GitRemote = val
		case "s3-bucket":
			c.S3Bucket = val
		case "s3-access-key":
			c.S3AccessKey = val
		case "s3-secret-key":
			c.S3SecretKey = val
		case "s3-region":
			c.S3Region = val
		case "storage":
			c.Storage = val
		case "rpc-address":
			c.RPCAddress = val
		default:
			return nil, fmt.Errorf("load: unknown key %q", key)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return &c, nil
}

func (c *C) CacheDirectoryPath() string {
	if c.CacheDirectory != "" {
		return c.CacheDirectory
	}
	return path.Join(c.base, "cache")
}

// An instance of *storage.Paired will log keys to propagate from the
// fast store to the slow store to this append-only log.  This will
// ensure all data is eventually copied to the slow store, even if
// the process restarts.
func (c *C) PropagationLogFilePath() string {
	return path.Join(c.base, "propagation.log")
}

func (c *C) StagingDirectoryPath() string {
	return path.Join(c.base, "staging")
}

func (c *C) EncryptionKeyBytes() []byte {
	return c.encryptionKey
}

// Initialize generates an initial configuration at the given directory,
// minting a fresh replica identity.
func Initialize(baseDir string) error {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return fmt.Errorf("%q: could not mkdir: %w", baseDir, err)
	}
	path := filepath.Join(baseDir, "config")
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("%q: already exists", path)
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("%q: could not determine if it exists: %w", path, err)
	}

	replica, err := clock.NewReplicaID()
	if err != nil {
		return errorf("Initialize", "%v", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "replica-id %s\n", replica)
	b := make([]byte, 32)
	n, err := rand.Read(b)
	if err != nil {
		return fmt.Errorf("could not read 32 random bytes: %w", err)
	}
	if n != 32 {
		return fmt.Errorf("could not read 32 random bytes, got only %d", n)
	}
	fmt.Fprintf(&buf, "encryption-key %02x\n", b)
	buf.WriteString("storage disk\n")
	buf.WriteString("disk-store-dir permanent\n")
	err = ioutil.WriteFile(path, buf.Bytes(), 0600)
	if err != nil {
		return fmt.Errorf("config.Initialize %q: %w", path, err)
	}
	return nil
}
