// Package store saves and loads bpe vocabularies as JSON files.
//
// The file is one JSON object mapping each token id, as a decimal string, to its value. Keys are written
// in increasing id order:
//
//	{
//	  "0": "\u0000",
//	  ...
//	  "256": "th",
//	  "257": "<|unknown|>"
//	}
//
// Token values are byte strings, not necessarily valid UTF-8, so they are stored as their ISO-8859-1
// (Latin-1) reading: every byte becomes the character with the same code point. This maps any byte string
// to a JSON string and back without loss.
//
// Only the id to value mapping is stored: special tokens and the unknown token are configured again on the
// tokenizer that uses the loaded vocabulary.
package store

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/gomlx/go-bpe/tokenizers/bpe"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"k8s.io/klog/v2"
)

var (
	// ErrInvalidFormat is returned (wrapped) by Unmarshal and Load for content that is not a vocabulary.
	ErrInvalidFormat = errors.New("invalid vocabulary file")

	// DefaultDirCreationPerm is used when Save creates the directory of the destination file.
	DefaultDirCreationPerm = os.FileMode(0755)

	// DefaultFileCreationPerm is the permission of files written by Save.
	DefaultFileCreationPerm = os.FileMode(0644)
)

// substitute replaces characters that don't exist in Latin-1 when loading.
const substitute = '\x1a'

// Marshal returns the JSON representation of the vocabulary.
func Marshal(vocab *bpe.Vocabulary) ([]byte, error) {
	if vocab == nil {
		return nil, errors.New("nil vocabulary")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	decoder := charmap.ISO8859_1.NewDecoder()

	buf.WriteString("{")
	for id, value := range vocab.All() {
		if id > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  \"")
		buf.WriteString(strconv.Itoa(id))
		buf.WriteString("\": ")
		latin1, err := decoder.String(value)
		if err != nil {
			return nil, errors.Wrapf(err, "converting value of token %d", id)
		}
		if err := enc.Encode(latin1); err != nil {
			return nil, errors.Wrapf(err, "encoding value of token %d", id)
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline.
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// Unmarshal parses the JSON representation of a vocabulary.
//
// Keys must be exactly the ids 0 to n-1 and values must be distinct. Characters above U+00FF, which
// Marshal never writes, are replaced by U+001A (SUB).
func Unmarshal(data []byte) (*bpe.Vocabulary, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(ErrInvalidFormat, "%v", err)
	}
	if entries == nil {
		return nil, errors.Wrap(ErrInvalidFormat, "expected a JSON object")
	}

	values := make([]string, len(entries))
	seen := make([]bool, len(entries))
	encoder := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	var replaced int
	for key, value := range entries {
		id, err := strconv.Atoi(key)
		if err != nil || strconv.Itoa(id) != key {
			return nil, errors.Wrapf(ErrInvalidFormat, "key %q is not a token id", key)
		}
		if id < 0 || id >= len(entries) {
			return nil, errors.Wrapf(ErrInvalidFormat, "token id %d out of the range 0-%d: ids must be contiguous",
				id, len(entries)-1)
		}
		if seen[id] {
			return nil, errors.Wrapf(ErrInvalidFormat, "token id %d given more than once", id)
		}
		seen[id] = true
		for _, r := range value {
			if r > 0xff {
				replaced++
			}
		}
		raw, err := encoder.String(value)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidFormat, "value of token %d: %v", id, err)
		}
		values[id] = raw
	}
	if replaced > 0 {
		klog.Warningf("store: %d characters outside Latin-1 replaced by %q", replaced, substitute)
	}
	vocab, err := bpe.NewVocabularyFromValues(values)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidFormat, "%v", err)
	}
	return vocab, nil
}

// Load reads a vocabulary written by Save. Failures are returned as *Error.
func Load(path string) (*bpe.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	vocab, err := Unmarshal(data)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	klog.V(1).Infof("store: loaded %d tokens from %q", vocab.Size(), path)
	return vocab, nil
}

// Save writes the vocabulary to path, replacing any existing file. Failures are returned as *Error.
//
// The content is written to a uniquely named temporary file in the same directory and then renamed to
// path, so readers never see a partial file. A path+".lock" file serializes concurrent writers, across
// processes too.
func Save(path string, vocab *bpe.Vocabulary) error {
	data, err := Marshal(vocab)
	if err != nil {
		return &Error{Op: "save", Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirCreationPerm); err != nil {
		return &Error{Op: "save", Path: path, Err: errors.Wrap(err, "creating directory")}
	}

	lockPath := path + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		mainErr = writeAtomic(path, data)
	})
	if mainErr != nil {
		return &Error{Op: "save", Path: path, Err: mainErr}
	}
	if errLock != nil {
		return &Error{Op: "save", Path: path, Err: errors.WithMessagef(errLock, "while locking %q", lockPath)}
	}
	klog.V(1).Infof("store: saved %d tokens to %q", vocab.Size(), path)
	return nil
}

// writeAtomic writes data to a temporary file next to path and moves it to path.
func writeAtomic(path string, data []byte) error {
	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, DefaultFileCreationPerm)
	if err != nil {
		return errors.Wrapf(err, "creating temporary file %q", tmpPath)
	}
	var tmpFileClosed bool
	defer func() {
		// On error, close and remove the unfinished temporary file.
		if !tmpFileClosed {
			if err := tmpFile.Close(); err != nil {
				klog.Warningf("store: failed closing temporary file %q: %v", tmpPath, err)
			}
			if err := os.Remove(tmpPath); err != nil {
				klog.Warningf("store: failed removing temporary file %q: %v", tmpPath, err)
			}
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return errors.Wrapf(err, "writing temporary file %q", tmpPath)
	}
	if err := tmpFile.Sync(); err != nil {
		return errors.Wrapf(err, "syncing temporary file %q", tmpPath)
	}
	tmpFileClosed = true
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "closing temporary file %q", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "moving %q to %q", tmpPath, path)
	}
	return nil
}

// execOnFileLock opens the lockPath file (or creates if it doesn't yet exist), locks it, and executes fn.
// If lockPath is already locked, it polls every 20 to 40 milliseconds until it acquires the lock.
//
// The lock file is left in place.
func execOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		time.Sleep(time.Millisecond * time.Duration(20+rand.Intn(20)))
	}

	// Unlock even if fn panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Errorf("store: error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()

	fn()
	return
}
