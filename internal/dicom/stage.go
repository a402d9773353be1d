package dicom

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// EncryptedExtension marks files protected by the case password.
const EncryptedExtension = ".enc"

// StageProgressSpan is the share of an operation's progress spent copying.
// Later steps of the same operation report from there up to 100.
const StageProgressSpan = 20

// Decryptor decrypts an encrypted file next to itself, writing the
// plaintext to the path with EncryptedExtension removed. It reports whether
// path was encrypted at all.
type Decryptor interface {
	Decrypt(path, password string) (bool, error)
}

// NoDecryption is the Decryptor for cases stored in the clear.
type NoDecryption struct{}

// Decrypt never decrypts anything.
func (NoDecryption) Decrypt(string, string) (bool, error) { return false, nil }

// Staging is a scratch directory holding copies of the files of one
// operation. Close removes it.
type Staging struct {
	Dir   string
	Files []string
}

// Close removes the scratch directory and everything in it.
func (s *Staging) Close() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	return os.RemoveAll(s.Dir)
}

// StageOptions configures Stage.
type StageOptions struct {
	// Parent is where the scratch directory is created; empty means the
	// system temp dir.
	Parent    string
	Password  string
	Decryptor Decryptor
	Progress  ProgressFunc
	Log       logrus.FieldLogger
}

// Stage copies files into a fresh scratch directory, decrypting them first
// when a password is set. Decrypted plaintext next to the source is removed
// once copied. Copies are named after the source with the encryption
// extension stripped and a .DCM suffix. A file that cannot be copied is
// logged and left out; Stage fails only when nothing at all could be
// staged, or on scratch directory and decryption errors. On error the
// scratch directory is already removed; on success the caller must Close
// the Staging.
func Stage(files []string, opts StageOptions) (_ *Staging, err error) {
	if opts.Decryptor == nil {
		opts.Decryptor = NoDecryption{}
	}
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	report := MonotonicProgress(opts.Progress)
	report(0)

	dir, err := os.MkdirTemp(opts.Parent, "rtfusion-stage-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	st := &Staging{Dir: dir}
	defer func() {
		if err != nil {
			_ = st.Close()
		}
	}()

	used := make(map[string]int)
	var lastErr error
	for i, src := range files {
		encrypted := false
		if opts.Password != "" {
			encrypted, err = opts.Decryptor.Decrypt(src, opts.Password)
			if err != nil {
				return nil, fmt.Errorf("decrypt %s: %w", src, err)
			}
		}

		plain := strings.TrimSuffix(src, EncryptedExtension)
		name := filepath.Base(plain)
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		used[filepath.Base(plain)]++
		dst := filepath.Join(dir, name+".DCM")

		copyErr := copyFile(plain, dst)
		if encrypted {
			if rmErr := os.Remove(plain); rmErr != nil {
				log.WithField("file", plain).WithError(rmErr).Warn("could not remove decrypted plaintext")
			}
		}
		if copyErr != nil {
			log.WithField("file", src).WithError(copyErr).Debug("skipping file that cannot be staged")
			_ = os.Remove(dst)
			lastErr = copyErr
		} else {
			st.Files = append(st.Files, dst)
		}

		report((i + 1) * StageProgressSpan / len(files))
	}
	if len(files) > 0 && len(st.Files) == 0 {
		return nil, fmt.Errorf("stage: %w: %w", ErrNoValidDICOM, lastErr)
	}
	return st, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
