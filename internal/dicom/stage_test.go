package dicom

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// xorDecryptor "decrypts" path.enc by XOR-ing every byte with the first
// password byte.
type xorDecryptor struct{ calls int }

func (d *xorDecryptor) Decrypt(path, password string) (bool, error) {
	d.calls++
	if !strings.HasSuffix(path, EncryptedExtension) {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	for i := range data {
		data[i] ^= password[0]
	}
	return true, os.WriteFile(strings.TrimSuffix(path, EncryptedExtension), data, 0644)
}

func TestStage_CopiesFiles(t *testing.T) {
	src := t.TempDir()
	a := filepath.Join(src, "a")
	b := filepath.Join(t.TempDir(), "a") // same base name, other directory
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("payload "+p), 0644); err != nil {
			t.Fatal(err)
		}
	}

	var progress []int
	st, err := Stage([]string{a, b}, StageOptions{Parent: t.TempDir(), Progress: func(p int) { progress = append(progress, p) }})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer func() { _ = st.Close() }()

	if len(st.Files) != 2 {
		t.Fatalf("staged %d files, want 2", len(st.Files))
	}
	if filepath.Base(st.Files[0]) != "a.DCM" || filepath.Base(st.Files[1]) != "a_1.DCM" {
		t.Errorf("staged names = %v", st.Files)
	}
	got, err := os.ReadFile(st.Files[1])
	if err != nil || string(got) != "payload "+b {
		t.Errorf("staged content = %q, %v", got, err)
	}
	if progress[len(progress)-1] != StageProgressSpan {
		t.Errorf("progress = %v, want to end at %d", progress, StageProgressSpan)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(st.Dir); !os.IsNotExist(err) {
		t.Error("staging directory should be removed on Close")
	}
}

func TestStage_Decrypts(t *testing.T) {
	src := t.TempDir()
	enc := filepath.Join(src, "IMG0001.enc")
	plain := []byte("secret slice")
	cipher := make([]byte, len(plain))
	for i := range plain {
		cipher[i] = plain[i] ^ 'k'
	}
	if err := os.WriteFile(enc, cipher, 0644); err != nil {
		t.Fatal(err)
	}

	dec := &xorDecryptor{}
	st, err := Stage([]string{enc}, StageOptions{Parent: t.TempDir(), Password: "key", Decryptor: dec})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer func() { _ = st.Close() }()

	if filepath.Base(st.Files[0]) != "IMG0001.DCM" {
		t.Errorf("staged name = %s", st.Files[0])
	}
	got, _ := os.ReadFile(st.Files[0])
	if string(got) != string(plain) {
		t.Errorf("staged content = %q, want %q", got, plain)
	}
	if _, err := os.Stat(filepath.Join(src, "IMG0001")); !os.IsNotExist(err) {
		t.Error("decrypted plaintext next to the source should be removed")
	}
	if _, err := os.Stat(enc); err != nil {
		t.Error("encrypted source must be kept")
	}
}

func TestStage_NoPasswordSkipsDecryptor(t *testing.T) {
	src := filepath.Join(t.TempDir(), "x.dcm")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	dec := &xorDecryptor{}
	st, err := Stage([]string{src}, StageOptions{Parent: t.TempDir(), Decryptor: dec})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer func() { _ = st.Close() }()
	if dec.calls != 0 {
		t.Errorf("decryptor called %d times without a password", dec.calls)
	}
}

func TestStage_SkipsMissingFile(t *testing.T) {
	src := t.TempDir()
	good := filepath.Join(src, "IM1")
	if err := os.WriteFile(good, []byte("slice"), 0644); err != nil {
		t.Fatal(err)
	}

	var progress []int
	st, err := Stage([]string{filepath.Join(src, "IM0"), good}, StageOptions{
		Parent:   t.TempDir(),
		Progress: func(p int) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	defer func() { _ = st.Close() }()

	if len(st.Files) != 1 || filepath.Base(st.Files[0]) != "IM1.DCM" {
		t.Errorf("staged = %v, want only IM1.DCM", st.Files)
	}
	entries, _ := os.ReadDir(st.Dir)
	if len(entries) != 1 {
		t.Errorf("staging directory holds %d entries, want 1", len(entries))
	}
	if progress[len(progress)-1] != StageProgressSpan {
		t.Errorf("progress = %v, want to end at %d", progress, StageProgressSpan)
	}
}

func TestStage_NothingStagedCleansUp(t *testing.T) {
	parent := t.TempDir()
	_, err := Stage([]string{filepath.Join(parent, "nope")}, StageOptions{Parent: parent})
	if !errors.Is(err, ErrNoValidDICOM) {
		t.Fatalf("Stage error = %v, want ErrNoValidDICOM", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Stage error = %v, should carry the copy failure", err)
	}
	entries, _ := os.ReadDir(parent)
	if len(entries) != 0 {
		t.Errorf("staging directory left behind: %v", entries)
	}
}

func TestStage_DecryptErrorAborts(t *testing.T) {
	parent := t.TempDir()
	missing := filepath.Join(parent, "IMG0001.enc")
	_, err := Stage([]string{missing}, StageOptions{Parent: parent, Password: "key", Decryptor: &xorDecryptor{}})
	if err == nil || errors.Is(err, ErrNoValidDICOM) {
		t.Fatalf("Stage error = %v, want the decryption failure", err)
	}
	entries, _ := os.ReadDir(parent)
	if len(entries) != 0 {
		t.Errorf("staging directory left behind: %v", entries)
	}
}

func TestStaging_CloseNil(t *testing.T) {
	var st *Staging
	if err := st.Close(); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Close on nil staging = %v", err)
	}
}
