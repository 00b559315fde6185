// Package keystore finds and stores the ElevenLabs API key.
package keystore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"
	"golang.org/x/term"
)

// EnvVar is the environment variable checked before the key file.
const EnvVar = "ELEVENLABS_API_KEY"

const keyFileName = "api_key"

var (
	// ErrNoKey is returned when no key is configured.
	ErrNoKey = errors.New("no ElevenLabs API key found")

	// ErrEmptyKey is returned for a blank key.
	ErrEmptyKey = errors.New("API key cannot be empty")

	// ErrInvalidFormat is returned for keys that do not look like
	// ElevenLabs keys.
	ErrInvalidFormat = errors.New("invalid API key format: ElevenLabs API keys start with two lowercase letters followed by underscore (e.g., sk_, xi_)")
)

var keyPattern = regexp.MustCompile(`^[a-z]{2}_`)

// Source tells where a key came from.
type Source int

const (
	SourceNone Source = iota
	SourceEnv
	SourceFile
	SourcePrompt
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceEnv:
		return "environment"
	case SourceFile:
		return "key file"
	case SourcePrompt:
		return "prompt"
	default:
		return "none"
	}
}

type envConfig struct {
	APIKey string `env:"ELEVENLABS_API_KEY"`
}

// Store reads the key from the environment or a key file and writes it to
// the key file.
type Store struct {
	path    string
	environ map[string]string
}

// New returns a store backed by the key file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Default returns a store backed by the key file in the user data
// directory.
func Default(app string) (*Store, error) {
	scope := gap.NewScope(gap.User, app)
	path, err := scope.DataPath(keyFileName)
	if err != nil {
		return nil, fmt.Errorf("unable to find data directory: %w", err)
	}
	return New(path), nil
}

// Path returns the key file path.
func (s *Store) Path() string {
	return s.path
}

// Validate checks the format of key.
func Validate(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if !keyPattern.MatchString(key) || len(key) < 10 {
		return ErrInvalidFormat
	}
	return nil
}

// Get returns the key from the environment or, failing that, the key file.
func (s *Store) Get() (string, Source, error) {
	opts := env.Options{}
	if s.environ != nil {
		opts.Environment = s.environ
	}
	cfg, err := env.ParseAsWithOptions[envConfig](opts)
	if err != nil {
		return "", SourceNone, fmt.Errorf("unable to read environment: %w", err)
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key, SourceEnv, nil
	}

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", SourceNone, ErrNoKey
	}
	if err != nil {
		return "", SourceNone, fmt.Errorf("unable to read key file: %w", err)
	}
	key := strings.TrimSpace(string(b))
	if key == "" {
		return "", SourceNone, ErrNoKey
	}
	return key, SourceFile, nil
}

// Set validates key and writes it to the key file with mode 0600.
func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if err := Validate(key); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("unable to create key directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".api_key-*")
	if err != nil {
		return fmt.Errorf("unable to create key file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("unable to set key file mode: %w", err)
	}
	if _, err := tmp.WriteString(key + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("unable to write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to write key file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("unable to write key file: %w", err)
	}
	return nil
}

// Delete removes the key file. A missing file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("unable to delete key file: %w", err)
	}
	return nil
}

// Prompt asks for a key on out and reads it from in. Input is hidden when in
// is a terminal.
func Prompt(in *os.File, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, "Enter your ElevenLabs API key: ")

	var key string
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("unable to read key: %w", err)
		}
		key = string(b)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("unable to read key: %w", err)
		}
		key = line
	}

	key = strings.TrimSpace(key)
	if err := Validate(key); err != nil {
		return "", err
	}
	return key, nil
}

// Validator checks a key against the service.
type Validator func(key string) (bool, error)

// Resolve returns a configured key or prompts for one. A prompted key is
// checked with validate, when given, and saved.
func (s *Store) Resolve(in *os.File, out io.Writer, validate Validator) (string, Source, error) {
	key, src, err := s.Get()
	if err == nil {
		return key, src, nil
	}
	if !errors.Is(err, ErrNoKey) {
		return "", SourceNone, err
	}
	if !term.IsTerminal(int(in.Fd())) {
		return "", SourceNone, fmt.Errorf("%w: set %s or run the key command", ErrNoKey, EnvVar)
	}

	key, err = Prompt(in, out)
	if err != nil {
		return "", SourceNone, err
	}
	if err := s.check(key, validate); err != nil {
		return "", SourceNone, err
	}
	if err := s.Set(key); err != nil {
		return "", SourceNone, err
	}
	return key, SourcePrompt, nil
}

// SetValidated checks key with validate, when given, and saves it.
func (s *Store) SetValidated(key string, validate Validator) error {
	if err := Validate(key); err != nil {
		return err
	}
	if err := s.check(key, validate); err != nil {
		return err
	}
	return s.Set(key)
}

func (s *Store) check(key string, validate Validator) error {
	if validate == nil {
		return nil
	}
	ok, err := validate(key)
	if err != nil {
		return fmt.Errorf("unable to validate key: %w", err)
	}
	if !ok {
		return errors.New("invalid API key. Please check your key and try again")
	}
	return nil
}
