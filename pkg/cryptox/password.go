package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Configuration for PBKDF2-SHA256 hashing.
const (
	// DefaultIterations is used when a HasherConfig leaves Iterations unset.
	DefaultIterations = 10000
	// MinIterations is the lowest round count NewHasher accepts.
	MinIterations = 10000

	keyLength  = 32 // Length of the derived key
	saltLength = 16 // Length of the salt

	// maxIterations caps the rounds honoured when verifying a stored digest
	// so a corrupted record cannot pin a CPU.
	maxIterations = 10_000_000

	digestIdent = "pbkdf2-sha256"
)

// ErrWeakIterations is returned by NewHasher for round counts below MinIterations.
var ErrWeakIterations = errors.New("cryptox: pbkdf2 iterations below minimum")

// ab64 is the "adapted base64" alphabet used by modular crypt digests:
// standard base64 with '.' in place of '+' and no padding.
var ab64 = base64.NewEncoding(
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789./",
).WithPadding(base64.NoPadding)

// HasherConfig configures a Hasher.
type HasherConfig struct {
	Iterations int    // PBKDF2 rounds (default: 10000, min: 10000)
	Pepper     string // Optional secret appended to every password before derivation
}

// Hasher hashes and verifies passwords with salted, iterated PBKDF2-HMAC-SHA256.
//
// Digests use the modular crypt layout
//
//	$pbkdf2-sha256$<rounds>$<salt>$<key>
//
// with salt and key in ab64, so digests produced by other pbkdf2_sha256
// implementations verify unchanged (when no pepper is configured).
type Hasher struct {
	iterations int
	pepper     string
}

// NewHasher validates cfg and returns a Hasher.
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.Iterations < MinIterations {
		return nil, fmt.Errorf("%w: got %d, want >= %d", ErrWeakIterations, cfg.Iterations, MinIterations)
	}
	return &Hasher{iterations: cfg.Iterations, pepper: cfg.Pepper}, nil
}

// Iterations reports the configured round count.
func (h *Hasher) Iterations() int { return h.iterations }

// Hash derives a digest for password using a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key(h.input(password), salt, h.iterations, keyLength, sha256.New)

	return fmt.Sprintf("$%s$%d$%s$%s",
		digestIdent,
		h.iterations,
		ab64.EncodeToString(salt),
		ab64.EncodeToString(key),
	), nil
}

// Verify reports whether password matches digest. The derived keys are
// compared in constant time. Malformed digests report false.
func (h *Hasher) Verify(password, digest string) bool {
	rounds, salt, want, ok := parseDigest(digest)
	if !ok {
		return false
	}

	got := pbkdf2.Key(h.input(password), salt, rounds, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NeedsRehash reports whether digest was produced with fewer rounds than the
// hasher is configured for. Malformed digests report false.
func (h *Hasher) NeedsRehash(digest string) bool {
	rounds, _, _, ok := parseDigest(digest)
	return ok && rounds < h.iterations
}

func (h *Hasher) input(password string) []byte {
	return []byte(password + h.pepper)
}

// parseDigest splits "$pbkdf2-sha256$rounds$salt$key" into its parts.
func parseDigest(digest string) (rounds int, salt, key []byte, ok bool) {
	parts := strings.Split(digest, "$")

	// ["", "pbkdf2-sha256", "rounds", "salt", "key"]
	if len(parts) != 5 || parts[0] != "" || parts[1] != digestIdent {
		return 0, nil, nil, false
	}

	rounds, err := strconv.Atoi(parts[2])
	if err != nil || rounds < 1 || rounds > maxIterations {
		return 0, nil, nil, false
	}

	salt, err = ab64.DecodeString(parts[3])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, false
	}

	key, err = ab64.DecodeString(parts[4])
	if err != nil || len(key) == 0 {
		return 0, nil, nil, false
	}

	return rounds, salt, key, true
}

// GeneratePassword returns a random 16 character alphanumeric password.
// The auth service hashes one at startup as the stand-in digest that
// unknown usernames are verified against.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 16
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
