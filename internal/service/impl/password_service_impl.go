package impl

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"handoff/internal/domain"
	"handoff/internal/dto"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2id = "argon2id"
)

type Argon2Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

// PasswordServiceImpl hashes new passwords with the configured algorithm and
// verifies hashes produced by either one. A successful Verify against an
// outdated algorithm or cost asks for a rehash.
type PasswordServiceImpl struct {
	algo       string
	bcryptCost int
	argon      Argon2Params
}

func NewPasswordServiceBcrypt(cost int) *PasswordServiceImpl {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordServiceImpl{algo: AlgoBcrypt, bcryptCost: cost, argon: DefaultArgon2Params}
}

func NewPasswordServiceArgon2id(p Argon2Params) *PasswordServiceImpl {
	return &PasswordServiceImpl{algo: AlgoArgon2id, bcryptCost: bcrypt.DefaultCost, argon: p}
}

// NewPasswordService picks the implementation by algorithm name.
func NewPasswordService(algo string, bcryptCost int) (*PasswordServiceImpl, error) {
	switch strings.ToLower(algo) {
	case "", AlgoBcrypt:
		return NewPasswordServiceBcrypt(bcryptCost), nil
	case AlgoArgon2id:
		return NewPasswordServiceArgon2id(DefaultArgon2Params), nil
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algo)
	}
}

func (p *PasswordServiceImpl) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if p.algo == AlgoArgon2id {
		return p.hashArgon2id(password)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, dto.MaxPasswordBytes)
	}
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (p *PasswordServiceImpl) Verify(password, encoded string) (rehashNeeded bool, ok bool) {
	if password == "" || encoded == "" {
		return false, false
	}
	if strings.HasPrefix(encoded, "$argon2id$") {
		stored, salt, hash, err := decodeArgon2id(encoded)
		if err != nil {
			return false, false
		}
		calc := argon2.IDKey([]byte(password), salt, stored.Time, stored.Memory, stored.Threads, uint32(len(hash)))
		if subtle.ConstantTimeCompare(calc, hash) != 1 {
			return false, false
		}
		return p.algo != AlgoArgon2id || stored != p.argon, true
	}

	if err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)); err != nil {
		return false, false
	}
	cost, err := bcrypt.Cost([]byte(encoded))
	return p.algo != AlgoBcrypt || err != nil || cost != p.bcryptCost, true
}

func (p *PasswordServiceImpl) hashArgon2id(password string) (string, error) {
	salt := make([]byte, p.argon.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.argon.Time, p.argon.Memory, p.argon.Threads, p.argon.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.argon.Memory, p.argon.Time, p.argon.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func decodeArgon2id(encoded string) (Argon2Params, []byte, []byte, error) {
	// $argon2id$v=19$m=65536,t=3,p=1$salt$hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return Argon2Params{}, nil, nil, ErrMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2Params{}, nil, nil, ErrMalformedHash
	}
	var prm Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &prm.Memory, &prm.Time, &prm.Threads); err != nil {
		return Argon2Params{}, nil, nil, ErrMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, ErrMalformedHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return Argon2Params{}, nil, nil, ErrMalformedHash
	}
	prm.SaltLen = uint32(len(salt))
	prm.KeyLen = uint32(len(hash))
	return prm, salt, hash, nil
}
