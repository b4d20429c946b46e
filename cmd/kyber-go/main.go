// Command kyber-go generates keys, encapsulates and decapsulates with the
// Kyber, ML-KEM and hybrid schemes of this module. Keys and ciphertexts are
// stored as envelopes that record their scheme; shared secrets are written
// as raw bytes.
//
// Usage:
//
//	kyber-go keygen -scheme ML-KEM-768 -pk alice.pk -sk alice.sk
//	kyber-go encaps -pk alice.pk -ct msg.ct -ss sender.ss
//	kyber-go decaps -sk alice.sk -ct msg.ct -ss receiver.ss
//	kyber-go info alice.pk
//
// The default scheme is taken from KYBER_SCHEME when -scheme is omitted, and
// KYBER_LOG_LEVEL selects the stderr log level (debug, info, warn, error).
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/latticekem/kyber-go/pkg/kyber"
	"github.com/latticekem/kyber-go/pkg/kyber/kem"
	"github.com/latticekem/kyber-go/pkg/kyber/logging"
)

const defaultScheme = "ML-KEM-768"

var errUsage = errors.New("usage: kyber-go <version|schemes|keygen|pub|encaps|decaps|info> [flags]")

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("kyber-go: %v", err)
	}
}

func run(args []string, stdout io.Writer, getenv func(string) string) error {
	if len(args) == 0 {
		return errUsage
	}
	logger := newLogger(getenv("KYBER_LOG_LEVEL"))
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "kyber-go %s\n", kyber.LibraryVersion())
		fmt.Fprintf(stdout, "  %s\n  %s\n", kyber.FIPS203Revision, kyber.KyberRevision)
		return nil
	case "schemes":
		return listSchemes(stdout, logger)
	case "keygen":
		return keygen(rest, stdout, getenv, logger)
	case "pub":
		return derivePub(rest, logger)
	case "encaps":
		return encaps(rest, stdout, logger)
	case "decaps":
		return decaps(rest, logger)
	case "info":
		return info(rest, stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func newLogger(level string) logging.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil || level == "" {
		lvl = slog.LevelWarn
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return logging.New(slog.New(h))
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// required reports the first flag in names that was left empty.
func required(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if f := fs.Lookup(name); f != nil && f.Value.String() == "" {
			return fmt.Errorf("%s: -%s is required", fs.Name(), name)
		}
	}
	return nil
}

func listSchemes(stdout io.Writer, logger logging.Logger) error {
	fmt.Fprintf(stdout, "%-20s %6s %6s %6s %6s\n", "SCHEME", "ID", "PK", "SK", "CT")
	for _, name := range schemeNames() {
		s, err := schemeByName(name, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%-20s %#06x %6d %6d %6d\n", s.Name(), uint16(s.ID()), s.PublicKeySize(), s.PrivateKeySize(), s.CiphertextSize())
	}
	return nil
}

// deriver is implemented by schemes that support seeded key generation.
type deriver interface {
	SeedSize() int
	DeriveKeyPair(seed []byte) (pk, sk []byte, err error)
}

func keygen(args []string, stdout io.Writer, getenv func(string) string, logger logging.Logger) error {
	fs := newFlagSet("keygen")
	var (
		name   = fs.String("scheme", "", "scheme name (default $KYBER_SCHEME or "+defaultScheme+")")
		pkPath = fs.String("pk", "", "output path for the public key envelope")
		skPath = fs.String("sk", "", "output path for the private key envelope")
		seed   = fs.String("seed", "", "hex seed for deterministic generation (testing only)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "pk", "sk"); err != nil {
		return err
	}
	if *name == "" {
		*name = getenv("KYBER_SCHEME")
	}
	if *name == "" {
		*name = defaultScheme
	}
	s, err := schemeByName(*name, logger)
	if err != nil {
		return err
	}

	var pk, sk []byte
	if *seed != "" {
		d, ok := s.(deriver)
		if !ok {
			return fmt.Errorf("keygen: %s does not support seeded generation", s.Name())
		}
		raw, err := hex.DecodeString(*seed)
		if err != nil {
			return fmt.Errorf("keygen: decode seed: %w", err)
		}
		defer kyber.ZeroizeBytes(raw)
		pk, sk, err = d.DeriveKeyPair(raw)
		if err != nil {
			return err
		}
	} else {
		pk, sk, err = s.GenerateKeyPair()
		if err != nil {
			return err
		}
	}
	defer kyber.ZeroizeBytes(sk)

	if err := sealTo(s, kem.KindPublicKey, pk, *pkPath); err != nil {
		return err
	}
	if err := sealTo(s, kem.KindPrivateKey, sk, *skPath); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "generated %s key pair (pk %d bytes, sk %d bytes)\n", s.Name(), len(pk), len(sk))
	return nil
}

func sealTo(s scheme, kind kem.Kind, data []byte, path string) error {
	raw, err := s.Seal(kind, data)
	if err != nil {
		return err
	}
	if kind == kem.KindPrivateKey {
		defer kyber.ZeroizeBytes(raw)
	}
	if err := writeFile(path, raw); err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	return nil
}

func readEnvelope(path string, kind kem.Kind, logger logging.Logger) (scheme, []byte, error) {
	raw, err := readFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", kind, err)
	}
	return openAny(raw, kind, logger)
}

func derivePub(args []string, logger logging.Logger) error {
	fs := newFlagSet("pub")
	skPath := fs.String("sk", "", "private key envelope")
	pkPath := fs.String("pk", "", "output path for the public key envelope")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "sk", "pk"); err != nil {
		return err
	}
	s, sk, err := readEnvelope(*skPath, kem.KindPrivateKey, logger)
	if err != nil {
		return err
	}
	defer kyber.ZeroizeBytes(sk)
	pk, err := s.DerivePub(sk)
	if err != nil {
		return err
	}
	return sealTo(s, kem.KindPublicKey, pk, *pkPath)
}

func encaps(args []string, stdout io.Writer, logger logging.Logger) error {
	fs := newFlagSet("encaps")
	pkPath := fs.String("pk", "", "recipient public key envelope")
	ctPath := fs.String("ct", "", "output path for the ciphertext envelope")
	ssPath := fs.String("ss", "", "output path for the raw shared secret")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "pk", "ct", "ss"); err != nil {
		return err
	}
	s, pk, err := readEnvelope(*pkPath, kem.KindPublicKey, logger)
	if err != nil {
		return err
	}
	ct, ss, err := s.Encapsulate(pk)
	if err != nil {
		return err
	}
	defer kyber.ZeroizeBytes(ss)
	if err := sealTo(s, kem.KindCiphertext, ct, *ctPath); err != nil {
		return err
	}
	if err := writeFile(*ssPath, ss); err != nil {
		return fmt.Errorf("write shared secret: %w", err)
	}
	fmt.Fprintf(stdout, "encapsulated to %s (ct %d bytes)\n", s.Name(), len(ct))
	return nil
}

func decaps(args []string, logger logging.Logger) error {
	fs := newFlagSet("decaps")
	skPath := fs.String("sk", "", "private key envelope")
	ctPath := fs.String("ct", "", "ciphertext envelope")
	ssPath := fs.String("ss", "", "output path for the raw shared secret")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "sk", "ct", "ss"); err != nil {
		return err
	}
	s, sk, err := readEnvelope(*skPath, kem.KindPrivateKey, logger)
	if err != nil {
		return err
	}
	defer kyber.ZeroizeBytes(sk)
	raw, err := readFile(*ctPath)
	if err != nil {
		return fmt.Errorf("read ciphertext: %w", err)
	}
	ct, err := s.Open(raw, kem.KindCiphertext)
	if err != nil {
		return err
	}
	ss, err := s.Decapsulate(sk, ct)
	if err != nil {
		return err
	}
	defer kyber.ZeroizeBytes(ss)
	if err := writeFile(*ssPath, ss); err != nil {
		return fmt.Errorf("write shared secret: %w", err)
	}
	return nil
}

func info(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: info takes one file", errUsage)
	}
	raw, err := readFile(args[0])
	if err != nil {
		return err
	}
	var env kem.Envelope
	if err := env.UnmarshalBinary(raw); err != nil {
		return err
	}
	defer kyber.ZeroizeBytes(env.Data)
	fmt.Fprintf(stdout, "kind:    %s\n", env.Kind)
	fmt.Fprintf(stdout, "scheme:  %s\n", env.Scheme)
	fmt.Fprintf(stdout, "payload: %d bytes\n", len(env.Data))
	if env.Kind == kem.KindPrivateKey {
		fmt.Fprintf(stdout, "data:    %s\n", logging.Placeholder())
	}
	return nil
}

