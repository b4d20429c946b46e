// Package logging provides a minimal logging facade for the KEM library.
//
// The Logger interface wraps a subset of log/slog so applications can plug in
// their own handlers, test recorders or redaction policies.
//
// # Default Implementation
//
//	// Use default logger (slog.Default())
//	logger := logging.New(nil)
//
//	// Use custom slog.Logger
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	k, _ := kyber.New(kyber.MLKEM768, kyber.Config{
//	    Logger: logging.New(slog.New(handler)),
//	})
//
//	// Silence everything, e.g. in benchmarks
//	quiet := logging.Discard()
//
// # What Gets Logged
//
// The KEM logs construction and key generation at Debug level and argument
// validation failures at Warn level. Nothing is logged once decapsulation
// has passed argument validation: whether a ciphertext was accepted or
// implicitly rejected must not be observable, including through logs.
//
// # Redaction Support
//
//	logger.Debug(ctx, "key pair generated", logging.Redacted("seed"))
//	// Logs: seed="[redacted]"
//
// # Security Considerations
//
//   - Never log private keys, seeds, shared secrets or decrypted messages
//   - Use logging.Redacted() to mark sensitive attributes
//   - Log sizes and scheme names, not contents
package logging
