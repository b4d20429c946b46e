package kyber

var (
	Version = "v0.0.0-in-progress"
	// FIPS203Revision names the published standard the ML-KEM variant tracks.
	FIPS203Revision = "FIPS 203 (August 2024)"
	// KyberRevision names the submission the Kyber variant tracks.
	KyberRevision = "CRYSTALS-Kyber round 3 (v3.02)"
)

// LibraryVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func LibraryVersion() string {
	return Version
}
