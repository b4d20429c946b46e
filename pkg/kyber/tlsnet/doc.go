// Package tlsnet provides a kyber.Transport over mutually authenticated TLS
// 1.3 connections, so the session helpers can run between processes.
//
// Each party listens on its own address. Party i dials every party with a
// larger id, announces its id, and the accepting side checks that the id
// matches the certificate the dialer authenticated with. Messages are framed
// with a 4-byte big-endian length and capped at Config.MaxFrame.
//
// # Usage
//
//	tr, err := tlsnet.New(tlsnet.Config{
//		Self:        0,
//		Names:       []string{"alice", "bob"},
//		Addresses:   []string{"127.0.0.1:7000", "127.0.0.1:7001"},
//		Certificate: cert,
//		RootCAs:     pool,
//	})
//	defer tr.Close()
//	ss, err := kyber.Initiate(ctx, k, tr, 1)
//
// NewPKI issues a throwaway CA and party certificates for demos and tests.
package tlsnet
