// Package liteclient connects to TON liteservers over the ADNL TCP secure
// transport.
//
// A liteserver directory is loaded from the published global config; a
// ConnectionManager then tries its entries one at a time, rotating to the
// next server whenever a connection or handshake fails, until a session is
// established or the attempt budget runs out.
//
// # Getting Started
//
//	dir, err := directory.Fetch(ctx, nil, directory.TestnetConfigURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	options := liteclient.NewOptions()
//	options.MaxAttempts = 5
//
//	manager, err := liteclient.New(dir, options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := manager.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	rtt, err := session.Ping(ctx)
//
// [DialTestnet] does all of the above against the testnet config.
//
// # Connection States
//
// Each Connect call moves the manager through
//
//	Idle → Connecting → Handshaking → Established
//
// falling back to Connecting on failure and ending in Exhausted once
// Options.MaxAttempts attempts have failed. Exhausted surfaces an
// [ExhaustedError] carrying the last underlying error.
//
// A lost session is never re-established behind the caller's back: call
// Connect again for a fresh session.
//
// # Core Types
//
//   - [ConnectionManager]: rotation and retry around the ADNL handshake
//   - [Options]: attempt budget, timeouts, dialer, entropy and metrics
//   - [ConnectionState]: the manager's current state
//
// # Errors
//
//   - [TransportError]: the TCP connection could not be opened
//   - adnl.HandshakeError: the server rejected or never confirmed the handshake
//   - [ExhaustedError]: every attempt failed; matches [ErrRotationExhausted]
//
// Configuration errors from the directory package are returned as-is and
// never retried.
package liteclient
