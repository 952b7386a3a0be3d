// Package directory loads the list of liteservers a client may connect to
// and rotates through it.
//
// Liteservers are published in the TON global config document:
//
//	{
//	  "liteservers": [
//	    {"ip": 1592601963, "port": 13833,
//	     "id": {"@type": "pub.ed25519", "key": "<base64 ed25519 public key>"}}
//	  ]
//	}
//
// The ip field is a signed 32-bit integer; it is reinterpreted as the
// unsigned bit pattern and rendered as a dotted quad, most significant
// octet first. Every descriptor is validated when the document is loaded,
// so a malformed key is reported here rather than during a handshake.
//
// A [Cursor] walks the directory as an endless cycle. It never gives up on
// its own; how many servers to try is the caller's decision.
package directory
