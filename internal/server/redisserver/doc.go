// Package redisserver serves the key-value store over a subset of the
// Redis RESP2 protocol, so redis-cli and ordinary Redis clients can read
// and write keys.
//
// Supported commands:
//   - PING, ECHO, QUIT, AUTH
//   - GET, SET, DEL, EXISTS, KEYS, RENAME, DBSIZE
//
// Values cross the wire as text: SET stores valid JSON as-is and anything
// else as a JSON string, and GET returns JSON strings unquoted. RENAME
// refuses to overwrite an existing key.
package redisserver
